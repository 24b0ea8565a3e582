// Package sqlite stores run history in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/courtdata/partydedup/internal/types"
)

// Store implements the storage interface using SQLite
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the run-history database at path.
// The special path ":memory:" opens an in-memory database.
func New(ctx context.Context, path string) (*Store, error) {
	memory := strings.Contains(path, ":memory:")
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// A pooled second connection would see a different empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a run summary and its clusters in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *types.RunSummary, clusters []types.Cluster) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run summary: %w", err)
	}

	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode run stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, input_path, algorithm, threshold, tolerance,
			strategy, stats, warning_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.InputPath,
		run.Algorithm,
		run.Threshold,
		run.Tolerance,
		run.Strategy,
		string(stats),
		run.WarningCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for pos, c := range clusters {
		aliases, err := marshalList(c.Aliases)
		if err != nil {
			return err
		}
		partyTypes, err := marshalList(c.PartyTypes)
		if err != nil {
			return err
		}
		addresses, err := marshalList(c.Addresses)
		if err != nil {
			return err
		}
		caseTypes, err := marshalList(c.CaseTypes)
		if err != nil {
			return err
		}
		years, err := marshalList(c.Years)
		if err != nil {
			return err
		}
		members, err := marshalList(c.Members)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO clusters (
				run_id, position, canonical_name, aliases, party_types,
				addresses, case_types, years, total_count, members
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, pos, c.CanonicalName, aliases, partyTypes,
			addresses, caseTypes, years, c.TotalCount, members,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cluster %d of run %s: %w", pos, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns the summary of one run
func (s *Store) GetRun(ctx context.Context, id string) (*types.RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, input_path, algorithm, threshold, tolerance,
		       strategy, stats, warning_count
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns run summaries newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*types.RunSummary, error) {
	query := `
		SELECT id, created_at, input_path, algorithm, threshold, tolerance,
		       strategy, stats, warning_count
		FROM runs
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// GetClusters returns a run's clusters in emission order
func (s *Store) GetClusters(ctx context.Context, runID string) ([]types.Cluster, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up run %s: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_name, aliases, party_types, addresses, case_types,
		       years, total_count, members
		FROM clusters
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters of run %s: %w", runID, err)
	}
	defer rows.Close()

	var clusters []types.Cluster
	for rows.Next() {
		var c types.Cluster
		var aliases, partyTypes, addresses, caseTypes, years, members string
		err := rows.Scan(&c.CanonicalName, &aliases, &partyTypes, &addresses,
			&caseTypes, &years, &c.TotalCount, &members)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		if err := unmarshalStrings(aliases, &c.Aliases); err != nil {
			return nil, fmt.Errorf("failed to decode aliases: %w", err)
		}
		if err := unmarshalStrings(partyTypes, &c.PartyTypes); err != nil {
			return nil, fmt.Errorf("failed to decode party types: %w", err)
		}
		if err := unmarshalStrings(addresses, &c.Addresses); err != nil {
			return nil, fmt.Errorf("failed to decode addresses: %w", err)
		}
		if err := unmarshalStrings(caseTypes, &c.CaseTypes); err != nil {
			return nil, fmt.Errorf("failed to decode case types: %w", err)
		}
		if err := unmarshalInts(years, &c.Years); err != nil {
			return nil, fmt.Errorf("failed to decode years: %w", err)
		}
		if err := unmarshalInts(members, &c.Members); err != nil {
			return nil, fmt.Errorf("failed to decode members: %w", err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clusters: %w", err)
	}
	return clusters, nil
}

// DeleteRun removes a run; its clusters go with it via ON DELETE CASCADE.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*types.RunSummary, error) {
	run := &types.RunSummary{}
	var createdAt, stats string
	err := row.Scan(&run.ID, &createdAt, &run.InputPath, &run.Algorithm,
		&run.Threshold, &run.Tolerance, &run.Strategy, &stats, &run.WarningCount)
	if err != nil {
		return nil, err
	}

	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
		return nil, fmt.Errorf("bad stats column: %w", err)
	}
	return run, nil
}

// marshalList encodes a slice column, mapping nil to the empty JSON array.
func marshalList(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode list column: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func unmarshalStrings(s string, dest *[]string) error {
	if s == "" || s == "null" || s == "[]" {
		*dest = nil
		return nil
	}
	return json.Unmarshal([]byte(s), dest)
}

func unmarshalInts(s string, dest *[]int) error {
	if s == "" || s == "null" || s == "[]" {
		*dest = nil
		return nil
	}
	return json.Unmarshal([]byte(s), dest)
}
