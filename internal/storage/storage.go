// Package storage persists clustering runs so results can be listed,
// re-examined, and compared after the process exits.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/courtdata/partydedup/internal/clustering"
	"github.com/courtdata/partydedup/internal/storage/sqlite"
	"github.com/courtdata/partydedup/internal/types"
)

// Storage defines the interface for run-history backends
type Storage interface {
	// SaveRun persists a run summary and its clusters atomically.
	SaveRun(ctx context.Context, run *types.RunSummary, clusters []types.Cluster) error

	// GetRun returns the summary of one run by ID.
	GetRun(ctx context.Context, id string) (*types.RunSummary, error)

	// ListRuns returns summaries newest first. A non-positive limit
	// returns all runs.
	ListRuns(ctx context.Context, limit int) ([]*types.RunSummary, error)

	// GetClusters returns a run's clusters in emission order.
	GetClusters(ctx context.Context, runID string) ([]types.Cluster, error)

	// DeleteRun removes a run and its clusters.
	DeleteRun(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".partydedup/runs.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".partydedup/runs.db",
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = ".partydedup/runs.db"
	}
	return sqlite.New(ctx, cfg.Path)
}

// NewRunSummary builds the summary row for a finished run.
func NewRunSummary(cfg clustering.Config, inputPath string, result *clustering.Result) *types.RunSummary {
	return &types.RunSummary{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		InputPath:    inputPath,
		Algorithm:    string(cfg.Algorithm),
		Threshold:    cfg.Threshold,
		Tolerance:    cfg.Tolerance,
		Strategy:     string(cfg.Strategy),
		Stats:        result.Stats,
		WarningCount: len(result.Warnings),
	}
}
