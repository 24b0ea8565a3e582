// Package csvio reads party records from CSV files and writes cluster
// results back out. The reader is deliberately forgiving: court exports
// disagree on column names, quoting, and encodings, so rows are coerced
// where possible and counted in a ReadReport rather than failing the run.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/courtdata/partydedup/internal/types"
)

// ReadOptions configures ReadRecords.
type ReadOptions struct {
	// Delimiter is the field separator. Zero means comma.
	Delimiter rune

	// Encoding names the source encoding (an htmlindex name such as
	// "windows-1252"). Empty means UTF-8.
	Encoding string

	// MaxRecords caps how many records are produced. Zero means all.
	MaxRecords int

	// HasHeader marks the first row as a header. Without a header the
	// columns are taken positionally as party_name, party_type,
	// party_address, case_type, year, party_count.
	HasHeader bool

	// Logger receives per-file warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultReadOptions returns the options matching a plain UTF-8 export
// with a header row.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{Delimiter: ',', HasHeader: true}
}

// ReadReport tallies what the reader tolerated instead of loading cleanly.
type ReadReport struct {
	// RowsRead is the number of data rows consumed from the file.
	RowsRead int

	// Produced is the number of records returned.
	Produced int

	// SkippedBlank counts rows dropped for a blank party name.
	SkippedBlank int

	// BadYears counts year cells that did not parse; the year is left zero.
	BadYears int

	// BadCounts counts count cells that did not parse; the count falls
	// back to one.
	BadCounts int

	// NegativeCounts counts negative count cells clamped to zero.
	NegativeCounts int

	// Truncated reports that MaxRecords stopped the read early.
	Truncated bool
}

// columns holds the resolved index of each known column, -1 when absent.
type columns struct {
	name     int
	partyTyp int
	address  int
	caseTyp  int
	year     int
	count    int
}

// columnAliases maps accepted header spellings to their column slot.
// Matching is case-insensitive on the trimmed header cell.
var columnAliases = map[string]func(*columns, int){
	"party_name":    func(c *columns, i int) { c.name = i },
	"name":          func(c *columns, i int) { c.name = i },
	"party_type":    func(c *columns, i int) { c.partyTyp = i },
	"type":          func(c *columns, i int) { c.partyTyp = i },
	"party_address": func(c *columns, i int) { c.address = i },
	"address":       func(c *columns, i int) { c.address = i },
	"case_type":     func(c *columns, i int) { c.caseTyp = i },
	"year":          func(c *columns, i int) { c.year = i },
	"party_count":   func(c *columns, i int) { c.count = i },
	"count":         func(c *columns, i int) { c.count = i },
}

func positionalColumns() columns {
	return columns{name: 0, partyTyp: 1, address: 2, caseTyp: 3, year: 4, count: 5}
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{name: -1, partyTyp: -1, address: -1, caseTyp: -1, year: -1, count: -1}
	for i, h := range header {
		if assign, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			assign(&cols, i)
		}
	}
	if cols.name == -1 {
		return cols, fmt.Errorf("no party name column in header %v (accepted: party_name, name)", header)
	}
	return cols, nil
}

// cell returns the trimmed value at idx, or "" when the column is absent
// or the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ReadRecords loads party records from the CSV file at path.
//
// Rows with a blank name are skipped; unparseable year and count cells are
// coerced (zero year, count of one) and tallied in the report. The only
// errors returned are unreadable files, unsupported encodings, a missing
// name column, and structurally broken CSV.
func ReadRecords(path string, opts ReadOptions) ([]types.Record, *ReadReport, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if enc := opts.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	fileRow := 0
	cols := positionalColumns()
	if opts.HasHeader {
		header, err := r.Read()
		if err != nil {
			return nil, nil, fmt.Errorf("reading header of %s: %w", path, err)
		}
		fileRow++
		cols, err = resolveColumns(header)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	var records []types.Record
	report := &ReadReport{}

	for {
		if opts.MaxRecords > 0 && len(records) >= opts.MaxRecords {
			report.Truncated = true
			log.Warn("record cap reached, rest of file ignored",
				"path", path, "max_records", opts.MaxRecords)
			break
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s row %d: %w", path, fileRow+1, err)
		}
		fileRow++
		report.RowsRead++

		name := cell(row, cols.name)
		if name == "" {
			report.SkippedBlank++
			continue
		}

		rec := types.Record{
			Name:      name,
			PartyType: cell(row, cols.partyTyp),
			Address:   cell(row, cols.address),
			CaseType:  cell(row, cols.caseTyp),
			Count:     1,
			SourceRow: fileRow,
		}

		if raw := cell(row, cols.year); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil {
				report.BadYears++
			} else {
				rec.Year = year
			}
		}
		if raw := cell(row, cols.count); raw != "" {
			count, err := strconv.Atoi(raw)
			switch {
			case err != nil:
				report.BadCounts++
			case count < 0:
				report.NegativeCounts++
				rec.Count = 0
			default:
				rec.Count = count
			}
		}

		records = append(records, rec)
	}

	report.Produced = len(records)
	if report.SkippedBlank > 0 || report.BadYears > 0 || report.BadCounts > 0 || report.NegativeCounts > 0 {
		log.Warn("tolerated malformed rows",
			"path", path,
			"skipped_blank", report.SkippedBlank,
			"bad_years", report.BadYears,
			"bad_counts", report.BadCounts,
			"negative_counts", report.NegativeCounts)
	}
	return records, report, nil
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
