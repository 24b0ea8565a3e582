package types

import (
	"fmt"
	"time"
)

// RunStats provides metrics about one clustering run
type RunStats struct {
	// TotalRecords is the number of records offered to the builder.
	TotalRecords int `json:"total_records"`

	// ProcessedRecords is the number actually processed after the
	// MaxRecords cap.
	ProcessedRecords int `json:"processed_records"`

	// ExactDuplicates is the number of records collapsed into an earlier
	// record with the identical normalized name.
	ExactDuplicates int `json:"exact_duplicates"`

	// DistinctNames is the number of distinct normalized names after
	// exact collapse.
	DistinctNames int `json:"distinct_names"`

	// Comparisons is the number of similarity scores computed.
	Comparisons int `json:"comparisons"`

	// FuzzyMatches is the number of distinct names absorbed into another
	// name's cluster.
	FuzzyMatches int `json:"fuzzy_matches"`

	// ClusterCount is the number of clusters emitted.
	ClusterCount int `json:"cluster_count"`

	// DegenerateNames is the number of records whose name normalized to
	// the empty string.
	DegenerateNames int `json:"degenerate_names"`

	// ProcessingTimeMs is the wall-clock build time in milliseconds.
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// RunSummary identifies one persisted clustering run and the settings
// that produced it.
type RunSummary struct {
	// ID is the run's UUID.
	ID string `json:"id"`

	// CreatedAt is when the run finished, UTC.
	CreatedAt time.Time `json:"created_at"`

	// InputPath is the records file the run was built from, if any.
	InputPath string `json:"input_path,omitempty"`

	// Algorithm, Threshold, Tolerance, and Strategy echo the
	// configuration so a listed run can be reproduced.
	Algorithm string  `json:"algorithm"`
	Threshold float64 `json:"threshold"`
	Tolerance float64 `json:"tolerance"`
	Strategy  string  `json:"strategy"`

	// Stats is the run's result metrics.
	Stats RunStats `json:"stats"`

	// WarningCount is how many per-record warnings the run produced.
	WarningCount int `json:"warning_count"`
}

// Validate checks that the summary is storable.
func (r *RunSummary) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run summary has no ID")
	}
	if r.Algorithm == "" {
		return fmt.Errorf("run summary has no algorithm")
	}
	if r.Threshold < 0 || r.Threshold > 1 {
		return fmt.Errorf("run threshold %v out of range", r.Threshold)
	}
	if r.WarningCount < 0 {
		return fmt.Errorf("run warning count %d is negative", r.WarningCount)
	}
	return nil
}
