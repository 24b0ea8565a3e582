package clustering

import (
	"fmt"

	"github.com/courtdata/partydedup/internal/types"
)

// Result represents the outcome of one clustering run
type Result struct {
	// Clusters in emission order: one per surviving canonical name.
	Clusters []types.Cluster `json:"clusters"`

	// Warnings lists the per-record anomalies tolerated during the run.
	Warnings []types.Warning `json:"warnings,omitempty"`

	// Statistics about the clustering process
	Stats types.RunStats `json:"stats"`
}

// Validate checks that the result is internally consistent: the clusters
// partition the processed records, every cluster is well formed, and the
// stats match the data they summarize.
func (r *Result) Validate() error {
	seen := make(map[int]bool)
	memberTotal := 0
	for ci := range r.Clusters {
		c := &r.Clusters[ci]
		if err := c.Validate(); err != nil {
			return fmt.Errorf("cluster %d: %w", ci, err)
		}
		for _, m := range c.Members {
			if m < 0 || m >= r.Stats.ProcessedRecords {
				return fmt.Errorf("cluster %d references record %d outside processed range [0, %d)",
					ci, m, r.Stats.ProcessedRecords)
			}
			if seen[m] {
				return fmt.Errorf("record %d appears in more than one cluster", m)
			}
			seen[m] = true
			memberTotal++
		}
	}
	if memberTotal != r.Stats.ProcessedRecords {
		return fmt.Errorf("clusters cover %d records, want %d", memberTotal, r.Stats.ProcessedRecords)
	}

	if r.Stats.ClusterCount != len(r.Clusters) {
		return fmt.Errorf("stats.cluster_count (%d) does not match clusters length (%d)",
			r.Stats.ClusterCount, len(r.Clusters))
	}
	if r.Stats.ProcessedRecords > r.Stats.TotalRecords {
		return fmt.Errorf("stats.processed_records (%d) exceeds total_records (%d)",
			r.Stats.ProcessedRecords, r.Stats.TotalRecords)
	}
	if got, want := r.Stats.ExactDuplicates, r.Stats.ProcessedRecords-r.Stats.DistinctNames; got != want {
		return fmt.Errorf("stats.exact_duplicates (%d) does not match processed - distinct (%d)", got, want)
	}
	if got, want := r.Stats.FuzzyMatches, r.Stats.DistinctNames-r.Stats.ClusterCount; got != want {
		return fmt.Errorf("stats.fuzzy_matches (%d) does not match distinct - clusters (%d)", got, want)
	}

	degenerate := 0
	for _, w := range r.Warnings {
		if !w.Reason.IsValid() {
			return fmt.Errorf("warning for record %d has unknown reason %q", w.RecordIndex, w.Reason)
		}
		if w.RecordIndex < 0 || w.RecordIndex >= r.Stats.ProcessedRecords {
			return fmt.Errorf("warning references record %d outside processed range [0, %d)",
				w.RecordIndex, r.Stats.ProcessedRecords)
		}
		if w.Reason == types.WarningEmptyName {
			degenerate++
		}
	}
	if degenerate != r.Stats.DegenerateNames {
		return fmt.Errorf("stats.degenerate_names (%d) does not match empty-name warnings (%d)",
			r.Stats.DegenerateNames, degenerate)
	}
	return nil
}
