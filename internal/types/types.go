package types

import "fmt"

// Record represents a single raw party observation from a source extract.
// One row of input produces one Record; the clustering engine owns all
// normalization, so Name is carried verbatim.
type Record struct {
	Name      string `json:"party_name"`
	PartyType string `json:"party_type,omitempty"`
	Address   string `json:"party_address,omitempty"`
	CaseType  string `json:"case_type,omitempty"`
	Year      int    `json:"year,omitempty"`
	Count     int    `json:"party_count"`

	// SourceRow is the 1-based row number in the originating file, when known.
	// Zero means the record did not come from a row-oriented source.
	SourceRow int `json:"source_row,omitempty"`
}

// Cluster represents one deduplicated entity: a canonical normalized name,
// the normalized spellings that were fuzzy-merged into it, and the union of
// the member records' attributes.
//
// All list fields preserve first-seen order with duplicates collapsed.
// Members holds the original record indices in absorption order (the seed's
// records first), so a set of clusters forms a partition of the processed
// input.
type Cluster struct {
	CanonicalName string   `json:"party_name"`
	Aliases       []string `json:"aliases,omitempty"`
	PartyTypes    []string `json:"party_types,omitempty"`
	Addresses     []string `json:"addresses,omitempty"`
	CaseTypes     []string `json:"case_types,omitempty"`
	Years         []int    `json:"years,omitempty"`
	TotalCount    int      `json:"party_count"`
	Members       []int    `json:"members"`
}

// Size returns the number of original records merged into the cluster.
func (c *Cluster) Size() int {
	return len(c.Members)
}

// Validate checks if the cluster has valid field values
func (c *Cluster) Validate() error {
	if len(c.Members) == 0 {
		return fmt.Errorf("cluster %q has no members", c.CanonicalName)
	}
	if c.TotalCount < 0 {
		return fmt.Errorf("cluster %q has negative total count (%d)", c.CanonicalName, c.TotalCount)
	}
	for _, alias := range c.Aliases {
		if alias == c.CanonicalName {
			return fmt.Errorf("cluster %q lists its canonical name as an alias", c.CanonicalName)
		}
	}
	return nil
}

// WarningReason identifies the kind of per-record anomaly the engine
// tolerated. Malformed records never abort a run; they surface here.
type WarningReason string

const (
	// WarningEmptyName means a record's name normalized to the empty string.
	// The record still joins the run as part of the degenerate empty-name
	// cluster.
	WarningEmptyName WarningReason = "empty_normalized_name"

	// WarningNegativeCount means a record carried a negative count, which
	// was clamped to zero before aggregation.
	WarningNegativeCount WarningReason = "negative_count"
)

// IsValid checks if the warning reason value is valid
func (r WarningReason) IsValid() bool {
	switch r {
	case WarningEmptyName, WarningNegativeCount:
		return true
	}
	return false
}

// Warning records a non-fatal anomaly observed while processing one record.
type Warning struct {
	// RecordIndex is the position of the record in the input slice.
	RecordIndex int `json:"record_index"`

	// Name is the record's raw name, for operator context.
	Name string `json:"name,omitempty"`

	Reason WarningReason `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("record %d (%q): %s", w.RecordIndex, w.Name, w.Reason)
}
