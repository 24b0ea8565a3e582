package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/courtdata/partydedup/internal/types"
)

// clusterHeader is the column layout WriteClusters emits.
var clusterHeader = []string{
	"party_name", "aliases", "party_types", "addresses",
	"case_types", "years", "party_count", "members",
}

// listSeparator joins multi-value cells. Semicolon keeps the cells safe
// inside comma-delimited output.
const listSeparator = "; "

// WriteClusters writes clusters to a CSV file at path, one row per
// cluster in emission order. Multi-value columns are joined with "; ".
func WriteClusters(path string, clusters []types.Cluster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating clusters file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(clusterHeader); err != nil {
		f.Close()
		return fmt.Errorf("writing header: %w", err)
	}

	for _, c := range clusters {
		row := []string{
			c.CanonicalName,
			strings.Join(c.Aliases, listSeparator),
			strings.Join(c.PartyTypes, listSeparator),
			strings.Join(c.Addresses, listSeparator),
			strings.Join(c.CaseTypes, listSeparator),
			joinInts(c.Years),
			strconv.Itoa(c.TotalCount),
			joinInts(c.Members),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("writing cluster %q: %w", c.CanonicalName, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing clusters file: %w", err)
	}
	return f.Close()
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, listSeparator)
}
