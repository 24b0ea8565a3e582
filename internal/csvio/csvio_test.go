package csvio

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtdata/partydedup/internal/types"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func quietOptions() ReadOptions {
	opts := DefaultReadOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func TestReadRecords_HeaderAliases(t *testing.T) {
	path := writeFile(t, "parties.csv",
		"name,type,address,case_type,year,count\n"+
			"ABC Properties LLC,plaintiff,1 Main St,CJ,2019,4\n"+
			"Smith Rental Co,defendant,2 Oak Ave,SC,2020,2\n")

	records, report, err := ReadRecords(path, quietOptions())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, types.Record{
		Name:      "ABC Properties LLC",
		PartyType: "plaintiff",
		Address:   "1 Main St",
		CaseType:  "CJ",
		Year:      2019,
		Count:     4,
		SourceRow: 2,
	}, records[0])
	assert.Equal(t, "Smith Rental Co", records[1].Name)
	assert.Equal(t, 3, records[1].SourceRow)

	assert.Equal(t, 2, report.RowsRead)
	assert.Equal(t, 2, report.Produced)
	assert.False(t, report.Truncated)
}

func TestReadRecords_MissingOptionalColumns(t *testing.T) {
	// Only the name column is required; count defaults to one.
	path := writeFile(t, "names.csv", "party_name\nAcme Co\nXYZ Bank\n")

	records, report, err := ReadRecords(path, quietOptions())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Acme Co", records[0].Name)
	assert.Equal(t, 1, records[0].Count)
	assert.Zero(t, records[0].Year)
	assert.Empty(t, records[0].PartyType)
	assert.Equal(t, 2, report.Produced)
}

func TestReadRecords_MissingNameColumn(t *testing.T) {
	path := writeFile(t, "bad.csv", "party_type,year\nplaintiff,2020\n")

	_, _, err := ReadRecords(path, quietOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no party name column")
}

func TestReadRecords_ToleratesMalformedRows(t *testing.T) {
	path := writeFile(t, "messy.csv",
		"party_name,year,party_count\n"+
			"  ,2019,1\n"+ // blank name
			"Acme Co,twenty,many\n"+ // bad year, bad count
			"Beta LLC,2020,-3\n"+ // negative count
			"Gamma Inc,2021\n") // short row

	records, report, err := ReadRecords(path, quietOptions())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "Acme Co", records[0].Name)
	assert.Zero(t, records[0].Year)
	assert.Equal(t, 1, records[0].Count)
	assert.Equal(t, 0, records[1].Count)
	assert.Equal(t, 1, records[2].Count)

	assert.Equal(t, 4, report.RowsRead)
	assert.Equal(t, 1, report.SkippedBlank)
	assert.Equal(t, 1, report.BadYears)
	assert.Equal(t, 1, report.BadCounts)
	assert.Equal(t, 1, report.NegativeCounts)
}

func TestReadRecords_MaxRecords(t *testing.T) {
	path := writeFile(t, "big.csv",
		"party_name\nfirst\nsecond\nthird\nfourth\n")

	opts := quietOptions()
	opts.MaxRecords = 2
	records, report, err := ReadRecords(path, opts)
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.True(t, report.Truncated)
	assert.Equal(t, "second", records[1].Name)
}

func TestReadRecords_NoHeader(t *testing.T) {
	path := writeFile(t, "positional.csv",
		"Acme Co,plaintiff,1 Main St,CJ,2019,2\n")

	opts := quietOptions()
	opts.HasHeader = false
	records, _, err := ReadRecords(path, opts)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Acme Co", records[0].Name)
	assert.Equal(t, "plaintiff", records[0].PartyType)
	assert.Equal(t, 2019, records[0].Year)
	assert.Equal(t, 2, records[0].Count)
	assert.Equal(t, 1, records[0].SourceRow)
}

func TestReadRecords_DelimiterAndEncoding(t *testing.T) {
	// "Café" in windows-1252: é is byte 0xE9.
	raw := append([]byte("party_name;year\nCaf"), 0xE9)
	raw = append(raw, []byte(" Corp;2020\n")...)
	path := filepath.Join(t.TempDir(), "latin.csv")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	opts := quietOptions()
	opts.Delimiter = ';'
	opts.Encoding = "windows-1252"
	records, _, err := ReadRecords(path, opts)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Café Corp", records[0].Name)
	assert.Equal(t, 2020, records[0].Year)
}

func TestReadRecords_UnsupportedEncoding(t *testing.T) {
	path := writeFile(t, "enc.csv", "party_name\nAcme\n")

	opts := quietOptions()
	opts.Encoding = "klingon-8"
	_, _, err := ReadRecords(path, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestReadRecords_MissingFile(t *testing.T) {
	_, _, err := ReadRecords(filepath.Join(t.TempDir(), "absent.csv"), quietOptions())
	require.Error(t, err)
}

func TestWriteClusters_RoundTrip(t *testing.T) {
	clusters := []types.Cluster{
		{
			CanonicalName: "abc prop",
			Aliases:       []string{"abc props"},
			PartyTypes:    []string{"plaintiff", "defendant"},
			Addresses:     []string{"1 Main St"},
			CaseTypes:     []string{"CJ", "SC"},
			Years:         []int{2019, 2020},
			TotalCount:    8,
			Members:       []int{0, 1, 2},
		},
		{
			CanonicalName: "xyz bank",
			TotalCount:    1,
			Members:       []int{3},
		},
	}

	path := filepath.Join(t.TempDir(), "clusters.csv")
	require.NoError(t, WriteClusters(path, clusters))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "party_name,aliases,party_types,addresses,case_types,years,party_count,members\n" +
		"abc prop,abc props,plaintiff; defendant,1 Main St,CJ; SC,2019; 2020,8,0; 1; 2\n" +
		"xyz bank,,,,,,1,3\n"
	assert.Equal(t, want, string(data))
}

func TestWriteClusters_BadPath(t *testing.T) {
	err := WriteClusters(filepath.Join(t.TempDir(), "missing", "clusters.csv"), nil)
	require.Error(t, err)
}
