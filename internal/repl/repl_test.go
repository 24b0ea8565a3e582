package repl

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/courtdata/partydedup/internal/clustering"
	"github.com/courtdata/partydedup/internal/similarity"
	"github.com/courtdata/partydedup/internal/types"
)

func newTestREPL(t *testing.T, records []types.Record) (*REPL, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := clustering.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := New(&Config{Records: records, Cluster: cfg, Out: out})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return r, out
}

func testRecords() []types.Record {
	return []types.Record{
		{Name: "Smith Rental Co", Count: 2},
		{Name: "Smyth Rental Co", Count: 1},
		{Name: "XYZ Bank", Count: 1},
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := clustering.DefaultConfig()
	cfg.Threshold = 2.0
	if _, err := New(&Config{Cluster: cfg, Out: io.Discard}); err == nil {
		t.Fatal("expected error for invalid threshold")
	}
}

func TestProcessInputUnknownCommand(t *testing.T) {
	r, _ := newTestREPL(t, nil)
	if err := r.processInput("frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestCmdNorm(t *testing.T) {
	r, out := newTestREPL(t, nil)
	if err := r.processInput("norm Smith & Sons, LLC"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"smith sons llc"`) {
		t.Errorf("norm output = %q", out.String())
	}

	if err := r.processInput("norm"); err == nil {
		t.Error("expected usage error for bare norm")
	}
}

func TestCmdKey(t *testing.T) {
	r, out := newTestREPL(t, nil)
	if err := r.processInput("key ab"); err != nil {
		t.Fatal(err)
	}
	// a=1, b=2, scale 33 * 2 runes.
	if !strings.Contains(out.String(), "key 69") {
		t.Errorf("key output = %q", out.String())
	}
	if !strings.Contains(out.String(), "window [") {
		t.Errorf("key output missing window: %q", out.String())
	}
}

func TestCmdSim(t *testing.T) {
	r, out := newTestREPL(t, nil)
	if err := r.processInput("sim Smith Rental Co | Smyth Rental Co"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "0.9333") {
		t.Errorf("sim output = %q, want ratcliff score 0.9333", got)
	}
	if !strings.Contains(got, "would merge") {
		t.Errorf("sim output missing verdict: %q", got)
	}

	if err := r.processInput("sim no separator here"); err == nil {
		t.Error("expected usage error without |")
	}
}

func TestCmdMatch(t *testing.T) {
	r, out := newTestREPL(t, testRecords())

	if err := r.processInput("match Smith Rental"); err != nil {
		t.Fatal(err)
	}
	first, _, _ := strings.Cut(out.String(), "\n")
	if !strings.Contains(first, "smith rental co") {
		t.Errorf("best match line = %q, want smith rental co", first)
	}

	out.Reset()
	if err := r.processInput("match Smyth Rental Co"); err != nil {
		t.Fatal(err)
	}
	first, _, _ = strings.Cut(out.String(), "\n")
	if !strings.Contains(first, "1.0000") || !strings.Contains(first, "via alias") {
		t.Errorf("alias match line = %q, want exact alias hit", first)
	}

	if err := r.processInput("match !!!"); err == nil {
		t.Error("expected error for name that normalizes away")
	}
}

func TestCmdClusters(t *testing.T) {
	r, out := newTestREPL(t, testRecords())

	if err := r.processInput("clusters"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "smith rental co") || !strings.Contains(got, "xyz bank") {
		t.Errorf("clusters output = %q", got)
	}
	if !strings.Contains(got, "aliases: smyth rental co") {
		t.Errorf("clusters output missing aliases: %q", got)
	}

	out.Reset()
	if err := r.processInput("clusters 1"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "... and 1 more") {
		t.Errorf("truncated clusters output = %q", out.String())
	}

	if err := r.processInput("clusters zero"); err == nil {
		t.Error("expected usage error for bad count")
	}
}

func TestCmdStats(t *testing.T) {
	r, out := newTestREPL(t, testRecords())
	if err := r.processInput("stats"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"records:", "distinct names:", "clusters:", "comparisons:"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats output missing %q: %q", want, got)
		}
	}
}

func TestCmdThresholdReclusters(t *testing.T) {
	r, out := newTestREPL(t, testRecords())
	if got := len(r.result.Clusters); got != 2 {
		t.Fatalf("initial clusters = %d, want 2", got)
	}

	// 0.95 sits above the smith/smyth score, so the pair splits.
	if err := r.processInput("threshold 0.95"); err != nil {
		t.Fatal(err)
	}
	if got := len(r.result.Clusters); got != 3 {
		t.Errorf("clusters after raise = %d, want 3", got)
	}
	if !strings.Contains(out.String(), "re-clustered: 3 clusters (was 2)") {
		t.Errorf("threshold output = %q", out.String())
	}

	// An invalid value must leave the working configuration untouched.
	if err := r.processInput("threshold 1.5"); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
	if r.cfg.Threshold != 0.95 {
		t.Errorf("threshold after failed update = %v, want 0.95", r.cfg.Threshold)
	}
	if got := len(r.result.Clusters); got != 3 {
		t.Errorf("clusters after failed update = %d, want 3", got)
	}
}

func TestCmdAlgorithmAndStrategy(t *testing.T) {
	r, _ := newTestREPL(t, testRecords())

	if err := r.processInput("algorithm levenshtein"); err != nil {
		t.Fatal(err)
	}
	if r.cfg.Algorithm != similarity.AlgorithmLevenshteinRatio {
		t.Errorf("algorithm = %q", r.cfg.Algorithm)
	}

	if err := r.processInput("strategy components"); err != nil {
		t.Fatal(err)
	}
	if r.cfg.Strategy != clustering.StrategyComponents {
		t.Errorf("strategy = %q", r.cfg.Strategy)
	}

	if err := r.processInput("algorithm soundex"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestCmdTolerance(t *testing.T) {
	r, _ := newTestREPL(t, testRecords())
	if err := r.processInput("tolerance 0.3"); err != nil {
		t.Fatal(err)
	}
	if r.cfg.Tolerance != 0.3 {
		t.Errorf("tolerance = %v, want 0.3", r.cfg.Tolerance)
	}

	if err := r.processInput("tolerance -1"); err == nil {
		t.Error("expected error for negative tolerance")
	}
}

func TestCmdExit(t *testing.T) {
	r, _ := newTestREPL(t, nil)
	if err := r.processInput("exit"); err != io.EOF {
		t.Errorf("exit returned %v, want io.EOF", err)
	}
}
