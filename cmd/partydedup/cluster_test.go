package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/courtdata/partydedup/internal/clustering"
	"github.com/courtdata/partydedup/internal/csvio"
	"github.com/courtdata/partydedup/internal/similarity"
)

// newPipelineCommand builds a throwaway command carrying the same flag
// sets the real commands register.
func newPipelineCommand() *cobra.Command {
	cmd := &cobra.Command{}
	addPipelineFlags(cmd)
	addReadFlags(cmd)
	return cmd
}

func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("Failed to set --%s=%s: %v", name, value, err)
	}
}

// clearPartydedupEnv blanks every PARTYDEDUP_* variable so ambient
// configuration cannot leak into a test.
func clearPartydedupEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PARTYDEDUP_ALGORITHM", "PARTYDEDUP_THRESHOLD", "PARTYDEDUP_TOLERANCE",
		"PARTYDEDUP_KEY_SCALE", "PARTYDEDUP_STRATEGY", "PARTYDEDUP_MAX_RECORDS",
		"PARTYDEDUP_WORKERS", "PARTYDEDUP_REMOVE_NUMBERS", "PARTYDEDUP_FOLD_DIACRITICS",
	} {
		t.Setenv(key, "")
	}
}

func TestPipelineConfigDefaults(t *testing.T) {
	clearPartydedupEnv(t)
	cmd := newPipelineCommand()

	cfg, err := pipelineConfigFromFlags(cmd)
	if err != nil {
		t.Fatalf("pipelineConfigFromFlags failed: %v", err)
	}

	if cfg.Algorithm != similarity.AlgorithmRatcliffObershelp {
		t.Errorf("Expected default algorithm, got %s", cfg.Algorithm)
	}
	if cfg.Threshold != 0.8 {
		t.Errorf("Expected threshold 0.8, got %v", cfg.Threshold)
	}
	if cfg.Strategy != clustering.StrategyGreedy {
		t.Errorf("Expected greedy strategy, got %s", cfg.Strategy)
	}
	if !cfg.Normalization.RemoveNumbers {
		t.Errorf("Expected digits removed by default")
	}
	if len(cfg.Normalization.Stopwords) == 0 {
		t.Errorf("Expected the legal stopword list to be applied")
	}
	if len(cfg.Normalization.Abbreviations) == 0 {
		t.Errorf("Expected the legal abbreviation list to be applied")
	}
	if cfg.Logger == nil {
		t.Errorf("Expected a logger to be set")
	}
}

func TestPipelineConfigNoLegalTerms(t *testing.T) {
	clearPartydedupEnv(t)
	cmd := newPipelineCommand()
	setFlag(t, cmd, "no-legal-terms", "true")

	cfg, err := pipelineConfigFromFlags(cmd)
	if err != nil {
		t.Fatalf("pipelineConfigFromFlags failed: %v", err)
	}

	if len(cfg.Normalization.Stopwords) != 0 {
		t.Errorf("Expected no stopwords, got %v", cfg.Normalization.Stopwords)
	}
	if len(cfg.Normalization.Abbreviations) != 0 {
		t.Errorf("Expected no abbreviations, got %d entries", len(cfg.Normalization.Abbreviations))
	}
}

func TestPipelineConfigLayering(t *testing.T) {
	clearPartydedupEnv(t)
	t.Setenv("PARTYDEDUP_THRESHOLD", "0.6")
	t.Setenv("PARTYDEDUP_STRATEGY", "components")

	rules := filepath.Join(t.TempDir(), "rules.yaml")
	content := "threshold: 0.7\nstopwords:\n  - bank\n"
	if err := os.WriteFile(rules, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}

	cmd := newPipelineCommand()
	setFlag(t, cmd, "rules", rules)
	setFlag(t, cmd, "threshold", "0.92")
	setFlag(t, cmd, "keep-numbers", "true")

	cfg, err := pipelineConfigFromFlags(cmd)
	if err != nil {
		t.Fatalf("pipelineConfigFromFlags failed: %v", err)
	}

	// Flag beats rules file beats environment.
	if cfg.Threshold != 0.92 {
		t.Errorf("Expected threshold 0.92, got %v", cfg.Threshold)
	}
	// Environment survives where the file and flags are silent.
	if cfg.Strategy != clustering.StrategyComponents {
		t.Errorf("Expected components strategy from env, got %s", cfg.Strategy)
	}
	// The rules file replaces the legal stopword list wholesale.
	if len(cfg.Normalization.Stopwords) != 1 || cfg.Normalization.Stopwords[0] != "bank" {
		t.Errorf("Expected stopwords [bank], got %v", cfg.Normalization.Stopwords)
	}
	if cfg.Normalization.RemoveNumbers {
		t.Errorf("Expected --keep-numbers to keep digits")
	}
}

func TestPipelineConfigRejectsInvalid(t *testing.T) {
	clearPartydedupEnv(t)

	cmd := newPipelineCommand()
	setFlag(t, cmd, "threshold", "1.5")
	if _, err := pipelineConfigFromFlags(cmd); err == nil {
		t.Errorf("Expected error for threshold 1.5")
	}

	cmd = newPipelineCommand()
	setFlag(t, cmd, "algorithm", "metaphone")
	if _, err := pipelineConfigFromFlags(cmd); err == nil {
		t.Errorf("Expected error for unknown algorithm")
	}
}

func TestReadOptionsFromFlags(t *testing.T) {
	cmd := newPipelineCommand()
	opts, err := readOptionsFromFlags(cmd)
	if err != nil {
		t.Fatalf("readOptionsFromFlags failed: %v", err)
	}
	if opts.Delimiter != ',' {
		t.Errorf("Expected comma delimiter, got %q", opts.Delimiter)
	}
	if !opts.HasHeader {
		t.Errorf("Expected header by default")
	}

	cmd = newPipelineCommand()
	setFlag(t, cmd, "delimiter", ";")
	setFlag(t, cmd, "no-header", "true")
	opts, err = readOptionsFromFlags(cmd)
	if err != nil {
		t.Fatalf("readOptionsFromFlags failed: %v", err)
	}
	if opts.Delimiter != ';' {
		t.Errorf("Expected semicolon delimiter, got %q", opts.Delimiter)
	}
	if opts.HasHeader {
		t.Errorf("Expected --no-header to disable the header")
	}

	cmd = newPipelineCommand()
	setFlag(t, cmd, "delimiter", `\t`)
	opts, err = readOptionsFromFlags(cmd)
	if err != nil {
		t.Fatalf("readOptionsFromFlags failed: %v", err)
	}
	if opts.Delimiter != '\t' {
		t.Errorf("Expected tab delimiter, got %q", opts.Delimiter)
	}

	cmd = newPipelineCommand()
	setFlag(t, cmd, "delimiter", "ab")
	if _, err := readOptionsFromFlags(cmd); err == nil {
		t.Errorf("Expected error for multi-character delimiter")
	}
}

func TestClusterPipelineEndToEnd(t *testing.T) {
	clearPartydedupEnv(t)

	input := filepath.Join(t.TempDir(), "parties.csv")
	data := "party_name,party_type,party_count\n" +
		"Smith Rental Co LLC,plaintiff,2\n" +
		"Smith Rental Co,plaintiff,1\n" +
		"XYZ Bank,defendant,1\n"
	if err := os.WriteFile(input, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}

	cmd := newPipelineCommand()
	cfg, err := pipelineConfigFromFlags(cmd)
	if err != nil {
		t.Fatalf("pipelineConfigFromFlags failed: %v", err)
	}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	readOpts, err := readOptionsFromFlags(cmd)
	if err != nil {
		t.Fatalf("readOptionsFromFlags failed: %v", err)
	}
	readOpts.Logger = cfg.Logger

	records, report, err := csvio.ReadRecords(input, readOpts)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if report.RowsRead != 3 {
		t.Errorf("Expected 3 rows read, got %d", report.RowsRead)
	}

	result, err := clustering.BuildClusters(context.Background(), records, cfg)
	if err != nil {
		t.Fatalf("BuildClusters failed: %v", err)
	}

	// The legal lists drop "llc" and shorten "rental" and "bank", so the
	// two Smith spellings collapse exactly.
	if len(result.Clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(result.Clusters))
	}
	if result.Clusters[0].CanonicalName != "smith rtl co" {
		t.Errorf("Expected canonical name %q, got %q", "smith rtl co", result.Clusters[0].CanonicalName)
	}
	if result.Clusters[0].TotalCount != 3 {
		t.Errorf("Expected merged count 3, got %d", result.Clusters[0].TotalCount)
	}
	if result.Clusters[1].CanonicalName != "xyz bk" {
		t.Errorf("Expected canonical name %q, got %q", "xyz bk", result.Clusters[1].CanonicalName)
	}
	if result.Stats.ExactDuplicates != 1 {
		t.Errorf("Expected 1 exact duplicate, got %d", result.Stats.ExactDuplicates)
	}
}
