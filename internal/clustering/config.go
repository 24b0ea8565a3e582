package clustering

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/courtdata/partydedup/internal/blocking"
	"github.com/courtdata/partydedup/internal/normalize"
	"github.com/courtdata/partydedup/internal/similarity"
)

// MergeStrategy selects how merge decisions combine into clusters
type MergeStrategy string

const (
	// StrategyGreedy is the single-pass policy: seeds open clusters in
	// input order and consume in-window matches. Order-sensitive, fewest
	// comparisons. The default.
	StrategyGreedy MergeStrategy = "greedy"

	// StrategyComponents scores all in-window pairs and emits connected
	// components of the similarity graph. Membership is independent of
	// input order; comparisons roughly double.
	StrategyComponents MergeStrategy = "components"
)

// IsValid checks if the merge strategy value is valid
func (s MergeStrategy) IsValid() bool {
	switch s {
	case StrategyGreedy, StrategyComponents:
		return true
	}
	return false
}

func (s MergeStrategy) String() string {
	return string(s)
}

// ParseMergeStrategy maps a configuration string to a MergeStrategy.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StrategyGreedy):
		return StrategyGreedy, nil
	case string(StrategyComponents):
		return StrategyComponents, nil
	}
	return "", fmt.Errorf("unknown merge strategy %q (valid: %s, %s)",
		s, StrategyGreedy, StrategyComponents)
}

// Config holds configuration for the cluster builder
type Config struct {
	// Algorithm selects the similarity scorer.
	// Default: ratcliff_obershelp
	Algorithm similarity.Algorithm

	// Threshold is the minimum similarity (0.0-1.0) for a fuzzy merge.
	// The comparison is inclusive: a pair scoring exactly Threshold merges.
	// Higher values = more conservative (fewer false merges)
	// Lower values = more aggressive (more false merges)
	// Default: 0.8
	Threshold float64

	// Tolerance is the relative half-width of the blocking window: a
	// candidate's key must fall within [seed*(1-Tolerance),
	// seed*(1+Tolerance)] to be compared at all.
	// Default: 0.2
	Tolerance float64

	// KeyScale weights name length into the blocking key. Zero means
	// blocking.DefaultScale (33).
	KeyScale float64

	// Strategy selects the merge policy.
	// Default: StrategyGreedy
	Strategy MergeStrategy

	// MaxRecords caps how many input records are processed; records past
	// the cap are ignored, not an error. Zero means unlimited.
	MaxRecords int

	// Workers bounds the concurrent normalize/key fan-out.
	// Zero means GOMAXPROCS.
	Workers int

	// Normalization configures the name cleanup pipeline.
	Normalization normalize.Config

	// Logger receives progress and warning logs. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default cluster builder configuration
//
// These defaults match the validated production settings: Ratcliff/
// Obershelp scoring at threshold 0.8, a 20% blocking window, greedy
// merging, and no record cap.
func DefaultConfig() Config {
	return Config{
		Algorithm:     similarity.AlgorithmRatcliffObershelp,
		Threshold:     0.8,
		Tolerance:     0.2,
		KeyScale:      blocking.DefaultScale,
		Strategy:      StrategyGreedy,
		MaxRecords:    0,
		Workers:       0,
		Normalization: normalize.DefaultConfig(),
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if !c.Algorithm.IsValid() {
		return fmt.Errorf("unknown similarity algorithm %q (valid: %s, %s)",
			c.Algorithm, similarity.AlgorithmRatcliffObershelp, similarity.AlgorithmLevenshteinRatio)
	}
	if c.Threshold < 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", c.Threshold)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive (got %v)", c.Tolerance)
	}
	if c.KeyScale < 0 {
		return fmt.Errorf("key_scale cannot be negative (got %v)", c.KeyScale)
	}
	if !c.Strategy.IsValid() {
		return fmt.Errorf("unknown merge strategy %q (valid: %s, %s)",
			c.Strategy, StrategyGreedy, StrategyComponents)
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("max_records cannot be negative (got %d)", c.MaxRecords)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative (got %d)", c.Workers)
	}
	if err := c.Normalization.Validate(); err != nil {
		return fmt.Errorf("normalization: %w", err)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Algorithm: %s, Threshold: %.2f, Tolerance: %.2f, KeyScale: %v, "+
			"Strategy: %s, MaxRecords: %d, Workers: %d, RemoveNumbers: %t, "+
			"Stopwords: %d, Abbreviations: %d}",
		c.Algorithm, c.Threshold, c.Tolerance, c.KeyScale,
		c.Strategy, c.MaxRecords, c.Workers, c.Normalization.RemoveNumbers,
		len(c.Normalization.Stopwords), len(c.Normalization.Abbreviations),
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back
// to defaults
//
// Environment variables:
//   - PARTYDEDUP_ALGORITHM: similarity algorithm (default: ratcliff_obershelp)
//   - PARTYDEDUP_THRESHOLD: minimum similarity (0.0-1.0) for a merge (default: 0.8)
//   - PARTYDEDUP_TOLERANCE: relative blocking window half-width (default: 0.2)
//   - PARTYDEDUP_KEY_SCALE: length weight in the blocking key (default: 33)
//   - PARTYDEDUP_STRATEGY: merge strategy, greedy or components (default: greedy)
//   - PARTYDEDUP_MAX_RECORDS: input record cap, 0 for unlimited (default: 0)
//   - PARTYDEDUP_WORKERS: concurrent fan-out bound, 0 for GOMAXPROCS (default: 0)
//   - PARTYDEDUP_REMOVE_NUMBERS: strip digits during normalization (default: true)
//   - PARTYDEDUP_FOLD_DIACRITICS: fold accented letters (default: false)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if value := os.Getenv("PARTYDEDUP_ALGORITHM"); value != "" {
		alg, err := similarity.ParseAlgorithm(value)
		if err != nil {
			return cfg, fmt.Errorf("invalid value for PARTYDEDUP_ALGORITHM: %w", err)
		}
		cfg.Algorithm = alg
	}
	if err := parseEnvFloat("PARTYDEDUP_THRESHOLD", &cfg.Threshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("PARTYDEDUP_TOLERANCE", &cfg.Tolerance); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("PARTYDEDUP_KEY_SCALE", &cfg.KeyScale); err != nil {
		return cfg, err
	}
	if value := os.Getenv("PARTYDEDUP_STRATEGY"); value != "" {
		strategy, err := ParseMergeStrategy(value)
		if err != nil {
			return cfg, fmt.Errorf("invalid value for PARTYDEDUP_STRATEGY: %w", err)
		}
		cfg.Strategy = strategy
	}
	if err := parseEnvInt("PARTYDEDUP_MAX_RECORDS", &cfg.MaxRecords); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("PARTYDEDUP_WORKERS", &cfg.Workers); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("PARTYDEDUP_REMOVE_NUMBERS", &cfg.Normalization.RemoveNumbers); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("PARTYDEDUP_FOLD_DIACRITICS", &cfg.Normalization.FoldDiacritics); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// fileConfig mirrors the YAML rules file. Pointer fields distinguish
// absent keys from zero values so a partial file only overrides what it
// names.
type fileConfig struct {
	Algorithm      *string           `yaml:"algorithm"`
	Threshold      *float64          `yaml:"threshold"`
	Tolerance      *float64          `yaml:"tolerance"`
	KeyScale       *float64          `yaml:"key_scale"`
	Strategy       *string           `yaml:"strategy"`
	MaxRecords     *int              `yaml:"max_records"`
	Workers        *int              `yaml:"workers"`
	RemoveNumbers  *bool             `yaml:"remove_numbers"`
	FoldDiacritics *bool             `yaml:"fold_diacritics"`
	Stopwords      []string          `yaml:"stopwords"`
	Abbreviations  map[string]string `yaml:"abbreviations"`
}

// ApplyConfigFile overlays the YAML rules file at path onto cfg and
// validates the result. Keys missing from the file leave cfg untouched;
// stopwords and abbreviations replace the configured lists wholesale when
// present.
func ApplyConfigFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading rules file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	if fc.Algorithm != nil {
		alg, err := similarity.ParseAlgorithm(*fc.Algorithm)
		if err != nil {
			return cfg, fmt.Errorf("rules file %s: %w", path, err)
		}
		cfg.Algorithm = alg
	}
	if fc.Threshold != nil {
		cfg.Threshold = *fc.Threshold
	}
	if fc.Tolerance != nil {
		cfg.Tolerance = *fc.Tolerance
	}
	if fc.KeyScale != nil {
		cfg.KeyScale = *fc.KeyScale
	}
	if fc.Strategy != nil {
		strategy, err := ParseMergeStrategy(*fc.Strategy)
		if err != nil {
			return cfg, fmt.Errorf("rules file %s: %w", path, err)
		}
		cfg.Strategy = strategy
	}
	if fc.MaxRecords != nil {
		cfg.MaxRecords = *fc.MaxRecords
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.RemoveNumbers != nil {
		cfg.Normalization.RemoveNumbers = *fc.RemoveNumbers
	}
	if fc.FoldDiacritics != nil {
		cfg.Normalization.FoldDiacritics = *fc.FoldDiacritics
	}
	if fc.Stopwords != nil {
		cfg.Normalization.Stopwords = fc.Stopwords
	}
	if fc.Abbreviations != nil {
		cfg.Normalization.Abbreviations = fc.Abbreviations
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from %s: %w", path, err)
	}
	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
