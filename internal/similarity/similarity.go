// Package similarity scores how alike two normalized party names are.
//
// Two interchangeable algorithms are provided, selected by configuration:
// Ratcliff/Obershelp matching-block ratio (the default) and normalized
// Levenshtein similarity. Both return values in [0, 1] where 1.0 means
// identical, both are symmetric, and both score 0 when exactly one input
// is empty.
package similarity

import (
	"fmt"
	"strings"
)

// Algorithm identifies a scoring implementation. The set is closed:
// configuration naming anything else is rejected before any record is
// processed.
type Algorithm string

const (
	// AlgorithmRatcliffObershelp scores by recursive longest matching
	// blocks: 2 x matched characters / total characters. The default.
	AlgorithmRatcliffObershelp Algorithm = "ratcliff_obershelp"

	// AlgorithmLevenshteinRatio scores by edit distance normalized to
	// the longer name's length.
	AlgorithmLevenshteinRatio Algorithm = "levenshtein_ratio"
)

// IsValid checks if the algorithm value is valid
func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmRatcliffObershelp, AlgorithmLevenshteinRatio:
		return true
	}
	return false
}

func (a Algorithm) String() string {
	return string(a)
}

// ParseAlgorithm maps a configuration string to an Algorithm. Matching is
// case-insensitive, and the historical short spellings "seq" and
// "levenshtein" are accepted as aliases.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(AlgorithmRatcliffObershelp), "seq":
		return AlgorithmRatcliffObershelp, nil
	case string(AlgorithmLevenshteinRatio), "levenshtein":
		return AlgorithmLevenshteinRatio, nil
	}
	return "", fmt.Errorf("unknown similarity algorithm %q (valid: %s, %s)",
		s, AlgorithmRatcliffObershelp, AlgorithmLevenshteinRatio)
}

// Scorer computes a similarity in [0, 1] between two normalized names.
type Scorer interface {
	// Score returns the similarity of a and b. Implementations are pure
	// and symmetric; callers may invoke them from multiple goroutines.
	Score(a, b string) float64

	// Algorithm identifies the implementation.
	Algorithm() Algorithm
}

// ScorerFor returns the Scorer implementing alg.
func ScorerFor(alg Algorithm) (Scorer, error) {
	switch alg {
	case AlgorithmRatcliffObershelp:
		return ratcliffObershelp{}, nil
	case AlgorithmLevenshteinRatio:
		return levenshteinRatio{}, nil
	}
	return nil, fmt.Errorf("unknown similarity algorithm %q", alg)
}
