// Package normalize turns raw party names into their canonical comparable
// form. Every comparison the clustering engine makes happens on normalized
// names, so this package defines what "the same spelling" means.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Config holds configuration for the name normalizer
type Config struct {
	// RemoveNumbers strips decimal digits along with punctuation.
	// Suite numbers and docket fragments embedded in party names carry
	// no identity signal, so this defaults to true.
	RemoveNumbers bool

	// FoldDiacritics maps accented letters to their unaccented base form
	// before stripping, so "Crème" and "Creme" normalize identically.
	// Default: false (source extracts are typically ASCII already).
	FoldDiacritics bool

	// Stopwords are tokens dropped after lowercasing. Matching is exact
	// whole-token comparison, never substring. Default: none. See
	// DefaultStopwords for the legal-entity list.
	Stopwords []string

	// Abbreviations maps whole tokens to shortened replacements, applied
	// after stopword removal in a single pass. Default: none. See
	// DefaultAbbreviations for the legal-entity list.
	Abbreviations map[string]string
}

// DefaultConfig returns the default normalizer configuration: digits
// removed, no diacritic folding, empty term lists.
func DefaultConfig() Config {
	return Config{
		RemoveNumbers: true,
	}
}

// Validate checks if the configuration has valid values.
//
// Beyond shape checks on individual terms, it rejects abbreviation values
// that collide with stopwords or other abbreviation keys: such a table
// would make normalization non-idempotent (a second pass would keep
// rewriting), and idempotence is part of the package contract.
func (c Config) Validate() error {
	stop := make(map[string]struct{}, len(c.Stopwords))
	for _, w := range c.Stopwords {
		if err := validateTerm(w); err != nil {
			return fmt.Errorf("stopword %q: %w", w, err)
		}
		stop[strings.ToLower(w)] = struct{}{}
	}

	keys := make([]string, 0, len(c.Abbreviations))
	lowerKeys := make(map[string]struct{}, len(c.Abbreviations))
	for from := range c.Abbreviations {
		keys = append(keys, from)
		lowerKeys[strings.ToLower(from)] = struct{}{}
	}
	sort.Strings(keys)

	for _, from := range keys {
		to := c.Abbreviations[from]
		if err := validateTerm(from); err != nil {
			return fmt.Errorf("abbreviation key %q: %w", from, err)
		}
		if err := validateTerm(to); err != nil {
			return fmt.Errorf("abbreviation value %q (for key %q): %w", to, from, err)
		}
		lowered := strings.ToLower(to)
		if _, clash := stop[lowered]; clash {
			return fmt.Errorf("abbreviation %q maps to stopword %q", from, to)
		}
		if _, clash := lowerKeys[lowered]; clash && lowered != strings.ToLower(from) {
			return fmt.Errorf("abbreviation %q maps to %q, which is itself an abbreviation key", from, to)
		}
	}
	return nil
}

func validateTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("term is empty")
	}
	if strings.ContainsFunc(term, unicode.IsSpace) {
		return fmt.Errorf("term must be a single token")
	}
	return nil
}

// foldMarks decomposes to NFD, removes combining marks, and recomposes,
// mapping accented letters to their base letter.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer applies the cleanup pipeline that turns a raw party name into
// its canonical comparable form.
//
// The steps, in order:
//  1. Strip punctuation and symbols always, digits when RemoveNumbers
//     (diacritics are folded first when FoldDiacritics). Characters are
//     deleted, not replaced with spaces.
//  2. Collapse whitespace runs to single spaces and trim the ends.
//  3. Lowercase.
//  4. Drop stopword tokens by exact match.
//  5. Replace abbreviated tokens by exact match.
//
// Normalization is pure and deterministic, and idempotent: normalizing an
// already-normalized string returns it unchanged. The empty string is a
// legal output (a name made entirely of stripped characters).
type Normalizer struct {
	removeNumbers  bool
	foldDiacritics bool
	stopwords      map[string]struct{}
	abbreviations  map[string]string
}

// New builds a Normalizer from cfg. Term lists are lowercased once here so
// Normalize only ever compares lowercased tokens.
func New(cfg Config) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid normalizer config: %w", err)
	}

	n := &Normalizer{
		removeNumbers:  cfg.RemoveNumbers,
		foldDiacritics: cfg.FoldDiacritics,
		stopwords:      make(map[string]struct{}, len(cfg.Stopwords)),
		abbreviations:  make(map[string]string, len(cfg.Abbreviations)),
	}
	for _, w := range cfg.Stopwords {
		n.stopwords[strings.ToLower(w)] = struct{}{}
	}
	for from, to := range cfg.Abbreviations {
		n.abbreviations[strings.ToLower(from)] = strings.ToLower(to)
	}
	return n, nil
}

// Normalize returns the canonical form of raw.
func (n *Normalizer) Normalize(raw string) string {
	s := raw
	if n.foldDiacritics {
		if folded, _, err := transform.String(foldMarks, s); err == nil {
			s = folded
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		if n.removeNumbers && unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
	}

	s = strings.ToLower(strings.Join(strings.Fields(b.String()), " "))
	if s == "" || (len(n.stopwords) == 0 && len(n.abbreviations) == 0) {
		return s
	}

	tokens := strings.Split(s, " ")
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, drop := n.stopwords[tok]; drop {
			continue
		}
		if repl, ok := n.abbreviations[tok]; ok {
			tok = repl
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
