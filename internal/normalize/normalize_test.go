package normalize

import (
	"strings"
	"testing"
)

func mustNormalizer(t *testing.T, cfg Config) *Normalizer {
	t.Helper()
	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return n
}

func TestNormalize(t *testing.T) {
	legal := Config{
		RemoveNumbers: true,
		Stopwords:     DefaultStopwords(),
		Abbreviations: DefaultAbbreviations(),
	}

	tests := []struct {
		name  string
		cfg   Config
		input string
		want  string
	}{
		{
			name:  "punctuation and symbols deleted",
			cfg:   DefaultConfig(),
			input: "O'Brien & Sons",
			want:  "obrien sons",
		},
		{
			name:  "digits removed by default",
			cfg:   DefaultConfig(),
			input: "4th Street Holdings 2020",
			want:  "th street holdings",
		},
		{
			name:  "digits kept when disabled",
			cfg:   Config{RemoveNumbers: false},
			input: "4th Street Holdings 2020",
			want:  "4th street holdings 2020",
		},
		{
			name:  "whitespace collapsed and trimmed",
			cfg:   DefaultConfig(),
			input: "  Acme \t  Widget   Co  ",
			want:  "acme widget co",
		},
		{
			name:  "stopwords dropped by exact token",
			cfg:   Config{RemoveNumbers: true, Stopwords: []string{"llc"}},
			input: "LLC Carpets LLC",
			want:  "carpets",
		},
		{
			name:  "stopword not matched as substring",
			cfg:   Config{RemoveNumbers: true, Stopwords: []string{"llc"}},
			input: "Alloc Partners",
			want:  "alloc partners",
		},
		{
			name:  "abbreviations replaced by exact token",
			cfg:   legal,
			input: "Apartment Apartments Finder",
			want:  "apt apt finder",
		},
		{
			name:  "abbreviation not matched as substring",
			cfg:   legal,
			input: "Bankston Companyx",
			want:  "bankston companyx",
		},
		{
			name:  "legal entity cleanup",
			cfg:   legal,
			input: "ABC Properties, LLC",
			want:  "abc prop",
		},
		{
			name:  "empty input",
			cfg:   legal,
			input: "",
			want:  "",
		},
		{
			name:  "name reduces to empty",
			cfg:   legal,
			input: " #1492! ",
			want:  "",
		},
		{
			name:  "stopword-only name reduces to empty",
			cfg:   legal,
			input: "LLC, Inc.",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := mustNormalizer(t, tt.cfg)
			if got := n.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := mustNormalizer(t, Config{
		RemoveNumbers: true,
		Stopwords:     DefaultStopwords(),
		Abbreviations: DefaultAbbreviations(),
	})

	inputs := []string{
		"ABC Properties, LLC",
		"Smith & Wesson Holdings #42",
		"  J.P.   Morgan  ",
		"",
		"already normal name",
	}
	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%q): second pass changed %q to %q", input, once, twice)
		}
	}
}

func TestNormalizeFoldDiacritics(t *testing.T) {
	folded := mustNormalizer(t, Config{RemoveNumbers: true, FoldDiacritics: true})
	plain := mustNormalizer(t, Config{RemoveNumbers: true})

	if got := folded.Normalize("Café Açaí & Co."); got != "cafe acai co" {
		t.Errorf("folded Normalize = %q, want %q", got, "cafe acai co")
	}
	if got := plain.Normalize("Café Açaí & Co."); got != "café açaí co" {
		t.Errorf("unfolded Normalize = %q, want %q", got, "café açaí co")
	}
}

func TestNormalizeLowercasesConfiguredTerms(t *testing.T) {
	n := mustNormalizer(t, Config{
		RemoveNumbers: true,
		Stopwords:     []string{"LLC"},
		Abbreviations: map[string]string{"PROPERTIES": "PROP"},
	})

	if got := n.Normalize("ABC Properties LLC"); got != "abc prop" {
		t.Errorf("Normalize = %q, want %q", got, "abc prop")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "defaults are valid",
			cfg:         DefaultConfig(),
			expectError: false,
		},
		{
			name: "legal term lists are valid",
			cfg: Config{
				RemoveNumbers: true,
				Stopwords:     DefaultStopwords(),
				Abbreviations: DefaultAbbreviations(),
			},
			expectError: false,
		},
		{
			name:        "empty stopword",
			cfg:         Config{Stopwords: []string{"llc", "  "}},
			expectError: true,
			errorMsg:    "term is empty",
		},
		{
			name:        "multi-token stopword",
			cfg:         Config{Stopwords: []string{"limited liability"}},
			expectError: true,
			errorMsg:    "single token",
		},
		{
			name:        "empty abbreviation value",
			cfg:         Config{Abbreviations: map[string]string{"company": ""}},
			expectError: true,
			errorMsg:    "term is empty",
		},
		{
			name:        "multi-token abbreviation key",
			cfg:         Config{Abbreviations: map[string]string{"the company": "co"}},
			expectError: true,
			errorMsg:    "single token",
		},
		{
			name: "abbreviation value collides with stopword",
			cfg: Config{
				Stopwords:     []string{"co"},
				Abbreviations: map[string]string{"company": "co"},
			},
			expectError: true,
			errorMsg:    "maps to stopword",
		},
		{
			name: "abbreviation value collides with another key",
			cfg: Config{
				Abbreviations: map[string]string{
					"properties": "prop",
					"prop":       "pr",
				},
			},
			expectError: true,
			errorMsg:    "itself an abbreviation key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errorMsg)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
