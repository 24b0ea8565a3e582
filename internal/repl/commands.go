package repl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/courtdata/partydedup/internal/blocking"
	"github.com/courtdata/partydedup/internal/clustering"
	"github.com/courtdata/partydedup/internal/similarity"
)

// matchLimit caps how many clusters the match command shows.
const matchLimit = 5

// cmdNorm shows the normalized form of a name
func (r *REPL) cmdNorm(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: norm NAME")
	}
	name := strings.Join(args, " ")
	fmt.Fprintf(r.out, "%q -> %q\n", name, r.builder.Normalize(name))
	return nil
}

// cmdKey shows a name's blocking key and candidate window
func (r *REPL) cmdKey(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: key NAME")
	}
	name := strings.Join(args, " ")
	normalized := r.builder.Normalize(name)
	key := r.builder.Key(normalized)
	lo, hi := blocking.Window(key, r.cfg.Tolerance)
	fmt.Fprintf(r.out, "%q -> key %.0f, window [%.1f, %.1f]\n", normalized, key, lo, hi)
	return nil
}

// cmdSim scores two names under the current algorithm
func (r *REPL) cmdSim(args []string) error {
	left, right, ok := strings.Cut(strings.Join(args, " "), "|")
	if !ok {
		return fmt.Errorf("usage: sim NAME | NAME")
	}
	a := r.builder.Normalize(strings.TrimSpace(left))
	b := r.builder.Normalize(strings.TrimSpace(right))
	score := r.builder.Score(a, b)

	verdict := "below threshold"
	if score >= r.cfg.Threshold {
		verdict = "would merge"
	}
	fmt.Fprintf(r.out, "%q vs %q: %.4f (%s, threshold %.2f)\n",
		a, b, score, verdict, r.cfg.Threshold)
	return nil
}

// cmdMatch finds the clusters closest to a name
func (r *REPL) cmdMatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: match NAME")
	}
	normalized := r.builder.Normalize(strings.Join(args, " "))
	if normalized == "" {
		return fmt.Errorf("name normalizes to nothing")
	}
	if len(r.result.Clusters) == 0 {
		fmt.Fprintln(r.out, "no clusters")
		return nil
	}

	type hit struct {
		cluster int
		score   float64
		via     string
	}
	hits := make([]hit, 0, len(r.result.Clusters))
	for i, c := range r.result.Clusters {
		best := hit{cluster: i, score: r.builder.Score(normalized, c.CanonicalName)}
		for _, alias := range c.Aliases {
			if s := r.builder.Score(normalized, alias); s > best.score {
				best.score, best.via = s, alias
			}
		}
		hits = append(hits, best)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	green := color.New(color.FgGreen).SprintFunc()
	for rank, h := range hits {
		if rank == matchLimit {
			break
		}
		c := r.result.Clusters[h.cluster]
		line := fmt.Sprintf("%.4f  %s (count %d)", h.score, green(c.CanonicalName), c.TotalCount)
		if h.via != "" {
			line += fmt.Sprintf("  via alias %q", h.via)
		}
		fmt.Fprintln(r.out, line)
	}
	return nil
}

// cmdClusters shows the first N clusters
func (r *REPL) cmdClusters(args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("usage: clusters [N]")
		}
		limit = n
	}

	green := color.New(color.FgGreen).SprintFunc()
	for i, c := range r.result.Clusters {
		if i == limit {
			fmt.Fprintf(r.out, "... and %d more\n", len(r.result.Clusters)-limit)
			break
		}
		fmt.Fprintf(r.out, "%4d  %s (count %d, records %d)\n",
			i, green(c.CanonicalName), c.TotalCount, len(c.Members))
		if len(c.Aliases) > 0 {
			fmt.Fprintf(r.out, "      aliases: %s\n", strings.Join(c.Aliases, ", "))
		}
	}
	return nil
}

// cmdStats shows the current run's statistics
func (r *REPL) cmdStats(args []string) error {
	s := r.result.Stats
	fmt.Fprintf(r.out, "%s\n", r.cfg)
	fmt.Fprintf(r.out, "records:          %d processed of %d\n", s.ProcessedRecords, s.TotalRecords)
	fmt.Fprintf(r.out, "distinct names:   %d (%d exact duplicates)\n", s.DistinctNames, s.ExactDuplicates)
	fmt.Fprintf(r.out, "clusters:         %d (%d fuzzy matches)\n", s.ClusterCount, s.FuzzyMatches)
	fmt.Fprintf(r.out, "comparisons:      %d\n", s.Comparisons)
	fmt.Fprintf(r.out, "degenerate names: %d\n", s.DegenerateNames)
	fmt.Fprintf(r.out, "warnings:         %d\n", len(r.result.Warnings))
	fmt.Fprintf(r.out, "elapsed:          %dms\n", s.ProcessingTimeMs)
	return nil
}

// cmdThreshold sets the merge threshold and re-clusters
func (r *REPL) cmdThreshold(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: threshold VALUE")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("bad threshold %q: %w", args[0], err)
	}
	update := r.cfg
	update.Threshold = v
	return r.applyConfig(update)
}

// cmdTolerance sets the blocking tolerance and re-clusters
func (r *REPL) cmdTolerance(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tolerance VALUE")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("bad tolerance %q: %w", args[0], err)
	}
	update := r.cfg
	update.Tolerance = v
	return r.applyConfig(update)
}

// cmdAlgorithm switches the similarity algorithm and re-clusters
func (r *REPL) cmdAlgorithm(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: algorithm NAME")
	}
	alg, err := similarity.ParseAlgorithm(args[0])
	if err != nil {
		return err
	}
	update := r.cfg
	update.Algorithm = alg
	return r.applyConfig(update)
}

// cmdStrategy switches the merge strategy and re-clusters
func (r *REPL) cmdStrategy(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: strategy NAME")
	}
	strategy, err := clustering.ParseMergeStrategy(args[0])
	if err != nil {
		return err
	}
	update := r.cfg
	update.Strategy = strategy
	return r.applyConfig(update)
}

// applyConfig swaps in a new configuration, keeping the old one on failure.
func (r *REPL) applyConfig(update clustering.Config) error {
	previous := r.cfg
	previousClusters := len(r.result.Clusters)

	r.cfg = update
	if err := r.rebuild(); err != nil {
		r.cfg = previous
		return err
	}
	fmt.Fprintf(r.out, "re-clustered: %d clusters (was %d)\n",
		len(r.result.Clusters), previousClusters)
	return nil
}
