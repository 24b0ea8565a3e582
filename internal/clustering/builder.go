package clustering

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/courtdata/partydedup/internal/blocking"
	"github.com/courtdata/partydedup/internal/normalize"
	"github.com/courtdata/partydedup/internal/similarity"
	"github.com/courtdata/partydedup/internal/types"
)

// fanOutChunk is how many records one worker goroutine handles per
// acquire during the parallel phases.
const fanOutChunk = 512

// Builder runs the deduplication pipeline. Construct with New; a Builder
// is safe to reuse across BuildClusters calls.
type Builder struct {
	cfg    Config
	norm   *normalize.Normalizer
	scorer similarity.Scorer
	keygen blocking.KeyGenerator
	log    *slog.Logger
}

// New validates cfg and returns a ready Builder.
func New(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cluster config: %w", err)
	}
	norm, err := normalize.New(cfg.Normalization)
	if err != nil {
		return nil, err
	}
	scorer, err := similarity.ScorerFor(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		cfg:    cfg,
		norm:   norm,
		scorer: scorer,
		keygen: blocking.New(cfg.KeyScale),
		log:    logger,
	}, nil
}

// BuildClusters is a convenience wrapper for a one-shot build.
func BuildClusters(ctx context.Context, records []types.Record, cfg Config) (*Result, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return b.BuildClusters(ctx, records)
}

// BuildClusters deduplicates records into clusters.
//
// The result is deterministic for a fixed input and configuration.
// Malformed records (empty normalized names, negative counts) are
// tolerated and reported in Result.Warnings; the only errors returned are
// context cancellation.
func (b *Builder) BuildClusters(ctx context.Context, records []types.Record) (*Result, error) {
	start := time.Now()

	total := len(records)
	if b.cfg.MaxRecords > 0 && total > b.cfg.MaxRecords {
		b.log.Info("input capped", "total", total, "max_records", b.cfg.MaxRecords)
		records = records[:b.cfg.MaxRecords]
	}

	normalized, err := b.normalizeAll(ctx, records)
	if err != nil {
		return nil, err
	}

	groups, warnings, exactDups, degenerate := b.collapseExact(records, normalized)

	if err := b.computeKeys(ctx, groups); err != nil {
		return nil, err
	}

	var clusters []types.Cluster
	var comparisons int
	switch b.cfg.Strategy {
	case StrategyGreedy:
		clusters, comparisons, err = b.mergeGreedy(ctx, groups)
	case StrategyComponents:
		clusters, comparisons, err = b.mergeComponents(ctx, groups)
	default:
		err = fmt.Errorf("unknown merge strategy %q", b.cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	result := &Result{
		Clusters: clusters,
		Warnings: warnings,
		Stats: types.RunStats{
			TotalRecords:     total,
			ProcessedRecords: len(records),
			ExactDuplicates:  exactDups,
			DistinctNames:    len(groups),
			Comparisons:      comparisons,
			FuzzyMatches:     len(groups) - len(clusters),
			ClusterCount:     len(clusters),
			DegenerateNames:  degenerate,
			ProcessingTimeMs: elapsed.Milliseconds(),
		},
	}

	b.log.Info("clustering complete",
		"records", len(records),
		"distinct_names", len(groups),
		"clusters", len(clusters),
		"exact_duplicates", exactDups,
		"fuzzy_matches", result.Stats.FuzzyMatches,
		"comparisons", comparisons,
		"warnings", len(warnings),
		"elapsed", elapsed)
	return result, nil
}

// Normalize applies the builder's normalization pipeline to one raw name.
func (b *Builder) Normalize(name string) string {
	return b.norm.Normalize(name)
}

// Key returns the blocking key of a normalized name.
func (b *Builder) Key(normalized string) float64 {
	return b.keygen.Key(normalized)
}

// Score scores two normalized names with the configured algorithm.
func (b *Builder) Score(x, y string) float64 {
	return b.scorer.Score(x, y)
}

func (b *Builder) workerCount() int {
	if b.cfg.Workers > 0 {
		return b.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// normalizeAll computes the normalized name for every record. The work is
// pure and indexed by position, so it fans out across workers without
// affecting output order.
func (b *Builder) normalizeAll(ctx context.Context, records []types.Record) ([]string, error) {
	out := make([]string, len(records))

	workers := b.workerCount()
	if workers == 1 || len(records) <= fanOutChunk {
		for i := range records {
			out[i] = b.norm.Normalize(records[i].Name)
		}
		return out, nil
	}

	sem := semaphore.NewWeighted(int64(workers))
	for lo := 0; lo < len(records); lo += fanOutChunk {
		hi := min(lo+fanOutChunk, len(records))
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("normalization canceled: %w", err)
		}
		go func(lo, hi int) {
			defer sem.Release(1)
			for i := lo; i < hi; i++ {
				out[i] = b.norm.Normalize(records[i].Name)
			}
		}(lo, hi)
	}
	if err := sem.Acquire(ctx, int64(workers)); err != nil {
		return nil, fmt.Errorf("normalization canceled: %w", err)
	}
	sem.Release(int64(workers))
	return out, nil
}

// computeKeys fills in the blocking key of every name group, fanning out
// the same way as normalizeAll.
func (b *Builder) computeKeys(ctx context.Context, groups []*nameGroup) error {
	workers := b.workerCount()
	if workers == 1 || len(groups) <= fanOutChunk {
		for _, g := range groups {
			g.key = b.keygen.Key(g.name)
		}
		return nil
	}

	sem := semaphore.NewWeighted(int64(workers))
	for lo := 0; lo < len(groups); lo += fanOutChunk {
		hi := min(lo+fanOutChunk, len(groups))
		if err := sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("key computation canceled: %w", err)
		}
		go func(lo, hi int) {
			defer sem.Release(1)
			for i := lo; i < hi; i++ {
				groups[i].key = b.keygen.Key(groups[i].name)
			}
		}(lo, hi)
	}
	if err := sem.Acquire(ctx, int64(workers)); err != nil {
		return fmt.Errorf("key computation canceled: %w", err)
	}
	sem.Release(int64(workers))
	return nil
}

// nameGroup is one distinct normalized name after exact collapse: the
// records that share the spelling, their summed count, and their unioned
// attributes. Group order follows first occurrence in the input.
type nameGroup struct {
	name    string
	first   int   // input index of the first record with this name
	members []int // record indices, ascending
	key     float64
	count   int

	partyTypes *types.StringSet
	addresses  *types.StringSet
	caseTypes  *types.StringSet
	years      *types.IntSet
}

func newNameGroup(name string, first int) *nameGroup {
	return &nameGroup{
		name:       name,
		first:      first,
		partyTypes: types.NewStringSet(),
		addresses:  types.NewStringSet(),
		caseTypes:  types.NewStringSet(),
		years:      types.NewIntSet(),
	}
}

// collapseExact folds records with identical normalized names into name
// groups in input order. Counts are summed (negatives clamped to zero
// with a warning) and attributes unioned in encounter order. Records that
// normalize to the empty string form the degenerate empty-name group and
// are flagged, never dropped.
func (b *Builder) collapseExact(records []types.Record, normalized []string) (groups []*nameGroup, warnings []types.Warning, exactDups, degenerate int) {
	index := make(map[string]int, len(records))

	for i := range records {
		rec := &records[i]
		name := normalized[i]

		if name == "" {
			degenerate++
			warnings = append(warnings, types.Warning{
				RecordIndex: i,
				Name:        rec.Name,
				Reason:      types.WarningEmptyName,
			})
			b.log.Warn("record normalized to empty name", "record", i, "raw_name", rec.Name)
		}

		count := rec.Count
		if count < 0 {
			warnings = append(warnings, types.Warning{
				RecordIndex: i,
				Name:        rec.Name,
				Reason:      types.WarningNegativeCount,
			})
			b.log.Warn("negative count clamped to zero", "record", i, "count", count)
			count = 0
		}

		gi, ok := index[name]
		if !ok {
			gi = len(groups)
			index[name] = gi
			groups = append(groups, newNameGroup(name, i))
		} else {
			exactDups++
		}

		g := groups[gi]
		g.members = append(g.members, i)
		g.count += count
		g.partyTypes.Add(rec.PartyType)
		g.addresses.Add(rec.Address)
		g.caseTypes.Add(rec.CaseType)
		g.years.Add(rec.Year)
	}
	return groups, warnings, exactDups, degenerate
}

// mergeGreedy is the single-pass merge: walk groups in input order, open
// a cluster per unconsumed group, and absorb every unconsumed in-window
// group scoring at or above the threshold. The window is computed from
// the seed's key once and never widens as the cluster grows, and consumed
// groups never seed or join another cluster.
func (b *Builder) mergeGreedy(ctx context.Context, groups []*nameGroup) ([]types.Cluster, int, error) {
	byKey, sortedKeys := sortByKey(groups)
	consumed := make([]bool, len(groups))

	progress := rate.Sometimes{Every: 1000, Interval: 5 * time.Second}
	clusters := make([]types.Cluster, 0, len(groups))
	comparisons := 0
	candidates := make([]int, 0, 64)

	for seed := range groups {
		if consumed[seed] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("merge canceled: %w", err)
		}
		progress.Do(func() {
			b.log.Info("clustering progress",
				"seed", seed, "groups", len(groups), "clusters", len(clusters))
		})

		g := groups[seed]
		consumed[seed] = true
		agg := newAggregate(g)

		// Candidates inside the seed's window, visited in input order.
		lo, hi := blocking.Window(g.key, b.cfg.Tolerance)
		candidates = candidates[:0]
		for i := searchKey(sortedKeys, lo); i < len(sortedKeys) && sortedKeys[i] <= hi; i++ {
			if gi := byKey[i]; !consumed[gi] {
				candidates = append(candidates, gi)
			}
		}
		sort.Ints(candidates)

		for _, ci := range candidates {
			cand := groups[ci]
			comparisons++
			if b.scorer.Score(g.name, cand.name) >= b.cfg.Threshold {
				consumed[ci] = true
				agg.absorb(cand)
			}
		}
		clusters = append(clusters, agg.emit())
	}
	return clusters, comparisons, nil
}

// sortByKey returns group indices ordered by (key, first occurrence) and
// the parallel slice of their keys, for windowed binary search.
func sortByKey(groups []*nameGroup) (byKey []int, sortedKeys []float64) {
	byKey = make([]int, len(groups))
	for i := range byKey {
		byKey[i] = i
	}
	sort.Slice(byKey, func(a, b int) bool {
		ga, gb := groups[byKey[a]], groups[byKey[b]]
		if ga.key != gb.key {
			return ga.key < gb.key
		}
		return ga.first < gb.first
	})
	sortedKeys = make([]float64, len(byKey))
	for i, gi := range byKey {
		sortedKeys[i] = groups[gi].key
	}
	return byKey, sortedKeys
}

// searchKey returns the first index in sortedKeys with value >= lo.
func searchKey(sortedKeys []float64, lo float64) int {
	return sort.Search(len(sortedKeys), func(i int) bool { return sortedKeys[i] >= lo })
}

// aggregate accumulates one output cluster as groups are absorbed into it.
type aggregate struct {
	canonical  string
	aliases    *types.StringSet
	partyTypes *types.StringSet
	addresses  *types.StringSet
	caseTypes  *types.StringSet
	years      *types.IntSet
	count      int
	members    []int
}

func newAggregate(seed *nameGroup) *aggregate {
	a := &aggregate{
		canonical:  seed.name,
		aliases:    types.NewStringSet(),
		partyTypes: types.NewStringSet(),
		addresses:  types.NewStringSet(),
		caseTypes:  types.NewStringSet(),
		years:      types.NewIntSet(),
	}
	a.absorb(seed)
	return a
}

func (a *aggregate) absorb(g *nameGroup) {
	if g.name != a.canonical {
		a.aliases.Add(g.name)
	}
	a.partyTypes.AddAll(g.partyTypes.Values())
	a.addresses.AddAll(g.addresses.Values())
	a.caseTypes.AddAll(g.caseTypes.Values())
	a.years.AddAll(g.years.Values())
	a.count += g.count
	a.members = append(a.members, g.members...)
}

func (a *aggregate) emit() types.Cluster {
	return types.Cluster{
		CanonicalName: a.canonical,
		Aliases:       a.aliases.Values(),
		PartyTypes:    a.partyTypes.Values(),
		Addresses:     a.addresses.Values(),
		CaseTypes:     a.caseTypes.Values(),
		Years:         a.years.Values(),
		TotalCount:    a.count,
		Members:       a.members,
	}
}
