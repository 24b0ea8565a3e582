// Package clustering deduplicates party records by normalized-name
// similarity.
//
// # Overview
//
// Court extracts list the same party under many spellings: "ABC
// Properties, LLC", "ABC Properties", "ABC Prop". The cluster builder
// folds those spellings into one cluster per real-world party, carrying
// the union of the members' attributes and the sum of their occurrence
// counts.
//
// # Architecture
//
// A build runs in four phases:
//
//  1. Normalize every record's name (parallel, order-free).
//  2. Collapse records with identical normalized names into name groups,
//     summing counts and unioning attributes in input order.
//  3. Compute a blocking key per group (parallel, order-free).
//  4. Merge groups whose similarity meets the threshold, comparing only
//     groups whose keys fall in the same relative tolerance window.
//
// Phases lean on the sibling packages: normalize for the cleanup
// pipeline, blocking for keys and windows, similarity for the scorers.
//
// Two merge strategies are available. The default, StrategyGreedy, walks
// groups in input order: each unconsumed group seeds a cluster, absorbs
// every in-window unconsumed group scoring at or above the threshold, and
// closes. Absorption is transitive through the seed only, so a chain
// A-B-C where only adjacent pairs are similar stays split. The
// alternative, StrategyComponents, scores every in-window pair and emits
// connected components of the similarity graph, which makes membership
// independent of input order at the cost of more comparisons.
//
// # Determinism
//
// For a fixed input and configuration the result is byte-identical across
// runs: clusters appear in seed order, members and attributes in
// first-seen order, and no map iteration order ever reaches the output.
//
// # Configuration
//
// DefaultConfig matches the validated production settings: Ratcliff/
// Obershelp scoring, threshold 0.8, tolerance 0.2, key scale 33, greedy
// merging, no record cap. See Config for the full surface and
// ConfigFromEnv for the PARTYDEDUP_* environment overrides.
//
// # Usage
//
//	cfg := clustering.DefaultConfig()
//	cfg.Normalization.Stopwords = normalize.DefaultStopwords()
//	cfg.Normalization.Abbreviations = normalize.DefaultAbbreviations()
//
//	builder, err := clustering.New(cfg)
//	if err != nil {
//	    return fmt.Errorf("configuring builder: %w", err)
//	}
//	result, err := builder.BuildClusters(ctx, records)
//	if err != nil {
//	    return err
//	}
//	for _, c := range result.Clusters {
//	    fmt.Printf("%s (%d records, %d occurrences)\n",
//	        c.CanonicalName, len(c.Members), c.TotalCount)
//	}
//
// # Error Handling
//
// Configuration problems fail fast: New rejects a bad Config before any
// record is touched. Malformed individual records never abort a run;
// empty normalized names and negative counts are tolerated, logged, and
// reported as Warnings on the Result. Context cancellation is honored
// between phases and periodically inside the merge pass.
package clustering
