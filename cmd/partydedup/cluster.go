package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/courtdata/partydedup/internal/blocking"
	"github.com/courtdata/partydedup/internal/clustering"
	"github.com/courtdata/partydedup/internal/csvio"
	"github.com/courtdata/partydedup/internal/normalize"
	"github.com/courtdata/partydedup/internal/similarity"
	"github.com/courtdata/partydedup/internal/storage"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster party records from a CSV file",
	Long: `Read party records from a CSV file, cluster near-duplicate names, and
write the merged clusters out.

Configuration is layered: built-in defaults, then PARTYDEDUP_* environment
variables, then a YAML rules file (--rules), then explicit flags. The legal
stopword and abbreviation lists are applied unless --no-legal-terms is set.

Examples:
  partydedup cluster --input parties.csv --output clusters.csv
  partydedup cluster -i parties.csv -o clusters.csv --threshold 0.85
  partydedup cluster -i parties.csv --algorithm levenshtein_ratio --save
  partydedup cluster -i parties.csv --rules rules.yaml --strategy components`,
	Run: func(cmd *cobra.Command, args []string) {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			fmt.Fprintf(os.Stderr, "Error: --input is required\n")
			os.Exit(1)
		}
		output, _ := cmd.Flags().GetString("output")
		save, _ := cmd.Flags().GetBool("save")

		cfg, err := pipelineConfigFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		readOpts, err := readOptionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		readOpts.MaxRecords = cfg.MaxRecords

		ctx := context.Background()

		records, report, err := csvio.ReadRecords(input, readOpts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", input, err)
			os.Exit(1)
		}

		start := time.Now()
		result, err := clustering.BuildClusters(ctx, records, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: clustering failed: %v\n", err)
			os.Exit(1)
		}
		elapsed := time.Since(start)

		printClusterSummary(input, cfg, report, result, elapsed)

		green := color.New(color.FgGreen).SprintFunc()
		if output != "" {
			if err := csvio.WriteClusters(output, result.Clusters); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", output, err)
				os.Exit(1)
			}
			fmt.Printf("%s Wrote %d clusters to %s\n", green("✓"), len(result.Clusters), output)
		}

		if save {
			s, err := ensureStore(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			run := storage.NewRunSummary(cfg, input, result)
			if err := s.SaveRun(ctx, run, result.Clusters); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to save run: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Saved run %s\n", green("✓"), run.ID)
		}
	},
}

func init() {
	clusterCmd.Flags().StringP("input", "i", "", "party records CSV to cluster (required)")
	clusterCmd.Flags().StringP("output", "o", "", "write clusters to this CSV file")
	clusterCmd.Flags().Bool("save", false, "save the run to the runs database")
	addPipelineFlags(clusterCmd)
	addReadFlags(clusterCmd)
	rootCmd.AddCommand(clusterCmd)
}

// printClusterSummary reports what a clustering run did.
func printClusterSummary(input string, cfg clustering.Config, report *csvio.ReadReport, result *clustering.Result, elapsed time.Duration) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Party Deduplication ==="))
	fmt.Printf("  Input:    %s (%d rows)\n", input, report.RowsRead)
	fmt.Printf("  Pipeline: %s @ %.2f, tolerance %.2f, %s merge\n",
		cfg.Algorithm, cfg.Threshold, cfg.Tolerance, cfg.Strategy)
	fmt.Println()

	stats := result.Stats
	fmt.Printf("  Records processed: %d\n", stats.ProcessedRecords)
	fmt.Printf("  Exact duplicates:  %d\n", stats.ExactDuplicates)
	fmt.Printf("  Distinct names:    %d\n", stats.DistinctNames)
	fmt.Printf("  Comparisons:       %d\n", stats.Comparisons)
	fmt.Printf("  Fuzzy matches:     %d\n", stats.FuzzyMatches)
	fmt.Printf("  Clusters:          %d\n", stats.ClusterCount)
	fmt.Printf("  Time:              %s\n", elapsed.Round(time.Millisecond))

	if report.SkippedBlank > 0 || report.BadYears > 0 || report.BadCounts > 0 || report.NegativeCounts > 0 {
		fmt.Println()
		fmt.Printf("  %s %d blank names skipped, %d bad years, %d bad counts, %d negative counts\n",
			yellow("⚠"), report.SkippedBlank, report.BadYears, report.BadCounts, report.NegativeCounts)
	}
	if report.Truncated {
		fmt.Printf("  %s input truncated at %d records\n", yellow("⚠"), report.Produced)
	}
	if len(result.Warnings) > 0 {
		fmt.Printf("  %s %d record warnings\n", yellow("⚠"), len(result.Warnings))
	}
	fmt.Println()
}

// addPipelineFlags registers the shared pipeline flags. The cluster,
// inspect, and repl commands all accept them. Registered defaults mirror
// clustering.DefaultConfig so the help text is honest; the layering in
// pipelineConfigFromFlags only applies flags the user actually set.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("algorithm", string(similarity.AlgorithmRatcliffObershelp), "similarity algorithm (ratcliff_obershelp or levenshtein_ratio)")
	cmd.Flags().Float64("threshold", 0.8, "minimum similarity for a fuzzy merge (0.0-1.0)")
	cmd.Flags().Float64("tolerance", 0.2, "relative blocking window half-width")
	cmd.Flags().Float64("key-scale", blocking.DefaultScale, "length weight in the blocking key")
	cmd.Flags().String("strategy", string(clustering.StrategyGreedy), "merge strategy (greedy or components)")
	cmd.Flags().Int("max-records", 0, "cap on input records, 0 for unlimited")
	cmd.Flags().Int("workers", 0, "concurrent normalize workers, 0 for GOMAXPROCS")
	cmd.Flags().Bool("keep-numbers", false, "keep digits during normalization")
	cmd.Flags().Bool("fold-diacritics", false, "fold accented letters to their base form")
	cmd.Flags().Bool("no-legal-terms", false, "skip the built-in legal stopword and abbreviation lists")
	cmd.Flags().String("rules", "", "YAML rules file overriding pipeline settings")
}

// pipelineConfigFromFlags assembles the pipeline configuration: defaults,
// then PARTYDEDUP_* environment variables, then the legal term lists
// unless --no-legal-terms, then the rules file, then explicit flags.
func pipelineConfigFromFlags(cmd *cobra.Command) (clustering.Config, error) {
	cfg, err := clustering.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}

	// The engine default is empty term lists. Court party data is what
	// this tool exists for, so the legal lists are on unless opted out.
	if noLegal, _ := cmd.Flags().GetBool("no-legal-terms"); !noLegal {
		cfg.Normalization.Stopwords = normalize.DefaultStopwords()
		cfg.Normalization.Abbreviations = normalize.DefaultAbbreviations()
	}

	if rules, _ := cmd.Flags().GetString("rules"); rules != "" {
		cfg, err = clustering.ApplyConfigFile(cfg, rules)
		if err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		value, _ := flags.GetString("algorithm")
		alg, err := similarity.ParseAlgorithm(value)
		if err != nil {
			return cfg, err
		}
		cfg.Algorithm = alg
	}
	if flags.Changed("threshold") {
		cfg.Threshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance, _ = flags.GetFloat64("tolerance")
	}
	if flags.Changed("key-scale") {
		cfg.KeyScale, _ = flags.GetFloat64("key-scale")
	}
	if flags.Changed("strategy") {
		value, _ := flags.GetString("strategy")
		strategy, err := clustering.ParseMergeStrategy(value)
		if err != nil {
			return cfg, err
		}
		cfg.Strategy = strategy
	}
	if flags.Changed("max-records") {
		cfg.MaxRecords, _ = flags.GetInt("max-records")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("keep-numbers") {
		keep, _ := flags.GetBool("keep-numbers")
		cfg.Normalization.RemoveNumbers = !keep
	}
	if flags.Changed("fold-diacritics") {
		cfg.Normalization.FoldDiacritics, _ = flags.GetBool("fold-diacritics")
	}

	cfg.Logger = slog.Default()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// addReadFlags registers the CSV input flags shared by cluster and repl.
func addReadFlags(cmd *cobra.Command) {
	cmd.Flags().String("delimiter", ",", `CSV field delimiter (single character, \t for tab)`)
	cmd.Flags().String("encoding", "", "input encoding when not UTF-8 (e.g. windows-1252)")
	cmd.Flags().Bool("no-header", false, "treat the first row as data, using positional columns")
}

// readOptionsFromFlags builds CSV read options from the command's flags.
func readOptionsFromFlags(cmd *cobra.Command) (csvio.ReadOptions, error) {
	opts := csvio.DefaultReadOptions()
	opts.Logger = slog.Default()

	value, _ := cmd.Flags().GetString("delimiter")
	delim, err := parseDelimiter(value)
	if err != nil {
		return opts, err
	}
	opts.Delimiter = delim

	opts.Encoding, _ = cmd.Flags().GetString("encoding")
	noHeader, _ := cmd.Flags().GetBool("no-header")
	opts.HasHeader = !noHeader
	return opts, nil
}

// parseDelimiter converts the --delimiter flag to a rune. The two
// character escape "\t" is accepted for tab.
func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character (got %q)", s)
	}
	return runes[0], nil
}
