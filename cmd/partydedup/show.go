package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/courtdata/partydedup/internal/csvio"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the clusters of a saved run",
	Long: `Print the clusters of a saved run in emission order, or export them
to a CSV file with --output.

Examples:
  partydedup show --run 6f1cb3a2-...
  partydedup show --run 6f1cb3a2-... --limit 50
  partydedup show --run 6f1cb3a2-... --output clusters.csv`,
	Run: func(cmd *cobra.Command, args []string) {
		runID, _ := cmd.Flags().GetString("run")
		if runID == "" {
			fmt.Fprintf(os.Stderr, "Error: --run is required\n")
			os.Exit(1)
		}
		output, _ := cmd.Flags().GetString("output")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		s, err := ensureStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		run, err := s.GetRun(ctx, runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		clusters, err := s.GetClusters(ctx, runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if output != "" {
			if err := csvio.WriteClusters(output, clusters); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", output, err)
				os.Exit(1)
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Wrote %d clusters to %s\n", green("✓"), len(clusters), output)
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s  %s\n", cyan(run.ID), gray(run.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		fmt.Printf("  %s @ %.2f (%s merge)", run.Algorithm, run.Threshold, run.Strategy)
		if run.InputPath != "" {
			fmt.Printf(", input %s", run.InputPath)
		}
		fmt.Println()
		fmt.Printf("  %d records -> %d clusters (%d exact duplicates, %d fuzzy matches)\n\n",
			run.Stats.ProcessedRecords, run.Stats.ClusterCount,
			run.Stats.ExactDuplicates, run.Stats.FuzzyMatches)

		shown := len(clusters)
		if limit > 0 && limit < shown {
			shown = limit
		}
		for i, cluster := range clusters[:shown] {
			fmt.Printf("%4d  %s (count %d, records %d)\n",
				i+1, cluster.CanonicalName, cluster.TotalCount, len(cluster.Members))
			if len(cluster.Aliases) > 0 {
				fmt.Printf("      aliases: %s\n", strings.Join(cluster.Aliases, ", "))
			}
		}
		if shown < len(clusters) {
			fmt.Printf("%s\n", gray(fmt.Sprintf("  ... and %d more (use --limit 0 for all)", len(clusters)-shown)))
		}
		fmt.Println()
	},
}

func init() {
	showCmd.Flags().String("run", "", "run ID to show (required)")
	showCmd.Flags().StringP("output", "o", "", "export clusters to this CSV file instead of printing")
	showCmd.Flags().Int("limit", 20, "print at most this many clusters, 0 for all")
	rootCmd.AddCommand(showCmd)
}
