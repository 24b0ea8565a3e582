package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved clustering runs",
	Long: `List runs saved with 'cluster --save', newest first.

Examples:
  partydedup runs
  partydedup runs --limit 5`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := context.Background()

		s, err := ensureStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		runs, err := s.ListRuns(ctx, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list runs: %v\n", err)
			os.Exit(1)
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("\n%s\n", yellow("Saved Runs:"))
		if len(runs) == 0 {
			fmt.Printf("  %s\n\n", gray("No saved runs (use 'cluster --save')"))
			return
		}
		for _, run := range runs {
			fmt.Printf("  %s  %s\n", cyan(run.ID), gray(run.CreatedAt.Local().Format("2006-01-02 15:04:05")))
			fmt.Printf("    %s @ %.2f (%s merge), %d records -> %d clusters",
				run.Algorithm, run.Threshold, run.Strategy,
				run.Stats.ProcessedRecords, run.Stats.ClusterCount)
			if run.WarningCount > 0 {
				fmt.Printf(", %d warnings", run.WarningCount)
			}
			fmt.Println()
			if run.InputPath != "" {
				fmt.Printf("    input: %s\n", run.InputPath)
			}
		}
		fmt.Println()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "show at most this many runs, 0 for all")
	rootCmd.AddCommand(runsCmd)
}
