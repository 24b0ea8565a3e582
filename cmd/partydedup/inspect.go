package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/courtdata/partydedup/internal/blocking"
	"github.com/courtdata/partydedup/internal/clustering"
	"github.com/courtdata/partydedup/internal/similarity"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <name> [name...]",
	Short: "Show how names move through the pipeline",
	Long: `Normalize the given names and show their blocking keys and windows.
With exactly two names, also score the pair under both similarity
algorithms and say whether each would merge at the configured threshold.

Examples:
  partydedup inspect "Smith Rental Co LLC"
  partydedup inspect "Smith Rental Co" "Smyth Rental Co"
  partydedup inspect --no-legal-terms "Acme Properties Inc"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := pipelineConfigFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		builder, err := clustering.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, name := range args {
			normalized := builder.Normalize(name)
			if normalized == "" {
				fmt.Printf("%q -> %s\n", name, gray("(empty after normalization)"))
				continue
			}
			key := builder.Key(normalized)
			lo, hi := blocking.Window(key, cfg.Tolerance)
			fmt.Printf("%q -> %s (key %.0f, window [%.1f, %.1f])\n", name, cyan(normalized), key, lo, hi)
		}

		if len(args) != 2 {
			return
		}
		x := builder.Normalize(args[0])
		y := builder.Normalize(args[1])
		if x == "" || y == "" {
			fmt.Printf("\n%s\n", gray("cannot score: a name normalized to empty"))
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Println()
		for _, alg := range []similarity.Algorithm{
			similarity.AlgorithmRatcliffObershelp,
			similarity.AlgorithmLevenshteinRatio,
		} {
			scorer, err := similarity.ScorerFor(alg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			score := scorer.Score(x, y)
			verdict := green(fmt.Sprintf("merges at %.2f", cfg.Threshold))
			if score < cfg.Threshold {
				verdict = yellow(fmt.Sprintf("below %.2f", cfg.Threshold))
			}
			fmt.Printf("  %-20s %.4f  %s\n", alg, score, verdict)
		}
	},
}

func init() {
	addPipelineFlags(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}
