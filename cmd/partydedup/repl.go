package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/courtdata/partydedup/internal/csvio"
	"github.com/courtdata/partydedup/internal/repl"
	"github.com/courtdata/partydedup/internal/types"
)

var replCmd = &cobra.Command{
	Use:   "repl [records.csv]",
	Short: "Start the interactive inspection shell",
	Long: `Start an interactive shell for poking at the pipeline: normalize
names, check blocking keys, score pairs, and re-cluster with different
parameters without restarting.

With a CSV argument the records are loaded and clustered at startup, so
'clusters', 'match', and 'stats' have data to work with.

Examples:
  partydedup repl
  partydedup repl parties.csv
  partydedup repl parties.csv --threshold 0.85`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := pipelineConfigFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var records []types.Record
		if len(args) == 1 {
			readOpts, err := readOptionsFromFlags(cmd)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			readOpts.MaxRecords = cfg.MaxRecords
			records, _, err = csvio.ReadRecords(args[0], readOpts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", args[0], err)
				os.Exit(1)
			}
		}

		shell, err := repl.New(&repl.Config{
			Records: records,
			Cluster: cfg,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := shell.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	addPipelineFlags(replCmd)
	addReadFlags(replCmd)
	rootCmd.AddCommand(replCmd)
}
