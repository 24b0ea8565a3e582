package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a saved run",
	Long: `Delete a saved run and its clusters from the runs database.

Examples:
  partydedup delete 6f1cb3a2-...`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		s, err := ensureStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := s.DeleteRun(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Deleted run %s\n", green("✓"), args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
