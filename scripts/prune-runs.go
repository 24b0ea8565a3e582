// scripts/prune-runs.go - Manual old-run cleanup tool
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/courtdata/partydedup/internal/storage"
)

func main() {
	ctx := context.Background()

	// Use default config to find database
	cfg := storage.DefaultConfig()

	// Allow override via environment variable
	if dbPath := os.Getenv("PARTYDEDUP_DB_PATH"); dbPath != "" {
		cfg.Path = dbPath
	}

	retentionDays := 30
	if value := os.Getenv("PARTYDEDUP_RETENTION_DAYS"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			fmt.Fprintf(os.Stderr, "Error: invalid PARTYDEDUP_RETENTION_DAYS %q\n", value)
			os.Exit(1)
		}
		retentionDays = parsed
	}

	fmt.Printf("Connecting to database: %s\n", cfg.Path)

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	fmt.Printf("Pruning runs created before %s (retention: %d days)...\n",
		cutoff.Format("2006-01-02"), retentionDays)

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
		os.Exit(1)
	}

	pruned := 0
	for _, run := range runs {
		if !run.CreatedAt.Before(cutoff) {
			continue
		}
		if err := store.DeleteRun(ctx, run.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting run %s: %v\n", run.ID, err)
			os.Exit(1)
		}
		pruned++
	}

	fmt.Printf("Pruned %d run(s), %d remaining\n", pruned, len(runs)-pruned)
}
