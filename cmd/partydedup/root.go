package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/courtdata/partydedup/internal/storage"
)

// version is stamped by the release build.
var version = "0.3.0"

var (
	dbPath  string
	verbose bool

	// store is opened lazily by ensureStore. Tests preset it to point
	// commands at an in-memory database.
	store storage.Storage
)

var rootCmd = &cobra.Command{
	Use:   "partydedup",
	Short: "Cluster near-duplicate party names from court records",
	Long: `partydedup groups the spelling variants of the same litigant that
accumulate across court filings: "Smith Rental Co LLC", "Smith Rental Co.",
and "Smyth Rental Co" become one cluster with one canonical name.

Records come in as CSV, run through a normalize/block/score pipeline, and
come out as clusters with merged counts and attributes. Finished runs can
be saved to a local database and inspected later.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command. It is the single exit path for main, so
// the runs database is closed no matter which command ran.
func Execute() {
	defer closeStore()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", storage.DefaultConfig().Path, "path to the runs database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// ensureStore opens the runs database on first use.
func ensureStore(ctx context.Context) (storage.Storage, error) {
	if store != nil {
		return store, nil
	}
	s, err := storage.NewStorage(ctx, &storage.Config{Path: dbPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open runs database %s: %w", dbPath, err)
	}
	store = s
	return store, nil
}

func closeStore() {
	if store != nil {
		store.Close()
		store = nil
	}
}
