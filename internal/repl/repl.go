// Package repl is the interactive inspection shell: load records once,
// then probe normalization, keys, similarity scores, and clusters, and
// re-cluster on the fly as parameters change.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/courtdata/partydedup/internal/clustering"
	"github.com/courtdata/partydedup/internal/types"
)

// REPL represents the interactive shell
type REPL struct {
	cfg      clustering.Config
	records  []types.Record
	builder  *clustering.Builder
	result   *clustering.Result
	out      io.Writer
	rl       *readline.Instance
	ctx      context.Context
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	// Records are the loaded input records the shell operates on.
	Records []types.Record

	// Cluster is the starting pipeline configuration.
	Cluster clustering.Config

	// Out receives command output. Nil means stdout.
	Out io.Writer
}

// New creates a new REPL instance and runs the initial clustering pass.
func New(cfg *Config) (*REPL, error) {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	r := &REPL{
		cfg:      cfg.Cluster,
		records:  cfg.Records,
		out:      out,
		ctx:      context.Background(),
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()

	if err := r.rebuild(); err != nil {
		return nil, err
	}
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("partydedup> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
	}
}

// processInput processes a single line of input
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	handler, ok := r.commands[command]
	if !ok {
		return fmt.Errorf("unknown command %q (try 'help')", command)
	}
	return handler(args)
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["norm"] = r.cmdNorm
	r.commands["key"] = r.cmdKey
	r.commands["sim"] = r.cmdSim
	r.commands["match"] = r.cmdMatch
	r.commands["clusters"] = r.cmdClusters
	r.commands["stats"] = r.cmdStats
	r.commands["threshold"] = r.cmdThreshold
	r.commands["tolerance"] = r.cmdTolerance
	r.commands["algorithm"] = r.cmdAlgorithm
	r.commands["strategy"] = r.cmdStrategy
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
}

// rebuild re-runs the clustering pipeline with the current configuration.
func (r *REPL) rebuild() error {
	builder, err := clustering.New(r.cfg)
	if err != nil {
		return err
	}
	result, err := builder.BuildClusters(r.ctx, r.records)
	if err != nil {
		return err
	}
	r.builder = builder
	r.result = result
	return nil
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("partydedup interactive shell"))
	fmt.Fprintf(r.out, "%d records, %d clusters under %s\n",
		len(r.records), len(r.result.Clusters), r.cfg)
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'exit' to quit")
	fmt.Fprintln(r.out)
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"norm NAME", "Show the normalized form of a name"},
		{"key NAME", "Show the blocking key and candidate window of a name"},
		{"sim A | B", "Score two names under the current algorithm"},
		{"match NAME", "Find the clusters closest to a name"},
		{"clusters [N]", "Show the first N clusters (default 10)"},
		{"stats", "Show the current run's statistics"},
		{"threshold V", "Set the merge threshold and re-cluster"},
		{"tolerance V", "Set the blocking tolerance and re-cluster"},
		{"algorithm NAME", "Switch similarity algorithm and re-cluster"},
		{"strategy NAME", "Switch merge strategy and re-cluster"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the shell"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %-18s %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Fprintln(r.out)
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s Goodbye!\n", green("✓"))
	if r.rl != nil {
		r.rl.Close()
	}
	return io.EOF // Signal to exit the loop
}
