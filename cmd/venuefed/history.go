package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/history"
)

// historyCommand prints recent phase runs from the history database. The
// database path is resolved the same way as for the run command.
func historyCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("venuefed history", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to YAML config file (default ~/.venuefed/config.yaml)")
	path := fs.String("history", "", "SQLite run history (default history_path or "+config.EnvHistory+")")
	limit := fs.Int("limit", 20, "Number of entries to show (0 for all)")
	format := fs.String("format", "table", "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if isHelp(err) {
			return 0
		}
		return 1
	}

	cfg, err := loadBaseConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *path != "" {
		cfg.HistoryPath = *path
	}
	if cfg.HistoryPath == "" {
		fmt.Fprintf(stderr, "Error: no run history configured; set history_path, %s or -history\n", config.EnvHistory)
		return 1
	}

	entries, err := readHistory(cfg.HistoryPath, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch *format {
	case "table":
		printHistoryTable(stdout, entries)
	case "json":
		if err := printHistoryJSON(stdout, entries); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "Error: unknown format: %s\n", *format)
		return 1
	}

	return 0
}

// readHistory returns the most recent entries at path. A database that
// doesn't exist yet has no entries and is not created.
func readHistory(path string, limit int) ([]history.Entry, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	store, err := history.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	return store.List(limit)
}

// printHistoryTable prints entries in human-readable table format
func printHistoryTable(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tPHASE\tSTATUS\tKIND\tLINKS\tRECORDS\tDURATION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.RunID.String()[:8],
			e.Phase,
			e.Status,
			e.ErrorKind,
			e.Links,
			e.Records,
			e.Duration().Round(time.Second),
		)
	}
	tw.Flush()
}

// printHistoryJSON prints entries in JSON format
func printHistoryJSON(w io.Writer, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return nil
}
