package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pevans/venuefed"
	"github.com/pevans/venuefed/browser"
	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/history"
	"github.com/pevans/venuefed/listing"
	"github.com/pevans/venuefed/sheets"
	"github.com/pevans/venuefed/throttle"
	"github.com/pevans/venuefed/venue"
)

func main() {
	// .env first so flag defaults can see it
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	args := os.Args[1:]
	command := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	switch command {
	case "run":
		os.Exit(runCommand(args))
	case "history":
		os.Exit(historyCommand(args, os.Stdout, os.Stderr))
	case "help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
}

// runCommand scrapes then publishes. Configuration errors exit 1; phase
// failures are logged and exit 0.
func runCommand(args []string) int {
	cfg, err := loadConfig(args, os.Stderr)
	if err != nil {
		if isHelp(err) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := venuefed.NewLogger(cfg.LogFormat, os.Stderr)

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := buildDeps(cfg, logger)
	if cfg.HistoryPath != "" {
		store, err := history.NewStore(cfg.HistoryPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.HistoryPath).Msg("run history disabled")
		} else {
			defer store.Close()
			deps.History = store
		}
	}

	pipeline := venuefed.NewPipeline(cfg, deps, logger)
	for _, res := range pipeline.Run(ctx) {
		if !res.OK() {
			fmt.Fprintf(os.Stderr, "An error occurred during %s: %v\n", res.Phase, res.Err)
		}
	}

	return 0
}

// buildDeps wires the Chrome-backed scrapers and the Google Sheets publisher.
func buildDeps(cfg config.Config, logger zerolog.Logger) venuefed.Deps {
	pacer := throttle.Sleeper{}
	factory := browser.NewChromeFactory(cfg.Browser, logger)

	return venuefed.Deps{
		Collector: listing.NewCollector(factory, pacer, cfg, logger),
		Extractor: venue.NewExtractor(factory, pacer, cfg, logger),
		Connect: func(ctx context.Context) (venuefed.Publisher, error) {
			client, err := sheets.NewGoogleSheets(ctx, cfg.CredentialPath, cfg.Publish.RequestsPerSecond, logger)
			if err != nil {
				return nil, err
			}
			return sheets.NewPublisher(client, cfg.Publish.HeaderMode, logger), nil
		},
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "venuefed - Scrape map venues and publish them to a spreadsheet")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  venuefed [run] [flags]        Scrape venues, then publish the snapshot")
	fmt.Fprintln(w, "  venuefed history [flags]      Show recent runs")
	fmt.Fprintln(w, "  venuefed help                 Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'venuefed run -h' or 'venuefed history -h' for flags.")
}
