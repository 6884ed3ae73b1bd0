package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pevans/venuefed/config"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool parses a bool from environment variable or returns default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig builds the run configuration. Later sources win: defaults, the
// YAML config file, the environment (including .env), then flags that were
// given explicitly.
func loadConfig(args []string, stderr io.Writer) (config.Config, error) {
	defaults := config.Default()

	fs := flag.NewFlagSet("venuefed run", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to YAML config file (default ~/.venuefed/config.yaml)")
	keywords := fs.String("keywords", getEnv(config.EnvKeywords, defaults.SearchKeywords), "Search keywords ("+config.EnvKeywords+")")
	urlLog := fs.String("url-log", getEnv(config.EnvURLLog, defaults.URLLogPath), "Append-only URL log ("+config.EnvURLLog+")")
	recordsPath := fs.String("records", getEnv(config.EnvRecords, defaults.RecordSnapshotPath), "Record snapshot file ("+config.EnvRecords+")")
	credentials := fs.String("credentials", getEnv(config.EnvCredentials, defaults.CredentialPath), "Service account key file ("+config.EnvCredentials+")")
	spreadsheet := fs.String("spreadsheet", getEnv(config.EnvSpreadsheetID, defaults.SpreadsheetID), "Spreadsheet ID ("+config.EnvSpreadsheetID+")")
	sheet := fs.String("sheet", getEnv(config.EnvSheet, defaults.SheetName), "Worksheet name ("+config.EnvSheet+")")
	xlsx := fs.String("xlsx", getEnv(config.EnvXLSX, defaults.XLSXPath), "Optional workbook export path ("+config.EnvXLSX+")")
	historyPath := fs.String("history", getEnv(config.EnvHistory, defaults.HistoryPath), "Optional SQLite run history ("+config.EnvHistory+")")
	headless := fs.Bool("headless", getEnvBool(config.EnvHeadless, defaults.Browser.Headless), "Run Chrome headless ("+config.EnvHeadless+")")
	logFormat := fs.String("log-format", getEnv(config.EnvLogFormat, defaults.LogFormat), "Log format: console or json ("+config.EnvLogFormat+")")
	strict := fs.Bool("strict", defaults.StrictNavigation, "Abort the detail phase on the first page that fails to load")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	if fs.NArg() > 0 {
		return config.Config{}, fmt.Errorf("%w: unexpected arguments: %v", config.ErrInvalidConfig, fs.Args())
	}

	cfg, err := loadBaseConfig(*configPath)
	if err != nil {
		return config.Config{}, err
	}

	// Only flags given on the command line override the file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "keywords":
			cfg.SearchKeywords = *keywords
		case "url-log":
			cfg.URLLogPath = *urlLog
		case "records":
			cfg.RecordSnapshotPath = *recordsPath
		case "credentials":
			cfg.CredentialPath = *credentials
		case "spreadsheet":
			cfg.SpreadsheetID = *spreadsheet
		case "sheet":
			cfg.SheetName = *sheet
		case "xlsx":
			cfg.XLSXPath = *xlsx
		case "history":
			cfg.HistoryPath = *historyPath
		case "headless":
			cfg.Browser.Headless = *headless
		case "log-format":
			cfg.LogFormat = *logFormat
		case "strict":
			cfg.StrictNavigation = *strict
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// loadBaseConfig applies the config file and the environment on top of the
// defaults. An explicit configPath must exist; otherwise the default location
// is optional.
func loadBaseConfig(configPath string) (config.Config, error) {
	cfg := config.Default()

	if configPath != "" {
		found, err := config.LoadFile(configPath, &cfg)
		if err != nil {
			return config.Config{}, err
		}
		if !found {
			return config.Config{}, fmt.Errorf("%w: config file %s not found", config.ErrInvalidConfig, configPath)
		}
	} else if _, err := config.LoadConfigFile(&cfg); err != nil {
		return config.Config{}, err
	}

	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// isHelp reports whether err came from -h or -help.
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
