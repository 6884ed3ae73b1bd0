package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvKeywords      = "VENUEFED_KEYWORDS"
	EnvURLLog        = "VENUEFED_URL_LOG"
	EnvRecords       = "VENUEFED_RECORDS"
	EnvCredentials   = "VENUEFED_CREDENTIALS"
	EnvSpreadsheetID = "VENUEFED_SPREADSHEET_ID"
	EnvSheet         = "VENUEFED_SHEET"
	EnvXLSX          = "VENUEFED_XLSX"
	EnvHistory       = "VENUEFED_HISTORY"
	EnvHeadless      = "VENUEFED_HEADLESS"
	EnvLogFormat     = "VENUEFED_LOG_FORMAT"
)

// LoadDotEnv loads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any VENUEFED_* variables that are set.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.SearchKeywords, EnvKeywords)
	setString(&cfg.URLLogPath, EnvURLLog)
	setString(&cfg.RecordSnapshotPath, EnvRecords)
	setString(&cfg.CredentialPath, EnvCredentials)
	setString(&cfg.SpreadsheetID, EnvSpreadsheetID)
	setString(&cfg.SheetName, EnvSheet)
	setString(&cfg.XLSXPath, EnvXLSX)
	setString(&cfg.HistoryPath, EnvHistory)
	setString(&cfg.LogFormat, EnvLogFormat)

	if value := os.Getenv(EnvHeadless); value != "" {
		headless, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a boolean: %v", ErrInvalidConfig, EnvHeadless, err)
		}
		cfg.Browser.Headless = headless
	}

	return nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
