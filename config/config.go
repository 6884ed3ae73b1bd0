package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Custom errors for configuration
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Header modes for the sheet publisher.
const (
	HeaderFirst = "first"
	HeaderUnion = "union"
)

// Config is the explicit configuration object passed to each phase. It
// replaces the fixed filenames and keyword defaults the scraper used to
// carry as globals.
type Config struct {
	SearchKeywords     string `yaml:"search_keywords"`
	URLLogPath         string `yaml:"url_log_path"`
	RecordSnapshotPath string `yaml:"record_snapshot_path"`
	CredentialPath     string `yaml:"credential_path"`
	SpreadsheetID      string `yaml:"spreadsheet_id"`
	SheetName          string `yaml:"sheet_name"`

	// Optional outputs. Empty disables them.
	XLSXPath    string `yaml:"xlsx_path"`
	HistoryPath string `yaml:"history_path"`

	LogFormat string `yaml:"log_format"` // "console" or "json"

	// StrictNavigation aborts the detail phase on the first page that fails
	// to load instead of emitting an empty record for it.
	StrictNavigation bool `yaml:"strict_navigation"`

	Browser   BrowserConfig  `yaml:"browser"`
	Scroll    ScrollConfig   `yaml:"scroll"`
	Throttle  ThrottleConfig `yaml:"throttle"`
	Publish   PublishConfig  `yaml:"publish"`
	Selectors Selectors      `yaml:"selectors"`
}

// BrowserConfig controls how headless sessions are launched.
type BrowserConfig struct {
	Headless     bool          `yaml:"headless"`
	UserAgent    string        `yaml:"user_agent"`
	WindowWidth  int           `yaml:"window_width"`
	WindowHeight int           `yaml:"window_height"`
	ConsentWait  time.Duration `yaml:"consent_wait"`
	FeedWait     time.Duration `yaml:"feed_wait"`
	DetailWait   time.Duration `yaml:"detail_wait"`
}

// ScrollConfig bounds the lazy-load scroll loop on the results feed.
type ScrollConfig struct {
	// Number of consecutive attempts without height growth before the feed
	// is considered fully loaded.
	StableRounds int `yaml:"stable_rounds"`
	MaxScrolls   int `yaml:"max_scrolls"`
}

// ThrottleConfig holds the fixed pauses between browser requests.
type ThrottleConfig struct {
	ItemDelay       time.Duration `yaml:"item_delay"`
	ScrollSettle    time.Duration `yaml:"scroll_settle"`
	ListingCooldown time.Duration `yaml:"listing_cooldown"`
	RecordDelay     time.Duration `yaml:"record_delay"`
	DetailCooldown  time.Duration `yaml:"detail_cooldown"`
}

// PublishConfig controls how records reach the spreadsheet.
type PublishConfig struct {
	HeaderMode        string  `yaml:"header_mode"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Selectors defines where venue data lives in the rendered map pages. The
// map surface has no documented contract, so these are configurable.
type Selectors struct {
	SearchBase string `yaml:"search_base"`
	Consent    string `yaml:"consent"`
	Feed       string `yaml:"feed"`
	FeedItem   string `yaml:"feed_item"`
	ItemLink   string `yaml:"item_link"`

	DetailReady string `yaml:"detail_ready"`
	Name        string `yaml:"name"`
	Rating      string `yaml:"rating"`
	Location    string `yaml:"location"`
	Image       string `yaml:"image"`
	Website     string `yaml:"website"`
}

// Default returns a Config populated with the historical defaults.
func Default() Config {
	return Config{
		SearchKeywords:     "Wedding venues places Moldova",
		URLLogPath:         "persons_url_list.txt",
		RecordSnapshotPath: "data_all_companies.json",
		CredentialPath:     "credentials.json",
		SheetName:          "Sheet1",
		LogFormat:          "console",
		Browser: BrowserConfig{
			Headless: true,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			WindowWidth:  1440,
			WindowHeight: 900,
			ConsentWait:  10 * time.Second,
			FeedWait:     30 * time.Second,
			DetailWait:   15 * time.Second,
		},
		Scroll: ScrollConfig{
			StableRounds: 1,
			MaxScrolls:   200,
		},
		Throttle: ThrottleConfig{
			ItemDelay:       2 * time.Second,
			ScrollSettle:    3 * time.Second,
			ListingCooldown: 40 * time.Second,
			RecordDelay:     2 * time.Second,
			DetailCooldown:  5 * time.Second,
		},
		Publish: PublishConfig{
			HeaderMode:        HeaderFirst,
			RequestsPerSecond: 1,
		},
		Selectors: DefaultSelectors(),
	}
}

// DefaultSelectors returns the selectors matching the current map markup.
func DefaultSelectors() Selectors {
	return Selectors{
		SearchBase:  "https://www.google.com/maps/search/",
		Consent:     "form:nth-child(2)",
		Feed:        `div[role="feed"]`,
		FeedItem:    `div[role="feed"] > div > div[jsaction]`,
		ItemLink:    "a",
		DetailReady: "h1",
		Name:        "h1.DUwDvf.lfPIob",
		Rating:      "div.LBgpqf span",
		Location:    "div.rogA2c",
		Image:       "div.RZ66Rb.FgCUCc img",
		Website:     "a.CsEnBe",
	}
}

// Validate checks that the configuration can drive both phases.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.SearchKeywords) == "" {
		problems = append(problems, "search_keywords must not be empty")
	}
	if c.URLLogPath == "" {
		problems = append(problems, "url_log_path must not be empty")
	}
	if c.RecordSnapshotPath == "" {
		problems = append(problems, "record_snapshot_path must not be empty")
	}
	if c.SheetName == "" {
		problems = append(problems, "sheet_name must not be empty")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		problems = append(problems, "log_format must be console or json")
	}
	if c.Publish.HeaderMode != HeaderFirst && c.Publish.HeaderMode != HeaderUnion {
		problems = append(problems, "publish.header_mode must be first or union")
	}
	if c.Publish.RequestsPerSecond <= 0 {
		problems = append(problems, "publish.requests_per_second must be positive")
	}
	if c.Scroll.StableRounds < 1 {
		problems = append(problems, "scroll.stable_rounds must be at least 1")
	}
	if c.Scroll.MaxScrolls < 1 {
		problems = append(problems, "scroll.max_scrolls must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
