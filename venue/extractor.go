package venue

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pevans/venuefed/browser"
	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/throttle"
)

// ErrNavigation is returned in strict mode when a venue page can't be
// loaded.
var ErrNavigation = errors.New("failed to load venue page")

// Extractor visits venue pages one at a time, each in its own session.
type Extractor struct {
	factory   browser.Factory
	pacer     throttle.Pacer
	policy    throttle.Policy
	selectors config.Selectors
	browser   config.BrowserConfig
	strict    bool
	logger    zerolog.Logger
}

// NewExtractor creates an extractor from cfg.
func NewExtractor(factory browser.Factory, pacer throttle.Pacer, cfg config.Config, logger zerolog.Logger) *Extractor {
	return &Extractor{
		factory:   factory,
		pacer:     pacer,
		policy:    throttle.PolicyFrom(cfg.Throttle),
		selectors: cfg.Selectors,
		browser:   cfg.Browser,
		strict:    cfg.StrictNavigation,
		logger:    logger.With().Str("component", "venue").Logger(),
	}
}

// Extract returns one record per URL, in input order. A page that fails to
// load yields an empty record unless the extractor is strict, in which case
// the records so far are returned with an error wrapping ErrNavigation.
// Cancellation and a browser that won't launch always stop the batch.
func (e *Extractor) Extract(ctx context.Context, urls []string) ([]Record, error) {
	records := make([]Record, 0, len(urls))

	for i, url := range urls {
		log := e.logger.With().Str("url", url).Int("index", i).Logger()

		record, err := e.visit(ctx, url, log)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			if errors.Is(err, browser.ErrLaunch) {
				return records, fmt.Errorf("failed to start browser for %s: %w", url, err)
			}
			if e.strict {
				return records, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
			}
			log.Warn().Err(err).Msg("venue page failed, emitting empty record")
			record = Record{}
		}

		records = append(records, record)
		log.Info().
			Int("fields", record.Populated()).
			Int("done", len(records)).
			Int("total", len(urls)).
			Msg("extracted venue")
	}

	return records, nil
}

// visit loads url in a fresh session and extracts its record. The session is
// closed and the detail cooldown applied whatever happens once the session
// exists.
func (e *Extractor) visit(ctx context.Context, url string, log zerolog.Logger) (record Record, err error) {
	session, err := e.factory.Acquire(ctx)
	if err != nil {
		return Record{}, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close venue session")
		}
		if pauseErr := e.pacer.Pause(ctx, e.policy.DetailCooldown); pauseErr != nil && err == nil {
			err = pauseErr
		}
	}()

	if err := session.Navigate(ctx, url); err != nil {
		return Record{}, err
	}

	// The detail heading renders late; extraction still runs if it never shows
	if e.selectors.DetailReady != "" {
		if err := session.WaitVisible(ctx, e.selectors.DetailReady, e.browser.DetailWait); err != nil {
			log.Debug().Err(err).Msg("detail page not ready, extracting anyway")
		}
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return Record{}, err
	}

	record = ParseRecord(html, e.selectors)

	if err := e.pacer.Pause(ctx, e.policy.RecordDelay); err != nil {
		return record, err
	}

	return record, nil
}
