// Package listing gathers candidate venue links from the map search results.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pevans/venuefed/browser"
	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/throttle"
)

// ErrCollect wraps any failure that ends the listing phase early.
var ErrCollect = errors.New("failed to collect listing links")

// SearchURL builds the search URL for keywords: whitespace-delimited tokens
// joined with "+", nothing else altered.
func SearchURL(base, keywords string) string {
	return base + strings.Join(strings.Fields(keywords), "+") + "/"
}

// Collector drives a search, lazy-loads the results feed and harvests the
// link of every result entry.
type Collector struct {
	factory   browser.Factory
	pacer     throttle.Pacer
	policy    throttle.Policy
	selectors config.Selectors
	browser   config.BrowserConfig
	scroll    config.ScrollConfig
	logger    zerolog.Logger
}

// NewCollector creates a collector from cfg.
func NewCollector(factory browser.Factory, pacer throttle.Pacer, cfg config.Config, logger zerolog.Logger) *Collector {
	return &Collector{
		factory:   factory,
		pacer:     pacer,
		policy:    throttle.PolicyFrom(cfg.Throttle),
		selectors: cfg.Selectors,
		browser:   cfg.Browser,
		scroll:    cfg.Scroll,
		logger:    logger.With().Str("component", "listing").Logger(),
	}
}

// Collect returns the venue links for keywords in page order. Duplicates are
// kept. The session is closed and the listing cooldown applied on every exit
// path once a session was acquired. On failure the links gathered so far are
// returned alongside an error wrapping ErrCollect.
func (c *Collector) Collect(ctx context.Context, keywords string) (links []string, err error) {
	searchURL := SearchURL(c.selectors.SearchBase, keywords)
	log := c.logger.With().Str("url", searchURL).Logger()

	session, err := c.factory.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollect, err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close listing session")
		}
		// Throttle successive invocations
		if pauseErr := c.pacer.Pause(ctx, c.policy.ListingCooldown); pauseErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrCollect, pauseErr)
		}
	}()

	log.Info().Msg("searching")
	if err := session.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollect, err)
	}

	c.dismissConsent(ctx, session, log)

	if err := session.WaitVisible(ctx, c.selectors.Feed, c.browser.FeedWait); err != nil {
		return nil, fmt.Errorf("%w: results feed never appeared: %w", ErrCollect, err)
	}

	scrolls, err := c.scrollFeed(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scroll results feed: %w", ErrCollect, err)
	}
	log.Debug().Int("scrolls", scrolls).Msg("results feed loaded")

	links, err = c.harvestLinks(ctx, session, log)
	if err != nil {
		return links, fmt.Errorf("%w: %w", ErrCollect, err)
	}

	log.Info().Int("count", len(links)).Msg("collected venue links")
	return links, nil
}

// dismissConsent clicks the consent control if it shows up. Absence is not
// an error.
func (c *Collector) dismissConsent(ctx context.Context, session browser.Session, log zerolog.Logger) {
	if c.selectors.Consent == "" {
		return
	}

	if err := session.Click(ctx, c.selectors.Consent, c.browser.ConsentWait); err != nil {
		log.Debug().Err(err).Msg("no consent control to dismiss")
		return
	}
	log.Debug().Msg("dismissed consent control")
}

// scrollFeed scrolls the results feed until its height stops growing for
// StableRounds consecutive attempts, or MaxScrolls is reached. Returns the
// number of scrolls performed.
func (c *Collector) scrollFeed(ctx context.Context, session browser.Session) (int, error) {
	height, err := session.ScrollHeight(ctx, c.selectors.Feed)
	if err != nil {
		return 0, err
	}

	stable := 0
	for scrolls := 1; scrolls <= c.scroll.MaxScrolls; scrolls++ {
		if err := session.ScrollToEnd(ctx, c.selectors.Feed); err != nil {
			return scrolls, err
		}
		if err := c.pacer.Pause(ctx, c.policy.ScrollSettle); err != nil {
			return scrolls, err
		}

		next, err := session.ScrollHeight(ctx, c.selectors.Feed)
		if err != nil {
			return scrolls, err
		}

		if next > height {
			height = next
			stable = 0
			continue
		}

		stable++
		if stable >= c.scroll.StableRounds {
			return scrolls, nil
		}
	}

	c.logger.Warn().
		Int("max_scrolls", c.scroll.MaxScrolls).
		Int64("height", height).
		Msg("feed still growing at scroll limit")
	return c.scroll.MaxScrolls, nil
}

// harvestLinks reads the link of every result entry. Entries without a
// readable link are skipped.
func (c *Collector) harvestLinks(ctx context.Context, session browser.Session, log zerolog.Logger) ([]string, error) {
	count, err := session.Count(ctx, c.selectors.FeedItem)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate results: %w", err)
	}

	links := []string{}
	for i := range count {
		link, err := session.ChildAttribute(ctx, c.selectors.FeedItem, i, c.selectors.ItemLink, "href")
		switch {
		case ctx.Err() != nil:
			return links, ctx.Err()
		case err != nil:
			log.Debug().Err(err).Int("index", i).Msg("skipping result without link")
		case strings.TrimSpace(link) != "":
			links = append(links, strings.TrimSpace(link))
		}

		// Pause between items so the session isn't hammered
		if err := c.pacer.Pause(ctx, c.policy.ItemDelay); err != nil {
			return links, err
		}
	}

	return links, nil
}
