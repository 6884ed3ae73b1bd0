package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/venuefed/browser"
	"github.com/pevans/venuefed/browser/browsertest"
	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/throttle"
)

// Test helper: create a collector over a fake browser
func setupTestCollector(t *testing.T, factory *browsertest.Factory) (*Collector, *throttle.Recorder) {
	t.Helper()
	recorder := &throttle.Recorder{}
	collector := NewCollector(factory, recorder, config.Default(), zerolog.Nop())
	return collector, recorder
}

// TestSearchURL verifies keyword tokens are joined with "+"
func TestSearchURL(t *testing.T) {
	base := "https://www.google.com/maps/search/"

	tests := []struct {
		name     string
		keywords string
		expected string
	}{
		{
			name:     "single word",
			keywords: "london",
			expected: base + "london/",
		},
		{
			name:     "multiple words",
			keywords: "Wedding venues places Moldova",
			expected: base + "Wedding+venues+places+Moldova/",
		},
		{
			name:     "irregular whitespace",
			keywords: "  a   b\tc\n",
			expected: base + "a+b+c/",
		},
		{
			name:     "punctuation untouched",
			keywords: "café & bar's",
			expected: base + "café+&+bar's/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SearchURL(base, tt.keywords))
		})
	}
}

// TestCollect_HarvestsLinksInOrder verifies links come back in page order
// and entries without links are skipped
func TestCollect_HarvestsLinksInOrder(t *testing.T) {
	factory := &browsertest.Factory{
		Heights: []int64{1000, 2000, 2000},
		Links: []*string{
			browsertest.Link("http://a"),
			nil,
			browsertest.Link("http://b"),
			browsertest.Link("  "),
			browsertest.Link("http://a"),
		},
	}
	collector, recorder := setupTestCollector(t, factory)

	links, err := collector.Collect(context.Background(), "event venues")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a", "http://b", "http://a"}, links, "duplicates are kept")

	sessions := factory.Sessions()
	require.Len(t, sessions, 1, "one session for the whole listing phase")
	assert.Equal(t, []string{"https://www.google.com/maps/search/event+venues/"}, sessions[0].Navigated)
	assert.Equal(t, []string{"form:nth-child(2)"}, sessions[0].Clicked)
	assert.True(t, sessions[0].Closed)

	policy := throttle.PolicyFrom(config.Default().Throttle)
	assert.Equal(t, 5, recorder.Count(policy.ItemDelay), "one pause per entry")
	pauses := recorder.Pauses()
	assert.Equal(t, policy.ListingCooldown, pauses[len(pauses)-1], "cooldown comes last")
}

// TestCollect_MissingConsentIsNotAnError verifies best-effort consent handling
func TestCollect_MissingConsentIsNotAnError(t *testing.T) {
	factory := &browsertest.Factory{
		ClickErr: errors.New("timed out waiting for form"),
		Heights:  []int64{500},
		Links:    []*string{browsertest.Link("http://a")},
	}
	collector, _ := setupTestCollector(t, factory)

	links, err := collector.Collect(context.Background(), "venues")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a"}, links)
}

// TestCollect_StopsWhenHeightStable verifies the scroll loop ends once the
// feed stops growing
func TestCollect_StopsWhenHeightStable(t *testing.T) {
	factory := &browsertest.Factory{
		Heights: []int64{1000, 2000, 3000, 3000, 4000},
	}
	collector, recorder := setupTestCollector(t, factory)

	_, err := collector.Collect(context.Background(), "venues")
	require.NoError(t, err)

	sessions := factory.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 3, sessions[0].Scrolls, "two growing scrolls then one stable")
	assert.Equal(t, 3, recorder.Count(3*time.Second), "settle pause after each scroll")
}

// TestCollect_StableRounds verifies consecutive stable attempts are required
func TestCollect_StableRounds(t *testing.T) {
	factory := &browsertest.Factory{
		Heights: []int64{1000, 1000, 2000, 2000, 2000},
	}
	cfg := config.Default()
	cfg.Scroll.StableRounds = 2
	collector := NewCollector(factory, &throttle.Recorder{}, cfg, zerolog.Nop())

	_, err := collector.Collect(context.Background(), "venues")
	require.NoError(t, err)

	// 1000 (stable 1), 2000 (grow, reset), 2000 (stable 1), 2000 (stable 2)
	assert.Equal(t, 4, factory.Sessions()[0].Scrolls)
}

// TestCollect_MaxScrolls verifies an ever-growing feed is bounded
func TestCollect_MaxScrolls(t *testing.T) {
	heights := make([]int64, 100)
	for i := range heights {
		heights[i] = int64(i+1) * 1000
	}
	factory := &browsertest.Factory{Heights: heights}
	cfg := config.Default()
	cfg.Scroll.MaxScrolls = 7
	collector := NewCollector(factory, &throttle.Recorder{}, cfg, zerolog.Nop())

	_, err := collector.Collect(context.Background(), "venues")
	require.NoError(t, err)
	assert.Equal(t, 7, factory.Sessions()[0].Scrolls)
}

// TestCollect_FeedMissing verifies a missing feed fails the phase but still
// releases the session and applies the cooldown
func TestCollect_FeedMissing(t *testing.T) {
	factory := &browsertest.Factory{
		WaitErr: errors.New("context deadline exceeded"),
	}
	collector, recorder := setupTestCollector(t, factory)

	links, err := collector.Collect(context.Background(), "venues")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCollect)
	assert.Empty(t, links)

	sessions := factory.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Closed, "session closed on failure")
	assert.Equal(t, []time.Duration{40 * time.Second}, recorder.Pauses(), "cooldown applied on failure")
}

// TestCollect_NavigationFailure verifies navigation errors are wrapped
func TestCollect_NavigationFailure(t *testing.T) {
	searchURL := SearchURL(config.DefaultSelectors().SearchBase, "venues")
	factory := &browsertest.Factory{
		Pages: map[string]browsertest.Page{
			searchURL: {NavigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")},
		},
	}
	collector, _ := setupTestCollector(t, factory)

	_, err := collector.Collect(context.Background(), "venues")
	assert.ErrorIs(t, err, ErrCollect)
	assert.ErrorIs(t, err, browser.ErrNavigate)
	assert.True(t, factory.Sessions()[0].Closed)
}

// TestCollect_AcquireFailure verifies a browser that won't start fails fast
func TestCollect_AcquireFailure(t *testing.T) {
	factory := &browsertest.Factory{AcquireErr: browser.ErrLaunch}
	collector, recorder := setupTestCollector(t, factory)

	_, err := collector.Collect(context.Background(), "venues")
	assert.ErrorIs(t, err, ErrCollect)
	assert.ErrorIs(t, err, browser.ErrLaunch)
	assert.Empty(t, recorder.Pauses(), "no session, no cooldown")
}

// TestCollect_EnumerateFailure verifies a failed entry count is an error
func TestCollect_EnumerateFailure(t *testing.T) {
	factory := &browsertest.Factory{
		Heights:  []int64{100},
		CountErr: errors.New("execution context was destroyed"),
	}
	collector, _ := setupTestCollector(t, factory)

	_, err := collector.Collect(context.Background(), "venues")
	assert.ErrorIs(t, err, ErrCollect)
	assert.True(t, factory.Sessions()[0].Closed)
}
