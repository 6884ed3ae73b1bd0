// Package browsertest provides an in-memory browser.Factory for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pevans/venuefed/browser"
)

// Page is a canned page served by the fake browser.
type Page struct {
	HTML        string
	NavigateErr error
	HTMLErr     error
}

// Factory serves canned pages and results-feed behavior.
type Factory struct {
	// AcquireErr fails every Acquire call when set.
	AcquireErr error

	// Pages maps URLs to canned pages. Unknown URLs render an empty page.
	Pages map[string]Page

	// ClickErr and WaitErr are returned from Click and WaitVisible.
	ClickErr error
	WaitErr  error

	// Heights are the feed heights reported after 0, 1, 2, ... scrolls. The
	// last value repeats once the slice is exhausted.
	Heights   []int64
	ScrollErr error

	// Links are the per-item feed links. A nil entry has no anchor.
	Links    []*string
	CountErr error

	mu       sync.Mutex
	sessions []*Session
}

// Link is a helper for building Factory.Links.
func Link(s string) *string {
	return &s
}

// Acquire returns a new fake session.
func (f *Factory) Acquire(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.AcquireErr != nil {
		return nil, f.AcquireErr
	}

	s := &Session{factory: f}

	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()

	return s, nil
}

// Sessions returns every session handed out so far.
func (f *Factory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*Session, len(f.sessions))
	copy(out, f.sessions)
	return out
}

// Session is a fake browser.Session that records what was done with it.
type Session struct {
	factory *Factory

	mu        sync.Mutex
	current   string
	Navigated []string
	Clicked   []string
	Scrolls   int
	Closed    bool
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Navigated = append(s.Navigated, url)
	if page, ok := s.factory.Pages[url]; ok && page.NavigateErr != nil {
		return fmt.Errorf("%w: %s: %v", browser.ErrNavigate, url, page.NavigateErr)
	}
	s.current = url
	return nil
}

func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clicked = append(s.Clicked, selector)
	return s.factory.ClickErr
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.factory.WaitErr
}

func (s *Session) ScrollToEnd(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.factory.ScrollErr != nil {
		return s.factory.ScrollErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Scrolls++
	return nil
}

func (s *Session) ScrollHeight(ctx context.Context, selector string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	heights := s.factory.Heights
	if len(heights) == 0 {
		return 0, nil
	}
	if s.Scrolls >= len(heights) {
		return heights[len(heights)-1], nil
	}
	return heights[s.Scrolls], nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	if s.factory.CountErr != nil {
		return 0, s.factory.CountErr
	}
	return len(s.factory.Links), nil
}

func (s *Session) ChildAttribute(ctx context.Context, selector string, index int, child, attr string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	links := s.factory.Links
	if index >= len(links) || links[index] == nil {
		return "", fmt.Errorf("%w: %s[%d] %s@%s", browser.ErrNoNode, selector, index, child, attr)
	}
	return *links[index], nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.factory.Pages[s.current]
	if page.HTMLErr != nil {
		return "", page.HTMLErr
	}
	return page.HTML, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}
