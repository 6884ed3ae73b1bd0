// Package browser hands out headless browser sessions. Every session owns its
// own browser process and the caller is responsible for closing it.
package browser

import (
	"context"
	"errors"
	"time"
)

// Custom errors for browser sessions
var (
	ErrLaunch   = errors.New("failed to launch browser")
	ErrNoNode   = errors.New("node not found")
	ErrNavigate = errors.New("navigation failed")
)

// Factory produces independent sessions. There is no pooling: callers
// acquire one session per navigation target.
type Factory interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is a single headless browser handle.
type Session interface {
	// Navigate loads url and waits for the page load event.
	Navigate(ctx context.Context, url string) error

	// Click waits up to timeout for selector to be visible, then clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// WaitVisible waits up to timeout for selector to be visible.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// ScrollToEnd scrolls the element matching selector to its bottom.
	ScrollToEnd(ctx context.Context, selector string) error

	// ScrollHeight reports the content height of the element matching
	// selector.
	ScrollHeight(ctx context.Context, selector string) (int64, error)

	// Count reports how many elements match selector.
	Count(ctx context.Context, selector string) (int, error)

	// ChildAttribute reads attr from the first child matching child inside
	// the index-th element matching selector. Returns ErrNoNode if any part
	// of that path is missing.
	ChildAttribute(ctx context.Context, selector string, index int, child, attr string) (string, error)

	// HTML returns the fully rendered page markup.
	HTML(ctx context.Context) (string, error)

	// Close releases the session and its browser process.
	Close() error
}
