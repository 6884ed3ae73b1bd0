package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/pevans/venuefed/config"
)

// ChromeFactory launches a fresh Chrome process per session via chromedp.
type ChromeFactory struct {
	cfg    config.BrowserConfig
	logger zerolog.Logger
}

// NewChromeFactory creates a factory from the browser section of the config.
func NewChromeFactory(cfg config.BrowserConfig, logger zerolog.Logger) *ChromeFactory {
	return &ChromeFactory{
		cfg:    cfg,
		logger: logger.With().Str("component", "browser").Logger(),
	}
}

// AllocatorOptions returns the exec allocator options for cfg.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	return opts
}

// Acquire starts a browser and opens a tab in it.
func (f *ChromeFactory) Acquire(ctx context.Context) (Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(f.cfg)...)

	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			f.logger.Debug().Msgf(format, args...)
		}),
	)

	// Running with no actions starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	return &chromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// run executes actions in the tab, bounded by timeout (if positive) and by
// the caller's ctx.
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigate, url, err)
	}
	return nil
}

func (s *chromeSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// nodeResult is what the indexed lookup scripts return.
type nodeResult struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
}

func (s *chromeSession) ScrollToEnd(ctx context.Context, selector string) error {
	script := fmt.Sprintf(`
		(() => {
			const el = document.querySelector(%q);
			if (!el) return { ok: false, value: '' };
			el.scrollTop = el.scrollHeight;
			return { ok: true, value: '' };
		})();
	`, selector)

	var res nodeResult
	if err := s.run(ctx, 0, chromedp.Evaluate(script, &res)); err != nil {
		return fmt.Errorf("failed to scroll %s: %w", selector, err)
	}
	if !res.OK {
		return fmt.Errorf("%w: %s", ErrNoNode, selector)
	}
	return nil
}

func (s *chromeSession) ScrollHeight(ctx context.Context, selector string) (int64, error) {
	script := fmt.Sprintf(`
		(() => {
			const el = document.querySelector(%q);
			return el ? el.scrollHeight : -1;
		})();
	`, selector)

	var height float64
	if err := s.run(ctx, 0, chromedp.Evaluate(script, &height)); err != nil {
		return 0, fmt.Errorf("failed to read height of %s: %w", selector, err)
	}
	if height < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoNode, selector)
	}
	return int64(height), nil
}

func (s *chromeSession) Count(ctx context.Context, selector string) (int, error) {
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)

	var count int
	if err := s.run(ctx, 0, chromedp.Evaluate(script, &count)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", selector, err)
	}
	return count, nil
}

func (s *chromeSession) ChildAttribute(ctx context.Context, selector string, index int, child, attr string) (string, error) {
	// Prefer the DOM property (absolute href/src) over the raw attribute.
	script := fmt.Sprintf(`
		(() => {
			const nodes = document.querySelectorAll(%q);
			const idx   = %d;
			if (nodes.length <= idx) return { ok: false, value: '' };
			const child = nodes[idx].querySelector(%q);
			if (!child) return { ok: false, value: '' };
			let value = child[%q];
			if (typeof value !== 'string' || value === '') value = child.getAttribute(%q);
			if (value === null || value === undefined) return { ok: false, value: '' };
			return { ok: true, value: String(value) };
		})();
	`, selector, index, child, attr, attr)

	var res nodeResult
	if err := s.run(ctx, 0, chromedp.Evaluate(script, &res)); err != nil {
		return "", fmt.Errorf("failed to read %s of %s[%d] %s: %w", attr, selector, index, child, err)
	}
	if !res.OK {
		return "", fmt.Errorf("%w: %s[%d] %s@%s", ErrNoNode, selector, index, child, attr)
	}
	return res.Value, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page markup: %w", err)
	}
	return html, nil
}

// Close closes the tab and shuts the browser down. Safe to call twice.
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.cancelTab()
		s.cancelAlloc()
	})
	return nil
}
