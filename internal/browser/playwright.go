package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/Belphemur/MovieBoxLookup/internal/metrics"
)

// PlaywrightLauncher launches a fresh Chromium per session through a shared
// playwright driver process. The driver is started on first use and lives
// until Stop.
type PlaywrightLauncher struct {
	opts   Options
	logger zerolog.Logger

	mu sync.Mutex
	pw *playwright.Playwright
}

// NewPlaywrightLauncher creates a launcher; no process is started until Start or Launch.
func NewPlaywrightLauncher(opts Options, logger zerolog.Logger) *PlaywrightLauncher {
	return &PlaywrightLauncher{
		opts:   opts,
		logger: logger.With().Str("component", "browser").Logger(),
	}
}

// Start installs (when configured) and runs the playwright driver.
func (l *PlaywrightLauncher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked()
}

func (l *PlaywrightLauncher) startLocked() error {
	if l.pw != nil {
		return nil
	}

	runOpts := &playwright.RunOptions{
		SkipInstallBrowsers: l.opts.ExecutablePath != "",
		Browsers:            []string{"chromium"},
	}

	if l.opts.InstallDriver {
		l.logger.Info().Msg("Installing playwright driver")
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright driver: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	l.pw = pw
	l.logger.Info().Msg("Playwright driver started")
	return nil
}

// Stop shuts the playwright driver down. Sessions still open are invalidated.
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	l.logger.Info().Msg("Playwright driver stopped")
	return nil
}

// Launch starts a dedicated headless browser and opens a single page in it.
func (l *PlaywrightLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if err := l.startLocked(); err != nil {
		l.mu.Unlock()
		metrics.BrowserLaunchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	pw := l.pw
	l.mu.Unlock()

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     l.opts.Args,
	}
	if l.opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(l.opts.ExecutablePath)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		metrics.BrowserLaunchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if l.opts.ViewportWidth > 0 && l.opts.ViewportHeight > 0 {
		contextOpts.Viewport = &playwright.Size{
			Width:  l.opts.ViewportWidth,
			Height: l.opts.ViewportHeight,
		}
	}
	if l.opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(l.opts.UserAgent)
	}

	browserCtx, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		metrics.BrowserLaunchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = browser.Close()
		metrics.BrowserLaunchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	metrics.BrowserLaunchesTotal.WithLabelValues("success").Inc()
	metrics.BrowserSessionsActive.Inc()
	l.logger.Debug().Msg("Browser session opened")

	return &playwrightSession{
		browser:     browser,
		context:     browserCtx,
		page:        page,
		waitTimeout: l.opts.WaitTimeout,
		logger:      l.logger,
	}, nil
}

// playwrightSession implements Session on a single playwright page
type playwrightSession struct {
	browser     playwright.Browser
	context     playwright.BrowserContext
	page        playwright.Page
	waitTimeout time.Duration
	logger      zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

func toMillis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// wrapTimeout converts playwright's timeout error into ErrTimeout.
func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	timeout, err := boundedTimeout(ctx, s.waitTimeout)
	if err != nil {
		return err
	}
	_, err = s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   toMillis(timeout),
	})
	return wrapTimeout(err)
}

func (s *playwrightSession) WaitVisible(ctx context.Context, selector string) error {
	timeout, err := boundedTimeout(ctx, s.waitTimeout)
	if err != nil {
		return err
	}
	return wrapTimeout(s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: toMillis(timeout),
	}))
}

func (s *playwrightSession) Fill(ctx context.Context, selector, value string) error {
	timeout, err := boundedTimeout(ctx, s.waitTimeout)
	if err != nil {
		return err
	}
	return wrapTimeout(s.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: toMillis(timeout),
	}))
}

func (s *playwrightSession) Press(ctx context.Context, selector, key string) error {
	timeout, err := boundedTimeout(ctx, s.waitTimeout)
	if err != nil {
		return err
	}
	return wrapTimeout(s.page.Locator(selector).First().Press(key, playwright.LocatorPressOptions{
		Timeout: toMillis(timeout),
	}))
}

func (s *playwrightSession) Click(ctx context.Context, selector string) error {
	timeout, err := boundedTimeout(ctx, s.waitTimeout)
	if err != nil {
		return err
	}
	return wrapTimeout(s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: toMillis(timeout),
	}))
}

func (s *playwrightSession) WaitForURLChange(ctx context.Context, from string) error {
	timeout, err := boundedTimeout(ctx, s.waitTimeout)
	if err != nil {
		return err
	}
	return wrapTimeout(s.page.WaitForURL(func(current string) bool {
		return current != from
	}, playwright.PageWaitForURLOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   toMillis(timeout),
	}))
}

func (s *playwrightSession) URL() string {
	return s.page.URL()
}

func (s *playwrightSession) Content() (string, error) {
	return s.page.Content()
}

// Close closes the page, its context and the browser, in that order.
func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.closeErr = errors.Join(errs...)

		metrics.BrowserSessionsActive.Dec()
		s.logger.Debug().Err(s.closeErr).Msg("Browser session closed")
	})
	return s.closeErr
}
