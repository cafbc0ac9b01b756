// Package browser drives a headless browser for the lookup pipeline.
//
// A Launcher hands out one Session per lookup; sessions are never shared or
// reused, and callers must Close every session they obtain.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/Belphemur/MovieBoxLookup/internal/config"
)

// ErrTimeout is returned when awaited page state does not settle within the wait timeout.
var ErrTimeout = errors.New("browser: timed out waiting for page state")

// DefaultWaitTimeout bounds every wait when no other timeout is configured.
const DefaultWaitTimeout = 60 * time.Second

// Launcher creates browser sessions
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a single page in a dedicated browser instance
type Session interface {
	// Navigate loads url and waits for the DOM to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the first element matching selector is visible.
	WaitVisible(ctx context.Context, selector string) error
	// Fill replaces the value of the first element matching selector.
	Fill(ctx context.Context, selector, value string) error
	// Press sends a key (e.g. "Enter") to the first element matching selector.
	Press(ctx context.Context, selector, key string) error
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// WaitForURLChange blocks until the page URL differs from from.
	WaitForURLChange(ctx context.Context, from string) error
	// URL returns the current page URL.
	URL() string
	// Content returns the current page HTML.
	Content() (string, error)
	// Close releases the page and its browser. It is safe to call more than once.
	Close() error
}

// Options configures launched browsers
type Options struct {
	Headless       bool
	ExecutablePath string
	Args           []string
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	WaitTimeout    time.Duration
	InstallDriver  bool
}

// OptionsFromConfig builds launcher options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	waitTimeout, _ := config.ParseDuration(cfg.Browser.WaitTimeout, DefaultWaitTimeout)
	return Options{
		Headless:       cfg.Browser.Headless,
		ExecutablePath: cfg.Browser.ExecutablePath,
		Args:           cfg.Browser.Args,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		UserAgent:      cfg.UserAgent,
		WaitTimeout:    waitTimeout,
		InstallDriver:  cfg.Browser.InstallDriver,
	}
}

// boundedTimeout returns the wait budget for one operation: the configured
// timeout, shortened to the context deadline when that comes first.
func boundedTimeout(ctx context.Context, limit time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = DefaultWaitTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < limit {
			if remaining <= 0 {
				return 0, context.DeadlineExceeded
			}
			limit = remaining
		}
	}
	return limit, nil
}
