package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/Belphemur/MovieBoxLookup/internal/browser"
)

// FakeSession is a scripted browser.Session for tests.
// Selectors listed in Visible exist on every page; anything else times out.
// This is a test helper and should not be used in production code.
type FakeSession struct {
	Visible        map[string]bool
	URLAfterSearch string // URL the page moves to after Press
	URLAfterClick  string // URL the page moves to after Click
	HTML           string // returned by Content
	NavigateErr    error

	mu         sync.Mutex
	currentURL string
	calls      []string
	filled     map[string]string
	closeCount int
}

// NewFakeSession creates a session on which the given selectors are visible.
func NewFakeSession(visible ...string) *FakeSession {
	s := &FakeSession{Visible: make(map[string]bool), filled: make(map[string]string)}
	for _, sel := range visible {
		s.Visible[sel] = true
	}
	return s
}

func (s *FakeSession) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *FakeSession) requireVisible(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Visible[selector] {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return nil
}

func (s *FakeSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("navigate %s", url)
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.currentURL = url
	return nil
}

func (s *FakeSession) WaitVisible(ctx context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("wait %s", selector)
	return s.requireVisible(ctx, selector)
}

func (s *FakeSession) Fill(ctx context.Context, selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("fill %s %s", selector, value)
	if err := s.requireVisible(ctx, selector); err != nil {
		return err
	}
	if s.filled == nil {
		s.filled = make(map[string]string)
	}
	s.filled[selector] = value
	return nil
}

func (s *FakeSession) Press(ctx context.Context, selector, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("press %s %s", selector, key)
	if err := s.requireVisible(ctx, selector); err != nil {
		return err
	}
	if s.URLAfterSearch != "" {
		s.currentURL = s.URLAfterSearch
	}
	return nil
}

func (s *FakeSession) Click(ctx context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("click %s", selector)
	if err := s.requireVisible(ctx, selector); err != nil {
		return err
	}
	if s.URLAfterClick != "" {
		s.currentURL = s.URLAfterClick
	}
	return nil
}

func (s *FakeSession) WaitForURLChange(ctx context.Context, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("wait-url")
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.currentURL == from {
		return fmt.Errorf("%w: url still %s", browser.ErrTimeout, from)
	}
	return nil
}

func (s *FakeSession) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

func (s *FakeSession) Content() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HTML, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCount++
	return nil
}

// CloseCount reports how many times Close was called.
func (s *FakeSession) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCount
}

// Calls returns the recorded operations in order.
func (s *FakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Filled returns the value typed into selector.
func (s *FakeSession) Filled(selector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filled[selector]
}

// FakeLauncher hands out sessions built by NewSession and remembers them.
// This is a test helper and should not be used in production code.
type FakeLauncher struct {
	NewSession func() *FakeSession
	LaunchErr  error

	mu       sync.Mutex
	sessions []*FakeSession
}

func (l *FakeLauncher) Launch(ctx context.Context) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	s := l.NewSession()
	l.sessions = append(l.sessions, s)
	return s, nil
}

// Sessions returns every session launched so far.
func (l *FakeLauncher) Sessions() []*FakeSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*FakeSession(nil), l.sessions...)
}
