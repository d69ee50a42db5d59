package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session wraps one live Playwright browser session with its context and
// page. It implements Driver.
type Session struct {
	id         string
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	createdAt  time.Time
	lastUsedAt time.Time
}

// ID returns the session's identity.
func (s *Session) ID() string {
	return s.id
}

// touch updates the last-used timestamp.
func (s *Session) touch() {
	s.lastUsedAt = time.Now()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string) error {
	s.touch()

	if _, err := s.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// SetCookie adds a cookie to the session's cookie jar, scoped to the
// current page URL.
func (s *Session) SetCookie(name, value string) error {
	s.touch()

	cookie := playwright.OptionalCookie{
		Name:  name,
		Value: value,
		URL:   playwright.String(s.page.URL()),
	}
	if err := s.context.AddCookies([]playwright.OptionalCookie{cookie}); err != nil {
		return fmt.Errorf("set cookie %q: %w", name, err)
	}
	return nil
}

// WaitFor waits for an element matching selector to reach the given state.
func (s *Session) WaitFor(selector, state string, timeout time.Duration) error {
	s.touch()

	opts := playwright.PageWaitForSelectorOptions{}
	if state != "" {
		st := playwright.WaitForSelectorState(state)
		opts.State = &st
	}
	if timeout > 0 {
		opts.Timeout = playwright.Float(float64(timeout.Milliseconds()))
	}

	if _, err := s.page.WaitForSelector(selector, opts); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

// Execute runs a script in page context and discards the result.
func (s *Session) Execute(script string) error {
	s.touch()

	if _, err := s.page.Evaluate(script); err != nil {
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

// Screenshot captures the current viewport as PNG bytes.
func (s *Session) Screenshot() ([]byte, error) {
	s.touch()

	shot, err := s.page.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return shot, nil
}

// PageSource returns the full current page markup.
func (s *Session) PageSource() (string, error) {
	s.touch()

	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return content, nil
}

// CurrentURL returns the page URL, reflecting any redirects.
func (s *Session) CurrentURL() string {
	return s.page.URL()
}

// Close terminates the session. Page and context errors are ignored so the
// browser process itself always gets a close.
func (s *Session) Close() error {
	_ = s.page.Close()    // Ignore errors, continue cleanup
	_ = s.context.Close() // Ignore errors, continue cleanup

	if err := s.browser.Close(); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
