package browser

import "time"

// Driver is the capability surface of one browser-automation session.
// The pool and the fetch orchestrator only ever see this interface, which
// isolates them from any specific automation backend and keeps both
// testable against a fake implementation.
//
// A driver is owned by the pool while idle and by exactly one caller while
// checked out. Methods are not safe for concurrent use.
type Driver interface {
	// ID returns the stable identity of the session.
	ID() string

	// Navigate loads the given URL and blocks until the page has loaded.
	Navigate(url string) error

	// SetCookie adds a cookie scoped to the current page URL.
	SetCookie(name, value string) error

	// WaitFor blocks until the element matching selector reaches the given
	// state ("attached", "detached", "visible", "hidden") or the timeout
	// elapses. An empty state waits for visibility.
	WaitFor(selector, state string, timeout time.Duration) error

	// Execute runs a script in page context. The result is discarded.
	Execute(script string) error

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)

	// PageSource returns the full current page markup.
	PageSource() (string, error)

	// CurrentURL returns the page URL, reflecting any redirects that
	// occurred during navigation.
	CurrentURL() string

	// Close terminates the underlying browser session.
	Close() error
}

// Factory provisions new sessions for the pool.
type Factory interface {
	New() (Driver, error)
}
