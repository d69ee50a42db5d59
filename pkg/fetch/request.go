package fetch

import "time"

// DefaultWaitTimeout bounds a wait condition when the request does not set
// its own.
const DefaultWaitTimeout = 10 * time.Second

// MetaScreenshot is the request metadata key the captured screenshot is
// attached under.
const MetaScreenshot = "screenshot"

// Request is a fetch request augmented with browser-rendering directives.
// It is immutable once dispatched, except for Meta, which the middleware
// writes results into.
type Request struct {
	// URL is the page to render.
	URL string

	// Cookies are applied to the session's cookie jar after navigation.
	Cookies map[string]string

	// WaitSelector, when set, blocks the fetch until a matching element
	// reaches WaitState or WaitTimeout elapses. A wait timeout is a hard
	// failure, not a silent continue.
	WaitSelector string

	// WaitState is the element state to wait for: "attached", "detached",
	// "visible" (default) or "hidden".
	WaitState string

	// WaitTimeout bounds the wait condition. Zero means DefaultWaitTimeout.
	WaitTimeout time.Duration

	// Script, when set, is executed in page context after the wait
	// condition holds. The result is discarded.
	Script string

	// Screenshot requests a viewport capture, attached to Meta under
	// MetaScreenshot.
	Screenshot bool

	// Render flags the request for browser rendering. Unflagged requests
	// fall through to normal handling unless a render rule matches.
	Render bool

	// Meta carries out-of-band request metadata for the surrounding
	// pipeline.
	Meta map[string]any
}

// ScreenshotBytes returns the captured screenshot, or nil when none was
// taken.
func (r *Request) ScreenshotBytes() []byte {
	if r.Meta == nil {
		return nil
	}
	shot, _ := r.Meta[MetaScreenshot].([]byte)
	return shot
}
