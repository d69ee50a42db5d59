// Package fetch routes selected requests through pooled browser sessions
// so JavaScript-heavy pages are rendered before being handed back to the
// crawling pipeline. Requests that are not flagged for rendering pass
// through untouched.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/prerender/pkg/browser"
	"github.com/entrhq/prerender/pkg/logging"
)

// RenderError reports a failure while driving a browser session for one
// request. The session involved has already been replaced.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed for %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Middleware is the fetch orchestrator. It checks a session out of the
// pool, drives the render sequence, and always hands the session back:
// Release on success, Replace on any failure.
type Middleware struct {
	pool  *browser.Pool
	rules *Rules
	log   *logging.Logger
}

// NewMiddleware creates a middleware over the given pool. rules may be
// nil, in which case only explicitly flagged requests are rendered.
func NewMiddleware(pool *browser.Pool, rules *Rules, log *logging.Logger) *Middleware {
	if rules == nil {
		rules = &Rules{}
	}
	return &Middleware{
		pool:  pool,
		rules: rules,
		log:   log,
	}
}

// ProcessRequest renders the request through a pooled browser session.
//
// A (nil, nil) return means "not handled": either the request is not
// selected for rendering, or the pool was exhausted and the request should
// fall through to normal handling. Render failures return a *RenderError;
// the session involved is replaced, never reused.
func (m *Middleware) ProcessRequest(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.URL == "" {
		return nil, fmt.Errorf("request URL is required")
	}

	if !req.Render && !m.rules.Match(req.URL) {
		return nil, nil
	}

	d, err := m.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, browser.ErrPoolExhausted) {
			// Degrade gracefully: skip rendering for this request.
			m.log.Warnf("pool exhausted, falling through for %s", req.URL)
			return nil, nil
		}
		return nil, err
	}

	resp, err := m.drive(d, req)
	if err != nil {
		// The session's state is untrusted after a failure.
		if rerr := m.pool.Replace(d); rerr != nil && !errors.Is(rerr, browser.ErrPoolClosed) {
			m.log.Errorf("replace after failed render of %s: %v", req.URL, rerr)
		}
		return nil, &RenderError{URL: req.URL, Err: err}
	}

	m.pool.Release(d)
	return resp, nil
}

// drive runs the render sequence on a checked-out session. Any error
// leaves the session in an unknown state; the caller replaces it.
func (m *Middleware) drive(d browser.Driver, req *Request) (*Response, error) {
	if err := d.Navigate(req.URL); err != nil {
		return nil, err
	}

	for name, value := range req.Cookies {
		if err := d.SetCookie(name, value); err != nil {
			return nil, err
		}
	}

	if req.WaitSelector != "" {
		timeout := req.WaitTimeout
		if timeout <= 0 {
			timeout = DefaultWaitTimeout
		}
		if err := d.WaitFor(req.WaitSelector, req.WaitState, timeout); err != nil {
			return nil, err
		}
	}

	if req.Screenshot {
		shot, err := d.Screenshot()
		if err != nil {
			return nil, err
		}
		if req.Meta == nil {
			req.Meta = make(map[string]any)
		}
		req.Meta[MetaScreenshot] = shot
	}

	if req.Script != "" {
		if err := d.Execute(req.Script); err != nil {
			return nil, err
		}
	}

	source, err := d.PageSource()
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:      d.CurrentURL(),
		Body:     []byte(source),
		Encoding: Encoding,
		Request:  req,
	}, nil
}
