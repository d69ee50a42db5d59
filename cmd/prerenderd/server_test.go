package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/prerender/pkg/browser"
	"github.com/entrhq/prerender/pkg/fetch"
	"github.com/entrhq/prerender/pkg/logging"
)

type stubDriver struct {
	id      string
	source  string
	waitErr error
}

func (d *stubDriver) ID() string                  { return d.id }
func (d *stubDriver) Navigate(url string) error   { return nil }
func (d *stubDriver) SetCookie(n, v string) error { return nil }
func (d *stubDriver) WaitFor(sel, state string, timeout time.Duration) error {
	return d.waitErr
}
func (d *stubDriver) Execute(script string) error { return nil }
func (d *stubDriver) Screenshot() ([]byte, error) { return []byte("png-bytes"), nil }
func (d *stubDriver) PageSource() (string, error) { return d.source, nil }
func (d *stubDriver) CurrentURL() string          { return "https://example.com/final" }
func (d *stubDriver) Close() error                { return nil }

type stubFactory struct {
	mu      sync.Mutex
	created int
	waitErr error
}

func (f *stubFactory) New() (browser.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created++
	return &stubDriver{
		id:      fmt.Sprintf("s-%d", f.created),
		source:  "<html><body>ok</body></html>",
		waitErr: f.waitErr,
	}, nil
}

func newTestServer(t *testing.T, factory *stubFactory, size int, timeout time.Duration) (http.Handler, *browser.Pool) {
	t.Helper()

	pool, err := browser.NewPool(factory, browser.PoolOptions{
		Size:           size,
		AcquireTimeout: timeout,
	}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { pool.Shutdown() })

	mw := fetch.NewMiddleware(pool, nil, logging.Discard())
	return newRouter(mw, pool, logging.Discard()), pool
}

func postRender(t *testing.T, handler http.Handler, payload renderRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/render", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRender_Success(t *testing.T) {
	handler, pool := newTestServer(t, &stubFactory{}, 1, time.Second)

	rec := postRender(t, handler, renderRequest{
		URL:        "https://example.com/",
		Screenshot: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp renderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://example.com/final", resp.URL)
	assert.Equal(t, "<html><body>ok</body></html>", resp.Body)
	assert.Equal(t, "utf-8", resp.Encoding)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), resp.Screenshot)

	// Session is back in the pool after the request.
	assert.Equal(t, 1, pool.Idle())
}

func TestRender_MissingURL(t *testing.T) {
	handler, _ := newTestServer(t, &stubFactory{}, 1, time.Second)

	rec := postRender(t, handler, renderRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRender_InvalidBody(t *testing.T) {
	handler, _ := newTestServer(t, &stubFactory{}, 1, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/render", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRender_InvalidWaitTimeout(t *testing.T) {
	handler, _ := newTestServer(t, &stubFactory{}, 1, time.Second)

	rec := postRender(t, handler, renderRequest{
		URL:         "https://example.com/",
		WaitTimeout: "ten seconds",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRender_FailureReportsBadGateway(t *testing.T) {
	factory := &stubFactory{waitErr: errors.New("timeout waiting for \"#app\"")}
	handler, pool := newTestServer(t, factory, 1, time.Second)

	rec := postRender(t, handler, renderRequest{
		URL:     "https://example.com/",
		WaitFor: "#app",
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "render failed for https://example.com/")

	// The failed session was replaced; the pool stays at full strength.
	assert.Equal(t, 1, pool.Idle())
}

func TestRender_PoolExhausted(t *testing.T) {
	handler, pool := newTestServer(t, &stubFactory{}, 1, 0)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(held)

	rec := postRender(t, handler, renderRequest{URL: "https://example.com/"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestServer(t, &stubFactory{}, 2, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Pool)
	assert.Equal(t, 2, resp.Idle)
}
