package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/entrhq/prerender/pkg/browser"
	"github.com/entrhq/prerender/pkg/fetch"
	"github.com/entrhq/prerender/pkg/logging"
)

// renderRequest is the POST /render payload.
type renderRequest struct {
	URL         string            `json:"url"`
	Cookies     map[string]string `json:"cookies,omitempty"`
	WaitFor     string            `json:"wait_for,omitempty"`
	WaitState   string            `json:"wait_state,omitempty"`
	WaitTimeout string            `json:"wait_timeout,omitempty"`
	Script      string            `json:"script,omitempty"`
	Screenshot  bool              `json:"screenshot,omitempty"`
}

// renderResponse is the POST /render success payload. Screenshot is
// base64-encoded PNG when one was requested.
type renderResponse struct {
	URL        string `json:"url"`
	Body       string `json:"body"`
	Encoding   string `json:"encoding"`
	Screenshot string `json:"screenshot,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Pool   int    `json:"pool_size"`
	Idle   int    `json:"idle_sessions"`
}

// newRouter builds the render API: POST /render drives a browser session,
// GET /healthz reports pool occupancy.
func newRouter(mw *fetch.Middleware, pool *browser.Pool, log *logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/render", handleRender(mw, log))
	r.Get("/healthz", handleHealth(pool))

	return r
}

func handleRender(mw *fetch.Middleware, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload renderRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if payload.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		req := &fetch.Request{
			URL:          payload.URL,
			Cookies:      payload.Cookies,
			WaitSelector: payload.WaitFor,
			WaitState:    payload.WaitState,
			Script:       payload.Script,
			Screenshot:   payload.Screenshot,
			Render:       true,
		}
		if payload.WaitTimeout != "" {
			timeout, err := time.ParseDuration(payload.WaitTimeout)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid wait_timeout")
				return
			}
			req.WaitTimeout = timeout
		}

		resp, err := mw.ProcessRequest(r.Context(), req)
		if err != nil {
			var renderErr *fetch.RenderError
			if errors.As(err, &renderErr) {
				log.Errorf("render %s: %v", payload.URL, err)
				writeError(w, http.StatusBadGateway, renderErr.Error())
				return
			}
			log.Errorf("process %s: %v", payload.URL, err)
			writeError(w, http.StatusInternalServerError, "render failed")
			return
		}
		if resp == nil {
			// All sessions busy; the caller should retry.
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "no browser session available")
			return
		}

		out := renderResponse{
			URL:      resp.URL,
			Body:     string(resp.Body),
			Encoding: resp.Encoding,
		}
		if shot := req.ScreenshotBytes(); shot != nil {
			out.Screenshot = base64.StdEncoding.EncodeToString(shot)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleHealth(pool *browser.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status: "ok",
			Pool:   pool.Size(),
			Idle:   pool.Idle(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
