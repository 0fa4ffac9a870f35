package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newBoundaryRouter(log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Boundary(log))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("render failed")
	})
	r.Get("/partial", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("late failure")
	})
	r.Get("/abort", func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	r.Get("/fine", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fine"))
	})
	return r
}

func TestBoundary_RendersErrorViewOnce(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := newBoundaryRouter(zap.New(core))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "Something went wrong")
	assert.Contains(t, body, `hx-get="/boom"`)
	assert.Contains(t, body, `hx-select="#content"`)
	assert.Contains(t, body, `href="/boom"`)

	entries := logs.FilterMessage("panic serving request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "render failed", entries[0].ContextMap()["panic"])

	// The server keeps serving after a panic.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fine", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fine", w.Body.String())
}

func TestBoundary_PartialResponseOnlyLogs(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := newBoundaryRouter(zap.New(core))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic serving request").Len())
}

func TestBoundary_ReloadKeepsQuery(t *testing.T) {
	h := newBoundaryRouter(zap.NewNop())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom?tab=2", nil))

	assert.Contains(t, w.Body.String(), `hx-get="/boom?tab=2"`)
}

func TestBoundary_AbortPassesThrough(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := newBoundaryRouter(zap.New(core))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	})
	assert.Zero(t, logs.Len())
}
