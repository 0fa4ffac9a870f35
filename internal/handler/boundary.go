package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/metrics"
)

// ErrorPage is the template data for the error view.
type ErrorPage struct {
	BasePage
	// Path is re-requested by the reload action.
	Path string
}

// Boundary recovers panics raised below it, logs each one once and renders
// the error view. When the handler already started the response, only the log
// entry is written. http.ErrAbortHandler is passed through.
func Boundary(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				metrics.RenderPanicsTotal.Inc()
				log.Error("panic serving request",
					zap.Any("panic", p),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Stack("stack"),
				)
				if ww.Status() != 0 {
					return
				}
				renderError(ww, r)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func renderError(w http.ResponseWriter, r *http.Request) {
	renderStatus(w, http.StatusInternalServerError, "error.html", "base", ErrorPage{
		BasePage: newBasePage(r, nil),
		Path:     r.URL.RequestURI(),
	})
}

// NotFound renders the static not-found page.
func NotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(w, http.StatusNotFound, "404.html", "base", newBasePage(r, nil))
}
