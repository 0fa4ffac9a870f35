package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/dataservice"
	"github.com/joestump/campaign-desk/internal/session"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Users    dataservice.UserLister
	Resolver *session.Resolver
	Tracker  *authstate.Tracker
	Log      *zap.Logger
}

// NewAPIRouter creates a chi sub-router mounted at /api.
// Routes return application/json and perform no authentication of their own.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonContentType)

	registerUserRoutes(r, deps.Users, deps.Log)
	registerAuthRoutes(r, deps.Resolver, deps.Tracker)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
