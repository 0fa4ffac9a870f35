package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/redirect"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
)

// Middleware keeps the session record in step with the user table and
// guards role-specific routes.
type Middleware struct {
	resolver *session.Resolver
	users    store.UserReader
	log      *zap.Logger
}

// NewMiddleware creates a new auth Middleware.
func NewMiddleware(resolver *session.Resolver, users store.UserReader, log *zap.Logger) *Middleware {
	return &Middleware{resolver: resolver, users: users, log: log}
}

// Refresh re-reads the signed-in user on every request and writes a changed
// role, email or name back to the session record. A record whose user is
// missing or cannot be loaded is left as it is.
func (m *Middleware) Refresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.resolver.Resolve(r.Context()).Session
		if s == nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetByID(r.Context(), s.UserID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				m.log.Warn("refresh session user", zap.String("user_id", s.UserID), zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		if rec := RecordFor(user); rec != recordOf(s) {
			if err := m.resolver.Put(r.Context(), rec); err != nil {
				m.log.Warn("rewrite session record", zap.String("user_id", s.UserID), zap.Error(err))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns a middleware that requires a session with the given
// role. No session redirects to the login page; any other role gets 403.
func (m *Middleware) RequireRole(role session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := m.resolver.Resolve(r.Context()).Session
			if s == nil {
				http.Redirect(w, r, redirect.Login, http.StatusFound)
				return
			}
			if s.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recordOf(s *session.Session) session.Record {
	return session.Record{UserID: s.UserID, Email: s.Email, Name: s.Name, Role: string(s.Role)}
}
