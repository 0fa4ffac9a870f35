package auth

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/redirect"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
)

const (
	cookieState        = "__auth_state"
	cookieCodeVerifier = "__auth_pkce"
)

// HandlersConfig carries the login policy settings.
type HandlersConfig struct {
	AdminEmail    string
	DefaultRole   string
	SecureCookies bool
}

// Handlers provides HTTP handlers for the OIDC authentication flow.
type Handlers struct {
	provider Authenticator
	resolver *session.Resolver
	users    *store.UserStore
	hub      authstate.Hub
	log      *zap.Logger
	cfg      HandlersConfig
}

// NewHandlers creates a new Handlers with the given dependencies.
func NewHandlers(p Authenticator, resolver *session.Resolver, us *store.UserStore, hub authstate.Hub, log *zap.Logger, cfg HandlersConfig) *Handlers {
	return &Handlers{provider: p, resolver: resolver, users: us, hub: hub, log: log, cfg: cfg}
}

// Login initiates the OIDC authorization code flow with PKCE.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := GenerateState()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	verifier, challenge, err := GeneratePKCE()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	authURL, err := h.provider.AuthCodeURL(state, challenge)
	if errors.Is(err, ErrNotReady) {
		http.Error(w, "sign-in is not available yet", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		h.log.Error("build auth url", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.setPreAuthCookie(w, cookieState, state)
	h.setPreAuthCookie(w, cookieCodeVerifier, verifier)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles the OIDC provider redirect after authentication.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(cookieState)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	verifierCookie, err := r.Cookie(cookieCodeVerifier)
	if err != nil {
		http.Error(w, "missing code verifier", http.StatusBadRequest)
		return
	}

	id, err := h.provider.Exchange(r.Context(), r.URL.Query().Get("code"), verifierCookie.Value)
	if err != nil {
		h.log.Warn("oidc exchange failed", zap.Error(err))
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	user, err := h.users.Upsert(r.Context(), id.Issuer, id.Subject, id.Email, id.Name, h.cfg.AdminEmail, h.cfg.DefaultRole)
	if err != nil {
		h.log.Error("upsert user", zap.Error(err))
		http.Error(w, "user record error", http.StatusInternalServerError)
		return
	}

	if err := h.resolver.Manager().RenewToken(r.Context()); err != nil {
		h.log.Error("renew session token", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	rec := RecordFor(user)
	if err := h.resolver.Put(r.Context(), rec); err != nil {
		h.log.Error("store session record", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	h.publish(r, user.ID, SessionFor(user))

	clearCookie(w, cookieState)
	clearCookie(w, cookieCodeVerifier)

	h.log.Info("user signed in", zap.String("user_id", user.ID), zap.String("role", user.Role))
	http.Redirect(w, r, redirect.Dashboard, http.StatusFound)
}

// Logout destroys the session and redirects to the login page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	s := h.resolver.Resolve(r.Context()).Session
	// Destroy first: open pages check their own session when told of a sign-out.
	if err := h.resolver.Manager().Destroy(r.Context()); err != nil {
		h.log.Error("destroy session", zap.Error(err))
		http.Error(w, "logout error", http.StatusInternalServerError)
		return
	}
	if s != nil {
		h.publish(r, s.UserID, nil)
	}
	http.Redirect(w, r, redirect.Login, http.StatusFound)
}

func (h *Handlers) publish(r *http.Request, userID string, s *session.Session) {
	e := authstate.Event{Kind: authstate.KindSession, Session: s}
	if err := h.hub.Publish(r.Context(), authstate.UserTopic(userID), e); err != nil {
		h.log.Warn("publish session event", zap.String("user_id", userID), zap.Error(err))
	}
}

// RecordFor builds the persisted session record for u.
func RecordFor(u *store.User) session.Record {
	return session.Record{UserID: u.ID, Email: u.Email, Name: u.DisplayName, Role: u.Role}
}

// SessionFor is the resolved session matching RecordFor(u).
func SessionFor(u *store.User) *session.Session {
	return &session.Session{UserID: u.ID, Email: u.Email, Name: u.DisplayName, Role: session.Role(u.Role)}
}

func (h *Handlers) setPreAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   300, // 5 minutes
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}
