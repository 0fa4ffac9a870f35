package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/session"
)

type authAPIHandler struct {
	resolver *session.Resolver
	tracker  *authstate.Tracker
}

func registerAuthRoutes(r chi.Router, resolver *session.Resolver, tracker *authstate.Tracker) {
	h := &authAPIHandler{resolver: resolver, tracker: tracker}
	r.Get("/auth/state", h.State)
}

// State returns the caller's auth context.
//
// @Summary      Auth context
// @Description  The signed-in user (or null), whether a session exists, and whether auth has finished initializing.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  AuthStateResponse
// @Router       /auth/state [get]
func (h *authAPIHandler) State(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve(r.Context())
	resp := AuthStateResponse{
		IsAuthenticated: res.Authenticated(),
		Ready:           h.tracker.Ready(),
	}
	if s := res.Session; s != nil {
		resp.User = &AuthUser{ID: s.UserID, Email: s.Email, Name: s.Name, Role: string(s.Role)}
	}
	writeJSON(w, http.StatusOK, resp)
}
