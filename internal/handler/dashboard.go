package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/auth"
	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
)

// AdminDashboardPage is the template data for the admin dashboard.
type AdminDashboardPage struct {
	BasePage
	Counts []store.RoleCount
	Users  []*store.User
}

// DashboardHandler serves the role-specific dashboards.
type DashboardHandler struct {
	resolver *session.Resolver
	users    *store.UserStore
	hub      authstate.Hub
	log      *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(resolver *session.Resolver, us *store.UserStore, hub authstate.Hub, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{resolver: resolver, users: us, hub: hub, log: log}
}

// Admin renders user counts by role and the user list.
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	counts, err := h.users.CountByRole(r.Context())
	if err != nil {
		h.log.Error("count users by role", zap.Error(err))
		http.Error(w, "could not load users", http.StatusInternalServerError)
		return
	}
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		h.log.Error("list users", zap.Error(err))
		http.Error(w, "could not load users", http.StatusInternalServerError)
		return
	}
	render(w, "admin/dashboard.html", AdminDashboardPage{
		BasePage: newBasePage(r, h.resolver.Resolve(r.Context()).Session),
		Counts:   counts,
		Users:    users,
	})
}

// Influencer renders the influencer welcome page.
func (h *DashboardHandler) Influencer(w http.ResponseWriter, r *http.Request) {
	render(w, "influencer/dashboard.html", newBasePage(r, h.resolver.Resolve(r.Context()).Session))
}

// UpdateRole handles PUT /dashboard/admin/users/{id}/role and returns the
// updated row. The user's open pages are told about the new role.
func (h *DashboardHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	role := r.FormValue("role")
	if !store.ValidRole(role) {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	user, err := h.users.UpdateRole(r.Context(), id, role)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("update role", zap.String("user_id", id), zap.Error(err))
		http.Error(w, "could not update role", http.StatusInternalServerError)
		return
	}

	e := authstate.Event{Kind: authstate.KindSession, Session: auth.SessionFor(user)}
	if err := h.hub.Publish(r.Context(), authstate.UserTopic(user.ID), e); err != nil {
		h.log.Warn("publish role change", zap.String("user_id", user.ID), zap.Error(err))
	}
	h.log.Info("role updated", zap.String("user_id", user.ID), zap.String("role", role))

	renderPageFragment(w, "admin/dashboard.html", "user_row", user)
}
