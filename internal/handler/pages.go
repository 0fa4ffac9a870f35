package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/metrics"
	"github.com/joestump/campaign-desk/internal/redirect"
	"github.com/joestump/campaign-desk/internal/session"
)

// DashboardPage is the template data for the generic dashboard.
type DashboardPage struct {
	BasePage
	Pending bool
}

// LoginPage is the template data for the sign-in page.
type LoginPage struct {
	BasePage
	Ready bool
}

// PagesHandler serves the pages that run the redirect policy.
type PagesHandler struct {
	resolver *session.Resolver
	tracker  *authstate.Tracker
	log      *zap.Logger
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(resolver *session.Resolver, tracker *authstate.Tracker, log *zap.Logger) *PagesHandler {
	return &PagesHandler{resolver: resolver, tracker: tracker, log: log}
}

// decide resolves the session and runs the redirect policy for page. It
// answers the request with a redirect and returns handled=true when the
// policy navigates.
func (h *PagesHandler) decide(w http.ResponseWriter, r *http.Request, page redirect.Page) (d redirect.Decision, s *session.Session, handled bool) {
	res := h.resolver.Resolve(r.Context())
	d = redirect.Decide(page, h.tracker.Current(res.Session), res.Stored)
	if d.Navigates() {
		metrics.NavigationsTotal.WithLabelValues(string(page), d.Target).Inc()
		http.Redirect(w, r, d.Target, http.StatusFound)
		return d, res.Session, true
	}
	if d.Pending {
		metrics.PendingRendersTotal.WithLabelValues(string(page)).Inc()
	}
	return d, res.Session, false
}

// Home serves GET /. Once auth is ready it always redirects; until then it
// shows a loading indicator and waits on the watch stream.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	_, s, handled := h.decide(w, r, redirect.PageHome)
	if handled {
		return
	}
	data := newBasePage(r, s)
	data.Watch = string(redirect.PageHome)
	render(w, "home.html", data)
}

// Dashboard serves GET /dashboard. Recognized roles are redirected to their
// own dashboard; other roles see the generic one.
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, s, handled := h.decide(w, r, redirect.PageDashboard)
	if handled {
		return
	}
	data := DashboardPage{BasePage: newBasePage(r, s), Pending: d.Pending}
	data.Watch = string(redirect.PageDashboard)
	render(w, "dashboard.html", data)
}

// Login serves GET /login.
func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve(r.Context())
	render(w, "login.html", LoginPage{
		BasePage: newBasePage(r, res.Session),
		Ready:    h.tracker.Ready(),
	})
}
