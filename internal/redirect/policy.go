// Package redirect decides where the browser goes based on the current page and
// the auth context, and re-runs that decision as the auth context changes.
package redirect

import (
	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/session"
)

// Page identifies a page that runs the redirect policy.
type Page string

const (
	PageHome      Page = "/"
	PageDashboard Page = "/dashboard"
)

// Route destinations.
const (
	Login               = "/login"
	Dashboard           = "/dashboard"
	AdminDashboard      = "/dashboard/admin"
	InfluencerDashboard = "/dashboard/influencer"
)

// ParsePage maps a request path to a Page.
func ParsePage(p string) (Page, bool) {
	switch Page(p) {
	case PageHome, PageDashboard:
		return Page(p), true
	}
	return "", false
}

// Decision is the outcome of the policy for one evaluation.
type Decision struct {
	// Pending means the auth context is not ready; show a loading indicator.
	Pending bool
	// Target is where to navigate. Empty means stay on the current page.
	Target string
}

// Navigates reports whether the decision moves the browser.
func (d Decision) Navigates() bool {
	return !d.Pending && d.Target != ""
}

// Decide applies the redirect policy. stored reports whether any session
// record is persisted, parsed or not; the home page only checks presence.
func Decide(page Page, st authstate.State, stored bool) Decision {
	if !st.Ready {
		return Decision{Pending: true}
	}

	var target string
	switch page {
	case PageHome:
		if stored || st.Authenticated() {
			target = Dashboard
		} else {
			target = Login
		}
	case PageDashboard:
		target = dashboardFor(st.Session)
	}

	if target == string(page) {
		return Decision{}
	}
	return Decision{Target: target}
}

func dashboardFor(s *session.Session) string {
	if s == nil {
		return Login
	}
	switch s.Role {
	case session.RoleAdmin:
		return AdminDashboard
	case session.RoleInfluencer:
		return InfluencerDashboard
	}
	// Unrecognized roles stay on the generic dashboard.
	return Dashboard
}
