package redirect

import (
	"context"

	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/metrics"
)

// Navigator moves the browser to target.
type Navigator interface {
	Navigate(target string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string) error

func (f NavigatorFunc) Navigate(target string) error { return f(target) }

// Watch evaluates the policy for page against initial and again after every
// event, navigating at most once. It returns after navigating, when events is
// closed, or when ctx is done.
//
// stored only matters for the home page and only until the first session
// event, after which the event's session is authoritative.
func Watch(ctx context.Context, page Page, initial authstate.State, stored bool, events <-chan authstate.Event, nav Navigator) error {
	st := initial
	for {
		if d := Decide(page, st, stored); d.Navigates() {
			metrics.NavigationsTotal.WithLabelValues(string(page), d.Target).Inc()
			return nav.Navigate(d.Target)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if e.Kind == authstate.KindSession {
				stored = e.Session != nil
			}
			st = st.Apply(e)
		}
	}
}
