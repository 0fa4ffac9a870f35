package authstate

import (
	"context"
	"sync/atomic"

	"github.com/joestump/campaign-desk/internal/session"
)

// Tracker records whether the auth context has finished initializing.
type Tracker struct {
	hub   Hub
	ready atomic.Bool
}

// NewTracker returns a Tracker that announces readiness on hub.
func NewTracker(hub Hub) *Tracker {
	return &Tracker{hub: hub}
}

// Ready reports whether MarkReady has been called.
func (t *Tracker) Ready() bool {
	return t.ready.Load()
}

// MarkReady flips the tracker to ready and publishes a ready event. Calls
// after the first are no-ops.
func (t *Tracker) MarkReady(ctx context.Context) error {
	if !t.ready.CompareAndSwap(false, true) {
		return nil
	}
	return t.hub.Publish(ctx, TopicReady, Event{Kind: KindReady})
}

// Current returns the state for a page given its resolved session.
func (t *Tracker) Current(s *session.Session) State {
	return State{Ready: t.Ready(), Session: s}
}
