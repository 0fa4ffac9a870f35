// Package authstate publishes changes to the auth context so that open pages
// can re-run the redirect policy when authentication arrives late or a user's
// role changes.
package authstate

import (
	"context"
	"errors"

	"github.com/joestump/campaign-desk/internal/session"
)

// ErrClosed is returned by a Hub after Close.
var ErrClosed = errors.New("authstate: hub closed")

// TopicReady carries the one-time readiness event.
const TopicReady = "ready"

// UserTopic returns the topic carrying session changes for a user.
func UserTopic(userID string) string {
	return "user:" + userID
}

// Kind identifies an Event.
type Kind string

const (
	// KindReady marks the auth context as initialized.
	KindReady Kind = "ready"
	// KindSession replaces the session; a nil Session means signed out.
	KindSession Kind = "session"
)

// Event is a change to the auth context.
type Event struct {
	Kind    Kind             `json:"kind"`
	Session *session.Session `json:"session,omitempty"`
}

// State is the auth context as seen by one page.
type State struct {
	Ready   bool
	Session *session.Session
}

// Authenticated reports whether State carries a session.
func (s State) Authenticated() bool {
	return s.Session != nil
}

// Apply returns the state after e.
func (s State) Apply(e Event) State {
	switch e.Kind {
	case KindReady:
		s.Ready = true
	case KindSession:
		s.Session = e.Session
	}
	return s
}

// Hub fans auth events out to subscribers.
type Hub interface {
	// Publish delivers e to every current subscriber of topic. It never blocks
	// on slow subscribers.
	Publish(ctx context.Context, topic string, e Event) error
	// Subscribe returns a channel receiving events for topics until ctx is done.
	// The channel is closed when the subscription ends.
	Subscribe(ctx context.Context, topics ...string) (<-chan Event, error)
	Close() error
}
