package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/metrics"
	"github.com/joestump/campaign-desk/internal/redirect"
	"github.com/joestump/campaign-desk/internal/session"
)

// WatchHandler streams redirect decisions to pages that are waiting on the
// auth context.
type WatchHandler struct {
	resolver *session.Resolver
	tracker  *authstate.Tracker
	hub      authstate.Hub
	log      *zap.Logger
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(resolver *session.Resolver, tracker *authstate.Tracker, hub authstate.Hub, log *zap.Logger) *WatchHandler {
	return &WatchHandler{resolver: resolver, tracker: tracker, hub: hub, log: log}
}

// sseNavigator writes a single navigate event to an event stream.
type sseNavigator struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (n sseNavigator) Navigate(target string) error {
	if _, err := fmt.Fprintf(n.w, "event: navigate\ndata: %s\n\n", target); err != nil {
		return err
	}
	return n.rc.Flush()
}

// Watch serves GET /auth/watch?page=. It subscribes to readiness and the
// signed-in user's session changes, then re-runs the redirect policy on every
// event until it navigates once or the client goes away.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	page, ok := redirect.ParsePage(r.URL.Query().Get("page"))
	if !ok {
		http.Error(w, "unknown page", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	res := h.resolver.Resolve(ctx)
	topics := []string{authstate.TopicReady}
	if res.Session != nil {
		topics = append(topics, authstate.UserTopic(res.Session.UserID))
	}
	events, err := h.hub.Subscribe(ctx, topics...)
	if err != nil {
		h.log.Error("subscribe auth events", zap.Error(err))
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	// Read readiness after subscribing so a ready event cannot slip between.
	initial := h.tracker.Current(res.Session)

	metrics.WatchStreams.Inc()
	defer metrics.WatchStreams.Dec()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": watching\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.log.Warn("event stream not flushable", zap.Error(err))
		return
	}

	events = h.confirmSignOuts(ctx, h.resolver.Token(r), events)
	err = redirect.Watch(ctx, page, initial, res.Stored, events, sseNavigator{w: w, rc: rc})
	if err != nil && !errors.Is(err, context.Canceled) {
		h.log.Debug("watch ended", zap.String("page", string(page)), zap.Error(err))
	}
}

// confirmSignOuts relays events, checking each sign-out against the session
// behind token. Sign-out events fan out to every session of a user, so one
// whose own record is still stored keeps that record instead.
func (h *WatchHandler) confirmSignOuts(ctx context.Context, token string, in <-chan authstate.Event) <-chan authstate.Event {
	out := make(chan authstate.Event)
	go func() {
		defer close(out)
		for e := range in {
			if e.Kind == authstate.KindSession && e.Session == nil {
				if res := h.resolver.ResolveToken(ctx, token); res.Session != nil {
					h.log.Debug("sign-out left this session in place", zap.String("user_id", res.Session.UserID))
					e.Session = res.Session
				}
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
