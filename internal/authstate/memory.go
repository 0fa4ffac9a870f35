package authstate

import (
	"context"
	"sync"

	"github.com/joestump/campaign-desk/internal/metrics"
)

const subscriberBuffer = 8

type subscriber struct {
	ch     chan Event
	topics []string
	closed bool
}

// MemoryHub is an in-process Hub for single-instance deployments.
type MemoryHub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
	done   chan struct{}
}

// NewMemoryHub returns an empty MemoryHub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		subs: make(map[string]map[*subscriber]struct{}),
		done: make(chan struct{}),
	}
}

func (h *MemoryHub) Publish(_ context.Context, topic string, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	for s := range h.subs[topic] {
		select {
		case s.ch <- e:
		default:
			metrics.AuthEventsDroppedTotal.Inc()
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe(ctx context.Context, topics ...string) (<-chan Event, error) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer), topics: topics}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	for _, t := range topics {
		if h.subs[t] == nil {
			h.subs[t] = make(map[*subscriber]struct{})
		}
		h.subs[t][s] = struct{}{}
	}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.remove(s)
		case <-h.done:
		}
	}()
	return s.ch, nil
}

func (h *MemoryHub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range s.topics {
		if set, ok := h.subs[t]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, t)
			}
		}
	}
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Close ends every subscription.
func (h *MemoryHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	close(h.done)
	for _, set := range h.subs {
		for s := range set {
			if !s.closed {
				s.closed = true
				close(s.ch)
			}
		}
	}
	h.subs = make(map[string]map[*subscriber]struct{})
	return nil
}
