// Package metrics declares the prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NavigationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campaigndesk_navigations_total",
		Help: "Redirect decisions that navigated the browser, by page and target.",
	}, []string{"page", "target"})

	PendingRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campaigndesk_pending_renders_total",
		Help: "Pages rendered as a loading indicator while auth state was not ready.",
	}, []string{"page"})

	ProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campaigndesk_proxy_requests_total",
		Help: "Data proxy requests by outcome.",
	}, []string{"outcome"})

	ProxyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campaigndesk_proxy_duration_seconds",
		Help:    "Time spent waiting on the data service.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	AuthEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campaigndesk_auth_events_dropped_total",
		Help: "Auth state events dropped because a subscriber buffer was full.",
	})

	WatchStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campaigndesk_watch_streams",
		Help: "Open auth-state watch streams.",
	})

	RenderPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campaigndesk_render_panics_total",
		Help: "Panics caught by the error boundary.",
	})
)
