// Package metrics defines the Prometheus collectors shared by the engine
// and the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cycle result label values.
const (
	ResultOK           = "ok"
	ResultSkipped      = "skipped"
	ResultFetchError   = "fetch_error"
	ResultAdapterError = "adapter_error"
)

// Pick result label values.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Set bundles the engine's collectors. A Set always has usable collectors;
// passing a nil registerer to New yields an unregistered set suitable for
// tests and embedding.
type Set struct {
	// Cycles counts poll cycles by outcome.
	Cycles *prometheus.CounterVec

	// EntitiesLive tracks the number of rendered entities.
	EntitiesLive prometheus.Gauge

	// AdapterMutations counts scene adapter add and remove calls.
	AdapterMutations *prometheus.CounterVec

	// Picks counts selection attempts by outcome.
	Picks *prometheus.CounterVec

	// GeocodeAttempts counts geocoding lookups by outcome.
	GeocodeAttempts *prometheus.CounterVec

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests *prometheus.CounterVec
}

// New creates the collector set and registers it with reg when reg is
// non-nil.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globesync",
			Name:      "poll_cycles_total",
			Help:      "Poll cycles partitioned by outcome.",
		}, []string{"result"}),
		EntitiesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globesync",
			Name:      "entities_live",
			Help:      "Number of currently rendered entities.",
		}),
		AdapterMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globesync",
			Name:      "adapter_mutations_total",
			Help:      "Scene adapter mutations partitioned by operation.",
		}, []string{"operation"}),
		Picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globesync",
			Name:      "picks_total",
			Help:      "Selection attempts partitioned by outcome.",
		}, []string{"result"}),
		GeocodeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globesync",
			Name:      "geocode_attempts_total",
			Help:      "Geocoding lookups partitioned by outcome.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globesync",
			Name:      "http_requests_total",
			Help:      "API requests partitioned by route and status code.",
		}, []string{"route", "code"}),
	}

	if reg != nil {
		reg.MustRegister(
			s.Cycles,
			s.EntitiesLive,
			s.AdapterMutations,
			s.Picks,
			s.GeocodeAttempts,
			s.HTTPRequests,
		)
	}
	return s
}
