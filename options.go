package globesync

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/pkg/constants"
	"github.com/peakatlas/globesync/pkg/dataset"
	"github.com/peakatlas/globesync/pkg/scene"
)

// options holds the engine configuration.
type options struct {
	endpoint       string
	datasetClient  *dataset.Client
	httpClient     *http.Client
	adapter        scene.Adapter
	container      string
	initialView    *scene.View
	pollInterval   time.Duration
	autoRefresh    bool
	contentRefresh bool
	metrics        *metrics.Set
	logger         *zerolog.Logger
}

// Option configures the engine.
type Option func(*options)

// defaults returns the baseline configuration.
func defaults() *options {
	return &options{
		container:    "globe",
		pollInterval: constants.DefaultPollInterval,
	}
}

// apply folds the given options into o and returns it.
func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithEndpoint sets the dataset endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithDatasetClient supplies a preconfigured dataset client, overriding
// WithEndpoint and WithHTTPClient.
func WithDatasetClient(dc *dataset.Client) Option {
	return func(o *options) {
		o.datasetClient = dc
	}
}

// WithHTTPClient sets the HTTP client used for dataset fetches.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithSceneAdapter sets the scene adapter. The default is an in-memory
// adapter, useful for tests and headless operation.
func WithSceneAdapter(a scene.Adapter) Option {
	return func(o *options) {
		o.adapter = a
	}
}

// WithContainer sets the container identifier handed to the scene adapter
// at initialization.
func WithContainer(container string) Option {
	return func(o *options) {
		o.container = container
	}
}

// WithInitialView flies the camera to the given view right after the scene
// adapter is bound.
func WithInitialView(v scene.View) Option {
	return func(o *options) {
		o.initialView = &v
	}
}

// WithPollInterval sets the interval between poll cycles.
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		o.pollInterval = interval
	}
}

// WithAutoRefresh starts the poll scheduler as part of New when enabled.
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) {
		o.autoRefresh = enabled
	}
}

// WithContentRefresh re-renders entities whose identity survived a cycle
// but whose content changed.
func WithContentRefresh(enabled bool) Option {
	return func(o *options) {
		o.contentRefresh = enabled
	}
}

// WithMetrics sets the collector set cycle and pick outcomes are recorded
// on. The default set is unregistered.
func WithMetrics(m *metrics.Set) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
