// Package server exposes stored POI tables as GeoJSON over HTTP, the
// format the reconciliation engine's dataset client consumes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/internal/store"
	"github.com/peakatlas/globesync/pkg/constants"
	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/logging"
)

// Server serves the GeoJSON API.
type Server struct {
	store    store.Store
	addr     string
	logger   *zerolog.Logger
	metrics  *metrics.Set
	registry *prometheus.Registry
	httpSrv  *http.Server
}

// Option configures the server.
type Option func(*Server)

// WithAddr sets the bind address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithLogger sets the server logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server over the given store. The server owns a Prometheus
// registry exposed at /metrics.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:    st,
		addr:     constants.DefaultListenAddr,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	s.metrics = metrics.New(s.registry)
	return s
}

// Metrics returns the server's collector set, so the geocode worker and
// engine can report into the same registry.
func (s *Server) Metrics() *metrics.Set {
	return s.metrics
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/geojson/{table}", s.handleGeoJSON)
	mux.HandleFunc("GET /api/tables", s.handleTables)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return s.withCORS(s.withObservability(mux))
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().Str("addr", s.addr).Msg("GeoJSON API listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, constants.ServerShutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// handleGeoJSON serves a table's geocoded rows as a FeatureCollection.
func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	if err := store.ValidateTableName(table); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid table name")
		return
	}

	pois, err := s.store.Features(r.Context(), table)
	if err != nil {
		if errors.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, "table '"+table+"' not found")
			return
		}
		s.logger.Error().Err(err).Str("table", table).Msg("Loading features failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, p := range pois {
		f := geojson.NewFeature(orb.Point{*p.Longitude, *p.Latitude})
		f.Properties["id"] = p.ID
		f.Properties["name"] = p.Name
		f.Properties["nearest_city"] = p.NearestCity
		f.Properties["region"] = p.Region
		f.Properties["country"] = p.Country
		for k, v := range p.Metrics {
			f.Properties[k] = v
		}
		fc.Append(f)
	}

	s.writeJSON(w, http.StatusOK, fc)
}

// handleTables lists the registered POI tables.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.store.Tables(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Listing tables failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tables == nil {
		tables = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Encoding response failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
