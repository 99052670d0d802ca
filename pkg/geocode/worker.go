package geocode

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/internal/store"
	"github.com/peakatlas/globesync/pkg/constants"
	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/logging"
)

// Worker periodically sweeps the registered tables for rows without
// coordinates and geocodes them. A row gets a limited number of attempts;
// after that it is flagged permanently failed and ignored.
type Worker struct {
	store       store.Store
	resolver    *Resolver
	interval    time.Duration
	maxAttempts int
	batchSize   int
	metrics     *metrics.Set
	logger      *zerolog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithInterval sets the time between sweeps.
func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.interval = d
	}
}

// WithMaxAttempts sets the attempt budget per row.
func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		w.maxAttempts = n
	}
}

// WithBatchSize sets the number of rows processed per table per sweep.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		w.batchSize = n
	}
}

// WithMetrics sets the collector set geocode outcomes are recorded on.
func WithMetrics(m *metrics.Set) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLogger sets the worker logger.
func WithLogger(l *zerolog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = l
	}
}

// NewWorker creates a Worker over the given store and resolver.
func NewWorker(st store.Store, r *Resolver, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:       st,
		resolver:    r,
		interval:    constants.DefaultWorkerInterval,
		maxAttempts: constants.MaxGeocodeAttempts,
		batchSize:   constants.GeocodeBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.metrics == nil {
		w.metrics = metrics.New(nil)
	}
	if w.logger == nil {
		w.logger = logging.Default()
	}
	return w
}

// Run sweeps on a fixed interval until the context is canceled. The first
// sweep runs immediately.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("Geocode worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Sweep(ctx); err != nil {
			w.logger.Error().Err(err).Msg("Geocode sweep failed")
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.logger.Info().Msg("Geocode worker stopped")
			return ctx.Err()
		}
	}
}

// Sweep processes one batch of pending rows for every registered table.
func (w *Worker) Sweep(ctx context.Context) error {
	tables, err := w.store.Tables(ctx)
	if err != nil {
		return err
	}

	for _, table := range tables {
		pending, err := w.store.Pending(ctx, table, w.maxAttempts, w.batchSize)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			continue
		}
		w.logger.Info().Str("table", table).Int("pending", len(pending)).Msg("Geocoding pending rows")

		for _, row := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.processRow(ctx, table, row); err != nil {
				w.logger.Error().Err(err).Str("table", table).Int64("id", row.ID).
					Msg("Geocoding row failed")
			}
		}
	}
	return nil
}

// processRow attempts one row: first the name with its region, then a
// fallback through the nearest city. Exhausting the attempt budget without
// a result marks the row permanently failed.
func (w *Worker) processRow(ctx context.Context, table string, row store.POI) error {
	attempts := row.GeocodeAttempts + 1
	if err := w.store.MarkAttempt(ctx, table, row.ID); err != nil {
		return err
	}

	cc := CountryCode(row.Country)
	coords, err := w.resolver.Resolve(ctx, w.query(row.Name, row.Region, row.Country), cc)
	if err != nil && errors.IsCanceled(err) {
		return err
	}
	if err != nil {
		coords, err = w.resolver.Resolve(ctx, w.query(row.Name, row.NearestCity, row.Country), cc)
	}

	if err != nil {
		w.metrics.GeocodeAttempts.WithLabelValues("miss").Inc()
		if attempts >= w.maxAttempts {
			w.logger.Warn().Str("table", table).Int64("id", row.ID).Int("attempts", attempts).
				Msg("Row marked permanently failed")
			w.metrics.GeocodeAttempts.WithLabelValues("failed").Inc()
			return w.store.MarkFailed(ctx, table, row.ID)
		}
		return err
	}

	if err := w.store.SetCoordinates(ctx, table, row.ID, coords.Longitude, coords.Latitude); err != nil {
		return err
	}
	w.metrics.GeocodeAttempts.WithLabelValues("hit").Inc()
	w.logger.Info().Str("table", table).Int64("id", row.ID).Str("name", row.Name).
		Float64("lon", coords.Longitude).Float64("lat", coords.Latitude).
		Msg("Row geocoded")
	return nil
}

// query builds a Nominatim free-form query, skipping empty parts.
func (w *Worker) query(parts ...string) string {
	q := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if q != "" {
			q += ", "
		}
		q += p
	}
	return q
}
