// Package globesync keeps a rendered set of point-of-interest markers in
// step with a remote authoritative dataset, and resolves pointer events on
// the rendered scene back to domain records.
//
// The engine periodically fetches a GeoJSON snapshot, diffs it against the
// currently rendered entity set, and applies the minimal add/remove
// mutations through a scene adapter. Independently of polling, a user pick
// is resolved through the engine's reverse entity index to the record under
// the pointer.
//
// Example usage:
//
//	client, err := globesync.New(
//	    globesync.WithEndpoint("http://localhost:8080/api/geojson/ski_resorts"),
//	    globesync.WithPollInterval(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.OnRecordAdded(func(rec records.Record) {
//	    log.Printf("new marker: %s", rec.Name)
//	})
//
//	if err := client.AutoRefreshOn(); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Later, from the UI event handler:
//	if rec, ok := client.Select(point); ok {
//	    fmt.Println("selected", rec.Name)
//	}
package globesync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/pkg/dataset"
	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/logging"
	"github.com/peakatlas/globesync/pkg/reconcile"
	"github.com/peakatlas/globesync/pkg/records"
	"github.com/peakatlas/globesync/pkg/scene"
	"github.com/peakatlas/globesync/pkg/scene/memory"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Presenter exposes the engine's state to an arbitrary UI layer.
type Presenter interface {
	// Records returns a copy of the last successfully reconciled snapshot
	Records() records.Snapshot

	// Count returns the number of live rendered entities
	Count() int

	// Selection returns the currently selected record, if any
	Selection() (records.Record, bool)
}

// Refresher triggers fetch-and-reconcile cycles.
type Refresher interface {
	// Refresh runs one fetch-and-reconcile cycle and reports what changed
	Refresh(ctx context.Context) (*reconcile.Changeset, error)
}

// AutoRefresher provides controls for the fixed-interval poll scheduler.
type AutoRefresher interface {
	// AutoRefreshOn starts the poll scheduler
	AutoRefreshOn() error

	// AutoRefreshOff stops the poll scheduler
	AutoRefreshOff() error
}

// Selector resolves pointer events against the rendered scene.
type Selector interface {
	// Select resolves a screen point to the record under it and makes it
	// the current selection; a miss clears the selection
	Select(p scene.ScreenPoint) (records.Record, bool)

	// ClearSelection resets the selection to none
	ClearSelection()
}

// Client is the live reconciliation and selection engine.
type Client interface {
	Presenter
	Refresher
	AutoRefresher
	Selector
	Hooks

	// Close stops polling and releases the scene adapter exactly once.
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	dataset *dataset.Client
	adapter scene.Adapter
	rec     *reconcile.Reconciler
	metrics *metrics.Set
	hooks   *hooks

	// mu serializes reconciliation and pick resolution so their reads and
	// writes of the entity mappings never interleave. Only the network
	// fetch runs outside this lock.
	mu         sync.Mutex
	selectedID *records.ID

	// poll scheduler state
	inFlight   atomic.Bool // single-flight guard: skip a tick while a cycle is outstanding
	pollTicker *time.Ticker
	stopCh     chan struct{}
	pollCancel context.CancelFunc

	closed       atomic.Bool
	teardownOnce sync.Once
}

// New creates a new engine instance with the given options.
func New(opts ...Option) (Client, error) {
	o := defaults().apply(opts...)

	if o.datasetClient == nil {
		if o.endpoint == "" {
			return nil, errors.NewConfigError("dataset", "an endpoint or dataset client is required", nil)
		}
		var dsOpts []dataset.Option
		if o.httpClient != nil {
			dsOpts = append(dsOpts, dataset.WithHTTPClient(o.httpClient))
		}
		dc, err := dataset.New(o.endpoint, dsOpts...)
		if err != nil {
			return nil, errors.NewConfigError("dataset", "invalid endpoint", err)
		}
		o.datasetClient = dc
	}

	adapter := o.adapter
	if adapter == nil {
		adapter = memory.NewAdapter()
	}

	// Bind the scene adapter. The adapter's own guard rejects double
	// initialization, which New surfaces rather than masks.
	if err := adapter.Init(o.container); err != nil {
		return nil, errors.NewConfigError("scene", "adapter initialization failed", err)
	}

	c := &client{
		options: o,
		dataset: o.datasetClient,
		adapter: adapter,
		rec:     reconcile.New(adapter, reconcile.WithContentRefresh(o.contentRefresh)),
		metrics: o.metrics,
		hooks:   newHooks(),
	}
	if c.metrics == nil {
		c.metrics = metrics.New(nil)
	}

	if o.initialView != nil {
		if err := adapter.FlyTo(*o.initialView); err != nil {
			_ = adapter.Teardown()
			return nil, errors.NewAdapterError("flyto", 0, err)
		}
	}

	if o.autoRefresh {
		if err := c.AutoRefreshOn(); err != nil {
			_ = adapter.Teardown()
			return nil, err
		}
	}

	return c, nil
}

// log returns the configured logger, falling back to the package default.
func (c *client) log() *zerolog.Logger {
	if c.options.logger != nil {
		return c.options.logger
	}
	return logging.Default()
}

// Records returns a copy of the last successfully reconciled snapshot.
func (c *client) Records() records.Snapshot {
	return c.rec.Records()
}

// Count returns the number of live rendered entities.
func (c *client) Count() int {
	return c.rec.Count()
}

// Close stops the poll scheduler and tears the scene adapter down exactly
// once. Subsequent Refresh calls fail with ErrClosed.
func (c *client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	var teardownErr error
	c.teardownOnce.Do(func() {
		teardownErr = c.adapter.Teardown()
	})
	if teardownErr != nil {
		c.log().Warn().Err(teardownErr).Msg("Scene adapter teardown failed")
		return errors.NewAdapterError("teardown", 0, teardownErr)
	}
	return nil
}
