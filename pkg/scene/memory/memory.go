// Package memory provides an in-process scene adapter. It renders nothing:
// entities are tracked in maps and "picking" works against a deterministic
// screen projection, which makes it suitable for tests, the watch command,
// and examples that exercise the engine without a rendering widget.
package memory

import (
	"math"
	"strconv"
	"sync"

	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/records"
	"github.com/peakatlas/globesync/pkg/scene"
)

// Compile-time interface check to ensure proper implementation.
var _ scene.Adapter = (*Adapter)(nil)

// Projector maps a record to the screen point its marker is rendered at.
type Projector func(rec records.Record) scene.ScreenPoint

// Stats counts adapter mutations, for asserting reconciliation minimality.
type Stats struct {
	Adds    int
	Removes int
	Picks   int
}

// Option is a function that configures an Adapter
type Option func(*Adapter)

// WithProjector overrides the default equirectangular projection.
func WithProjector(p Projector) Option {
	return func(a *Adapter) {
		a.project = p
	}
}

// WithPickRadius sets the hit tolerance in screen units for PickEntityAt.
func WithPickRadius(r float64) Option {
	return func(a *Adapter) {
		a.pickRadius = r
	}
}

// Adapter is an in-memory scene.Adapter. Safe for concurrent use.
type Adapter struct {
	mu          sync.Mutex
	initialized bool
	container   string
	next        scene.Handle
	entities    map[scene.Handle]records.Record
	project     Projector
	pickRadius  float64
	lastView    scene.View
	flown       bool
	stats       Stats
}

// NewAdapter creates an in-memory scene adapter. It must still be
// initialized with Init before entities can be added.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		entities:   make(map[scene.Handle]records.Record),
		project:    equirectangular(1024, 512),
		pickRadius: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// equirectangular projects WGS-84 degrees onto a width x height screen.
func equirectangular(width, height float64) Projector {
	return func(rec records.Record) scene.ScreenPoint {
		return scene.ScreenPoint{
			X: (rec.Longitude + 180) / 360 * width,
			Y: (90 - rec.Latitude) / 180 * height,
		}
	}
}

// Init binds the adapter to a container. A second Init without an
// intervening Teardown fails.
func (a *Adapter) Init(container string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return errors.ErrAlreadyInitialized
	}
	a.initialized = true
	a.container = container
	return nil
}

// Teardown releases all entities. It fails if the adapter was never
// initialized or was already torn down.
func (a *Adapter) Teardown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return errors.ErrNotInitialized
	}
	a.initialized = false
	a.entities = make(map[scene.Handle]records.Record)
	return nil
}

// AddEntity tracks a record and returns a fresh handle.
func (a *Adapter) AddEntity(rec records.Record) (scene.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return scene.None, errors.ErrNotInitialized
	}
	a.next++
	a.entities[a.next] = rec
	a.stats.Adds++
	return a.next, nil
}

// RemoveEntity forgets the entity for the handle.
func (a *Adapter) RemoveEntity(h scene.Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return errors.ErrNotInitialized
	}
	if _, ok := a.entities[h]; !ok {
		return errors.NewNotFoundError("entity", strconv.FormatUint(uint64(h), 10))
	}
	delete(a.entities, h)
	a.stats.Removes++
	return nil
}

// PickEntityAt returns the nearest entity within the pick radius of p.
func (a *Adapter) PickEntityAt(p scene.ScreenPoint) (scene.Handle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Picks++

	best := scene.None
	bestDist := a.pickRadius
	for h, rec := range a.entities {
		pos := a.project(rec)
		d := math.Hypot(pos.X-p.X, pos.Y-p.Y)
		if d <= bestDist {
			best = h
			bestDist = d
		}
	}
	return best, best != scene.None
}

// FlyTo records the requested camera view.
func (a *Adapter) FlyTo(v scene.View) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return errors.ErrNotInitialized
	}
	a.lastView = v
	a.flown = true
	return nil
}

// PositionOf returns the screen point the entity for h is rendered at.
// Test helper for driving PickEntityAt.
func (a *Adapter) PositionOf(h scene.Handle) (scene.ScreenPoint, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.entities[h]
	if !ok {
		return scene.ScreenPoint{}, false
	}
	return a.project(rec), true
}

// Len returns the number of live entities.
func (a *Adapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entities)
}

// Stats returns the mutation counters so far.
func (a *Adapter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// LastView returns the most recent FlyTo target, if any.
func (a *Adapter) LastView() (scene.View, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastView, a.flown
}
