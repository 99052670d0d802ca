// Package scene defines the boundary between the reconciliation engine and
// the rendering widget. The engine drives a scene through the Adapter
// interface and never touches rendered entities directly; the adapter owns
// every handle's visual resources and releases them only in response to
// engine-issued add/remove calls.
package scene

import "github.com/peakatlas/globesync/pkg/records"

// Handle is an opaque reference to a rendered entity, owned by the adapter.
// The zero value is never a valid handle.
type Handle uint64

// None is the zero handle, returned when a pick resolves to nothing.
const None Handle = 0

// ScreenPoint is a 2-D pointer position in screen coordinates.
type ScreenPoint struct {
	X float64
	Y float64
}

// View is a camera position over the globe.
type View struct {
	Longitude float64 // WGS-84 degrees
	Latitude  float64 // WGS-84 degrees
	Height    float64 // meters above the ellipsoid
	Heading   float64 // degrees, clockwise from north
	Pitch     float64 // degrees, negative looks down
}

// Adapter is implemented by the rendering widget. AddEntity and RemoveEntity
// are promised not to fail for well-formed input; a returned error is treated
// by the engine as a fatal invariant violation that aborts the affected
// reconciliation cycle.
type Adapter interface {
	// Init binds the adapter to its rendering container. It must be guarded:
	// a second Init without an intervening Teardown returns
	// errors.ErrAlreadyInitialized.
	Init(container string) error

	// Teardown releases the adapter's resources exactly once.
	Teardown() error

	// AddEntity renders a record and returns its handle.
	AddEntity(rec records.Record) (Handle, error)

	// RemoveEntity destroys the rendered entity for the handle.
	RemoveEntity(h Handle) error

	// PickEntityAt resolves a screen point to the rendered entity under it,
	// if any. A miss is a normal outcome, not an error.
	PickEntityAt(p ScreenPoint) (Handle, bool)

	// FlyTo moves the camera to the given view.
	FlyTo(v View) error
}
