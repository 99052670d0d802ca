// Package store persists point-of-interest tables behind the GeoJSON API
// and tracks geocoding progress for rows without coordinates.
package store

import (
	"context"
	"regexp"

	"github.com/peakatlas/globesync/pkg/errors"
)

// tableNamePattern restricts table names to identifier characters. Table
// names are interpolated into SQL, so nothing else may pass.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateTableName rejects names unsafe to interpolate into SQL.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return errors.NewValidationError("table", name, "must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	return nil
}

// POI is one stored point of interest. Longitude and Latitude are nil
// until the row has been geocoded.
type POI struct {
	ID              int64
	Name            string
	NearestCity     string
	Region          string
	Country         string
	Longitude       *float64
	Latitude        *float64
	Metrics         map[string]float64
	GeocodeAttempts int
	GeocodeFailed   bool
}

// Geocoded reports whether the row carries coordinates.
func (p POI) Geocoded() bool {
	return p.Longitude != nil && p.Latitude != nil
}

// Store is the persistence boundary.
type Store interface {
	// EnsureSchema creates the table registry if it does not exist
	EnsureSchema(ctx context.Context) error

	// CreateTable creates and registers a POI table
	CreateTable(ctx context.Context, table string) error

	// Tables lists the registered POI tables
	Tables(ctx context.Context) ([]string, error)

	// Insert adds a row and returns its id
	Insert(ctx context.Context, table string, p POI) (int64, error)

	// Features returns the geocoded rows of a table
	Features(ctx context.Context, table string) ([]POI, error)

	// Pending returns up to limit ungeocoded rows with fewer than
	// maxAttempts failed lookups
	Pending(ctx context.Context, table string, maxAttempts, limit int) ([]POI, error)

	// SetCoordinates records a successful geocode result
	SetCoordinates(ctx context.Context, table string, id int64, lon, lat float64) error

	// MarkAttempt increments a row's geocode attempt counter
	MarkAttempt(ctx context.Context, table string, id int64) error

	// MarkFailed flags a row as permanently ungeocodable
	MarkFailed(ctx context.Context, table string, id int64) error

	// Close releases the underlying connection pool
	Close() error
}
