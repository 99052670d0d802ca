// Package constants provides shared constants used throughout the globesync codebase.
// This includes timeouts, intervals, limits, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the dataset endpoint
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// RefreshContextTimeout is the timeout for each fetch-and-reconcile cycle
	RefreshContextTimeout = 1 * time.Minute

	// DefaultPollInterval is the default interval between automatic dataset refreshes
	DefaultPollInterval = 5 * time.Second

	// GeocodeTimeout is the timeout for a single geocoding request
	GeocodeTimeout = 10 * time.Second

	// DefaultWorkerInterval is the default interval between geocode worker passes
	DefaultWorkerInterval = 10 * time.Second

	// ServerShutdownTimeout is the grace period for draining the HTTP server
	ServerShutdownTimeout = 5 * time.Second
)

// Limit constants define various limits and capacities
const (
	// MaxGeocodeAttempts is the number of attempts before a record is marked
	// permanently failed by the geocode worker
	MaxGeocodeAttempts = 3

	// GeocodeBatchSize is the number of pending records processed per worker pass
	GeocodeBatchSize = 10

	// MaxNameLength is the maximum allowed length for record names
	MaxNameLength = 256
)

// Rate limiting constants
const (
	// GeocodePacing is the minimum spacing between geocoding requests
	// (Nominatim usage policy: one request per second)
	GeocodePacing = 1100 * time.Millisecond
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Network constants
const (
	// DefaultListenAddr is the default bind address for the HTTP API
	DefaultListenAddr = ":8080"

	// NominatimURL is the OpenStreetMap Nominatim search endpoint
	NominatimURL = "https://nominatim.openstreetmap.org/search"

	// GeocodeUserAgent identifies globesync to the Nominatim service
	GeocodeUserAgent = "globesync/1.0"
)

// Geographic constants
const (
	// MinLongitude and MaxLongitude bound valid WGS-84 longitudes in degrees
	MinLongitude = -180.0
	MaxLongitude = 180.0

	// MinLatitude and MaxLatitude bound valid WGS-84 latitudes in degrees
	MinLatitude = -90.0
	MaxLatitude = 90.0
)
