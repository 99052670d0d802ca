// Package records defines the domain records rendered on the globe and the
// snapshots they arrive in. A Record is immutable for the duration of one
// fetch cycle; identity is carried by ID alone and every other field is a
// full replacement of prior content for that id, not a delta.
package records

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"

	"github.com/peakatlas/globesync/pkg/constants"
	"github.com/peakatlas/globesync/pkg/errors"
)

// ID is the stable integer identity of a record, unique within a snapshot.
type ID int64

// Record is one point-of-interest as fetched from the dataset endpoint.
type Record struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Place   string `json:"place,omitempty"`   // nearest city or town
	Region  string `json:"region,omitempty"`  // province or state
	Country string `json:"country,omitempty"` //

	// Metrics holds optional numeric attributes from the feature properties,
	// e.g. vertical_drop_m, num_runs, num_lifts.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	// Longitude and Latitude are WGS-84 degrees.
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Validate checks the record for well-formedness.
func (r Record) Validate() error {
	if r.Name == "" {
		return &errors.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(r.Name) > constants.MaxNameLength {
		return &errors.ValidationError{Field: "name", Value: r.Name, Message: "exceeds maximum length"}
	}
	if r.Longitude < constants.MinLongitude || r.Longitude > constants.MaxLongitude {
		return &errors.ValidationError{Field: "longitude", Value: r.Longitude, Message: "outside WGS-84 bounds"}
	}
	if r.Latitude < constants.MinLatitude || r.Latitude > constants.MaxLatitude {
		return &errors.ValidationError{Field: "latitude", Value: r.Latitude, Message: "outside WGS-84 bounds"}
	}
	return nil
}

// Fingerprint returns a stable hash of all non-identity fields. Two records
// with the same id but different content produce different fingerprints, so
// the reconciler can detect content drift between snapshots.
func (r Record) Fingerprint() uint64 {
	h := fnv.New64a()

	writeString := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0}) // field separator
	}
	writeFloat := func(f float64) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}

	writeString(r.Name)
	writeString(r.Place)
	writeString(r.Region)
	writeString(r.Country)
	writeFloat(r.Longitude)
	writeFloat(r.Latitude)

	// Metrics in sorted key order for determinism.
	keys := make([]string, 0, len(r.Metrics))
	for k := range r.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeString(k)
		writeFloat(r.Metrics[k])
	}

	return h.Sum64()
}
