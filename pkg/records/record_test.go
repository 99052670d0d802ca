package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakatlas/globesync/pkg/errors"
)

func makeRecord() Record {
	return Record{
		ID:        1,
		Name:      "Mount Washington",
		Place:     "Courtenay",
		Region:    "British Columbia",
		Country:   "Canada",
		Metrics:   map[string]float64{"vertical_drop_m": 505, "num_runs": 81},
		Longitude: -125.298,
		Latitude:  49.748,
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Record)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Record) {}, wantErr: false},
		{name: "empty name", mutate: func(r *Record) { r.Name = "" }, wantErr: true},
		{name: "longitude too small", mutate: func(r *Record) { r.Longitude = -180.5 }, wantErr: true},
		{name: "longitude too large", mutate: func(r *Record) { r.Longitude = 181 }, wantErr: true},
		{name: "latitude out of range", mutate: func(r *Record) { r.Latitude = 90.01 }, wantErr: true},
		{name: "boundary coordinates", mutate: func(r *Record) { r.Longitude, r.Latitude = 180, -90 }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := makeRecord()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFingerprintStable(t *testing.T) {
	a := makeRecord()
	b := makeRecord()
	// Same content must hash identically regardless of map construction order.
	b.Metrics = map[string]float64{"num_runs": 81, "vertical_drop_m": 505}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintDetectsContentDrift(t *testing.T) {
	base := makeRecord()

	changed := makeRecord()
	changed.Metrics["num_lifts"] = 9
	assert.NotEqual(t, base.Fingerprint(), changed.Fingerprint(), "metric change must alter fingerprint")

	moved := makeRecord()
	moved.Latitude += 0.001
	assert.NotEqual(t, base.Fingerprint(), moved.Fingerprint(), "coordinate change must alter fingerprint")

	renamed := makeRecord()
	renamed.Name = "Mount Washington Alpine Resort"
	assert.NotEqual(t, base.Fingerprint(), renamed.Fingerprint(), "name change must alter fingerprint")
}

func TestFingerprintIgnoresID(t *testing.T) {
	a := makeRecord()
	b := makeRecord()
	b.ID = 99

	// Identity is not content: reconciliation keys on id separately.
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestSnapshotBasics(t *testing.T) {
	r1 := makeRecord()
	r2 := makeRecord()
	r2.ID = 2
	r2.Name = "Whistler Blackcomb"

	s := NewSnapshot(r2, r1)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(1))
	assert.True(t, s.Has(2))
	assert.False(t, s.Has(3))
	assert.Equal(t, []ID{1, 2}, s.IDs())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, ID(1), list[0].ID)
	assert.Equal(t, ID(2), list[1].ID)
}

func TestSnapshotDuplicateIDLastWins(t *testing.T) {
	first := makeRecord()
	second := makeRecord()
	second.Name = "Renamed"

	s := NewSnapshot(first, second)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "Renamed", s[1].Name)
}

func TestSnapshotCopyIsIndependent(t *testing.T) {
	s := NewSnapshot(makeRecord())
	c := s.Copy()

	delete(c, 1)
	assert.True(t, s.Has(1), "deleting from the copy must not affect the original")
}
