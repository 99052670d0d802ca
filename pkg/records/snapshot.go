package records

import "sort"

// Snapshot is one complete fetched collection of records at a point in time,
// keyed by id. A record exists only for the duration of one fetch cycle's
// processing; snapshots are never mutated after construction.
type Snapshot map[ID]Record

// NewSnapshot builds a snapshot from a sequence of records. Ids are unique
// within a snapshot by contract; if the input violates that, the last record
// for an id wins.
func NewSnapshot(recs ...Record) Snapshot {
	s := make(Snapshot, len(recs))
	for _, r := range recs {
		s[r.ID] = r
	}
	return s
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s)
}

// Has reports whether the snapshot contains the given id.
func (s Snapshot) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the snapshot's ids in ascending order.
func (s Snapshot) IDs() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// List returns the records ordered by id.
func (s Snapshot) List() []Record {
	out := make([]Record, 0, len(s))
	for _, id := range s.IDs() {
		out = append(out, s[id])
	}
	return out
}

// Copy returns an independent shallow copy of the snapshot.
func (s Snapshot) Copy() Snapshot {
	out := make(Snapshot, len(s))
	for id, r := range s {
		out[id] = r
	}
	return out
}
