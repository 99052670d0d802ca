package reconcile

import (
	"sync"

	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/records"
	"github.com/peakatlas/globesync/pkg/scene"
)

// Option is a function that configures a Reconciler
type Option func(*Reconciler)

// WithContentRefresh enables re-rendering of records whose non-identity
// fields changed between snapshots. Off by default: a record present in both
// snapshots is left untouched, matching the minimal add/remove contract.
func WithContentRefresh(enabled bool) Option {
	return func(r *Reconciler) {
		r.contentRefresh = enabled
	}
}

// Reconciler owns the rendered entity set: the authoritative mapping from
// record identity to rendered-entity handle and back. The scene adapter owns
// each handle's visual resources but mutates them only on Reconciler-issued
// add/remove calls.
//
// Invariant: after every successful Apply, the live handle set corresponds
// exactly to the id set of the applied snapshot: no duplicates, no stale
// survivors, no orphaned handles.
type Reconciler struct {
	mu             sync.Mutex
	adapter        scene.Adapter
	byID           map[records.ID]scene.Handle
	byHandle       map[scene.Handle]records.ID
	current        records.Snapshot
	contentRefresh bool
}

// New creates a Reconciler driving the given scene adapter.
func New(adapter scene.Adapter, opts ...Option) *Reconciler {
	r := &Reconciler{
		adapter:  adapter,
		byID:     make(map[records.ID]scene.Handle),
		byHandle: make(map[scene.Handle]records.ID),
		current:  make(records.Snapshot),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply mutates the rendered entity set to match the snapshot: entities whose
// id is absent from the snapshot are removed first, then entities for new ids
// are added. Ids present in both sets are left untouched unless
// content-refresh mode is on and the record's fingerprint changed, in which
// case the entity is re-added (remove then add).
//
// Apply is idempotent: applying the same snapshot twice performs zero adapter
// calls on the second application. An adapter failure aborts the cycle with
// an AdapterError; the mappings stay consistent with whatever mutations had
// already been applied, so a later Apply converges.
func (r *Reconciler) Apply(snapshot records.Snapshot) (*Changeset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs := &Changeset{}

	// Removals first, so handle counts never exceed the union of both sets.
	for id, rec := range r.current {
		if snapshot.Has(id) {
			continue
		}
		if err := r.removeLocked(id); err != nil {
			cs.calculateSummary()
			return cs, err
		}
		cs.Removed = append(cs.Removed, rec)
	}

	// Content refresh for surviving ids, when enabled.
	if r.contentRefresh {
		for id, rec := range r.current {
			next, ok := snapshot[id]
			if !ok || rec.Fingerprint() == next.Fingerprint() {
				continue
			}
			if err := r.removeLocked(id); err != nil {
				cs.calculateSummary()
				return cs, err
			}
			if err := r.addLocked(next); err != nil {
				cs.calculateSummary()
				return cs, err
			}
			cs.Refreshed = append(cs.Refreshed, next)
		}
	}

	// Additions for ids not rendered yet. Surviving ids keep their entity
	// but take the snapshot's content, so lookups never serve stale data.
	for id, rec := range snapshot {
		if _, ok := r.byID[id]; ok {
			r.current[id] = rec
			continue
		}
		if err := r.addLocked(rec); err != nil {
			cs.calculateSummary()
			return cs, err
		}
		cs.Added = append(cs.Added, rec)
	}

	cs.calculateSummary()
	return cs, nil
}

// removeLocked destroys the entity for id and drops both mapping entries.
func (r *Reconciler) removeLocked(id records.ID) error {
	handle := r.byID[id]
	if err := r.adapter.RemoveEntity(handle); err != nil {
		return errors.NewAdapterError("remove", int64(id), err)
	}
	delete(r.byID, id)
	delete(r.byHandle, handle)
	delete(r.current, id)
	return nil
}

// addLocked renders rec and stores the returned handle in both mappings.
func (r *Reconciler) addLocked(rec records.Record) error {
	handle, err := r.adapter.AddEntity(rec)
	if err != nil {
		return errors.NewAdapterError("add", int64(rec.ID), err)
	}
	r.byID[rec.ID] = handle
	r.byHandle[handle] = rec.ID
	r.current[rec.ID] = rec
	return nil
}

// Lookup returns the record for an id from the last applied snapshot.
func (r *Reconciler) Lookup(id records.ID) (records.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.current[id]
	return rec, ok
}

// Resolve maps a picked entity handle back to its record. A handle that
// belongs to an entity removed since the pick resolves to nothing.
func (r *Reconciler) Resolve(h scene.Handle) (records.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHandle[h]
	if !ok {
		return records.Record{}, false
	}
	rec, ok := r.current[id]
	return rec, ok
}

// HandleFor returns the rendered-entity handle for an id.
func (r *Reconciler) HandleFor(id records.ID) (scene.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.byID[id]
	return h, ok
}

// Count returns the number of live rendered entities.
func (r *Reconciler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Records returns a copy of the last applied snapshot.
func (r *Reconciler) Records() records.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Copy()
}

// IDs returns the live entity ids in ascending order.
func (r *Reconciler) IDs() []records.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.IDs()
}
