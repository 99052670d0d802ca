package globesync

import (
	"context"

	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/pkg/errors"
	"github.com/peakatlas/globesync/pkg/records"
	"github.com/peakatlas/globesync/pkg/reconcile"
)

// Refresh runs one fetch-and-reconcile cycle: fetch the remote snapshot,
// diff it against the rendered set, and apply removals then additions
// through the scene adapter. A fetch failure leaves the rendered set
// untouched and is recoverable; an adapter failure aborts the cycle
// mid-apply and is returned as an AdapterError.
func (c *client) Refresh(ctx context.Context) (*reconcile.Changeset, error) {
	if c.closed.Load() {
		return nil, errors.ErrClosed
	}

	// The fetch is the only part of a cycle that runs outside the engine
	// lock, so a slow endpoint never blocks pick resolution.
	snapshot, err := c.dataset.Snapshot(ctx)
	if err != nil {
		c.metrics.Cycles.WithLabelValues(metrics.ResultFetchError).Inc()
		return nil, err
	}

	c.mu.Lock()
	prev := c.rec.Records()
	cs, applyErr := c.rec.Apply(snapshot)

	// A removed record cannot stay selected.
	var selectionCleared bool
	if c.selectedID != nil {
		if _, ok := c.rec.Lookup(*c.selectedID); !ok {
			c.selectedID = nil
			selectionCleared = true
		}
	}

	updates := contentUpdates(prev, c.rec.Records())
	count := c.rec.Count()
	c.mu.Unlock()

	c.metrics.EntitiesLive.Set(float64(count))
	c.metrics.AdapterMutations.WithLabelValues("add").Add(float64(len(cs.Added) + len(cs.Refreshed)))
	c.metrics.AdapterMutations.WithLabelValues("remove").Add(float64(len(cs.Removed) + len(cs.Refreshed)))
	if applyErr != nil {
		c.metrics.Cycles.WithLabelValues(metrics.ResultAdapterError).Inc()
	} else {
		c.metrics.Cycles.WithLabelValues(metrics.ResultOK).Inc()
	}

	// Hooks fire outside the lock so they may call back into the engine.
	for _, rec := range cs.Removed {
		c.hooks.triggerRemoved(rec)
	}
	for _, u := range updates {
		c.hooks.triggerUpdated(u.old, u.updated)
	}
	for _, rec := range cs.Added {
		c.hooks.triggerAdded(rec)
	}
	if selectionCleared {
		c.hooks.triggerSelectionChanged(nil)
	}

	if cs.HasChanges() {
		c.log().Info().
			Int("added", cs.Summary.Added).
			Int("refreshed", cs.Summary.Refreshed).
			Int("removed", cs.Summary.Removed).
			Int("live", count).
			Msg("Reconciled dataset snapshot")
	}

	return cs, applyErr
}

// contentUpdate pairs the previous and current content of a record whose
// identity survived a cycle.
type contentUpdate struct {
	old     records.Record
	updated records.Record
}

// contentUpdates reports records present in both snapshots whose content
// fingerprint changed.
func contentUpdates(prev, curr records.Snapshot) []contentUpdate {
	var updates []contentUpdate
	for _, id := range curr.IDs() {
		before, ok := prev[id]
		if !ok {
			continue
		}
		after := curr[id]
		if before.Fingerprint() != after.Fingerprint() {
			updates = append(updates, contentUpdate{old: before, updated: after})
		}
	}
	return updates
}
