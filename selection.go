package globesync

import (
	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/pkg/records"
	"github.com/peakatlas/globesync/pkg/scene"
)

// Select resolves a screen point through the scene adapter and the reverse
// entity index to the record under it. A hit replaces the current
// selection; a miss clears it. Resolution holds the engine lock, so a
// concurrent reconciliation can never hand back a handle for an entity
// that is mid-removal.
func (c *client) Select(p scene.ScreenPoint) (records.Record, bool) {
	c.mu.Lock()

	var picked *records.Record
	if handle, ok := c.adapter.PickEntityAt(p); ok {
		if rec, ok := c.rec.Resolve(handle); ok {
			picked = &rec
		}
	}

	changed := selectionDiffers(c.selectedID, picked)
	if picked != nil {
		id := picked.ID
		c.selectedID = &id
	} else {
		c.selectedID = nil
	}
	c.mu.Unlock()

	if picked != nil {
		c.metrics.Picks.WithLabelValues(metrics.ResultHit).Inc()
	} else {
		c.metrics.Picks.WithLabelValues(metrics.ResultMiss).Inc()
	}
	if changed {
		c.hooks.triggerSelectionChanged(picked)
	}

	if picked == nil {
		return records.Record{}, false
	}
	return *picked, true
}

// ClearSelection resets the selection to none.
func (c *client) ClearSelection() {
	c.mu.Lock()
	changed := c.selectedID != nil
	c.selectedID = nil
	c.mu.Unlock()

	if changed {
		c.hooks.triggerSelectionChanged(nil)
	}
}

// Selection returns the currently selected record, if any.
func (c *client) Selection() (records.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedID == nil {
		return records.Record{}, false
	}
	return c.rec.Lookup(*c.selectedID)
}

// selectionDiffers reports whether picked names a different record than the
// current selection.
func selectionDiffers(current *records.ID, picked *records.Record) bool {
	switch {
	case current == nil && picked == nil:
		return false
	case current == nil || picked == nil:
		return true
	default:
		return *current != picked.ID
	}
}
