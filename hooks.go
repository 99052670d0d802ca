package globesync

import (
	"sync"

	"github.com/peakatlas/globesync/pkg/records"
)

// RecordAddedHook is called when a record enters the rendered set.
type RecordAddedHook func(rec records.Record)

// RecordUpdatedHook is called when a record's content changes between
// cycles while its identity survives.
type RecordUpdatedHook func(old, updated records.Record)

// RecordRemovedHook is called when a record leaves the rendered set.
type RecordRemovedHook func(rec records.Record)

// SelectionChangedHook is called when the current selection changes. The
// record is nil when the selection was cleared.
type SelectionChangedHook func(rec *records.Record)

// Hooks registers callbacks for engine events. Hooks run synchronously
// after a cycle or pick completes, outside the engine's internal lock, so
// they may call back into the engine.
type Hooks interface {
	// OnRecordAdded registers a hook for added records
	OnRecordAdded(hook RecordAddedHook)

	// OnRecordUpdated registers a hook for content changes
	OnRecordUpdated(hook RecordUpdatedHook)

	// OnRecordRemoved registers a hook for removed records
	OnRecordRemoved(hook RecordRemovedHook)

	// OnSelectionChanged registers a hook for selection changes
	OnSelectionChanged(hook SelectionChangedHook)
}

// hooks holds the registered callbacks.
type hooks struct {
	mu               sync.RWMutex
	added            []RecordAddedHook
	updated          []RecordUpdatedHook
	removed          []RecordRemovedHook
	selectionChanged []SelectionChangedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) OnRecordAdded(hook RecordAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added = append(h.added, hook)
}

func (h *hooks) OnRecordUpdated(hook RecordUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updated = append(h.updated, hook)
}

func (h *hooks) OnRecordRemoved(hook RecordRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, hook)
}

func (h *hooks) OnSelectionChanged(hook SelectionChangedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selectionChanged = append(h.selectionChanged, hook)
}

func (h *hooks) triggerAdded(rec records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.added {
		hook(rec)
	}
}

func (h *hooks) triggerUpdated(old, updated records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.updated {
		hook(old, updated)
	}
}

func (h *hooks) triggerRemoved(rec records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.removed {
		hook(rec)
	}
}

func (h *hooks) triggerSelectionChanged(rec *records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.selectionChanged {
		hook(rec)
	}
}

// Expose the registration methods on the client.

func (c *client) OnRecordAdded(hook RecordAddedHook)           { c.hooks.OnRecordAdded(hook) }
func (c *client) OnRecordUpdated(hook RecordUpdatedHook)       { c.hooks.OnRecordUpdated(hook) }
func (c *client) OnRecordRemoved(hook RecordRemovedHook)       { c.hooks.OnRecordRemoved(hook) }
func (c *client) OnSelectionChanged(hook SelectionChangedHook) { c.hooks.OnSelectionChanged(hook) }
