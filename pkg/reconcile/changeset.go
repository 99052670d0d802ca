// Package reconcile mutates a rendered entity set to match each incoming
// snapshot with the minimal set of scene add/remove operations, and maintains
// the bidirectional id/handle index used for picking.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/peakatlas/globesync/pkg/records"
)

// Changeset represents the scene mutations one reconciliation performed.
type Changeset struct {
	Added     []records.Record // records rendered for the first time
	Refreshed []records.Record // records re-rendered after content drift (content-refresh mode only)
	Removed   []records.Record // records whose entities were destroyed
	Summary   Summary
}

// Summary provides summary statistics for a changeset.
type Summary struct {
	Added     int
	Refreshed int
	Removed   int
	Total     int
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.Total > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Summary.Total == 0
}

// calculateSummary computes the summary for a changeset.
func (c *Changeset) calculateSummary() {
	c.Summary = Summary{
		Added:     len(c.Added),
		Refreshed: len(c.Refreshed),
		Removed:   len(c.Removed),
		Total:     len(c.Added) + len(c.Refreshed) + len(c.Removed),
	}
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, fmt.Sprintf("%d added", len(c.Added)))
	}
	if len(c.Refreshed) > 0 {
		parts = append(parts, fmt.Sprintf("%d refreshed", len(c.Refreshed)))
	}
	if len(c.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", len(c.Removed)))
	}

	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.Total)
}
