// Package pending tracks create submissions that have been accepted by the
// API but not yet settled, so journal reads can show them before the
// database write is visible.
package pending

import (
	"cmp"
	"context"
	"slices"
	"time"

	"io.winapps.worklog/internal/journal"
)

// Tracker records in-flight create submissions per owner, one slot per
// entry id.
//
// Begin must be called before the write starts and returns a token naming
// this submission. Settle takes that token once the write has finished,
// whatever the outcome, and leaves the slot alone if a later submission of
// the same id has taken it over. List returns what is still in flight.
type Tracker interface {
	Begin(ctx context.Context, ownerID string, entry journal.Entry) (string, error)
	Settle(ctx context.Context, ownerID, entryID, token string) error
	List(ctx context.Context, ownerID string) ([]journal.Entry, error)
}

// Sweepable trackers can drop submissions that were never settled, for
// example because the process handling them died.
type Sweepable interface {
	Sweep(ctx context.Context) (int, error)
}

type record struct {
	Token       string        `json:"token"`
	OwnerID     string        `json:"ownerId"`
	Entry       journal.Entry `json:"entry"`
	SubmittedAt time.Time     `json:"submittedAt"`
}

func (r record) stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(r.SubmittedAt) > maxAge
}

// entriesOf orders records by submission time, then id.
func entriesOf(records []record) []journal.Entry {
	slices.SortFunc(records, func(a, b record) int {
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.ID, b.Entry.ID)
	})
	out := make([]journal.Entry, len(records))
	for i, r := range records {
		out[i] = r.Entry
	}
	return out
}
