package pending

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"io.winapps.worklog/internal/journal"
)

// MemoryTracker keeps submissions in process memory. It only suits a single
// API instance; every record expires on its own after maxAge.
type MemoryTracker struct {
	// mu makes Settle's compare-and-delete atomic with Begin.
	mu    sync.Mutex
	items *cache.Cache
}

func NewMemoryTracker(maxAge time.Duration) *MemoryTracker {
	return &MemoryTracker{items: cache.New(maxAge, maxAge)}
}

func memoryKey(ownerID, entryID string) string {
	return ownerID + ":" + entryID
}

func (t *MemoryTracker) Begin(_ context.Context, ownerID string, entry journal.Entry) (string, error) {
	token := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items.Set(memoryKey(ownerID, entry.ID), record{Token: token, OwnerID: ownerID, Entry: entry, SubmittedAt: time.Now()}, cache.DefaultExpiration)
	return token, nil
}

func (t *MemoryTracker) Settle(_ context.Context, ownerID, entryID, token string) error {
	key := memoryKey(ownerID, entryID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if item, ok := t.items.Get(key); ok {
		if r, ok := item.(record); ok && r.Token != token {
			return nil
		}
	}
	t.items.Delete(key)
	return nil
}

func (t *MemoryTracker) List(_ context.Context, ownerID string) ([]journal.Entry, error) {
	var records []record
	for _, item := range t.items.Items() {
		r, ok := item.Object.(record)
		if !ok || r.OwnerID != ownerID {
			continue
		}
		records = append(records, r)
	}
	return entriesOf(records), nil
}
