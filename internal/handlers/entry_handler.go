package handlers

import (
	"context"

	"go.uber.org/zap"

	"io.winapps.worklog/internal/journal"
	"io.winapps.worklog/internal/metrics"
	"io.winapps.worklog/internal/pending"
)

// EntryStore is the entry persistence used by the handlers. *db.Store
// satisfies it.
type EntryStore interface {
	ListEntries(ctx context.Context, ownerID string, publicOnly bool) ([]journal.Entry, error)
	GetEntry(ctx context.Context, entryID, ownerID string) (journal.Entry, error)
	CreateEntry(ctx context.Context, ownerID string, e journal.Entry) error
	UpdateEntry(ctx context.Context, ownerID string, e journal.Entry) error
	DeleteEntry(ctx context.Context, entryID, ownerID string) error
}

// JournalCache caches persisted entry lists. Set only writes when the
// owner's generation still matches the one read before the list was
// queried. *cache.JournalCache satisfies it.
type JournalCache interface {
	Get(ctx context.Context, ownerID string, publicOnly bool) ([]journal.Entry, bool, error)
	Generation(ctx context.Context, ownerID string) (int64, error)
	Set(ctx context.Context, ownerID string, publicOnly bool, gen int64, entries []journal.Entry) (bool, error)
	Invalidate(ctx context.Context, ownerID string) error
}

type EntryHandler struct {
	store   EntryStore
	cache   JournalCache
	tracker pending.Tracker
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(store EntryStore, cache JournalCache, tracker pending.Tracker, m *metrics.Metrics, logger *zap.SugaredLogger) *EntryHandler {
	return &EntryHandler{
		store:   store,
		cache:   cache,
		tracker: tracker,
		metrics: m,
		logger:  logger,
	}
}
