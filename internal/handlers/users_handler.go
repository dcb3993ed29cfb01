package handlers

import (
	"context"

	"go.uber.org/zap"

	"io.winapps.worklog/internal/metrics"
	models "io.winapps.worklog/internal/models/account"
	"io.winapps.worklog/internal/pending"
)

// UserStore is the user lookup used by the handlers. *db.Store satisfies it.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type UsersHandler struct {
	users   UserStore
	entries EntryStore
	cache   JournalCache
	tracker pending.Tracker
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(users UserStore, entries EntryStore, cache JournalCache, tracker pending.Tracker, m *metrics.Metrics, logger *zap.SugaredLogger) *UsersHandler {
	return &UsersHandler{
		users:   users,
		entries: entries,
		cache:   cache,
		tracker: tracker,
		metrics: m,
		logger:  logger,
	}
}
