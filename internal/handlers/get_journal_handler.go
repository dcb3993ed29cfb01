package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.worklog/internal/db"
	"io.winapps.worklog/internal/journal"
	getjournalmodels "io.winapps.worklog/internal/models/get_journal"
)

// GetJournal renders a user's journal grouped into weeks. The owner sees
// every entry plus their in-flight submissions; anyone else sees public
// entries only.
func (h *UsersHandler) GetJournal(c *gin.Context) {
	ctx := c.Request.Context()

	owner, err := h.users.GetUserByUsername(ctx, c.Param("username"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to fetch user", "username", c.Param("username"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	isOwner := c.GetString("uid") == owner.ID

	persisted, err := h.loadPersisted(c, owner.ID, !isOwner)
	if err != nil {
		h.logError(c, err, "failed to list entries", "owner_uid", owner.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entries"})
		return
	}

	inFlight, err := h.tracker.List(ctx, owner.ID)
	if err != nil {
		h.logWarn(c, err, "failed to list pending entries", "owner_uid", owner.ID)
		inFlight = nil
	}
	inFlight = journal.FilterVisible(inFlight, isOwner)

	result := journal.Group(persisted, inFlight)
	for _, bad := range result.Invalid {
		h.metrics.InvalidEntryDates.Inc()
		logWithContext(h.logger, c, "warn", "entry left out of journal",
			"owner_uid", owner.ID, "entry_id", bad.Entry.ID, "date", bad.Entry.Date, "error", bad.Err)
	}

	c.JSON(http.StatusOK, getjournalmodels.GetJournalResponse{
		Owner: getjournalmodels.Owner{
			Username:    owner.Username,
			DisplayName: owner.DisplayName(),
			First:       owner.First,
			Last:        owner.Last,
			CreatedAt:   owner.CreatedAt,
		},
		OwnerIsSignedIn: isOwner,
		Saving:          isOwner && len(inFlight) > 0,
		Weeks:           result.Weeks,
	})
}

// loadPersisted reads the owner's stored entries through the journal cache,
// falling back to Postgres on a miss or a cache failure. The cache
// generation is taken before the query so a list that raced a write is not
// cached.
func (h *UsersHandler) loadPersisted(c *gin.Context, ownerID string, publicOnly bool) ([]journal.Entry, error) {
	ctx := c.Request.Context()

	cached, hit, err := h.cache.Get(ctx, ownerID, publicOnly)
	if err != nil {
		h.logWarn(c, err, "failed to read journal cache", "owner_uid", ownerID)
	}
	if hit {
		h.metrics.JournalCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	h.metrics.JournalCacheLookups.WithLabelValues("miss").Inc()

	gen, genErr := h.cache.Generation(ctx, ownerID)
	if genErr != nil {
		h.logWarn(c, genErr, "failed to read journal cache generation", "owner_uid", ownerID)
	}

	entries, err := h.entries.ListEntries(ctx, ownerID, publicOnly)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return entries, nil
	}

	stored, err := h.cache.Set(ctx, ownerID, publicOnly, gen, entries)
	if err != nil {
		h.logWarn(c, err, "failed to write journal cache", "owner_uid", ownerID)
	} else if !stored {
		logWithContext(h.logger, c, "debug", "journal changed while loading, not cached", "owner_uid", ownerID)
	}
	return entries, nil
}
