package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"io.winapps.worklog/internal/db"
	"io.winapps.worklog/internal/journal"
	createmodels "io.winapps.worklog/internal/models/create_entry"
)

// CreateEntry handles creation of new journal entries. The entry is tracked
// as pending for as long as the insert is in flight, so journal reads show
// it straight away.
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	var req createmodels.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userUID, ok := requireUID(c)
	if !ok {
		return
	}

	entry, ok := decodeOrReject(c, req.Submission())
	if !ok {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	ctx := c.Request.Context()

	token, err := h.tracker.Begin(ctx, userUID, entry)
	if err != nil {
		h.logWarn(c, err, "failed to track pending entry", "entry_id", entry.ID)
	}
	h.metrics.PendingSubmissions.Inc()
	defer func() {
		h.metrics.PendingSubmissions.Dec()
		if token == "" {
			return
		}
		if err := h.tracker.Settle(context.WithoutCancel(ctx), userUID, entry.ID, token); err != nil {
			h.logWarn(c, err, "failed to settle pending entry", "entry_id", entry.ID)
		}
	}()

	err = h.store.CreateEntry(ctx, userUID, entry)
	h.invalidate(c, userUID)
	if err != nil {
		h.metrics.EntryCreateFailures.Inc()
		if errors.Is(err, db.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Entry already exists"})
			return
		}
		h.logError(c, err, "failed to create entry", "entry_id", entry.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create entry"})
		return
	}
	h.metrics.EntriesCreated.Inc()

	logWithContext(h.logger, c, "info", "entry created", "entry_id", entry.ID, "type", entry.Type)
	c.JSON(http.StatusCreated, createmodels.CreateEntryResponse{Entry: entry})
}

// decodeOrReject runs the typed decode step and answers 400 when it fails.
func decodeOrReject(c *gin.Context, s journal.Submission) (journal.Entry, bool) {
	entry, err := journal.DecodeSubmission(s)
	if err == nil {
		return entry, true
	}

	var subErr *journal.SubmissionError
	if errors.As(err, &subErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry", "fields": subErr.Fields})
		return journal.Entry{}, false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry"})
	return journal.Entry{}, false
}

// invalidate drops the owner's cached journal views. A failure only delays
// the change until the cache entry expires.
func (h *EntryHandler) invalidate(c *gin.Context, ownerID string) {
	if err := h.cache.Invalidate(context.WithoutCancel(c.Request.Context()), ownerID); err != nil {
		h.logWarn(c, err, "failed to invalidate journal cache", "owner_uid", ownerID)
	}
}
