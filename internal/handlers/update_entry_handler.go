package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.worklog/internal/db"
	updateentrymodels "io.winapps.worklog/internal/models/update_entry"
)

// UpdateEntry replaces the fields of one of the caller's entries
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	var req updateentrymodels.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
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

	err := h.store.UpdateEntry(c.Request.Context(), userUID, entry)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to update entry", "entry_id", entry.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update entry"})
		return
	}
	h.invalidate(c, userUID)

	c.JSON(http.StatusOK, updateentrymodels.UpdateEntryResponse{Entry: entry})
}
