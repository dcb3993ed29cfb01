package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.worklog/internal/db"
	getentrymodels "io.winapps.worklog/internal/models/get_entry"
)

// GetEntry returns one of the caller's own entries, for editing
func (h *EntryHandler) GetEntry(c *gin.Context) {
	var req getentrymodels.GetEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
		return
	}

	userUID, ok := requireUID(c)
	if !ok {
		return
	}

	entry, err := h.store.GetEntry(c.Request.Context(), req.EntryID, userUID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to fetch entry", "entry_id", req.EntryID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch entry"})
		return
	}

	c.JSON(http.StatusOK, getentrymodels.GetEntryResponse{Entry: entry})
}
