package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.worklog/internal/db"
	deleteentrymodels "io.winapps.worklog/internal/models/delete_entry"
)

// DeleteEntry handles the deletion of an entry
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	var req deleteentrymodels.DeleteEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
		return
	}

	userUID, ok := requireUID(c)
	if !ok {
		return
	}

	err := h.store.DeleteEntry(c.Request.Context(), req.EntryID, userUID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to delete entry", "entry_id", req.EntryID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete entry"})
		return
	}
	h.invalidate(c, userUID)

	c.JSON(http.StatusOK, deleteentrymodels.DeleteEntryResponse{IsDeleted: true, EntryID: req.EntryID})
}
