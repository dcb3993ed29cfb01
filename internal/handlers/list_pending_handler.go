package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	listpendingmodels "io.winapps.worklog/internal/models/list_pending"
)

// ListPending returns the caller's submissions that are still being saved
func (h *EntryHandler) ListPending(c *gin.Context) {
	userUID, ok := requireUID(c)
	if !ok {
		return
	}

	entries, err := h.tracker.List(c.Request.Context(), userUID)
	if err != nil {
		h.logError(c, err, "failed to list pending entries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending entries"})
		return
	}

	c.JSON(http.StatusOK, listpendingmodels.ListPendingResponse{Saving: len(entries) > 0, Entries: entries})
}
