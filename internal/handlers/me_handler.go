package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"io.winapps.worklog/internal/db"
)

// Me redirects the signed-in user to their own journal
func (h *UsersHandler) Me(c *gin.Context) {
	userUID, ok := requireUID(c)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userUID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to fetch user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.Redirect(http.StatusFound, "/api/v1/users/"+url.PathEscape(user.Username)+"/journal")
}
