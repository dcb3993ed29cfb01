package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sahilm/fuzzy"

	models "io.winapps.worklog/internal/models/account"
	searchusersmodels "io.winapps.worklog/internal/models/search_users"
)

// userSource lets fuzzy match over username and full name.
type userSource []models.User

func (s userSource) String(i int) string {
	u := s[i]
	return u.Username + " " + u.First + " " + u.Last
}

func (s userSource) Len() int {
	return len(s)
}

// filterUsers keeps the users matching query, in their original order.
func filterUsers(query string, users []models.User) []models.User {
	matches := fuzzy.FindFrom(query, userSource(users))
	indexes := make([]int, len(matches))
	for i, m := range matches {
		indexes[i] = m.Index
	}
	slices.Sort(indexes)

	out := make([]models.User, len(indexes))
	for i, idx := range indexes {
		out[i] = users[idx]
	}
	return out
}

// ListUsers lists every account for discovery, oldest first, optionally
// narrowed by the q search parameter
func (h *UsersHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.logError(c, err, "failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	if query := strings.TrimSpace(c.Query("q")); query != "" {
		users = filterUsers(query, users)
	}
	slices.SortStableFunc(users, func(a, b models.User) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	viewerUID := c.GetString("uid")
	results := make([]searchusersmodels.SearchUserResult, 0, len(users))
	for _, u := range users {
		results = append(results, searchusersmodels.SearchUserResult{
			Username:  u.Username,
			First:     u.First,
			Last:      u.Last,
			CreatedAt: u.CreatedAt,
			IsSelf:    viewerUID != "" && u.ID == viewerUID,
		})
	}

	c.JSON(http.StatusOK, searchusersmodels.SearchUsersResponse{Results: results})
}
