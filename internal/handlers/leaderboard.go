package handlers

import (
	"net/http"

	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard ranks every eligible user. ?type=allTime switches the ordering.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	entries, err := h.Leaderboard.Global(c.Request.Context(), services.ParseLeaderboardMode(c.Query("type")))
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to build leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
