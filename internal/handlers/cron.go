package handlers

import (
	"errors"
	"net/http"
	"strings"

	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
)

// RunCron executes one scheduler batch. ?testEmail= limits it to one user.
func (h *Handler) RunCron(c *gin.Context) {
	testEmail := strings.TrimSpace(c.Query("testEmail"))

	report, err := h.Notifier.Run(c.Request.Context(), services.RunOptions{TestEmail: testEmail})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) && testEmail != "" {
			c.JSON(http.StatusNotFound, gin.H{"message": "No user found with email: " + testEmail})
			return
		}
		handleError(c, http.StatusInternalServerError, "Cron job failed", err)
		return
	}

	c.JSON(http.StatusOK, report)
}
