package handlers

import (
	"net/http"

	"dsagrinders/internal/models"
	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
)

// GetSettings returns the automation settings, creating them on first access
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": services.NewSettingsView(settings)})
}

// UpdateSettings applies a partial settings update
func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings, err := h.Settings.Update(c.Request.Context(), patch)
	if err != nil {
		respond(c, err, "Failed to update settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"settings": services.NewSettingsView(settings),
		"message":  "Settings updated successfully",
	})
}

// ResetCounters zeroes today's send counters
func (h *Handler) ResetCounters(c *gin.Context) {
	if err := h.Settings.ResetCounters(c.Request.Context()); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reset counters", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Daily counters reset successfully"})
}

// ListUsers returns every account with reachability stats
func (h *Handler) ListUsers(c *gin.Context) {
	users, stats, err := h.Users.ListAll(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch users", err)
		return
	}

	profiles := make([]models.ProfileResponse, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].ToProfile())
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles, "stats": stats})
}

// PromoteUser grants the admin role to a user
func (h *Handler) PromoteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.Users.Promote(c.Request.Context(), id)
	if err != nil {
		respond(c, err, "Failed to promote user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.ToProfile()})
}
