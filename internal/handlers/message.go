package handlers

import (
	"net/http"
	"time"

	"dsagrinders/internal/models"
	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
)

// GetDailyRoast returns the roast cached by today's run, or a random one
func (h *Handler) GetDailyRoast(c *gin.Context) {
	settings, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load roast", err)
		return
	}

	today := time.Now().In(settings.Location()).Format(models.DateLayout)
	if roast := settings.Roast(); roast != nil && roast.Date == today {
		c.JSON(http.StatusOK, gin.H{"roast": roast.Roast, "fullMessage": roast.FullMessage, "date": roast.Date, "cached": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roast": services.RandomRoast(), "cached": false})
}

// ListTemplates lists message templates, seeding the defaults on first use
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.Templates.List(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch templates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// CreateTemplate stores a new active template
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req models.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tmpl, err := h.Templates.Create(c.Request.Context(), req)
	if err != nil {
		respond(c, err, "Failed to create template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": tmpl})
}

// UpdateTemplate edits an existing template
func (h *Handler) UpdateTemplate(c *gin.Context) {
	var req models.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tmpl, err := h.Templates.Update(c.Request.Context(), req)
	if err != nil {
		respond(c, err, "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": tmpl})
}

// SendRoasts sends one roast to every eligible user right away
func (h *Handler) SendRoasts(c *gin.Context) {
	report, err := h.Notifier.SendRoasts(c.Request.Context())
	if err != nil {
		respond(c, err, "Failed to send roasts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"results":           report.Results,
		"summary":           report.Summary,
		"totalUsers":        report.TotalUsers,
		"usersWithWhatsApp": report.UsersWithWhatsApp,
	})
}
