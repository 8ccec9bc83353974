package handlers

import (
	"errors"
	"net/http"

	"dsagrinders/internal/auth"
	"dsagrinders/internal/models"
	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateUser registers an account directly with a LeetCode handle
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Users.CreateUser(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflict):
			handleError(c, http.StatusBadRequest, "User already exists", err)
		case errors.Is(err, services.ErrSyncFailed):
			handleError(c, http.StatusBadGateway, "Failed to fetch LeetCode stats. Check the username and try again.", err)
		default:
			respond(c, err, "Failed to create user")
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetProfile returns the caller's profile and onboarding state
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": auth.CurrentUser(c).ToProfile()})
}

// UpdateProfile applies a partial profile update for the caller
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isPhoneValidationError(err) {
			handleError(c, http.StatusBadRequest, invalidPhoneMessage, err)
			return
		}
		handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Users.UpdateProfile(c.Request.Context(), auth.CurrentUser(c).ID, req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPhone) {
			handleError(c, http.StatusBadRequest, invalidPhoneMessage, err)
			return
		}
		respond(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToProfile()})
}

// GetUserHistory returns every daily snapshot of a user
func (h *Handler) GetUserHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	stats, err := h.Stats.History(c.Request.Context(), id)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load history", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
