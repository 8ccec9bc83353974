package handlers

import (
	"errors"
	"net/http"
	"strings"

	"dsagrinders/internal/auth"
	"dsagrinders/internal/models"
	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateGroup creates a group owned by the caller
func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		handleError(c, http.StatusBadRequest, "Group name is required", err)
		return
	}

	group, err := h.Groups.CreateGroup(c.Request.Context(), req.Name, req.Description, auth.CurrentUser(c).ID)
	if err != nil {
		respond(c, err, "Failed to create group")
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group, "message": "Group created successfully"})
}

// ListGroups lists the groups the caller belongs to
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.Groups.ListGroups(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch groups", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// JoinGroup adds the caller to the group with the given code
func (h *Handler) JoinGroup(c *gin.Context) {
	var req models.JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		handleError(c, http.StatusBadRequest, "Group code is required", err)
		return
	}

	group, err := h.Groups.JoinGroup(c.Request.Context(), req.Code, auth.CurrentUser(c).ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			handleError(c, http.StatusNotFound, "Invalid group code", err)
		case errors.Is(err, services.ErrAlreadyMember):
			handleError(c, http.StatusBadRequest, "You are already a member of this group", err)
		default:
			respond(c, err, "Failed to join group")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully joined " + group.Name,
		"group":   group,
	})
}

// GetGroupLeaderboard ranks the members of a group the caller belongs to
func (h *Handler) GetGroupLeaderboard(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	mode := services.ParseLeaderboardMode(c.Query("type"))
	board, err := h.Leaderboard.ForGroup(c.Request.Context(), groupID, auth.CurrentUser(c).ID, mode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			handleError(c, http.StatusNotFound, "Group not found", err)
		case errors.Is(err, services.ErrForbidden):
			handleError(c, http.StatusForbidden, "You are not a member of this group", err)
		default:
			handleError(c, http.StatusInternalServerError, "Failed to build leaderboard", err)
		}
		return
	}

	c.JSON(http.StatusOK, board)
}
