package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"dsagrinders/internal/auth"
	"dsagrinders/internal/models"
	"dsagrinders/internal/services"
	"dsagrinders/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminLoginRequest carries the fixed administrator credentials
type AdminLoginRequest struct {
	AdminID  string `json:"adminId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) startUserSession(c *gin.Context, user *models.User) {
	token, err := h.UserTokens.Issue(auth.SessionClaims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		logrus.Warnf("User session not issued for %d: %v", user.ID, err)
		return
	}
	auth.SetSessionCookie(c, auth.UserSessionCookie, token, h.UserTokens.TTL())
}

// SyncAuth exchanges an identity provider token for a local account
func (h *Handler) SyncAuth(c *gin.Context) {
	token, ok := utils.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header"})
		return
	}
	if h.Verifier == nil {
		handleError(c, http.StatusInternalServerError, "Identity provider is not configured", services.ErrConfiguration)
		return
	}

	identity, err := h.Verifier.Verify(c.Request.Context(), token)
	if err != nil {
		handleError(c, http.StatusUnauthorized, "Invalid session", err)
		return
	}
	if strings.TrimSpace(identity.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email not found in identity profile"})
		return
	}

	user, created, err := h.Users.SyncIdentity(c.Request.Context(), *identity)
	if err != nil {
		respond(c, err, "Failed to sync account")
		return
	}
	h.startUserSession(c, user)

	resp := gin.H{"user": user.ToProfile()}
	if created {
		resp["message"] = "User created. Profile completion required."
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleLogin redirects to the Google consent screen
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.OAuth == nil {
		handleError(c, http.StatusNotFound, "Google login is not configured", services.ErrConfiguration)
		return
	}
	url, err := h.OAuth.LoginURL(c)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate login URL", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback completes the Google login and starts a user session
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.OAuth == nil {
		handleError(c, http.StatusNotFound, "Google login is not configured", services.ErrConfiguration)
		return
	}

	identity, err := h.OAuth.Callback(c)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidState) {
			handleError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		handleError(c, http.StatusUnauthorized, "Google login failed", err)
		return
	}

	user, _, err := h.Users.SyncIdentity(c.Request.Context(), *identity)
	if err != nil {
		respond(c, err, "Failed to sync account")
		return
	}
	h.startUserSession(c, user)

	target := strings.TrimRight(h.Config.DashboardURL, "/") + "/home"
	if user.IsProfileIncomplete() {
		target += "?onboarding=1"
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// Logout clears every session cookie
func (h *Handler) Logout(c *gin.Context) {
	auth.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logout successful"})
}

// AdminLogin issues a 24h admin token for the fixed credentials
func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Admin ID and password are required", err)
		return
	}

	if h.Config.AdminPassword == "" {
		handleError(c, http.StatusInternalServerError, "Server configuration error", services.ErrConfiguration)
		return
	}

	idOK := subtle.ConstantTimeCompare([]byte(req.AdminID), []byte(h.Config.AdminID)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.Config.AdminPassword)) == 1
	if !idOK || !passOK {
		logrus.Warnf("Failed admin login from %s", utils.GetRealClientIP(c))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.AdminTokens.Issue(auth.SessionClaims{Role: models.RoleAdmin, Manual: true})
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Server configuration error", err)
		return
	}
	auth.SetSessionCookie(c, auth.AdminSessionCookie, token, h.AdminTokens.TTL())
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// AdminSetup promotes the caller when the setup secret matches
func (h *Handler) AdminSetup(c *gin.Context) {
	expected := h.Config.AdminSetupSecret
	if expected == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin setup is disabled"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(c.Query("secret")), []byte(expected)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid secret key"})
		return
	}

	user, err := h.Users.Promote(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respond(c, err, "Failed to promote user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User " + user.Email + " promoted to admin successfully!",
		"user":    gin.H{"id": user.ID, "name": user.Name, "email": user.Email, "role": user.Role},
	})
}
