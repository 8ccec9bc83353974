package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// UserSessionCookie stores the signed user session token
	UserSessionCookie = "dsa_session"
	// AdminSessionCookie stores the signed fixed-credential admin token
	AdminSessionCookie = "admin_session"
	// StateCookieName is the name of the cookie that temporarily stores the OAuth state
	StateCookieName = "dsa_oauth_state"
	// StateLength is the length of the random state string in bytes
	StateLength = 32
)

// GenerateRandomString creates a cryptographically secure random string
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

func secureCookies() bool {
	return gin.Mode() != gin.DebugMode && gin.Mode() != gin.TestMode
}

// SetSessionCookie stores a signed token in an http-only cookie
func SetSessionCookie(c *gin.Context, name, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(ttl.Seconds()), "/", "", secureCookies(), true)
}

// ClearSession removes both session cookies
func ClearSession(c *gin.Context) {
	c.SetCookie(UserSessionCookie, "", -1, "/", "", false, true)
	c.SetCookie(AdminSessionCookie, "", -1, "/", "", false, true)
}

// SetOAuthState generates and stores a random state for CSRF protection
func SetOAuthState(c *gin.Context) (string, error) {
	state, err := GenerateRandomString(StateLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	c.SetCookie(StateCookieName, state, int(10*time.Minute.Seconds()), "/", "", secureCookies(), true)
	return state, nil
}

// VerifyOAuthState verifies the state parameter from the OAuth callback
func VerifyOAuthState(c *gin.Context, receivedState string) bool {
	savedState, err := c.Cookie(StateCookieName)
	if err != nil {
		return false
	}

	// Clear the state cookie regardless of outcome
	c.SetCookie(StateCookieName, "", -1, "/", "", false, true)

	return receivedState != "" && savedState == receivedState
}
