package auth

import (
	"errors"
	"fmt"

	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrInvalidState is returned when the OAuth callback state does not match the cookie
var ErrInvalidState = errors.New("invalid oauth state, possible CSRF attack")

// GoogleOAuth runs the authorization-code login flow against Google
type GoogleOAuth struct {
	config   *oauth2.Config
	verifier *GoogleVerifier
}

// NewGoogleOAuth returns nil when the client is not configured
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile", "openid"},
			Endpoint:     google.Endpoint,
		},
		verifier: NewGoogleVerifier(clientID),
	}
}

// LoginURL returns the Google consent URL with a fresh state cookie
func (g *GoogleOAuth) LoginURL(c *gin.Context) (string, error) {
	state, err := SetOAuthState(c)
	if err != nil {
		return "", err
	}
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

// Callback exchanges the authorization code and verifies the returned ID token
func (g *GoogleOAuth) Callback(c *gin.Context) (*services.Identity, error) {
	if !VerifyOAuthState(c, c.Query("state")) {
		return nil, ErrInvalidState
	}

	token, err := g.config.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("failed to get id_token")
	}

	return g.verifier.Verify(c.Request.Context(), rawIDToken)
}
