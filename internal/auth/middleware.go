package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"dsagrinders/internal/models"
	"dsagrinders/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	contextUserKey  = "user"
	contextAdminKey = "admin"
)

// UserLookup loads local accounts for resolved sessions
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticator resolves the caller of a request from session cookies or bearer tokens
type Authenticator struct {
	users       UserLookup
	verifier    IdentityVerifier
	userTokens  *TokenIssuer
	adminTokens *TokenIssuer
}

func NewAuthenticator(users UserLookup, verifier IdentityVerifier, userTokens, adminTokens *TokenIssuer) *Authenticator {
	return &Authenticator{users: users, verifier: verifier, userTokens: userTokens, adminTokens: adminTokens}
}

var errNoCredentials = errors.New("no credentials")

// ResolveUser returns the local account of the caller. A user session cookie
// wins over a bearer token; a bearer token is first tried as a user session
// token and then handed to the identity provider.
func (a *Authenticator) ResolveUser(c *gin.Context) (*models.User, error) {
	ctx := c.Request.Context()

	if cookie, err := c.Cookie(UserSessionCookie); err == nil && cookie != "" {
		if claims, err := a.userTokens.Validate(cookie); err == nil && claims.UserID != 0 {
			return a.users.GetByID(ctx, claims.UserID)
		}
	}

	token, ok := utils.BearerToken(c)
	if !ok {
		return nil, errNoCredentials
	}
	if claims, err := a.userTokens.Validate(token); err == nil && claims.UserID != 0 {
		return a.users.GetByID(ctx, claims.UserID)
	}
	if a.verifier == nil {
		return nil, ErrInvalidToken
	}

	identity, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.users.GetByEmail(ctx, identity.Email)
}

// IsManualAdmin reports whether the request carries a valid fixed-credential admin token
func (a *Authenticator) IsManualAdmin(c *gin.Context) bool {
	candidates := []string{}
	if cookie, err := c.Cookie(AdminSessionCookie); err == nil && cookie != "" {
		candidates = append(candidates, cookie)
	}
	if token, ok := utils.BearerToken(c); ok {
		candidates = append(candidates, token)
	}
	for _, token := range candidates {
		if claims, err := a.adminTokens.Validate(token); err == nil && claims.IsManualAdmin() {
			return true
		}
	}
	return false
}

// RequireUser rejects requests without a resolvable account
func (a *Authenticator) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.ResolveUser(c)
		if err != nil {
			if !errors.Is(err, errNoCredentials) {
				logrus.Debugf("Authentication failed from %s: %v", utils.GetRealClientIP(c), err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireCompleteProfile must run after RequireUser
func RequireCompleteProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if user.IsProfileIncomplete() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Profile completion required", "isProfileIncomplete": true})
			return
		}
		c.Next()
	}
}

// RequireAdmin accepts a fixed-credential admin token or an admin-role account
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.IsManualAdmin(c) {
			c.Set(contextAdminKey, true)
			c.Next()
			return
		}

		user, err := a.ResolveUser(c)
		if err != nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access denied"})
			return
		}
		c.Set(contextUserKey, user)
		c.Set(contextAdminKey, true)
		c.Next()
	}
}

// RequireCronSecret guards the batch trigger. Production deployments without
// a secret are rejected with 500.
func RequireCronSecret(secret string, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			if production {
				logrus.Error("SECURITY: CRON_SECRET environment variable is not set in production")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
				return
			}
			c.Next()
			return
		}

		expected := "Bearer " + secret
		if subtle.ConstantTimeCompare([]byte(c.GetHeader("Authorization")), []byte(expected)) != 1 {
			logrus.Warnf("Unauthorized cron access attempt from %s", utils.GetRealClientIP(c))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - Include Authorization: Bearer <CRON_SECRET> header"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the account stored by RequireUser or RequireAdmin
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// SetCurrentUser stores an account on the request context
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(contextUserKey, user)
}
