package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"dsagrinders/internal/auth"
	"dsagrinders/internal/config"
	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Notifier runs scheduled and ad-hoc reminder sends
type Notifier interface {
	Run(ctx context.Context, opts services.RunOptions) (*services.RunReport, error)
	SendRoasts(ctx context.Context) (*services.BroadcastReport, error)
}

// Deps are the collaborators of the HTTP handlers
type Deps struct {
	Config      *config.Config
	Users       *services.UserService
	Stats       *services.Synchronizer
	Leaderboard *services.LeaderboardService
	Groups      *services.GroupService
	Settings    *services.SettingsStore
	Templates   *services.TemplateService
	Notifier    Notifier
	Auth        *auth.Authenticator
	Verifier    auth.IdentityVerifier
	UserTokens  *auth.TokenIssuer
	AdminTokens *auth.TokenIssuer
	OAuth       *auth.GoogleOAuth
}

// Handler serves the JSON API
type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

const invalidPhoneMessage = "Invalid phone number format. Use international format (e.g., +1234567890)"

// RegisterValidators adds the custom binding rules used by request models
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("intlphone", func(fl validator.FieldLevel) bool {
			return services.ValidPhoneNumber(fl.Field().String())
		}); err != nil {
			logrus.Errorf("Registering intlphone validator: %v", err)
		}
	}
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		logrus.Errorf("%s %s: %s: %v", c.Request.Method, c.FullPath(), message, err)
	} else {
		logrus.Debugf("%s %s: %s: %v", c.Request.Method, c.FullPath(), message, err)
	}
	c.JSON(status, gin.H{"error": message})
}

// statusFor maps the service error taxonomy to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrAlreadyMember):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrSyncFailed), errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respond writes err with its mapped status. Client errors expose the error
// text; server errors use fallback.
func respond(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	message := fallback
	if status < http.StatusInternalServerError && status != http.StatusBadGateway {
		message = publicMessage(err)
	}
	handleError(c, status, message, err)
}

// publicMessage turns "name is required: validation failed" into "Name is required"
func publicMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{services.ErrValidation, services.ErrNotFound, services.ErrConflict, services.ErrForbidden} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	if msg == "" {
		return msg
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isPhoneValidationError(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == "intlphone" {
			return true
		}
	}
	return false
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
