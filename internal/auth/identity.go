package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dsagrinders/internal/services"

	"github.com/go-resty/resty/v2"
	"google.golang.org/api/idtoken"
)

// IdentityVerifier resolves an externally issued bearer token to an identity
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*services.Identity, error)
}

// SupabaseVerifier asks the Supabase auth API who owns an access token
type SupabaseVerifier struct {
	client *resty.Client
}

func NewSupabaseVerifier(projectURL, anonKey string) *SupabaseVerifier {
	return &SupabaseVerifier{
		client: resty.New().
			SetBaseURL(strings.TrimRight(projectURL, "/")).
			SetHeader("apikey", anonKey).
			SetTimeout(10 * time.Second),
	}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*services.Identity, error) {
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&supabaseUser{}).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("%w: verifying session: %v", services.ErrUpstream, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: identity provider returned %d", services.ErrUpstream, resp.StatusCode())
	}

	user := resp.Result().(*supabaseUser)
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return user.identity(), nil
}

// GoogleVerifier validates Google ID tokens issued for this client
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*services.Identity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFromPayload(payload), nil
}
