package auth

import (
	"dsagrinders/internal/services"

	"google.golang.org/api/idtoken"
)

// supabaseUser is the body returned by GET /auth/v1/user
type supabaseUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
}

func (u *supabaseUser) identity() *services.Identity {
	name := u.UserMetadata.FullName
	if name == "" {
		name = u.UserMetadata.Name
	}
	return &services.Identity{Subject: u.ID, Email: u.Email, Name: name}
}

// identityFromPayload extracts the identity from a verified Google ID token
func identityFromPayload(payload *idtoken.Payload) *services.Identity {
	identity := &services.Identity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}
	return identity
}
