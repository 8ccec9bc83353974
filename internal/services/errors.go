package services

import "errors"

// Error taxonomy shared by services and mapped to HTTP statuses by the handlers
var (
	ErrValidation              = errors.New("validation failed")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrAlreadyMember           = errors.New("already a member of this group")
	ErrCodeGenerationExhausted = errors.New("failed to generate unique group code")
	ErrSyncFailed              = errors.New("stats sync failed")
	ErrUpstream                = errors.New("upstream provider error")
	ErrConfiguration           = errors.New("server configuration error")
)
