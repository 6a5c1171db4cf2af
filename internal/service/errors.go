package service

import (
	"errors"
	"fmt"

	"github.com/forgo/vidshare/api/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrIdentifierRequired = errors.New("handle or contact address is required")
	ErrSecretRequired     = errors.New("secret is required")
	ErrSecretTooLong      = errors.New("secret must be at most 72 bytes")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
)

// ===== Token Errors =====
var (
	ErrAccessTokenInvalid  = errors.New("invalid access token")
	ErrAccessTokenExpired  = errors.New("access token expired")
	ErrRefreshTokenMissing = errors.New("refresh token is required")
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenStale   = errors.New("refresh token is expired or used")
)

// ===== Account Errors =====
var (
	ErrAccountExists          = errors.New("handle or contact address already registered")
	ErrContactAddressTaken    = errors.New("contact address already in use")
	ErrDisplayNameRequired    = errors.New("display name is required")
	ErrContactAddressRequired = errors.New("contact address is required")
	ErrImageRequired          = errors.New("image file is required")
)

// ===== Media Errors =====
var (
	ErrMediaUpload = errors.New("failed to upload media")
)

// ValidationError carries field-level validation failures
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
}
