package handler

import (
	"errors"
	"log/slog"

	"github.com/forgo/vidshare/api/internal/media"
	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Errors it does not recognise are logged and become a generic 500.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return model.NewValidationError(verr.Fields)
	}
	var tooLarge *media.TooLargeError
	if errors.As(err, &tooLarge) {
		return model.NewPayloadTooLargeError(tooLarge.Limit)
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError("Invalid user credentials").WithCode(model.ErrCodeLoginFailed)
	case errors.Is(err, service.ErrRefreshTokenMissing),
		errors.Is(err, service.ErrRefreshTokenInvalid),
		errors.Is(err, service.ErrAccessTokenInvalid):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeTokenInvalid)
	case errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrAccessTokenExpired):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeTokenExpired)
	case errors.Is(err, service.ErrRefreshTokenStale):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeTokenStale)

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrAccountNotFound):
		return model.NewNotFoundError("account")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrAccountExists),
		errors.Is(err, service.ErrContactAddressTaken):
		return model.NewConflictError(err.Error())

	// ===== Bad Request Errors → 400 =====
	case errors.Is(err, service.ErrIdentifierRequired),
		errors.Is(err, service.ErrSecretRequired),
		errors.Is(err, service.ErrSecretTooLong),
		errors.Is(err, service.ErrDisplayNameRequired),
		errors.Is(err, service.ErrContactAddressRequired),
		errors.Is(err, service.ErrImageRequired):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, media.ErrEmptyUpload),
		errors.Is(err, media.ErrUnsupportedType),
		errors.Is(err, errBadForm),
		errors.Is(err, errNotMultipart):
		return model.NewBadRequestError(err.Error())

	// ===== Upstream Errors → 500 =====
	case errors.Is(err, service.ErrMediaUpload):
		slog.Error("media upload failed", slog.String("error", err.Error()))
		return model.NewInternalError("Failed to upload media").WithCode(model.ErrCodeMedia)
	}

	slog.Error("unhandled service error", slog.String("error", err.Error()))
	return model.NewInternalError("")
}
