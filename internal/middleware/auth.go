package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/internal/service"
)

// AccessTokenCookie is the cookie carrying the access token
const AccessTokenCookie = "accessToken"

// unauthorizedDetail is sent for every rejected request so callers cannot
// tell missing, expired, forged and orphaned tokens apart.
const unauthorizedDetail = "Unauthorized request"

// Authenticator resolves an access token to the public view of its account
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.Account, error)
}

// AccountKey is the context key for the authenticated account
const AccountKey contextKey = "account"

// Auth returns a middleware that admits only requests carrying a valid
// access token, read from the accessToken cookie or a Bearer header.
func Auth(authenticator Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractAccessToken(r)
			if token == "" {
				reject(w, r, "missing", nil)
				return
			}

			account, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				reject(w, r, rejectReason(err), err)
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			ctx = context.WithValue(ctx, AccountIDKey, account.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractAccessToken returns the access token from the cookie, falling back
// to the Authorization header. Empty when neither carries one.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, service.ErrAccessTokenExpired):
		return "expired"
	case errors.Is(err, service.ErrAccessTokenInvalid):
		return "invalid"
	case errors.Is(err, service.ErrAccountNotFound):
		return "unknown_account"
	default:
		return "lookup_failed"
	}
}

func reject(w http.ResponseWriter, r *http.Request, reason string, err error) {
	attrs := []any{
		slog.String("reason", reason),
		slog.String("path", r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	}
	if reason == "lookup_failed" {
		slog.Error("auth lookup failed", append(attrs, slog.Any("error", err))...)
		model.NewInternalError("").WriteJSON(w)
		return
	}
	slog.Info("auth rejected", attrs...)
	model.NewUnauthorizedError(unauthorizedDetail).WriteJSON(w)
}

// GetAccount returns the authenticated account, or nil outside Auth
func GetAccount(ctx context.Context) *model.Account {
	if account, ok := ctx.Value(AccountKey).(*model.Account); ok {
		return account
	}
	return nil
}

// GetAccountID returns the authenticated account id, or ""
func GetAccountID(ctx context.Context) string {
	if id, ok := ctx.Value(AccountIDKey).(string); ok {
		return id
	}
	return ""
}
