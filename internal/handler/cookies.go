package handler

import (
	"net/http"
	"time"

	"github.com/forgo/vidshare/api/internal/middleware"
	"github.com/forgo/vidshare/api/internal/service"
)

// RefreshTokenCookie is the cookie carrying the refresh token
const RefreshTokenCookie = "refreshToken"

// CookieConfig controls the attributes of session cookies
type CookieConfig struct {
	// Secure marks cookies HTTPS-only. Turned off only for local development.
	Secure bool
	Domain string
}

func (c CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSession writes both session cookies for a freshly issued pair
func (c CookieConfig) SetSession(w http.ResponseWriter, pair *service.TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, pair.AccessToken, pair.ExpiresIn))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresIn))
}

// ClearSession expires both session cookies
func (c CookieConfig) ClearSession(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cookie := c.cookie(name, "", -1)
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}
