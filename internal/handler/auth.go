package handler

import (
	"net/http"

	"github.com/forgo/vidshare/api/internal/middleware"
	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/internal/service"
)

// AuthHandler handles session endpoints
type AuthHandler struct {
	authService *service.AuthService
	cookies     CookieConfig
}

// AuthHandlerConfig holds dependencies for the auth handler
type AuthHandlerConfig struct {
	AuthService *service.AuthService
	Cookies     CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		authService: cfg.AuthService,
		cookies:     cfg.Cookies,
	}
}

// LoginRequest represents the login endpoint request body
type LoginRequest struct {
	Handle         string `json:"handle"`
	ContactAddress string `json:"contact_address"`
	Secret         string `json:"secret"`
}

// RefreshRequest represents the optional refresh endpoint request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the change-password request body
type ChangePasswordRequest struct {
	OldSecret string `json:"old_secret"`
	NewSecret string `json:"new_secret"`
}

// SessionResponse is returned by login
type SessionResponse struct {
	Account *model.Account     `json:"account"`
	Tokens  *service.TokenPair `json:"tokens"`
}

// Login handles POST /api/v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(w, r, &req, false); err != nil {
		WriteError(w, decodeProblem(err))
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginRequest{
		Handle:         req.Handle,
		ContactAddress: req.ContactAddress,
		Secret:         req.Secret,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	h.cookies.SetSession(w, result.TokenPair)
	WriteData(w, http.StatusOK, SessionResponse{
		Account: result.Account,
		Tokens:  result.TokenPair,
	}, map[string]string{
		"self":    "/api/v1/users/current-user",
		"refresh": "/api/v1/users/refresh-token",
	})
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token is
// read from its cookie, falling back to the JSON body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var req RefreshRequest
		if err := DecodeJSON(w, r, &req, true); err != nil {
			WriteError(w, decodeProblem(err))
			return
		}
		token = req.RefreshToken
	}

	pair, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	h.cookies.SetSession(w, pair)
	WriteData(w, http.StatusOK, pair, nil)
}

// Logout handles POST /api/v1/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		WriteError(w, model.NewUnauthorizedError("Unauthorized request"))
		return
	}

	if err := h.authService.Logout(r.Context(), account.ID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	h.cookies.ClearSession(w)
	WriteData(w, http.StatusOK, MessageResponse{Message: "logged out"}, nil)
}

// ChangePassword handles POST /api/v1/users/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		WriteError(w, model.NewUnauthorizedError("Unauthorized request"))
		return
	}

	var req ChangePasswordRequest
	if err := DecodeJSON(w, r, &req, false); err != nil {
		WriteError(w, decodeProblem(err))
		return
	}

	if err := h.authService.ChangePassword(r.Context(), account.ID, req.OldSecret, req.NewSecret); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, MessageResponse{Message: "password changed"}, nil)
}

// CurrentUser handles GET /api/v1/users/current-user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		WriteError(w, model.NewUnauthorizedError("Unauthorized request"))
		return
	}

	WriteData(w, http.StatusOK, account, map[string]string{
		"self":   "/api/v1/users/current-user",
		"update": "/api/v1/users/update-account",
	})
}
