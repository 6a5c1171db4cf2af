package handler

import (
	"net/http"

	"github.com/forgo/vidshare/api/internal/middleware"
)

// APIPrefix is the path prefix of every account endpoint
const APIPrefix = "/api/v1/users"

// Routes holds the handlers mounted by RegisterRoutes
type Routes struct {
	Auth    *AuthHandler
	Account *AccountHandler
	Health  *HealthHandler
	// Gate admits authenticated requests only
	Gate middleware.Middleware
}

// RegisterRoutes mounts the account API on mux
func RegisterRoutes(mux *http.ServeMux, rt Routes) {
	session := func(h http.HandlerFunc) http.Handler {
		return rt.Gate(h)
	}

	// Public endpoints
	mux.HandleFunc("GET "+APIPrefix+"/health", rt.Health.Health)
	mux.HandleFunc("POST "+APIPrefix+"/register", rt.Account.Register)
	mux.HandleFunc("POST "+APIPrefix+"/login", rt.Auth.Login)
	mux.HandleFunc("POST "+APIPrefix+"/refresh-token", rt.Auth.Refresh)

	// Session endpoints
	mux.Handle("POST "+APIPrefix+"/logout", session(rt.Auth.Logout))
	mux.Handle("POST "+APIPrefix+"/change-password", session(rt.Auth.ChangePassword))
	mux.Handle("GET "+APIPrefix+"/current-user", session(rt.Auth.CurrentUser))
	mux.Handle("PATCH "+APIPrefix+"/update-account", session(rt.Account.UpdateAccount))
	mux.Handle("PATCH "+APIPrefix+"/avatar", session(rt.Account.Avatar))
	mux.Handle("PATCH "+APIPrefix+"/cover-image", session(rt.Account.CoverImage))
}
