package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/vidshare/api/internal/media"
	"github.com/forgo/vidshare/api/internal/middleware"
	"github.com/forgo/vidshare/api/internal/service"
	"github.com/forgo/vidshare/api/internal/testing/fixtures"
	"github.com/forgo/vidshare/api/internal/testing/helpers"
)

// ============================================================================
// Test Server
// ============================================================================

type testServer struct {
	mux      *http.ServeMux
	accounts *fixtures.Accounts
	media    *media.MemoryStore
	stageDir string
	pingErr  error
}

func (s *testServer) Ping(context.Context) error {
	return s.pingErr
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwtSvc := helpers.NewTestJWTService(t)
	tokens := service.NewTokenService(service.TokenServiceConfig{
		Issuer:               jwtSvc,
		AccessExpirySeconds:  900,
		RefreshExpirySeconds: 864000,
	})
	srv := &testServer{
		mux:      http.NewServeMux(),
		accounts: fixtures.NewAccounts(),
		media:    media.NewMemoryStore(),
		stageDir: t.TempDir(),
	}

	authSvc := service.NewAuthService(service.AuthServiceConfig{
		AccountRepo:  srv.accounts,
		Hasher:       fixtures.TestHasher(),
		TokenService: tokens,
	})
	accountSvc := service.NewAccountService(service.AccountServiceConfig{
		AccountRepo: srv.accounts,
		Hasher:      fixtures.TestHasher(),
		Store:       srv.media,
	})

	RegisterRoutes(srv.mux, Routes{
		Auth: NewAuthHandler(AuthHandlerConfig{AuthService: authSvc}),
		Account: NewAccountHandler(AccountHandlerConfig{
			AccountService: accountSvc,
			Stager:         media.NewStager(srv.stageDir, 1<<16),
			MaxUploadBody:  1 << 18,
		}),
		Health: NewHealthHandler(srv),
		Gate:   middleware.Auth(authSvc),
	})
	return srv
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}
