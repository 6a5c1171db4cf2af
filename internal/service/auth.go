package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/forgo/vidshare/api/internal/database"
	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/pkg/password"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for account storage
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetPublicByID(ctx context.Context, id string) (*model.Account, error)
	GetByHandleOrContact(ctx context.Context, handle, contactAddress string) (*model.Account, error)
	ContactAddressTaken(ctx context.Context, contactAddress, exceptID string) (bool, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error
	UpdateSecretHash(ctx context.Context, id, hash string) error
	UpdateDetails(ctx context.Context, id, displayName, contactAddress string) (*model.Account, error)
	UpdateProfileImage(ctx context.Context, id, url string) (*model.Account, error)
	UpdateCoverImage(ctx context.Context, id, url string) (*model.Account, error)
}

// SecretHasher hashes and verifies account secrets
type SecretHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// AuthService handles login, session rotation and credential changes
type AuthService struct {
	accountRepo  AccountRepository
	hasher       SecretHasher
	tokenService *TokenService

	decoyOnce sync.Once
	decoyHash string
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	AccountRepo  AccountRepository
	Hasher       SecretHasher
	TokenService *TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		accountRepo:  cfg.AccountRepo,
		hasher:       cfg.Hasher,
		tokenService: cfg.TokenService,
	}
}

// LoginRequest represents a login request. Either identifier may be used.
type LoginRequest struct {
	Handle         string
	ContactAddress string
	Secret         string
}

// LoginResult represents a successful login
type LoginResult struct {
	Account   *model.Account
	TokenPair *TokenPair
}

// Login verifies credentials and starts a new session lineage.
// Unknown identifiers and wrong secrets fail identically.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	handle := model.NormalizeHandle(req.Handle)
	contact := model.NormalizeContactAddress(req.ContactAddress)
	if handle == "" && contact == "" {
		return nil, ErrIdentifierRequired
	}
	if req.Secret == "" {
		return nil, ErrSecretRequired
	}

	account, err := s.accountRepo.GetByHandleOrContact(ctx, handle, contact)
	if err != nil {
		return nil, err
	}
	if account == nil || account.SecretHash == nil {
		// Same bcrypt work as a wrong secret, so timing does not reveal
		// whether the identifier exists.
		s.hasher.Verify(req.Secret, s.decoy())
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Secret, *account.SecretHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokenService.IssuePair(account)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &LoginResult{
		Account:   account.Public(),
		TokenPair: pair,
	}, nil
}

// decoy returns a hash at the configured cost that matches no submitted secret
func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			slog.Warn("failed to prepare login decoy hash", "error", err)
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// Refresh exchanges the current refresh token for a new pair. The stored
// token is replaced with a compare-and-swap, so a token can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenMissing
	}

	accountID, err := s.tokenService.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrRefreshTokenInvalid
	}

	if !account.HasSession() || subtle.ConstantTimeCompare([]byte(refreshToken), []byte(*account.RefreshToken)) != 1 {
		return nil, ErrRefreshTokenStale
	}

	pair, err := s.tokenService.IssuePair(account)
	if err != nil {
		return nil, err
	}

	swapped, err := s.accountRepo.SwapRefreshToken(ctx, account.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !swapped {
		return nil, ErrRefreshTokenStale
	}

	return pair, nil
}

// Authenticate resolves an access token to the public view of its account
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.Account, error) {
	accountID, err := s.tokenService.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetPublicByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account.Public(), nil
}

// Logout ends the account's session lineage. An account that disappeared
// after the gate resolved it has no session left to end.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	err := s.accountRepo.ClearRefreshToken(ctx, accountID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	return err
}

// ChangePassword replaces the secret after re-verifying the current one.
// Only the stored hash changes; the session lineage is left as is.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, oldSecret, newSecret string) error {
	if oldSecret == "" || newSecret == "" {
		return ErrSecretRequired
	}
	if err := password.Validate(newSecret); err != nil {
		if errors.Is(err, password.ErrSecretTooLong) {
			return ErrSecretTooLong
		}
		return ErrSecretRequired
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.SecretHash == nil || !s.hasher.Verify(oldSecret, *account.SecretHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}

	return s.accountRepo.UpdateSecretHash(ctx, account.ID, hash)
}
