package service

import (
	"errors"

	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/pkg/jwt"
)

// TokenIssuer is the token capability the services need
type TokenIssuer interface {
	IssueAccessToken(identity jwt.AccessIdentity) (string, error)
	IssueRefreshToken(accountID string) (string, error)
	VerifyAccessToken(token string) (*jwt.AccessClaims, error)
	VerifyRefreshToken(token string) (*jwt.RefreshClaims, error)
}

// TokenService issues token pairs and verifies tokens of either class
type TokenService struct {
	issuer        TokenIssuer
	accessExpiry  int
	refreshExpiry int
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	Issuer               TokenIssuer
	AccessExpirySeconds  int
	RefreshExpirySeconds int
}

// NewTokenService creates a new token service
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	return &TokenService{
		issuer:        cfg.Issuer,
		accessExpiry:  cfg.AccessExpirySeconds,
		refreshExpiry: cfg.RefreshExpirySeconds,
	}
}

// TokenPair represents an access token and refresh token pair
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`         // seconds
	RefreshExpiresIn int    `json:"refresh_expires_in"` // seconds
}

// IssuePair mints a fresh access and refresh token for an account.
// Nothing is persisted.
func (s *TokenService) IssuePair(account *model.Account) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(jwt.AccessIdentity{
		AccountID:      account.ID,
		Handle:         account.Handle,
		ContactAddress: account.ContactAddress,
		DisplayName:    account.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.issuer.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        s.accessExpiry,
		RefreshExpiresIn: s.refreshExpiry,
	}, nil
}

// VerifyAccess returns the account id carried by a valid access token
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.issuer.VerifyAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrAccessTokenExpired
		}
		return "", ErrAccessTokenInvalid
	}
	return claims.AccountID, nil
}

// VerifyRefresh returns the account id carried by a valid refresh token
func (s *TokenService) VerifyRefresh(token string) (string, error) {
	claims, err := s.issuer.VerifyRefreshToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrRefreshTokenExpired
		}
		return "", ErrRefreshTokenInvalid
	}
	return claims.AccountID, nil
}
