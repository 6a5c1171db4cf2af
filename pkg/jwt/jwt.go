package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidKey   = errors.New("invalid key")
)

// Class separates the two token lineages. Each class is signed with its
// own secret and carries its class name in the cls claim.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
)

// AccessIdentity is the account snapshot embedded in an access token
type AccessIdentity struct {
	AccountID      string
	Handle         string
	ContactAddress string
	DisplayName    string
}

// AccessClaims are the claims carried by an access token
type AccessClaims struct {
	jwtlib.RegisteredClaims
	Class          Class  `json:"cls"`
	AccountID      string `json:"account_id"`
	Handle         string `json:"handle,omitempty"`
	ContactAddress string `json:"contact_address,omitempty"`
	DisplayName    string `json:"display_name,omitempty"`
}

// RefreshClaims are the claims carried by a refresh token.
// They identify the account and nothing else.
type RefreshClaims struct {
	jwtlib.RegisteredClaims
	Class     Class  `json:"cls"`
	AccountID string `json:"account_id"`
}

// Config holds token issuer configuration
type Config struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
	Issuer        string
}

// Service issues and verifies access and refresh tokens
type Service struct {
	accessSecret  []byte
	accessExpiry  time.Duration
	refreshSecret []byte
	refreshExpiry time.Duration
	issuer        string
	now           func() time.Time
}

// NewService creates a token service. Both secrets are required and must differ.
func NewService(cfg Config) (*Service, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: access and refresh secrets are required", ErrInvalidKey)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrInvalidKey)
	}
	if cfg.AccessExpiry <= 0 || cfg.RefreshExpiry <= 0 {
		return nil, errors.New("token expiry must be positive")
	}

	return &Service{
		accessSecret:  []byte(cfg.AccessSecret),
		accessExpiry:  cfg.AccessExpiry,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshExpiry: cfg.RefreshExpiry,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// AccessExpiry returns the lifetime of access tokens
func (s *Service) AccessExpiry() time.Duration {
	return s.accessExpiry
}

// RefreshExpiry returns the lifetime of refresh tokens
func (s *Service) RefreshExpiry() time.Duration {
	return s.refreshExpiry
}

// IssueAccessToken signs a short-lived token carrying the account identity
func (s *Service) IssueAccessToken(identity AccessIdentity) (string, error) {
	if identity.AccountID == "" {
		return "", fmt.Errorf("%w: account id is required", ErrTokenInvalid)
	}

	claims := AccessClaims{
		RegisteredClaims: s.registered(identity.AccountID, s.accessExpiry),
		Class:            ClassAccess,
		AccountID:        identity.AccountID,
		Handle:           identity.Handle,
		ContactAddress:   identity.ContactAddress,
		DisplayName:      identity.DisplayName,
	}
	return s.sign(claims, s.accessSecret)
}

// IssueRefreshToken signs a long-lived token carrying only the account id.
// Every call yields a distinct string, even within the same second.
func (s *Service) IssueRefreshToken(accountID string) (string, error) {
	if accountID == "" {
		return "", fmt.Errorf("%w: account id is required", ErrTokenInvalid)
	}

	registered := s.registered(accountID, s.refreshExpiry)
	registered.ID = uuid.NewString()

	claims := RefreshClaims{
		RegisteredClaims: registered,
		Class:            ClassRefresh,
		AccountID:        accountID,
	}
	return s.sign(claims, s.refreshSecret)
}

// VerifyAccessToken validates an access token and returns its claims
func (s *Service) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Class != ClassAccess || claims.AccountID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefreshToken validates a refresh token and returns its claims
func (s *Service) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Class != ClassRefresh || claims.AccountID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *Service) registered(subject string, ttl time.Duration) jwtlib.RegisteredClaims {
	now := s.now()
	return jwtlib.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Service) sign(claims jwtlib.Claims, secret []byte) (string, error) {
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(token string, claims jwtlib.Claims, secret []byte) error {
	if token == "" {
		return ErrTokenInvalid
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	_, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
