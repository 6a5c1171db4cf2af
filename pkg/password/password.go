package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor the platform has always used.
const DefaultCost = 10

// bcrypt silently truncates input past this length.
const maxSecretBytes = 72

var (
	ErrEmptySecret   = errors.New("secret is empty")
	ErrSecretTooLong = errors.New("secret exceeds 72 bytes")
)

// Config holds hasher settings
type Config struct {
	Cost int
}

// Hasher hashes and verifies account secrets
type Hasher struct {
	cost int
}

// NewHasher creates a hasher. Costs outside bcrypt's range fall back to
// DefaultCost.
func NewHasher(cfg Config) *Hasher {
	cost := cfg.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the work factor applied to new hashes
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of the plaintext secret
func (h *Hasher) Hash(plaintext string) (string, error) {
	if err := Validate(plaintext); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash.
// Malformed hashes never match.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Validate checks the plaintext against the limits Hash enforces
func Validate(plaintext string) error {
	if plaintext == "" {
		return ErrEmptySecret
	}
	if len(plaintext) > maxSecretBytes {
		return ErrSecretTooLong
	}
	return nil
}
