package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/forgo/vidshare/api/internal/database"
	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/pkg/password"
	"golang.org/x/crypto/bcrypt"
)

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ============================================================================
// In-Memory Account Store
// ============================================================================

// Accounts is an in-memory account store with the same semantics as the
// SurrealDB repository: unique handle and contact address, single-field
// writes, and an atomic compare-and-swap on the refresh token.
type Accounts struct {
	mu       sync.Mutex
	byID     map[string]*model.Account
	Failures map[string]error // method name -> forced error
	Writes   []string         // "<method> <id>" for every successful write
}

// NewAccounts creates an empty store
func NewAccounts() *Accounts {
	return &Accounts{
		byID:     make(map[string]*model.Account),
		Failures: make(map[string]error),
	}
}

func (a *Accounts) fail(method string) error {
	return a.Failures[method]
}

func (a *Accounts) record(method, id string) {
	a.Writes = append(a.Writes, method+" "+id)
}

func clone(acc *model.Account) *model.Account {
	if acc == nil {
		return nil
	}
	c := *acc
	if acc.SecretHash != nil {
		h := *acc.SecretHash
		c.SecretHash = &h
	}
	if acc.RefreshToken != nil {
		t := *acc.RefreshToken
		c.RefreshToken = &t
	}
	if acc.CoverImage != nil {
		v := *acc.CoverImage
		c.CoverImage = &v
	}
	return &c
}

// Create inserts an account, enforcing unique identifiers
func (a *Accounts) Create(ctx context.Context, account *model.Account) error {
	if err := a.fail("Create"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	handle := model.NormalizeHandle(account.Handle)
	contact := model.NormalizeContactAddress(account.ContactAddress)
	for _, existing := range a.byID {
		if existing.Handle == handle || existing.ContactAddress == contact {
			return fmt.Errorf("%w: handle or contact address already exists", database.ErrDuplicate)
		}
	}

	now := time.Now().UTC()
	account.ID = "account:" + randomID()
	account.Handle = handle
	account.ContactAddress = contact
	account.CreatedOn = now
	account.UpdatedOn = now
	a.byID[account.ID] = clone(account)
	a.record("Create", account.ID)
	return nil
}

// GetByID returns the full record or nil
func (a *Accounts) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if err := a.fail("GetByID"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return clone(a.byID[id]), nil
}

// GetPublicByID returns the record without credentials or nil
func (a *Accounts) GetPublicByID(ctx context.Context, id string) (*model.Account, error) {
	if err := a.fail("GetPublicByID"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byID[id].Public(), nil
}

// GetByHandleOrContact finds an account by either identifier
func (a *Accounts) GetByHandleOrContact(ctx context.Context, handle, contactAddress string) (*model.Account, error) {
	if err := a.fail("GetByHandleOrContact"); err != nil {
		return nil, err
	}
	handle = model.NormalizeHandle(handle)
	contactAddress = model.NormalizeContactAddress(contactAddress)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.byID {
		if (handle != "" && acc.Handle == handle) || (contactAddress != "" && acc.ContactAddress == contactAddress) {
			return clone(acc), nil
		}
	}
	return nil, nil
}

// ContactAddressTaken reports whether another account uses the address
func (a *Accounts) ContactAddressTaken(ctx context.Context, contactAddress, exceptID string) (bool, error) {
	contactAddress = model.NormalizeContactAddress(contactAddress)
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, acc := range a.byID {
		if id != exceptID && acc.ContactAddress == contactAddress {
			return true, nil
		}
	}
	return false, nil
}

// SetRefreshToken writes only the refresh token
func (a *Accounts) SetRefreshToken(ctx context.Context, id, token string) error {
	if err := a.fail("SetRefreshToken"); err != nil {
		return err
	}
	return a.update("SetRefreshToken", id, func(acc *model.Account) { acc.RefreshToken = &token })
}

// SwapRefreshToken replaces the token only if it equals expected
func (a *Accounts) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	if err := a.fail("SwapRefreshToken"); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.byID[id]
	if !ok || acc.RefreshToken == nil || *acc.RefreshToken != expected {
		return false, nil
	}
	acc.RefreshToken = &next
	acc.UpdatedOn = time.Now().UTC()
	a.record("SwapRefreshToken", id)
	return true, nil
}

// ClearRefreshToken removes the refresh token
func (a *Accounts) ClearRefreshToken(ctx context.Context, id string) error {
	if err := a.fail("ClearRefreshToken"); err != nil {
		return err
	}
	return a.update("ClearRefreshToken", id, func(acc *model.Account) { acc.RefreshToken = nil })
}

// UpdateSecretHash writes only the secret hash
func (a *Accounts) UpdateSecretHash(ctx context.Context, id, hash string) error {
	if err := a.fail("UpdateSecretHash"); err != nil {
		return err
	}
	return a.update("UpdateSecretHash", id, func(acc *model.Account) { acc.SecretHash = &hash })
}

// UpdateDetails writes display name and contact address
func (a *Accounts) UpdateDetails(ctx context.Context, id, displayName, contactAddress string) (*model.Account, error) {
	if err := a.fail("UpdateDetails"); err != nil {
		return nil, err
	}
	contactAddress = model.NormalizeContactAddress(contactAddress)
	if err := a.update("UpdateDetails", id, func(acc *model.Account) {
		acc.DisplayName = displayName
		acc.ContactAddress = contactAddress
	}); err != nil {
		return nil, err
	}
	return a.GetPublicByID(ctx, id)
}

// UpdateProfileImage writes only the profile image
func (a *Accounts) UpdateProfileImage(ctx context.Context, id, url string) (*model.Account, error) {
	if err := a.fail("UpdateProfileImage"); err != nil {
		return nil, err
	}
	if err := a.update("UpdateProfileImage", id, func(acc *model.Account) { acc.ProfileImage = url }); err != nil {
		return nil, err
	}
	return a.GetPublicByID(ctx, id)
}

// UpdateCoverImage writes only the cover image
func (a *Accounts) UpdateCoverImage(ctx context.Context, id, url string) (*model.Account, error) {
	if err := a.fail("UpdateCoverImage"); err != nil {
		return nil, err
	}
	if err := a.update("UpdateCoverImage", id, func(acc *model.Account) { acc.CoverImage = &url }); err != nil {
		return nil, err
	}
	return a.GetPublicByID(ctx, id)
}

func (a *Accounts) update(method, id string, apply func(*model.Account)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byID[id]
	if !ok {
		return database.ErrNotFound
	}
	apply(acc)
	acc.UpdatedOn = time.Now().UTC()
	a.record(method, id)
	return nil
}

// Count returns the number of stored accounts
func (a *Accounts) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byID)
}

// Stored returns a copy of the stored record, credentials included
func (a *Accounts) Stored(id string) *model.Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	return clone(a.byID[id])
}

// ============================================================================
// Account Fixtures
// ============================================================================

// AccountOpts customizes account creation
type AccountOpts struct {
	Handle         string
	ContactAddress string
	DisplayName    string
	Secret         string
	ProfileImage   string
}

// WithSecret sets the plaintext secret of a created account
func WithSecret(secret string) func(*AccountOpts) {
	return func(o *AccountOpts) { o.Secret = secret }
}

// WithHandle sets the handle of a created account
func WithHandle(handle string) func(*AccountOpts) {
	return func(o *AccountOpts) { o.Handle = handle }
}

// TestHasher returns a hasher at bcrypt's minimum cost
func TestHasher() *password.Hasher {
	return password.NewHasher(password.Config{Cost: bcrypt.MinCost})
}

// CreateAccount stores an account with a hashed secret and returns the stored
// record. The plaintext secret defaults to "p4ssW0rd!".
func CreateAccount(t *testing.T, store *Accounts, opts ...func(*AccountOpts)) *model.Account {
	t.Helper()

	id := randomID()
	o := &AccountOpts{
		Handle:         "user_" + id,
		ContactAddress: fmt.Sprintf("user_%s@test.local", id),
		DisplayName:    "Test User",
		Secret:         "p4ssW0rd!",
		ProfileImage:   "https://media.test/avatars/" + id + ".png",
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := TestHasher().Hash(o.Secret)
	if err != nil {
		t.Fatalf("fixtures: failed to hash secret: %v", err)
	}

	account := &model.Account{
		Handle:         o.Handle,
		ContactAddress: o.ContactAddress,
		DisplayName:    o.DisplayName,
		ProfileImage:   o.ProfileImage,
		SecretHash:     &hash,
	}
	if err := store.Create(context.Background(), account); err != nil {
		t.Fatalf("fixtures: failed to create account: %v", err)
	}
	return store.Stored(account.ID)
}
