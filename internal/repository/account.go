package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/vidshare/api/internal/database"
	"github.com/forgo/vidshare/api/internal/model"
)

const accountTable = "account"

// publicAccountFields excludes secret_hash and refresh_token
const publicAccountFields = `id, handle, contact_address, display_name, profile_image, cover_image, created_on, updated_on`

// AccountRepository handles account data access
type AccountRepository struct {
	db database.Database
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db database.Database) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. The account must already carry its secret hash.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	if account.SecretHash == nil || *account.SecretHash == "" {
		return errors.New("account secret hash is required")
	}

	query := `
		CREATE account CONTENT {
			handle: $handle,
			contact_address: $contact_address,
			display_name: $display_name,
			secret_hash: $secret_hash,
			profile_image: $profile_image,
			cover_image: IF $cover_image != NONE AND $cover_image != NULL THEN $cover_image ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"handle":          model.NormalizeHandle(account.Handle),
		"contact_address": model.NormalizeContactAddress(account.ContactAddress),
		"display_name":    account.DisplayName,
		"secret_hash":     *account.SecretHash,
		"profile_image":   account.ProfileImage,
		"cover_image":     ptrToNone(account.CoverImage),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: handle or contact address already exists", database.ErrDuplicate)
		}
		return err
	}

	record, err := database.FirstRecord(result)
	if err != nil {
		return fmt.Errorf("no account returned from create: %w", err)
	}
	created, err := parseAccount(record)
	if err != nil {
		return err
	}

	account.ID = created.ID
	account.Handle = created.Handle
	account.ContactAddress = created.ContactAddress
	account.CreatedOn = created.CreatedOn
	account.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves the full account record, credentials included.
// Returns nil, nil when no account matches.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if !isAccountID(id) {
		return nil, nil
	}
	return r.queryAccount(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetPublicByID retrieves an account without its secret hash or refresh token.
// Returns nil, nil when no account matches.
func (r *AccountRepository) GetPublicByID(ctx context.Context, id string) (*model.Account, error) {
	if !isAccountID(id) {
		return nil, nil
	}
	query := `SELECT ` + publicAccountFields + ` FROM type::record($id)`
	return r.queryAccount(ctx, query, map[string]interface{}{"id": id})
}

// GetByHandleOrContact finds an account whose handle or contact address matches.
// Empty identifiers never match. Returns nil, nil when no account matches.
func (r *AccountRepository) GetByHandleOrContact(ctx context.Context, handle, contactAddress string) (*model.Account, error) {
	handle = model.NormalizeHandle(handle)
	contactAddress = model.NormalizeContactAddress(contactAddress)
	if handle == "" && contactAddress == "" {
		return nil, nil
	}

	query := `
		SELECT * FROM account
		WHERE ($handle != "" AND handle = $handle)
			OR ($contact_address != "" AND contact_address = $contact_address)
		LIMIT 1
	`
	vars := map[string]interface{}{
		"handle":          handle,
		"contact_address": contactAddress,
	}
	return r.queryAccount(ctx, query, vars)
}

// ContactAddressTaken reports whether another account already uses the address
func (r *AccountRepository) ContactAddressTaken(ctx context.Context, contactAddress, exceptID string) (bool, error) {
	query := `
		SELECT id FROM account
		WHERE contact_address = $contact_address AND id != type::record($except)
		LIMIT 1
	`
	vars := map[string]interface{}{
		"contact_address": model.NormalizeContactAddress(contactAddress),
		"except":          exceptID,
	}

	_, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetRefreshToken stores the refresh token issued at login.
// Only refresh_token and updated_on are written.
func (r *AccountRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	query := `UPDATE type::record($id) SET refresh_token = $token, updated_on = time::now() RETURN id`
	vars := map[string]interface{}{
		"id":    id,
		"token": token,
	}
	return r.expectUpdated(ctx, query, vars)
}

// SwapRefreshToken replaces the stored refresh token only if it still equals
// expected. It reports false when the stored value has already moved on.
func (r *AccountRepository) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	query := `
		UPDATE type::record($id)
		SET refresh_token = $next, updated_on = time::now()
		WHERE refresh_token = $expected
		RETURN id
	`
	vars := map[string]interface{}{
		"id":       id,
		"expected": expected,
		"next":     next,
	}

	_, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ClearRefreshToken removes the stored refresh token, ending the session lineage
func (r *AccountRepository) ClearRefreshToken(ctx context.Context, id string) error {
	query := `UPDATE type::record($id) SET refresh_token = NONE, updated_on = time::now() RETURN id`
	return r.expectUpdated(ctx, query, map[string]interface{}{"id": id})
}

// UpdateSecretHash replaces the stored secret hash. Nothing else is written.
func (r *AccountRepository) UpdateSecretHash(ctx context.Context, id, hash string) error {
	if hash == "" {
		return errors.New("secret hash is required")
	}
	query := `UPDATE type::record($id) SET secret_hash = $hash, updated_on = time::now() RETURN id`
	vars := map[string]interface{}{
		"id":   id,
		"hash": hash,
	}
	return r.expectUpdated(ctx, query, vars)
}

// UpdateDetails writes display_name and contact_address and returns the
// public projection of the updated account
func (r *AccountRepository) UpdateDetails(ctx context.Context, id, displayName, contactAddress string) (*model.Account, error) {
	query := `
		UPDATE type::record($id)
		SET display_name = $display_name, contact_address = $contact_address, updated_on = time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":              id,
		"display_name":    displayName,
		"contact_address": model.NormalizeContactAddress(contactAddress),
	}

	account, err := r.updateAccount(ctx, query, vars)
	if err != nil && isUniqueConstraintError(err) {
		return nil, fmt.Errorf("%w: contact address already exists", database.ErrDuplicate)
	}
	return account, err
}

// UpdateProfileImage writes profile_image and returns the updated public account
func (r *AccountRepository) UpdateProfileImage(ctx context.Context, id, url string) (*model.Account, error) {
	query := `UPDATE type::record($id) SET profile_image = $url, updated_on = time::now() RETURN AFTER`
	return r.updateAccount(ctx, query, map[string]interface{}{"id": id, "url": url})
}

// UpdateCoverImage writes cover_image and returns the updated public account
func (r *AccountRepository) UpdateCoverImage(ctx context.Context, id, url string) (*model.Account, error) {
	query := `UPDATE type::record($id) SET cover_image = $url, updated_on = time::now() RETURN AFTER`
	return r.updateAccount(ctx, query, map[string]interface{}{"id": id, "url": url})
}

func (r *AccountRepository) queryAccount(ctx context.Context, query string, vars map[string]interface{}) (*model.Account, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	account, err := parseAccount(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) updateAccount(ctx context.Context, query string, vars map[string]interface{}) (*model.Account, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	account, err := parseAccount(result)
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

func (r *AccountRepository) expectUpdated(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.db.QueryOne(ctx, query, vars)
	return err
}

// parseAccount maps a SurrealDB record onto an Account
func parseAccount(result interface{}) (*model.Account, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected account record format %T", result)
	}

	account := &model.Account{
		ID:             extractRecordID(data["id"]),
		Handle:         getString(data, "handle"),
		ContactAddress: getString(data, "contact_address"),
		DisplayName:    getString(data, "display_name"),
		ProfileImage:   getString(data, "profile_image"),
		CoverImage:     getStringPtr(data, "cover_image"),
		SecretHash:     getStringPtr(data, "secret_hash"),
		RefreshToken:   getStringPtr(data, "refresh_token"),
		CreatedOn:      parseTime(data["created_on"]),
		UpdatedOn:      parseTime(data["updated_on"]),
	}
	if account.ID == "" {
		return nil, errors.New("account record has no id")
	}
	return account, nil
}

func isAccountID(id string) bool {
	return strings.HasPrefix(id, accountTable+":") && len(id) > len(accountTable)+1
}

func ptrToNone(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
