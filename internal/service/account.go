package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forgo/vidshare/api/internal/database"
	"github.com/forgo/vidshare/api/internal/media"
	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/pkg/password"
)

// AccountService handles registration and profile changes
type AccountService struct {
	accountRepo AccountRepository
	hasher      SecretHasher
	store       media.Store
}

// AccountServiceConfig holds configuration for the account service
type AccountServiceConfig struct {
	AccountRepo AccountRepository
	Hasher      SecretHasher
	Store       media.Store
}

// NewAccountService creates a new account service
func NewAccountService(cfg AccountServiceConfig) *AccountService {
	return &AccountService{
		accountRepo: cfg.AccountRepo,
		hasher:      cfg.Hasher,
		store:       cfg.Store,
	}
}

// RegisterRequest represents a registration request. Images are given either
// as already-hosted URLs or as staged uploads; uploads win when both are set.
type RegisterRequest struct {
	Handle         string
	ContactAddress string
	DisplayName    string
	Secret         string
	ProfileImage   string
	CoverImage     string
	ProfileUpload  *media.StagedFile
	CoverUpload    *media.StagedFile
}

// Register creates an account. Staged uploads are always removed from local
// disk; remote objects pushed for a registration that then fails are deleted.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*model.Account, error) {
	defer req.ProfileUpload.Remove()
	defer req.CoverUpload.Remove()

	reg := model.AccountRegistration{
		Handle:         req.Handle,
		ContactAddress: req.ContactAddress,
		DisplayName:    req.DisplayName,
		Secret:         req.Secret,
		ProfileImage:   req.ProfileImage,
		CoverImage:     stringPtr(req.CoverImage),
	}
	if req.ProfileUpload != nil {
		// Satisfies the required-field check; replaced by the uploaded URL below.
		reg.ProfileImage = req.ProfileUpload.Filename
	}
	reg.Normalize()

	fields := reg.Validate()
	if err := password.Validate(reg.Secret); errors.Is(err, password.ErrSecretTooLong) {
		fields = append(fields, model.FieldError{Field: "secret", Message: "secret must be at most 72 bytes"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	existing, err := s.accountRepo.GetByHandleOrContact(ctx, reg.Handle, reg.ContactAddress)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	hash, err := s.hasher.Hash(reg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	var published []string
	if req.ProfileUpload != nil {
		obj, err := media.Publish(ctx, s.store, media.KindProfileImage, req.ProfileUpload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMediaUpload, err)
		}
		reg.ProfileImage = obj.URL
		published = append(published, obj.URL)
	}
	if req.CoverUpload != nil {
		obj, err := media.Publish(ctx, s.store, media.KindCoverImage, req.CoverUpload)
		if err != nil {
			s.discard(ctx, published...)
			return nil, fmt.Errorf("%w: %v", ErrMediaUpload, err)
		}
		reg.CoverImage = &obj.URL
		published = append(published, obj.URL)
	}

	account := &model.Account{
		Handle:         reg.Handle,
		ContactAddress: reg.ContactAddress,
		DisplayName:    reg.DisplayName,
		ProfileImage:   reg.ProfileImage,
		CoverImage:     reg.CoverImage,
		SecretHash:     &hash,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		s.discard(ctx, published...)
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	return account.Public(), nil
}

// UpdateDetails changes the display name and contact address
func (s *AccountService) UpdateDetails(ctx context.Context, accountID, displayName, contactAddress string) (*model.Account, error) {
	displayName = strings.TrimSpace(displayName)
	contactAddress = model.NormalizeContactAddress(contactAddress)
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}
	if contactAddress == "" {
		return nil, ErrContactAddressRequired
	}

	var fields []model.FieldError
	fields = append(fields, model.ValidateDisplayName(displayName)...)
	fields = append(fields, model.ValidateContactAddress(contactAddress)...)
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	taken, err := s.accountRepo.ContactAddressTaken(ctx, contactAddress, accountID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrContactAddressTaken
	}

	account, err := s.accountRepo.UpdateDetails(ctx, accountID, displayName, contactAddress)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrContactAddressTaken
		}
		return nil, err
	}
	return account, nil
}

// ReplaceProfileImage uploads a new profile image and drops the previous one
func (s *AccountService) ReplaceProfileImage(ctx context.Context, current *model.Account, upload *media.StagedFile) (*model.Account, error) {
	return s.replaceImage(ctx, current, upload, media.KindProfileImage)
}

// ReplaceCoverImage uploads a new cover image and drops the previous one
func (s *AccountService) ReplaceCoverImage(ctx context.Context, current *model.Account, upload *media.StagedFile) (*model.Account, error) {
	return s.replaceImage(ctx, current, upload, media.KindCoverImage)
}

func (s *AccountService) replaceImage(ctx context.Context, current *model.Account, upload *media.StagedFile, kind media.Kind) (*model.Account, error) {
	if upload == nil {
		return nil, ErrImageRequired
	}

	obj, err := media.Publish(ctx, s.store, kind, upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}

	var (
		updated  *model.Account
		previous string
	)
	switch kind {
	case media.KindProfileImage:
		previous = current.ProfileImage
		updated, err = s.accountRepo.UpdateProfileImage(ctx, current.ID, obj.URL)
	default:
		if current.CoverImage != nil {
			previous = *current.CoverImage
		}
		updated, err = s.accountRepo.UpdateCoverImage(ctx, current.ID, obj.URL)
	}
	if err != nil {
		s.discard(ctx, obj.URL)
		return nil, err
	}

	if previous != "" && previous != obj.URL {
		s.discard(ctx, previous)
	}
	return updated, nil
}

// discard deletes remote objects, logging failures
func (s *AccountService) discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if err := s.store.Delete(ctx, url); err != nil {
			level := slog.LevelWarn
			if errors.Is(err, media.ErrForeignObject) {
				level = slog.LevelDebug
			}
			slog.Log(ctx, level, "failed to delete media object", "url", url, "error", err)
		}
	}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
