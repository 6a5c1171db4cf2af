package model

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits for account records
const (
	MaxHandleLength         = 32
	MinHandleLength         = 3
	MaxDisplayNameLength    = 100
	MaxContactAddressLength = 254
)

// Account represents a user account
type Account struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle"`
	ContactAddress string    `json:"contact_address"`
	DisplayName    string    `json:"display_name"`
	ProfileImage   string    `json:"profile_image"`
	CoverImage     *string   `json:"cover_image,omitempty"`
	SecretHash     *string   `json:"-"` // Never expose secret hash
	RefreshToken   *string   `json:"-"` // Never expose session token
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}

// Public returns a copy of the account without credential material
func (a *Account) Public() *Account {
	if a == nil {
		return nil
	}
	public := *a
	public.SecretHash = nil
	public.RefreshToken = nil
	return &public
}

// HasSession reports whether the account currently holds a refresh token
func (a *Account) HasSession() bool {
	return a.RefreshToken != nil && *a.RefreshToken != ""
}

// NormalizeHandle trims and lower-cases a handle
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// NormalizeContactAddress trims and lower-cases a contact address
func NormalizeContactAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// AccountRegistration holds the fields required to create an account.
// Secret is plaintext and only lives until it is hashed.
type AccountRegistration struct {
	Handle         string
	ContactAddress string
	DisplayName    string
	Secret         string
	ProfileImage   string
	CoverImage     *string
}

// Normalize trims every field and lower-cases the unique identifiers
func (r *AccountRegistration) Normalize() {
	r.Handle = NormalizeHandle(r.Handle)
	r.ContactAddress = NormalizeContactAddress(r.ContactAddress)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.ProfileImage = strings.TrimSpace(r.ProfileImage)
	if r.CoverImage != nil {
		cover := strings.TrimSpace(*r.CoverImage)
		if cover == "" {
			r.CoverImage = nil
		} else {
			r.CoverImage = &cover
		}
	}
}

// Validate checks registration fields. Call Normalize first.
func (r *AccountRegistration) Validate() []FieldError {
	var errors []FieldError

	errors = append(errors, validateHandle(r.Handle)...)
	errors = append(errors, ValidateContactAddress(r.ContactAddress)...)
	errors = append(errors, ValidateDisplayName(r.DisplayName)...)

	if r.Secret == "" {
		errors = append(errors, FieldError{Field: "secret", Message: "secret is required"})
	}
	if r.ProfileImage == "" {
		errors = append(errors, FieldError{Field: "profile_image", Message: "profile_image is required"})
	}

	return errors
}

func validateHandle(handle string) []FieldError {
	switch {
	case handle == "":
		return []FieldError{{Field: "handle", Message: "handle is required"}}
	case utf8.RuneCountInString(handle) < MinHandleLength || utf8.RuneCountInString(handle) > MaxHandleLength:
		return []FieldError{{Field: "handle", Message: "handle must be between 3 and 32 characters"}}
	case strings.ContainsAny(handle, " \t\n@:/"):
		return []FieldError{{Field: "handle", Message: "handle must not contain whitespace, '@', ':' or '/'"}}
	}
	return nil
}

// ValidateContactAddress checks a normalized contact address
func ValidateContactAddress(address string) []FieldError {
	if address == "" {
		return []FieldError{{Field: "contact_address", Message: "contact_address is required"}}
	}
	if len(address) > MaxContactAddressLength {
		return []FieldError{{Field: "contact_address", Message: "contact_address must be 254 characters or less"}}
	}
	if parsed, err := mail.ParseAddress(address); err != nil || parsed.Address != address {
		return []FieldError{{Field: "contact_address", Message: "contact_address must be a valid email address"}}
	}
	return nil
}

// ValidateDisplayName checks a trimmed display name
func ValidateDisplayName(name string) []FieldError {
	if name == "" {
		return []FieldError{{Field: "display_name", Message: "display_name is required"}}
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return []FieldError{{Field: "display_name", Message: "display_name must be 100 characters or less"}}
	}
	return nil
}
