package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func validRegistration() AccountRegistration {
	return AccountRegistration{
		Handle:         "ana",
		ContactAddress: "ana@x.io",
		DisplayName:    "Ana",
		Secret:         "p4ssW0rd!",
		ProfileImage:   "https://media.example/avatars/ana.png",
	}
}

// ============================================================================
// Account Serialization Tests
// ============================================================================

func TestAccount_JSON_OmitsCredentialMaterial(t *testing.T) {
	t.Parallel()

	hash := "$2a$10$abcdefghijklmnopqrstuv"
	token := "refresh.token.value"
	account := &Account{
		ID:           "account:ana",
		Handle:       "ana",
		SecretHash:   &hash,
		RefreshToken: &token,
	}

	encoded, err := json.Marshal(account)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(string(encoded), hash) || strings.Contains(string(encoded), token) {
		t.Errorf("credential material leaked into JSON: %s", encoded)
	}
}

func TestAccount_Public_StripsCredentialsWithoutMutatingOriginal(t *testing.T) {
	t.Parallel()

	hash := "hash"
	token := "token"
	account := &Account{ID: "account:ana", SecretHash: &hash, RefreshToken: &token}

	public := account.Public()

	if public.SecretHash != nil || public.RefreshToken != nil {
		t.Error("expected public projection to drop credentials")
	}
	if account.SecretHash == nil || account.RefreshToken == nil {
		t.Error("expected original account to keep credentials")
	}
	if public.ID != "account:ana" {
		t.Errorf("expected id to be preserved, got %s", public.ID)
	}
}

func TestAccount_HasSession(t *testing.T) {
	t.Parallel()

	empty := ""
	token := "t"

	if (&Account{}).HasSession() {
		t.Error("expected no session for nil token")
	}
	if (&Account{RefreshToken: &empty}).HasSession() {
		t.Error("expected no session for empty token")
	}
	if !(&Account{RefreshToken: &token}).HasSession() {
		t.Error("expected session for set token")
	}
}

// ============================================================================
// AccountRegistration Tests
// ============================================================================

func TestAccountRegistration_Normalize_TrimsAndLowercases(t *testing.T) {
	t.Parallel()

	blank := "   "
	reg := AccountRegistration{
		Handle:         "  Ana ",
		ContactAddress: " ANA@X.IO ",
		DisplayName:    "  Ana Lima  ",
		CoverImage:     &blank,
	}

	reg.Normalize()

	if reg.Handle != "ana" {
		t.Errorf("expected handle 'ana', got %q", reg.Handle)
	}
	if reg.ContactAddress != "ana@x.io" {
		t.Errorf("expected contact 'ana@x.io', got %q", reg.ContactAddress)
	}
	if reg.DisplayName != "Ana Lima" {
		t.Errorf("expected display name 'Ana Lima', got %q", reg.DisplayName)
	}
	if reg.CoverImage != nil {
		t.Error("expected blank cover image to be dropped")
	}
}

func TestAccountRegistration_Validate_Valid(t *testing.T) {
	t.Parallel()

	reg := validRegistration()

	if errs := reg.Validate(); len(errs) > 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestAccountRegistration_Validate_ReportsEachMissingField(t *testing.T) {
	t.Parallel()

	reg := AccountRegistration{}
	errs := reg.Validate()

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"handle", "contact_address", "display_name", "secret", "profile_image"} {
		if !fields[f] {
			t.Errorf("expected error for %s, got %v", f, errs)
		}
	}
}

func TestAccountRegistration_Validate_RejectsBadHandle(t *testing.T) {
	t.Parallel()

	for _, handle := range []string{"an", strings.Repeat("a", 33), "ana lima", "ana@x", "account:ana"} {
		reg := validRegistration()
		reg.Handle = handle
		errs := reg.Validate()
		if len(errs) != 1 || errs[0].Field != "handle" {
			t.Errorf("handle %q: expected one handle error, got %v", handle, errs)
		}
	}
}

func TestValidateContactAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		valid   bool
	}{
		{"ana@x.io", true},
		{"", false},
		{"not-an-address", false},
		{"Ana <ana@x.io>", false},
	}

	for _, tt := range tests {
		errs := ValidateContactAddress(tt.address)
		if (len(errs) == 0) != tt.valid {
			t.Errorf("%q: expected valid=%v, got %v", tt.address, tt.valid, errs)
		}
	}
}

func TestValidateDisplayName_TooLong(t *testing.T) {
	t.Parallel()

	if errs := ValidateDisplayName(strings.Repeat("x", MaxDisplayNameLength+1)); len(errs) != 1 {
		t.Errorf("expected one error, got %v", errs)
	}
}
