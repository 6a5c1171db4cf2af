package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/internal/testing/fixtures"
	"github.com/forgo/vidshare/api/internal/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Test Helpers
// ============================================================================

type authFixture struct {
	svc    *AuthService
	tokens *TokenService
	store  *fixtures.Accounts
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	jwtSvc := helpers.NewTestJWTService(t)
	tokens := NewTokenService(TokenServiceConfig{
		Issuer:               jwtSvc,
		AccessExpirySeconds:  900,
		RefreshExpirySeconds: 864000,
	})
	store := fixtures.NewAccounts()
	return &authFixture{
		svc: NewAuthService(AuthServiceConfig{
			AccountRepo:  store,
			Hasher:       fixtures.TestHasher(),
			TokenService: tokens,
		}),
		tokens: tokens,
		store:  store,
	}
}

func (f *authFixture) login(t *testing.T, account *model.Account) *LoginResult {
	t.Helper()
	result, err := f.svc.Login(context.Background(), LoginRequest{Handle: account.Handle, Secret: "p4ssW0rd!"})
	require.NoError(t, err)
	return result
}

// ============================================================================
// Login Tests
// ============================================================================

func TestLogin_ByHandle_IssuesTokensAndPersistsRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store, fixtures.WithHandle("ana"))

	result, err := f.svc.Login(context.Background(), LoginRequest{Handle: "ana", Secret: "p4ssW0rd!"})
	require.NoError(t, err)

	assert.Equal(t, ana.ID, result.Account.ID)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenPair.TokenType)
	assert.Equal(t, 900, result.TokenPair.ExpiresIn)
	assert.Nil(t, result.Account.SecretHash, "login result must not carry the hash")
	assert.Nil(t, result.Account.RefreshToken, "login result must not carry the stored token")

	stored := f.store.Stored(ana.ID)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, result.TokenPair.RefreshToken, *stored.RefreshToken)
	assert.Equal(t, *ana.SecretHash, *stored.SecretHash, "login must not rewrite the hash")
}

func TestLogin_ByContactAddress_CaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store, func(o *fixtures.AccountOpts) { o.ContactAddress = "ana@x.io" })

	result, err := f.svc.Login(context.Background(), LoginRequest{ContactAddress: "  ANA@X.IO ", Secret: "p4ssW0rd!"})
	require.NoError(t, err)

	assert.Equal(t, ana.ID, result.Account.ID)
}

func TestLogin_NoIdentifier_ReturnsErrIdentifierRequired(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), LoginRequest{Secret: "p4ssW0rd!"})

	assert.ErrorIs(t, err, ErrIdentifierRequired)
}

func TestLogin_UnknownAccountAndWrongSecret_FailIdentically(t *testing.T) {
	f := newAuthFixture(t)
	fixtures.CreateAccount(t, f.store, fixtures.WithHandle("ana"))

	_, unknownErr := f.svc.Login(context.Background(), LoginRequest{Handle: "nobody", Secret: "p4ssW0rd!"})
	_, wrongErr := f.svc.Login(context.Background(), LoginRequest{Handle: "ana", Secret: "wrong"})

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

// recordingHasher counts Verify calls and remembers the hashes checked
type recordingHasher struct {
	SecretHasher
	verified []string
}

func (h *recordingHasher) Verify(plaintext, hash string) bool {
	h.verified = append(h.verified, hash)
	return h.SecretHasher.Verify(plaintext, hash)
}

func TestLogin_UnknownAccount_StillRunsBcrypt(t *testing.T) {
	f := newAuthFixture(t)
	hasher := &recordingHasher{SecretHasher: fixtures.TestHasher()}
	f.svc.hasher = hasher

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(context.Background(), LoginRequest{Handle: "nobody", Secret: "p4ssW0rd!"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	require.Len(t, hasher.verified, 2, "every unknown login verifies once")
	assert.True(t, strings.HasPrefix(hasher.verified[0], "$2"), "decoy must be a bcrypt hash")
	assert.Equal(t, hasher.verified[0], hasher.verified[1], "decoy is computed once")
	assert.Empty(t, f.store.Writes)
}

func TestLogin_PersistFailure_ReturnsError(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	f.store.Failures["SetRefreshToken"] = errors.New("db down")

	_, err := f.svc.Login(context.Background(), LoginRequest{Handle: ana.Handle, Secret: "p4ssW0rd!"})

	assert.ErrorContains(t, err, "db down")
}

func TestLogin_Twice_OnlyNewestRefreshTokenSurvives(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)

	first := f.login(t, ana)
	second := f.login(t, ana)

	_, err := f.svc.Refresh(context.Background(), first.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenStale)

	_, err = f.svc.Refresh(context.Background(), second.TokenPair.RefreshToken)
	assert.NoError(t, err)
}

// ============================================================================
// Refresh Tests
// ============================================================================

func TestRefresh_RotatesAndInvalidatesOldToken(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)

	pair, err := f.svc.Refresh(context.Background(), login.TokenPair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, login.TokenPair.RefreshToken, pair.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *f.store.Stored(ana.ID).RefreshToken)

	_, err = f.svc.Refresh(context.Background(), login.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenStale, "rotation must not be idempotent")
}

func TestRefresh_Empty_ReturnsErrRefreshTokenMissing(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "")

	assert.ErrorIs(t, err, ErrRefreshTokenMissing)
}

func TestRefresh_Garbage_ReturnsErrRefreshTokenInvalid_WithoutWrites(t *testing.T) {
	f := newAuthFixture(t)
	fixtures.CreateAccount(t, f.store)
	writes := len(f.store.Writes)

	_, err := f.svc.Refresh(context.Background(), "not.a.token")

	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
	assert.Len(t, f.store.Writes, writes)
}

func TestRefresh_AccessTokenPresented_ReturnsErrRefreshTokenInvalid(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)

	_, err := f.svc.Refresh(context.Background(), login.TokenPair.AccessToken)

	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestRefresh_Expired_ReturnsErrRefreshTokenExpired(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	shortLived := helpers.NewTestJWTServiceWithExpiry(t, time.Minute, time.Second)
	token, err := shortLived.IssueRefreshToken(ana.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetRefreshToken(context.Background(), ana.ID, token))

	time.Sleep(2100 * time.Millisecond)
	_, err = f.svc.Refresh(context.Background(), token)

	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestRefresh_UnknownAccount_ReturnsErrRefreshTokenInvalid(t *testing.T) {
	f := newAuthFixture(t)
	ghost, err := helpers.NewTestJWTService(t).IssueRefreshToken("account:ghost")
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), ghost)

	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestRefresh_ConcurrentSameToken_ExactlyOneWins(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)

	const attempts = 8
	var wins, stale atomic.Int32
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := f.svc.Refresh(context.Background(), login.TokenPair.RefreshToken)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrRefreshTokenStale):
				stale.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(attempts-1), stale.Load())
}

func TestRefresh_LostSwap_ReturnsStale(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)
	racing := &racingRepo{Accounts: f.store}
	f.svc.accountRepo = racing

	_, err := f.svc.Refresh(context.Background(), login.TokenPair.RefreshToken)

	assert.ErrorIs(t, err, ErrRefreshTokenStale)
}

// racingRepo lets another rotation land between the read and the swap.
type racingRepo struct {
	*fixtures.Accounts
}

func (r *racingRepo) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	if _, err := r.Accounts.SwapRefreshToken(ctx, id, expected, "someone-else"); err != nil {
		return false, err
	}
	return r.Accounts.SwapRefreshToken(ctx, id, expected, next)
}

// ============================================================================
// Logout Tests
// ============================================================================

func TestLogout_ThenRefresh_Fails(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)

	require.NoError(t, f.svc.Logout(context.Background(), ana.ID))

	assert.Nil(t, f.store.Stored(ana.ID).RefreshToken)
	_, err := f.svc.Refresh(context.Background(), login.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenStale)
}

func TestLogout_AccountGone_Succeeds(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.Logout(context.Background(), "account:vanished")

	assert.NoError(t, err)
	assert.Empty(t, f.store.Writes)
}

func TestLogout_StorageFailure_IsReturned(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	f.store.Failures["ClearRefreshToken"] = errors.New("connection reset")

	err := f.svc.Logout(context.Background(), ana.ID)

	assert.EqualError(t, err, "connection reset")
}

// ============================================================================
// Authenticate Tests
// ============================================================================

func TestAuthenticate_ValidToken_ReturnsPublicAccount(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)

	account, err := f.svc.Authenticate(context.Background(), login.TokenPair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, ana.ID, account.ID)
	assert.Nil(t, account.SecretHash)
	assert.Nil(t, account.RefreshToken)
}

func TestAuthenticate_Failures(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)
	ghost := helpers.AccessTokenFor(t, helpers.NewTestJWTService(t), &model.Account{ID: "account:ghost"})

	_, err := f.svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrAccessTokenInvalid)

	_, err = f.svc.Authenticate(context.Background(), login.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccessTokenInvalid)

	_, err = f.svc.Authenticate(context.Background(), ghost)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// ============================================================================
// ChangePassword Tests
// ============================================================================

func TestChangePassword_Success_WritesOnlyHash(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)
	login := f.login(t, ana)
	writes := len(f.store.Writes)

	err := f.svc.ChangePassword(context.Background(), ana.ID, "p4ssW0rd!", "n3wS3cret!")
	require.NoError(t, err)

	assert.Equal(t, []string{"UpdateSecretHash " + ana.ID}, f.store.Writes[writes:])
	stored := f.store.Stored(ana.ID)
	assert.NotEqual(t, "n3wS3cret!", *stored.SecretHash)
	assert.True(t, fixtures.TestHasher().Verify("n3wS3cret!", *stored.SecretHash))
	assert.Equal(t, login.TokenPair.RefreshToken, *stored.RefreshToken, "session lineage is kept")

	_, err = f.svc.Login(context.Background(), LoginRequest{Handle: ana.Handle, Secret: "p4ssW0rd!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(context.Background(), LoginRequest{Handle: ana.Handle, Secret: "n3wS3cret!"})
	assert.NoError(t, err)
}

func TestChangePassword_WrongOldSecret_ReturnsErrInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)

	err := f.svc.ChangePassword(context.Background(), ana.ID, "wrong", "n3wS3cret!")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, *ana.SecretHash, *f.store.Stored(ana.ID).SecretHash)
}

func TestChangePassword_MissingOrOversized_Rejected(t *testing.T) {
	f := newAuthFixture(t)
	ana := fixtures.CreateAccount(t, f.store)

	assert.ErrorIs(t, f.svc.ChangePassword(context.Background(), ana.ID, "", "x"), ErrSecretRequired)
	assert.ErrorIs(t, f.svc.ChangePassword(context.Background(), ana.ID, "p4ssW0rd!", ""), ErrSecretRequired)
	assert.ErrorIs(t, f.svc.ChangePassword(context.Background(), ana.ID, "p4ssW0rd!", strings.Repeat("a", 73)), ErrSecretTooLong)
}
