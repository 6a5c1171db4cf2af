package handler

import (
	"bytes"
	"net/http"
	"os"
	"testing"

	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/internal/testing/fixtures"
	"github.com/forgo/vidshare/api/internal/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func registrationForm() *helpers.MultipartForm {
	return helpers.NewMultipartForm().
		Field("handle", "ana").
		Field("contact_address", "ana@x.com").
		Field("display_name", "Ana").
		Field("secret", "p4ssW0rd!")
}

func assertStagingEmpty(t *testing.T, srv *testServer) {
	t.Helper()
	entries, err := os.ReadDir(srv.stageDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged uploads must be removed")
}

// ============================================================================
// Register Tests
// ============================================================================

func TestRegister_Multipart_UploadsImages(t *testing.T) {
	srv := newTestServer(t)
	form := registrationForm().
		File(avatarField, "me.png", "image/png", pngBytes).
		File(coverImageField, "banner.jpg", "image/jpeg", pngBytes)

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithMultipart(form).Build())

	helpers.AssertStatus(t, rr, http.StatusCreated)
	data := helpers.GetDataFromResponse(t, rr)
	avatar, _ := data["profile_image"].(string)
	cover, _ := data["cover_image"].(string)
	assert.True(t, srv.media.Has(avatar))
	assert.True(t, srv.media.Has(cover))
	assertStagingEmpty(t, srv)
}

func TestRegister_Multipart_MissingAvatar_ReturnsValidationError(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithMultipart(registrationForm()).Build())

	helpers.AssertValidationError(t, rr, "profile_image")
	assert.Zero(t, srv.accounts.Count())
}

func TestRegister_Multipart_NonImage_ReturnsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	form := registrationForm().File(avatarField, "notes.txt", "text/plain", []byte("hello"))

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithMultipart(form).Build())

	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidInput)
	assertStagingEmpty(t, srv)
}

func TestRegister_Multipart_SpoofedImageType_ReturnsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	form := registrationForm().File(avatarField, "me.png", "image/png", []byte("<html>not an image</html>"))

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithMultipart(form).Build())

	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidInput)
	assert.Zero(t, srv.accounts.Count())
	assert.Zero(t, srv.media.Len())
	assertStagingEmpty(t, srv)
}

func TestRegister_Multipart_SecretKeepsSurroundingSpaces(t *testing.T) {
	srv := newTestServer(t)
	form := helpers.NewMultipartForm().
		Field("handle", "  ana ").
		Field("contact_address", "ana@x.com").
		Field("display_name", "Ana").
		Field("secret", " p4ssW0rd! ").
		File(avatarField, "me.png", "image/png", pngBytes)

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithMultipart(form).Build())
	helpers.AssertStatus(t, rr, http.StatusCreated)
	assert.Equal(t, "ana", helpers.GetDataFromResponse(t, rr)["handle"])

	asTyped := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/login").
		WithBody(LoginRequest{Handle: "ana", Secret: " p4ssW0rd! "}).Build())
	helpers.AssertStatus(t, asTyped, http.StatusOK)

	trimmed := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/login").
		WithBody(LoginRequest{Handle: "ana", Secret: "p4ssW0rd!"}).Build())
	helpers.AssertProblemDetails(t, trimmed, http.StatusUnauthorized, model.ErrCodeLoginFailed)
}

func TestRegister_Multipart_OversizedFile_Returns413(t *testing.T) {
	srv := newTestServer(t)
	form := registrationForm().File(avatarField, "big.png", "image/png", bytes.Repeat([]byte("x"), 1<<17))

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithMultipart(form).Build())

	helpers.AssertProblemDetails(t, rr, http.StatusRequestEntityTooLarge, model.ErrCodeTooLarge)
	assertStagingEmpty(t, srv)
	assert.Zero(t, srv.media.Len())
}

func TestRegister_DuplicateHandle_Returns409WithoutUpload(t *testing.T) {
	srv := newTestServer(t)
	fixtures.CreateAccount(t, srv.accounts, fixtures.WithHandle("ana"))
	form := registrationForm().File(avatarField, "me.png", "image/png", pngBytes)

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithMultipart(form).Build())

	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeAlreadyExists)
	assert.Equal(t, 1, srv.accounts.Count())
	assert.Zero(t, srv.media.Len())
	assertStagingEmpty(t, srv)
}

func TestRegister_JSON_InvalidFields_ReturnsValidationError(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(helpers.NewRequest(t, http.MethodPost, APIPrefix+"/register").WithBody(RegisterRequest{
		Handle:         "a b",
		ContactAddress: "ana@x.com",
		DisplayName:    "Ana",
		Secret:         "p4ssW0rd!",
		ProfileImage:   "https://cdn.example.com/a.png",
	}).Build())

	helpers.AssertValidationError(t, rr, "handle")
}

// ============================================================================
// Update Account Tests
// ============================================================================

func TestUpdateAccount_Success_AndConflict(t *testing.T) {
	srv := newTestServer(t)
	fixtures.CreateAccount(t, srv.accounts, fixtures.WithHandle("ana"))
	bob := fixtures.CreateAccount(t, srv.accounts)
	cookies := loginAs(t, srv, "ana")

	rr := srv.do(helpers.NewRequest(t, http.MethodPatch, APIPrefix+"/update-account").WithCookies(cookies).
		WithBody(UpdateAccountRequest{DisplayName: "Ana B", ContactAddress: "ana.b@x.com"}).Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
	data := helpers.GetDataFromResponse(t, rr)
	assert.Equal(t, "Ana B", data["display_name"])
	assert.Equal(t, "ana.b@x.com", data["contact_address"])

	rr = srv.do(helpers.NewRequest(t, http.MethodPatch, APIPrefix+"/update-account").WithCookies(cookies).
		WithBody(UpdateAccountRequest{DisplayName: "Ana", ContactAddress: bob.ContactAddress}).Build())
	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeAlreadyExists)

	rr = srv.do(helpers.NewRequest(t, http.MethodPatch, APIPrefix+"/update-account").WithCookies(cookies).
		WithBody(UpdateAccountRequest{DisplayName: "Ana"}).Build())
	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidInput)
}

// ============================================================================
// Image Replacement Tests
// ============================================================================

func TestAvatar_ReplacesAndDeletesPrevious(t *testing.T) {
	srv := newTestServer(t)
	fixtures.CreateAccount(t, srv.accounts, fixtures.WithHandle("ana"))
	cookies := loginAs(t, srv, "ana")

	upload := func() string {
		form := helpers.NewMultipartForm().File(avatarField, "me.png", "image/png", pngBytes)
		rr := srv.do(helpers.NewRequest(t, http.MethodPatch, APIPrefix+"/avatar").WithCookies(cookies).WithMultipart(form).Build())
		helpers.AssertStatus(t, rr, http.StatusOK)
		url, _ := helpers.GetDataFromResponse(t, rr)["profile_image"].(string)
		return url
	}

	first := upload()
	second := upload()

	assert.NotEqual(t, first, second)
	assert.False(t, srv.media.Has(first))
	assert.True(t, srv.media.Has(second))
	assertStagingEmpty(t, srv)
}

func TestCoverImage_MissingFile_Returns400(t *testing.T) {
	srv := newTestServer(t)
	fixtures.CreateAccount(t, srv.accounts, fixtures.WithHandle("ana"))
	cookies := loginAs(t, srv, "ana")
	form := helpers.NewMultipartForm().Field("note", "no file here")

	rr := srv.do(helpers.NewRequest(t, http.MethodPatch, APIPrefix+"/cover-image").WithCookies(cookies).WithMultipart(form).Build())

	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidInput)
}

func TestCoverImage_JSONBody_Returns400(t *testing.T) {
	srv := newTestServer(t)
	fixtures.CreateAccount(t, srv.accounts, fixtures.WithHandle("ana"))
	cookies := loginAs(t, srv, "ana")

	rr := srv.do(helpers.NewRequest(t, http.MethodPatch, APIPrefix+"/cover-image").WithCookies(cookies).
		WithBody(map[string]string{"cover_image": "https://x"}).Build())

	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidInput)
}
