package handler

import (
	"context"
	"net/http"

	"github.com/forgo/vidshare/api/internal/media"
	"github.com/forgo/vidshare/api/internal/middleware"
	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/internal/service"
)

// Multipart file fields
const (
	avatarField     = "avatar"
	coverImageField = "cover_image"
)

// AccountHandler handles registration and profile endpoints
type AccountHandler struct {
	accountService *service.AccountService
	stager         *media.Stager
	maxUploadBody  int64
}

// AccountHandlerConfig holds dependencies for the account handler
type AccountHandlerConfig struct {
	AccountService *service.AccountService
	Stager         *media.Stager
	// MaxUploadBody bounds a whole multipart request
	MaxUploadBody int64
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(cfg AccountHandlerConfig) *AccountHandler {
	return &AccountHandler{
		accountService: cfg.AccountService,
		stager:         cfg.Stager,
		maxUploadBody:  cfg.MaxUploadBody,
	}
}

// RegisterRequest represents the JSON form of the register request.
// Images are given as already-hosted URLs.
type RegisterRequest struct {
	Handle         string `json:"handle"`
	ContactAddress string `json:"contact_address"`
	DisplayName    string `json:"display_name"`
	Secret         string `json:"secret"`
	ProfileImage   string `json:"profile_image"`
	CoverImage     string `json:"cover_image,omitempty"`
}

// UpdateAccountRequest represents the update-account request body
type UpdateAccountRequest struct {
	DisplayName    string `json:"display_name"`
	ContactAddress string `json:"contact_address"`
}

// Register handles POST /api/v1/users/register. It accepts multipart
// form data with image files or a JSON body with image URLs.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest

	if isMultipart(r) {
		form, err := readUploadForm(w, r, h.stager, h.maxUploadBody, avatarField, coverImageField)
		if err != nil {
			WriteError(w, MapServiceError(uploadProblem(err)))
			return
		}
		req = service.RegisterRequest{
			Handle:         form.value("handle"),
			ContactAddress: form.value("contact_address"),
			DisplayName:    form.value("display_name"),
			Secret:         form.rawValue("secret"),
			ProfileImage:   form.value("profile_image"),
			CoverImage:     form.value("cover_image"),
			ProfileUpload:  form.file(avatarField),
			CoverUpload:    form.file(coverImageField),
		}
	} else {
		var body RegisterRequest
		if err := DecodeJSON(w, r, &body, false); err != nil {
			WriteError(w, decodeProblem(err))
			return
		}
		req = service.RegisterRequest{
			Handle:         body.Handle,
			ContactAddress: body.ContactAddress,
			DisplayName:    body.DisplayName,
			Secret:         body.Secret,
			ProfileImage:   body.ProfileImage,
			CoverImage:     body.CoverImage,
		}
	}

	account, err := h.accountService.Register(r.Context(), req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, account, map[string]string{
		"login": "/api/v1/users/login",
	})
}

// UpdateAccount handles PATCH /api/v1/users/update-account
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		WriteError(w, model.NewUnauthorizedError("Unauthorized request"))
		return
	}

	var req UpdateAccountRequest
	if err := DecodeJSON(w, r, &req, false); err != nil {
		WriteError(w, decodeProblem(err))
		return
	}

	updated, err := h.accountService.UpdateDetails(r.Context(), account.ID, req.DisplayName, req.ContactAddress)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, updated, nil)
}

// Avatar handles PATCH /api/v1/users/avatar
func (h *AccountHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, avatarField, h.accountService.ReplaceProfileImage)
}

// CoverImage handles PATCH /api/v1/users/cover-image
func (h *AccountHandler) CoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, coverImageField, h.accountService.ReplaceCoverImage)
}

type replaceFunc func(ctx context.Context, current *model.Account, upload *media.StagedFile) (*model.Account, error)

func (h *AccountHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, replace replaceFunc) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		WriteError(w, model.NewUnauthorizedError("Unauthorized request"))
		return
	}

	form, err := readUploadForm(w, r, h.stager, h.maxUploadBody, field)
	if err != nil {
		WriteError(w, MapServiceError(uploadProblem(err)))
		return
	}
	defer form.removeFiles()

	updated, err := replace(r.Context(), account, form.file(field))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, updated, nil)
}
