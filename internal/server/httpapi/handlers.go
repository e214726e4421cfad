package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/dmitrijs2005/gestcard/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// AuthAPI is the part of services.AuthService the REST layer calls.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	AuthenticateExternal(ctx context.Context, ext models.ExternalIdentity) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Profile(ctx context.Context, accountID string) (*models.PublicAccount, error)
}

type AdminAPI interface {
	ListAdmins(ctx context.Context, f models.AdminFilter) (*models.AccountPage, error)
	UpdateAdminStatus(ctx context.Context, adminID string, isActive bool) (string, error)
	PromoteToAdmin(ctx context.Context, userID string) (string, error)
}

type UploadAPI interface {
	PresignCVUpload(ctx context.Context, accountID, contentType string) (*services.PresignedURL, error)
	PresignCVDownload(ctx context.Context, account *models.Account, key string) (*services.PresignedURL, error)
}

type handlers struct {
	auth     AuthAPI
	admin    AdminAPI
	uploads  UploadAPI
	external services.ExternalVerifier
	logger   logging.Logger
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Name      string      `json:"name"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Role == models.RoleAdmin {
		h.fail(w, r, common.Validation("role %s cannot be requested at registration", models.RoleAdmin))
		return
	}

	name := req.Name
	if name == "" {
		name = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}

	res, err := h.auth.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     name,
		Role:     req.Role,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

type googleRequest struct {
	Credential string `json:"credential"`
}

func (h *handlers) google(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ext, err := h.external.Verify(r.Context(), req.Credential)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.auth.AuthenticateExternal(r.Context(), *ext)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *handlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, messageResponse{Message: "Password reset instructions have been sent to your email"})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *handlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, messageResponse{Message: "Password has been successfully reset"})
}

func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.fail(w, r, common.Unauthorized(common.MsgMissingToken))
		return
	}
	p, err := h.auth.Profile(r.Context(), account.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"user": p})
}

func parseAdminFilter(r *http.Request) (models.AdminFilter, error) {
	q := r.URL.Query()
	f := models.AdminFilter{Search: q.Get("search")}

	if v := q.Get("isActive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, common.Validation("isActive must be a boolean")
		}
		f.IsActive = &b
	}
	for name, dst := range map[string]*int{"page": &f.Page, "limit": &f.Limit} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, common.Validation("%s must be a positive integer", name)
		}
		*dst = n
	}
	if f.Page > models.MaxPage {
		return f, common.Validation("page must not exceed %d", models.MaxPage)
	}
	return f, nil
}

func (h *handlers) listAdmins(w http.ResponseWriter, r *http.Request) {
	f, err := parseAdminFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.admin.ListAdmins(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, page)
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *handlers) updateAdminStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.IsActive == nil {
		h.fail(w, r, common.Validation("isActive is required"))
		return
	}
	msg, err := h.admin.UpdateAdminStatus(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, messageResponse{Message: msg})
}

type promoteRequest struct {
	UserID string `json:"userId"`
}

func (h *handlers) promote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.UserID == "" {
		h.fail(w, r, common.Validation("userId is required"))
		return
	}
	msg, err := h.admin.PromoteToAdmin(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, messageResponse{Message: msg})
}

type uploadRequest struct {
	ContentType string `json:"contentType"`
}

func (h *handlers) uploadCV(w http.ResponseWriter, r *http.Request) {
	account, _ := auth.AccountFromContext(r.Context())

	var req uploadRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	res, err := h.uploads.PresignCVUpload(r.Context(), account.ID, req.ContentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *handlers) downloadCV(w http.ResponseWriter, r *http.Request) {
	account, _ := auth.AccountFromContext(r.Context())

	res, err := h.uploads.PresignCVDownload(r.Context(), account, r.URL.Query().Get("key"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}
