package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/api"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type mfaRequest struct {
	Code       string `json:"code"`
	BackupCode string `json:"backup_code"`
}

type tokenResponse struct {
	Token       string   `json:"token"`
	MFARequired bool     `json:"mfa_required"`
	MFASetup    bool     `json:"mfa_setup_required,omitempty"`
	BackupCodes []string `json:"backup_codes,omitempty"`
}

type mfaSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

func (h *Handler) RegisterRoutes(r chi.Router, mw *AuthMiddleware) {
	r.Post(api.AuthLogin, h.Login)

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Post(api.AuthMFA, h.VerifyMFA)
		r.Get(api.AuthMFASetup, h.MFASetup)
		r.Post(api.AuthMFASetup, h.ConfirmMFASetup)
		r.Get(api.AuthQRCode, h.QRCode)
		r.Post(api.AuthLogout, h.Logout)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		api.Failure(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	api.Success(w, http.StatusOK, tokenResponse{
		Token:       result.Token,
		MFARequired: result.MFARequired,
		MFASetup:    result.MFARequired && !result.Account.MFASetupCompleted,
	}, "login successful")
}

// VerifyMFA is the second login step for enrolled accounts. It accepts either
// a TOTP code or a backup code.
func (h *Handler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	account, err := AccountFromContext(r.Context())
	if err != nil {
		api.Failure(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !account.MFASetupCompleted {
		api.Failure(w, http.StatusConflict, "mfa setup required")
		return
	}

	var req mfaRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var ok bool
	switch {
	case req.BackupCode != "":
		ok, err = h.service.VerifyBackupCode(account, req.BackupCode)
	case req.Code != "":
		ok, err = h.service.VerifyMFA(account, req.Code)
	default:
		api.Failure(w, http.StatusBadRequest, "code or backup_code is required")
		return
	}
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	if !ok {
		api.Failure(w, http.StatusUnauthorized, "Invalid MFA code")
		return
	}

	token, err := h.service.CompleteMFA(account)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	api.Success(w, http.StatusOK, tokenResponse{Token: token}, "mfa verified")
}

// MFASetup returns the TOTP seed for first-time enrollment.
func (h *Handler) MFASetup(w http.ResponseWriter, r *http.Request) {
	account, ok := h.enrollingAccount(w, r)
	if !ok {
		return
	}

	secret, uri, err := h.service.EnsureTOTPSecret(account)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	api.Success(w, http.StatusOK, mfaSetupResponse{
		Secret:          secret,
		ProvisioningURI: uri,
	}, "scan the QR code with your authenticator app")
}

// ConfirmMFASetup finishes enrollment with a first TOTP code and issues the
// backup codes. They are returned only in this response.
func (h *Handler) ConfirmMFASetup(w http.ResponseWriter, r *http.Request) {
	account, ok := h.enrollingAccount(w, r)
	if !ok {
		return
	}

	var req mfaRequest
	if err := api.DecodeJSON(r, &req); err != nil || req.Code == "" {
		api.Failure(w, http.StatusBadRequest, "code is required")
		return
	}

	valid, err := h.service.VerifyMFA(account, req.Code)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	if !valid {
		api.Failure(w, http.StatusUnauthorized, "Invalid MFA code")
		return
	}

	codes, err := h.service.GenerateBackupCodes(0)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	if err := h.service.SetBackupCodes(account, codes); err != nil {
		h.writeAuthError(w, err)
		return
	}

	token, err := h.service.CompleteMFA(account)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	api.Success(w, http.StatusOK, tokenResponse{
		Token:       token,
		BackupCodes: codes,
	}, "mfa setup completed, store your backup codes safely")
}

func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	account, ok := h.enrollingAccount(w, r)
	if !ok {
		return
	}

	png, err := h.service.QRCode(account)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	account, err := AccountFromContext(r.Context())
	if err != nil {
		api.Failure(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.service.Logout(account); err != nil {
		h.writeAuthError(w, err)
		return
	}

	api.Success(w, http.StatusOK, nil, "logged out")
}

// enrollingAccount allows the seed to be shown only until enrollment is done.
func (h *Handler) enrollingAccount(w http.ResponseWriter, r *http.Request) (*Account, bool) {
	account, err := AccountFromContext(r.Context())
	if err != nil {
		api.Failure(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	if account.MFASetupCompleted {
		api.Failure(w, http.StatusConflict, "mfa already configured")
		return nil, false
	}
	return account, true
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	api.Failure(w, StatusCode(err), publicMessage(err))
	if StatusCode(err) == http.StatusInternalServerError {
		h.log.Error("auth request failed", zap.Error(err))
	}
}

// StatusCode maps an authentication outcome to its HTTP status.
func StatusCode(err error) int {
	var authErr *Error
	if !errors.As(err, &authErr) {
		return http.StatusInternalServerError
	}

	switch authErr.Kind {
	case KindInvalidCredentials, KindMFAInvalidCode:
		return http.StatusUnauthorized
	case KindAccountLocked, KindMFALocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Error()
	}
	return "internal error"
}
