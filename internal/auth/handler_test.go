package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elskow/portfolio/internal/api"
)

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T, env *testEnv) chi.Router {
	t.Helper()

	log := newTestLogger(t)
	mw := NewAuthMiddleware(env.svc, log)

	r := chi.NewRouter()
	NewHandler(env.svc, log).RegisterRoutes(r, mw)
	r.With(mw.Authenticate, mw.RequireMFA, mw.RequireAdmin).Get("/admin/ping", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, nil, "pong")
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func decodeData(t *testing.T, resp testResponse, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func TestHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "admin", true)
	router := newTestRouter(t, env)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid credentials",
			body:       loginRequest{Username: "admin", Password: testPassword},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing password",
			body:       loginRequest{Username: "admin"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown fields",
			body:       map[string]string{"user": "admin"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown user",
			body:       loginRequest{Username: "nobody", Password: testPassword},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid username or password",
		},
		{
			name:       "wrong password",
			body:       loginRequest{Username: "admin", Password: "wrong"},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid username or password. 2 attempts remaining before account lockout.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doRequest(t, router, http.MethodPost, api.AuthLogin, "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp.Error)
			}
			if tt.wantStatus == http.StatusOK {
				var data tokenResponse
				decodeData(t, resp, &data)
				assert.NotEmpty(t, data.Token)
				assert.True(t, data.MFARequired)
				assert.True(t, data.MFASetup)
			}
		})
	}
}

func TestHandler_Login_Locked(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "admin", true)
	router := newTestRouter(t, env)

	for i := 0; i < MaxFailedAttempts; i++ {
		rec, _ := doRequest(t, router, http.MethodPost, api.AuthLogin, "", loginRequest{Username: "admin", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, resp := doRequest(t, router, http.MethodPost, api.AuthLogin, "", loginRequest{Username: "admin", Password: testPassword})
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Contains(t, resp.Error, "Please try again in 15 minutes")
}

func TestHandler_EnrollmentFlow(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "admin", true)
	router := newTestRouter(t, env)

	rec, resp := doRequest(t, router, http.MethodPost, api.AuthLogin, "", loginRequest{Username: "admin", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var login tokenResponse
	decodeData(t, resp, &login)

	// Password alone does not open admin routes
	rec, _ = doRequest(t, router, http.MethodGet, "/admin/ping", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Verification requires enrollment first
	rec, _ = doRequest(t, router, http.MethodPost, api.AuthMFA, login.Token, mfaRequest{Code: "123456"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = doRequest(t, router, http.MethodGet, api.AuthMFASetup, login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var setup mfaSetupResponse
	decodeData(t, resp, &setup)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.ProvisioningURI, "otpauth://totp/")

	rec, _ = doRequest(t, router, http.MethodGet, api.AuthQRCode, login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	code := currentCode(t, setup.Secret, env.clock.Now())
	rec, resp = doRequest(t, router, http.MethodPost, api.AuthMFASetup, login.Token, mfaRequest{Code: code})
	require.Equal(t, http.StatusOK, rec.Code)
	var confirmed tokenResponse
	decodeData(t, resp, &confirmed)
	assert.Len(t, confirmed.BackupCodes, 8)
	assert.NotEmpty(t, confirmed.Token)

	rec, _ = doRequest(t, router, http.MethodGet, "/admin/ping", confirmed.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The seed is not shown again once enrollment is done
	rec, _ = doRequest(t, router, http.MethodGet, api.AuthMFASetup, confirmed.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Logout revokes the MFA-passed token
	rec, _ = doRequest(t, router, http.MethodPost, api.AuthLogout, confirmed.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doRequest(t, router, http.MethodGet, "/admin/ping", confirmed.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Second login uses a backup code
	rec, resp = doRequest(t, router, http.MethodPost, api.AuthLogin, "", loginRequest{Username: "admin", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &login)
	assert.False(t, login.MFASetup)

	rec, resp = doRequest(t, router, http.MethodPost, api.AuthMFA, login.Token, mfaRequest{BackupCode: confirmed.BackupCodes[0]})
	require.Equal(t, http.StatusOK, rec.Code)
	var verified tokenResponse
	decodeData(t, resp, &verified)

	rec, _ = doRequest(t, router, http.MethodGet, "/admin/ping", verified.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_VerifyMFA_Errors(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "admin", true)
	_, _, err := env.svc.EnsureTOTPSecret(account)
	require.NoError(t, err)
	account.MFASetupCompleted = true
	require.NoError(t, env.repo.Persist(account))

	router := newTestRouter(t, env)
	token, err := env.svc.GenerateToken(account)
	require.NoError(t, err)

	rec, _ := doRequest(t, router, http.MethodPost, api.AuthMFA, token, mfaRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < MaxFailedAttempts; i++ {
		rec, _ = doRequest(t, router, http.MethodPost, api.AuthMFA, token, mfaRequest{Code: "abcdef"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, resp := doRequest(t, router, http.MethodPost, api.AuthMFA, token, mfaRequest{Code: "123456"})
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Contains(t, resp.Error, "MFA locked")
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid credentials", err: &Error{Kind: KindInvalidCredentials}, want: http.StatusUnauthorized},
		{name: "account locked", err: &Error{Kind: KindAccountLocked}, want: http.StatusLocked},
		{name: "invalid mfa", err: &Error{Kind: KindMFAInvalidCode}, want: http.StatusUnauthorized},
		{name: "mfa locked", err: &Error{Kind: KindMFALocked}, want: http.StatusLocked},
		{name: "infrastructure", err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}
