package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/api"
)

type contextKey string

const (
	claimsContextKey  contextKey = "claims"
	accountContextKey contextKey = "account"
)

var ErrNoAccount = errors.New("account not found in context")

type AuthMiddleware struct {
	service *Service
	log     *zap.Logger
}

func NewAuthMiddleware(service *Service, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		log:     log,
	}
}

// Authenticate requires a valid bearer token and loads the account it names.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			api.Failure(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := m.service.ValidateToken(token)
		if err != nil {
			api.Failure(w, http.StatusUnauthorized, "invalid token")
			return
		}

		account, err := m.service.repository.GetAccountByID(claims.AccountID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				api.Failure(w, http.StatusUnauthorized, "invalid token")
				return
			}
			m.log.Error("failed to load account for token",
				zap.Uint("account_id", claims.AccountID),
				zap.Error(err))
			api.Failure(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		ctx = context.WithValue(ctx, accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireMFA rejects sessions that have not completed MFA. The stored flag is
// checked too, so logging out revokes tokens issued earlier.
func (m *AuthMiddleware) RequireMFA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		account, err := AccountFromContext(r.Context())
		if err != nil || claims == nil {
			api.Failure(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if !claims.MFAPassed || !account.MFAPassed {
			api.Failure(w, http.StatusForbidden, "mfa required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := AccountFromContext(r.Context())
		if err != nil {
			api.Failure(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !account.IsAdmin {
			api.Failure(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AccountFromContext(ctx context.Context) (*Account, error) {
	account, ok := ctx.Value(accountContextKey).(*Account)
	if !ok || account == nil {
		return nil, ErrNoAccount
	}
	return account, nil
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
