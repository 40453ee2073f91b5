package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenExpiration    = 8 * time.Hour
	defaultMFATokenExpiration = 10 * time.Minute
)

type Claims struct {
	AccountID uint   `json:"account_id"`
	Username  string `json:"username"`
	MFAPassed bool   `json:"mfa_passed"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for the account's current MFA state.
// Tokens issued before MFA is passed are short-lived.
func (s *Service) GenerateToken(account *Account) (string, error) {
	expiration := s.config.TokenExpiration
	if expiration == 0 {
		expiration = defaultTokenExpiration
	}
	if !account.MFAPassed {
		expiration = s.config.MFATokenExpiration
		if expiration == 0 {
			expiration = defaultMFATokenExpiration
		}
	}

	now := s.clock.Now()
	claims := &Claims{
		AccountID: account.ID,
		Username:  account.Username,
		MFAPassed: account.MFAPassed,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return validateToken(tokenString, s.config.JWTSecret, s.clock.Now)
}

func validateToken(tokenString string, secretKey string, now func() time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
	)

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
