package auth

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	defaultIssuer = "portfolio_blog"
	totpPeriod    = 30
	totpSkew      = 1
	minCodeDigits = 6
	qrCodeSize    = 256
)

var totpOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Skew:      totpSkew,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// EnsureTOTPSecret returns the account's base32 TOTP seed and provisioning
// URI, generating and storing an encrypted seed on first use.
func (s *Service) EnsureTOTPSecret(account *Account) (string, string, error) {
	var secret string
	if account.HasTOTPSecret() {
		decrypted, err := s.decryptTOTPSecret(account)
		if err != nil {
			return "", "", err
		}
		secret = decrypted
	} else {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      s.issuer(),
			AccountName: account.Label(),
			Period:      totpPeriod,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			return "", "", fmt.Errorf("failed to generate TOTP secret: %w", err)
		}
		secret = key.Secret()

		encrypted, err := s.codec.Encrypt([]byte(secret))
		if err != nil {
			return "", "", err
		}
		account.TOTPSecretEncrypted = encrypted
		if err := s.repository.Persist(account); err != nil {
			return "", "", fmt.Errorf("failed to store TOTP secret: %w", err)
		}
	}

	return secret, provisioningURI(secret, account.Label(), s.issuer()), nil
}

// VerifyTOTPCode accepts codes for the current, previous and next 30s step.
// It fails closed when no secret is provisioned or the input is malformed.
func (s *Service) VerifyTOTPCode(account *Account, code string) (bool, error) {
	if !account.HasTOTPSecret() {
		return false, nil
	}

	normalized := strings.Join(strings.Fields(code), "")
	if len(normalized) < minCodeDigits || !isDigits(normalized) {
		return false, nil
	}

	secret, err := s.decryptTOTPSecret(account)
	if err != nil {
		return false, err
	}

	valid, err := totp.ValidateCustom(normalized, secret, s.clock.Now().UTC(), totpOpts)
	if err != nil {
		// Wrong length or unusable seed
		return false, nil
	}
	return valid, nil
}

// QRCode renders the provisioning URI as a PNG for authenticator enrollment.
func (s *Service) QRCode(account *Account) ([]byte, error) {
	_, uri, err := s.EnsureTOTPSecret(account)
	if err != nil {
		return nil, err
	}

	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse provisioning uri: %w", err)
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) decryptTOTPSecret(account *Account) (string, error) {
	plaintext, err := s.codec.Decrypt(account.TOTPSecretEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}
	return string(plaintext), nil
}

func (s *Service) issuer() string {
	if s.config.TOTPIssuer == "" {
		return defaultIssuer
	}
	return s.config.TOTPIssuer
}

func provisioningURI(secret, label, issuer string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("period", "30")
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + label,
		RawQuery: v.Encode(),
	}
	return u.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
