package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/config"
	"github.com/elskow/portfolio/internal/cryptox"
)

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
	codec      *cryptox.Codec
	hasher     *cryptox.Hasher
	clock      clockwork.Clock

	dummyOnce sync.Once
	dummyHash string
}

// LoginResult is a successful password login. When MFARequired is set the
// token only grants access to the MFA endpoints.
type LoginResult struct {
	Account     *Account
	Token       string
	MFARequired bool
}

func NewService(
	config *config.AuthConfig,
	log *zap.Logger,
	repo Repository,
	codec *cryptox.Codec,
	clock clockwork.Clock,
) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
		codec:      codec,
		hasher:     cryptox.NewHasher(config.BcryptCost),
		clock:      clock,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	return s.hasher.Hash(password)
}

func (s *Service) CheckPasswordHash(password, hash string) bool {
	return s.hasher.Verify(password, hash)
}

func (s *Service) RegisterAccount(username, email, password string, isAdmin bool) (*Account, error) {
	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		IsAdmin:      isAdmin,
	}

	if err := s.repository.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate verifies a username/password pair under the login lockout
// policy. Expected failures are returned as *Error.
func (s *Service) Authenticate(username, password string) (*Account, error) {
	account, err := s.repository.GetAccountByUsername(username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Spend the same bcrypt work as a real comparison
			s.CheckPasswordHash(password, s.dummyPasswordHash())
			return nil, &Error{Kind: KindInvalidCredentials}
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	now := s.clock.Now()
	lock := loginLockout(account)
	if minutes, locked := lock.check(now); locked {
		s.log.Warn("login rejected, account locked",
			zap.String("username", username),
			zap.Int("remaining_minutes", minutes))
		return nil, &Error{Kind: KindAccountLocked, RemainingMinutes: minutes}
	}

	if !s.CheckPasswordHash(password, account.PasswordHash) {
		remaining, locked := lock.recordFailure(now)
		if err := s.repository.Persist(account); err != nil {
			return nil, fmt.Errorf("failed to record failed login: %w", err)
		}

		s.log.Warn("failed login attempt",
			zap.String("username", username),
			zap.Int("failed_attempts", account.FailedLoginAttempts),
			zap.Bool("locked", locked))
		return nil, &Error{Kind: KindInvalidCredentials, AttemptsRemaining: remaining, Locked: locked}
	}

	lock.reset()
	account.LastLogin = &now
	if err := s.repository.Persist(account); err != nil {
		return nil, fmt.Errorf("failed to reset login attempts: %w", err)
	}

	return account, nil
}

// Login authenticates and issues a session token. Admin accounts must still
// pass MFA before the token grants admin access.
func (s *Service) Login(username, password string) (*LoginResult, error) {
	account, err := s.Authenticate(username, password)
	if err != nil {
		return nil, err
	}

	account.MFAPassed = !account.IsAdmin
	if err := s.repository.Persist(account); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, err
	}

	s.log.Info("login succeeded",
		zap.String("username", account.Username),
		zap.Bool("mfa_required", !account.MFAPassed))

	return &LoginResult{
		Account:     account,
		Token:       token,
		MFARequired: !account.MFAPassed,
	}, nil
}

// VerifyMFA checks a TOTP code under the MFA lockout policy.
func (s *Service) VerifyMFA(account *Account, code string) (bool, error) {
	return s.verifyWithMFALockout(account, func() (bool, error) {
		return s.VerifyTOTPCode(account, code)
	})
}

// VerifyBackupCode accepts a one-time backup code in place of a TOTP code.
// Failures count against the same MFA lockout.
func (s *Service) VerifyBackupCode(account *Account, code string) (bool, error) {
	return s.verifyWithMFALockout(account, func() (bool, error) {
		return s.ConsumeBackupCode(account, code)
	})
}

func (s *Service) verifyWithMFALockout(account *Account, verify func() (bool, error)) (bool, error) {
	now := s.clock.Now()
	lock := mfaLockout(account)
	if minutes, locked := lock.check(now); locked {
		s.log.Warn("mfa rejected, account locked",
			zap.String("username", account.Username),
			zap.Int("remaining_minutes", minutes))
		return false, &Error{Kind: KindMFALocked, RemainingMinutes: minutes}
	}

	ok, err := verify()
	if err != nil {
		return false, err
	}

	if ok {
		lock.reset()
		if err := s.repository.Persist(account); err != nil {
			return false, fmt.Errorf("failed to reset mfa attempts: %w", err)
		}
		return true, nil
	}

	remaining, locked := lock.recordFailure(now)
	if err := s.repository.Persist(account); err != nil {
		return false, fmt.Errorf("failed to record failed mfa attempt: %w", err)
	}

	s.log.Warn("failed mfa attempt",
		zap.String("username", account.Username),
		zap.Int("failed_attempts", account.FailedMFAAttempts),
		zap.Bool("locked", locked))
	return false, &Error{Kind: KindMFAInvalidCode, AttemptsRemaining: remaining, Locked: locked}
}

// CompleteMFA marks the session as having passed MFA and finishes first-time
// enrollment. It returns a fresh token carrying the new state.
func (s *Service) CompleteMFA(account *Account) (string, error) {
	account.MFAPassed = true
	account.MFASetupCompleted = true
	if err := s.repository.Persist(account); err != nil {
		return "", fmt.Errorf("failed to complete mfa: %w", err)
	}
	return s.GenerateToken(account)
}

func (s *Service) Logout(account *Account) error {
	account.MFAPassed = false
	return s.repository.Persist(account)
}

// ClearLockouts resets both failure counters, for operator use.
func (s *Service) ClearLockouts(account *Account) error {
	loginLockout(account).reset()
	mfaLockout(account).reset()
	return s.repository.Persist(account)
}

// ResetMFA discards the TOTP seed and backup codes so the account enrolls
// again on its next login.
func (s *Service) ResetMFA(account *Account) error {
	account.TOTPSecretEncrypted = nil
	account.BackupCodesHash = nil
	account.MFASetupCompleted = false
	account.MFAPassed = false
	mfaLockout(account).reset()
	return s.repository.Persist(account)
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			s.log.Error("failed to compute dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
