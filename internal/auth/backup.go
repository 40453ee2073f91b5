package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultBackupCodeCount = 8
	backupCodeBytes        = 4 // 8 hex chars
)

// GenerateBackupCodes returns n fresh codes in plaintext. Only their hashes
// are ever stored, so the caller must show them to the user once.
func (s *Service) GenerateBackupCodes(n int) ([]string, error) {
	if n <= 0 {
		n = s.config.BackupCodeCount
	}
	if n <= 0 {
		n = defaultBackupCodeCount
	}

	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, backupCodeBytes)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes = append(codes, hex.EncodeToString(buf))
	}
	return codes, nil
}

// SetBackupCodes replaces every stored backup code with hashes of codes.
func (s *Service) SetBackupCodes(account *Account, codes []string) error {
	hashes := make([]string, 0, len(codes))
	for _, code := range codes {
		hash, err := s.hasher.Hash(normalizeBackupCode(code))
		if err != nil {
			return err
		}
		hashes = append(hashes, hash)
	}

	account.BackupCodesHash = hashes
	if err := s.repository.Persist(account); err != nil {
		return fmt.Errorf("failed to store backup codes: %w", err)
	}

	s.log.Info("backup codes issued",
		zap.String("username", account.Username),
		zap.Int("count", len(hashes)))
	return nil
}

// ConsumeBackupCode removes the first stored hash matching code. The
// remaining codes keep their order.
func (s *Service) ConsumeBackupCode(account *Account, code string) (bool, error) {
	if len(account.BackupCodesHash) == 0 {
		return false, nil
	}

	normalized := normalizeBackupCode(code)
	if normalized == "" {
		return false, nil
	}

	idx := -1
	for i, hash := range account.BackupCodesHash {
		if s.hasher.Verify(normalized, hash) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	remaining := make([]string, 0, len(account.BackupCodesHash)-1)
	remaining = append(remaining, account.BackupCodesHash[:idx]...)
	remaining = append(remaining, account.BackupCodesHash[idx+1:]...)
	account.BackupCodesHash = remaining

	if err := s.repository.Persist(account); err != nil {
		return false, fmt.Errorf("failed to consume backup code: %w", err)
	}

	s.log.Info("backup code consumed",
		zap.String("username", account.Username),
		zap.Int("remaining", len(remaining)))
	return true, nil
}

func normalizeBackupCode(code string) string {
	return strings.ToLower(strings.Join(strings.Fields(code), ""))
}
