package auth

import (
	"time"
)

type Account struct {
	ID                  uint       `gorm:"primaryKey"`
	Username            string     `gorm:"uniqueIndex;size:50;not null"`
	Email               string     `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash        string     `gorm:"size:255;not null"`
	TOTPSecretEncrypted []byte     `gorm:"column:totp_secret_encrypted"`
	BackupCodesHash     []string   `gorm:"column:backup_codes_hash;type:text;serializer:json"`
	IsAdmin             bool       `gorm:"not null;default:false"`
	MFAPassed           bool       `gorm:"column:mfa_passed;not null;default:false"`
	MFASetupCompleted   bool       `gorm:"column:mfa_setup_completed;not null;default:false"`
	LastLogin           *time.Time `gorm:"column:last_login"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;not null;default:0"`
	LoginLockedUntil    *time.Time `gorm:"column:login_locked_until"`
	FailedMFAAttempts   int        `gorm:"column:failed_mfa_attempts;not null;default:0"`
	MFALockedUntil      *time.Time `gorm:"column:mfa_locked_until"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// Label identifies the account inside authenticator apps.
func (a *Account) Label() string {
	if a.Email != "" {
		return a.Email
	}
	return a.Username
}

func (a *Account) HasTOTPSecret() bool {
	return len(a.TOTPSecretEncrypted) > 0
}
