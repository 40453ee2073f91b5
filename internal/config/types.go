package config

import (
	"errors"
	"time"
)

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "postgres" or "sqlite"
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite only
	LogLevel string `mapstructure:"log_level"`
}

type AuthConfig struct {
	// SecretKey is the master secret the TOTP seed encryption key is derived from.
	SecretKey          string        `mapstructure:"secret_key"`
	JWTSecret          string        `mapstructure:"jwt_secret"`
	TokenExpiration    time.Duration `mapstructure:"token_expiration"`
	MFATokenExpiration time.Duration `mapstructure:"mfa_token_expiration"`
	TOTPIssuer         string        `mapstructure:"totp_issuer"`
	BcryptCost         int           `mapstructure:"bcrypt_cost"`
	BackupCodeCount    int           `mapstructure:"backup_code_count"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
}

type MediaConfig struct {
	Platform       string   `mapstructure:"platform"` // "static" or "s3"
	StaticPath     string   `mapstructure:"static_path"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	MaxWidth       int      `mapstructure:"max_width"`
	MaxHeight      int      `mapstructure:"max_height"`
	S3             S3Config `mapstructure:"s3"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Media    MediaConfig    `mapstructure:"media"`
}

// Validate reports the first missing or malformed required setting.
func (c *AppConfig) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database.host and database.name are required for postgres")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	default:
		return errors.New("database.driver must be 'postgres' or 'sqlite'")
	}

	if c.Auth.SecretKey == "" {
		return errors.New("auth.secret_key is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}

	switch c.Media.Platform {
	case "static":
		if c.Media.StaticPath == "" {
			return errors.New("media.static_path is required for the static platform")
		}
	case "s3":
		if c.Media.S3.Bucket == "" {
			return errors.New("media.s3.bucket is required for the s3 platform")
		}
	default:
		return errors.New("media.platform must be 'static' or 's3'")
	}

	return nil
}
