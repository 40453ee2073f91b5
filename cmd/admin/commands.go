package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/elskow/portfolio/internal/auth"
	"github.com/elskow/portfolio/internal/config"
	"github.com/elskow/portfolio/internal/cryptox"
	"github.com/elskow/portfolio/internal/database"
)

const minPasswordLength = 8

var errPasswordMismatch = errors.New("passwords do not match")

type commands struct {
	service  *auth.Service
	repo     auth.Repository
	logger   *zap.Logger
	shutdown func()
}

func newCommands(cfg *config.AppConfig, logger *zap.Logger) (*commands, error) {
	manager, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		if err := manager.DB().AutoMigrate(&auth.Account{}); err != nil {
			manager.Close()
			return nil, fmt.Errorf("failed to prepare sqlite schema: %w", err)
		}
	}

	cmds, err := newCommandsWithDB(manager.DB(), &cfg.Auth, logger)
	if err != nil {
		manager.Close()
		return nil, err
	}
	cmds.shutdown = func() { _ = manager.Close() }
	return cmds, nil
}

func newCommandsWithDB(db *gorm.DB, cfg *config.AuthConfig, logger *zap.Logger) (*commands, error) {
	codec, err := cryptox.NewCodec(cfg.SecretKey)
	if err != nil {
		return nil, err
	}

	repo := auth.NewRepository(db)
	return &commands{
		service:  auth.NewService(cfg, logger, repo, codec, clockwork.NewRealClock()),
		repo:     repo,
		logger:   logger,
		shutdown: func() {},
	}, nil
}

func (c *commands) createUser(username, email, password string, isAdmin bool) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if email == "" {
		email = username + "@localhost"
	}

	account, err := c.service.RegisterAccount(username, email, password, isAdmin)
	if err != nil {
		if errors.Is(err, auth.ErrAccountExists) {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	}

	c.logger.Info("account created",
		zap.String("username", account.Username),
		zap.Uint("id", account.ID),
		zap.Bool("admin", account.IsAdmin))
	return nil
}

func (c *commands) unlock(username string) error {
	account, err := c.repo.GetAccountByUsername(username)
	if err != nil {
		return err
	}
	if err := c.service.ClearLockouts(account); err != nil {
		return err
	}

	c.logger.Info("lockouts cleared", zap.String("username", username))
	return nil
}

func (c *commands) resetMFA(username string) error {
	account, err := c.repo.GetAccountByUsername(username)
	if err != nil {
		return err
	}
	if err := c.service.ResetMFA(account); err != nil {
		return err
	}

	c.logger.Info("mfa reset, enrollment required on next login", zap.String("username", username))
	return nil
}

// readPassword takes the password from the environment, from the terminal
// with confirmation, or from the first line of a non-terminal stdin.
func readPassword(in *os.File, out io.Writer) (string, error) {
	if pw := os.Getenv("PORTFOLIO_ADMIN_PASSWORD"); pw != "" {
		return pw, nil
	}

	if !term.IsTerminal(int(in.Fd())) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	first, err := promptPassword(in, out, "Password: ")
	if err != nil {
		return "", err
	}
	second, err := promptPassword(in, out, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPasswordMismatch
	}
	return first, nil
}

func promptPassword(in *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	pw, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
