package auth

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/portfolio/internal/config"
	"github.com/elskow/portfolio/internal/cryptox"
)

const testPassword = "correct-horse-battery"

var testEpoch = time.Date(2024, time.March, 1, 12, 0, 15, 0, time.UTC)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		SecretKey:          "test-master-secret",
		JWTSecret:          "test-jwt-secret",
		TokenExpiration:    time.Hour,
		MFATokenExpiration: 10 * time.Minute,
		TOTPIssuer:         "portfolio_blog",
		BcryptCost:         bcrypt.MinCost,
		BackupCodeCount:    8,
	}
}

type testEnv struct {
	svc   *Service
	repo  *mockRepository
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := newTestConfig()
	codec, err := cryptox.NewCodec(cfg.SecretKey)
	require.NoError(t, err)

	repo := newMockRepository()
	clock := clockwork.NewFakeClockAt(testEpoch)

	return &testEnv{
		svc:   NewService(cfg, newTestLogger(t), repo, codec, clock),
		repo:  repo,
		clock: clock,
	}
}

func (e *testEnv) createAccount(t *testing.T, username string, isAdmin bool) *Account {
	t.Helper()

	account, err := e.svc.RegisterAccount(username, username+"@example.com", testPassword, isAdmin)
	require.NoError(t, err)
	return account
}

// reload returns the committed copy of the account.
func (e *testEnv) reload(t *testing.T, account *Account) *Account {
	t.Helper()

	stored := e.repo.stored(account.ID)
	require.NotNil(t, stored)
	return stored
}
