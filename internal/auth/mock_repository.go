package auth

import (
	"sync"
)

type mockRepository struct {
	accounts map[uint]*Account
	nextID   uint
	persists int
	failWith error
	mu       sync.RWMutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts: make(map[uint]*Account),
		nextID:   1,
	}
}

func (r *mockRepository) CreateAccount(account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWith != nil {
		return r.failWith
	}

	for _, existing := range r.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return ErrAccountExists
		}
	}

	account.ID = r.nextID
	r.nextID++
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *mockRepository) GetAccountByUsername(username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failWith != nil {
		return nil, r.failWith
	}

	for _, account := range r.accounts {
		if account.Username == username {
			return cloneAccount(account), nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *mockRepository) GetAccountByID(id uint) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failWith != nil {
		return nil, r.failWith
	}

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (r *mockRepository) Persist(account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWith != nil {
		return r.failWith
	}
	if _, exists := r.accounts[account.ID]; !exists {
		return ErrAccountNotFound
	}

	r.persists++
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

// stored returns the committed state, ignoring in-memory mutations that were
// never persisted.
func (r *mockRepository) stored(id uint) *Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAccount(r.accounts[id])
}

// Clone the account to prevent external modifications
func cloneAccount(a *Account) *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.TOTPSecretEncrypted != nil {
		c.TOTPSecretEncrypted = append([]byte(nil), a.TOTPSecretEncrypted...)
	}
	if a.BackupCodesHash != nil {
		c.BackupCodesHash = append([]string(nil), a.BackupCodesHash...)
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		c.LastLogin = &t
	}
	if a.LoginLockedUntil != nil {
		t := *a.LoginLockedUntil
		c.LoginLockedUntil = &t
	}
	if a.MFALockedUntil != nil {
		t := *a.MFALockedUntil
		c.MFALockedUntil = &t
	}
	return &c
}
