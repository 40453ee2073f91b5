package auth

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// Repository is the credential store. Persist commits every field of an
// account loaded earlier in the same operation.
type Repository interface {
	CreateAccount(account *Account) error
	GetAccountByUsername(username string) (*Account, error)
	GetAccountByID(id uint) (*Account, error)
	Persist(account *Account) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAccount(account *Account) error {
	var count int64
	if err := r.db.Model(&Account{}).
		Where("username = ? OR email = ?", account.Username, account.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAccountExists
	}

	return r.db.Create(account).Error
}

func (r *repository) GetAccountByUsername(username string) (*Account, error) {
	var account Account
	if err := r.db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) GetAccountByID(id uint) (*Account, error) {
	var account Account
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) Persist(account *Account) error {
	if account.ID == 0 {
		return ErrAccountNotFound
	}
	return r.db.Save(account).Error
}
