package filestore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
)

// accountRecord is the on-disk shape of an account, credentials included.
type accountRecord struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"passwordHash"`
	Verified         bool       `json:"verified"`
	VerificationCode *string    `json:"verificationCode"`
	CodeIssuedAt     *time.Time `json:"codeIssuedAt"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	Organization     string     `json:"organization"`
	CreatedAt        time.Time  `json:"createdAt"`
	VerifiedAt       *time.Time `json:"verifiedAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	LastLogin        *time.Time `json:"lastLogin"`
	Version          int        `json:"version"`
}

type accountRepository struct {
	db *collection[accountRecord]
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db.accounts}
}

func (repo accountRepository) toRecord(acc account.Account) accountRecord {
	rec := accountRecord{
		ID:           acc.ID,
		Name:         acc.Name,
		Email:        acc.Email,
		PasswordHash: string(acc.PasswordHash),
		Verified:     acc.Verified,
		CodeIssuedAt: acc.CodeIssuedAt,
		Role:         acc.Role.String(),
		Status:       acc.Status.String(),
		Organization: acc.Organization,
		CreatedAt:    acc.CreatedAt.UTC(),
		VerifiedAt:   acc.VerifiedAt,
		UpdatedAt:    acc.UpdatedAt.UTC(),
		LastLogin:    acc.LastLogin,
		Version:      acc.Version,
	}
	if acc.VerificationCode != "" {
		code := acc.VerificationCode
		rec.VerificationCode = &code
	}
	return rec
}

func (repo accountRepository) fromRecord(rec accountRecord) account.Account {
	acc := account.Account{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: []byte(rec.PasswordHash),
		Verified:     rec.Verified,
		CodeIssuedAt: rec.CodeIssuedAt,
		Role:         authz.Role(rec.Role),
		Status:       account.Status(rec.Status),
		Organization: rec.Organization,
		CreatedAt:    rec.CreatedAt,
		VerifiedAt:   rec.VerifiedAt,
		UpdatedAt:    rec.UpdatedAt,
		LastLogin:    rec.LastLogin,
		Version:      rec.Version,
	}
	if rec.VerificationCode != nil {
		acc.VerificationCode = *rec.VerificationCode
	}
	if acc.Role == "" {
		acc.Role = authz.RoleStudent
	}
	if acc.Status == "" {
		acc.Status = account.StatusActive
	}
	return acc
}

func (repo accountRepository) find(match func(rec accountRecord) bool) (account.Account, error) {
	var (
		acc   account.Account
		found bool
	)
	err := repo.db.view(func(recs []accountRecord) error {
		for _, rec := range recs {
			if match(rec) {
				acc, found = repo.fromRecord(rec), true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return account.Account{}, err
	}
	if !found {
		return account.Account{}, account.ErrNotFound
	}
	return acc, nil
}

func (repo accountRepository) CreateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	acc.ID = uuid.New().String()
	acc.Version = 1
	err := repo.db.update(func(recs []accountRecord) ([]accountRecord, error) {
		for _, rec := range recs {
			if rec.Email == acc.Email {
				return nil, account.ErrEmailExists
			}
		}
		return append(recs, repo.toRecord(acc)), nil
	})
	if err != nil {
		return account.Account{}, err
	}
	return acc, nil
}

func (repo accountRepository) GetAccountByID(_ context.Context, id string) (account.Account, error) {
	return repo.find(func(rec accountRecord) bool { return rec.ID == id })
}

func (repo accountRepository) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	return repo.find(func(rec accountRecord) bool { return rec.Email == email })
}

func (repo accountRepository) QueryAllAccounts(_ context.Context) ([]account.Account, error) {
	var accs []account.Account
	err := repo.db.view(func(recs []accountRecord) error {
		accs = make([]account.Account, 0, len(recs))
		for _, rec := range recs {
			accs = append(accs, repo.fromRecord(rec))
		}
		return nil
	})
	return accs, err
}

func (repo accountRepository) UpdateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	err := repo.db.update(func(recs []accountRecord) ([]accountRecord, error) {
		for i, rec := range recs {
			if rec.ID != acc.ID {
				continue
			}
			if rec.Version != acc.Version {
				return nil, account.ErrStaleAccount
			}
			acc.Version++
			recs[i] = repo.toRecord(acc)
			return recs, nil
		}
		return nil, account.ErrNotFound
	})
	if err != nil {
		return account.Account{}, err
	}
	return acc, nil
}
