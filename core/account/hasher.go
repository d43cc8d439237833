package account

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns passwords into one-way hashes and checks candidates against them.
type Hasher interface {
	Hash(pwd string) ([]byte, error)
	Compare(hash []byte, pwd string) (bool, error)
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher using bcrypt with `cost`, or bcrypt.DefaultCost when out of range.
func NewBcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcryptHasher{cost: cost}
}

func (h bcryptHasher) Hash(pwd string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), h.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}
	return hash, nil
}

// Compare returns false without error on mismatch; errors mean the stored hash is unusable.
func (h bcryptHasher) Compare(hash []byte, pwd string) (bool, error) {
	switch err := bcrypt.CompareHashAndPassword(hash, []byte(pwd)); err {
	case nil:
		return true, nil
	case bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, errors.Wrap(err, "comparing password")
	}
}
