package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

type BcryptHasher struct {
	cost int
}

var _ ports.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher uses bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns account.ErrPasswordInvalid for passwords bcrypt cannot hash.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", account.ErrPasswordInvalid
	}
	if err != nil {
		return "", errs.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// Compare returns account.ErrBadCredentials on mismatch and
// account.ErrPasswordInvalid for an unhashable password.
func (h *BcryptHasher) Compare(hash string, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return account.ErrBadCredentials
	}
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return account.ErrPasswordInvalid
	}
	if err != nil {
		return errs.Wrap(err, "compare password hash")
	}
	return nil
}
