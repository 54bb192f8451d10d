package service

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is a one-way hash plus verify capability. Stored hashes are
// never compared directly.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
