package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier interface {
	// Compare returns nil when password matches hashedPassword.
	Compare(hashedPassword, password string) error
}

// PasswordHasher produces storable password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// BcryptVerifier implements PasswordVerifier and PasswordHasher with bcrypt.
// bcrypt's comparison runs in constant time with respect to the candidate.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier returns a bcrypt hasher/verifier at the default cost.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{cost: bcrypt.DefaultCost}
}

// NewBcryptVerifierWithCost returns a verifier hashing at cost. Tests use a
// low cost to keep hashing fast.
func NewBcryptVerifierWithCost(cost int) *BcryptVerifier {
	return &BcryptVerifier{cost: cost}
}

func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (v *BcryptVerifier) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
