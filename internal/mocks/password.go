package mocks

import (
	"errors"

	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
)

// ErrPasswordMismatch is returned by MockPasswordVerifier on a failed compare.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier implements auth.PasswordVerifier and
// auth.PasswordHasher. Hash prefixes the password with "hashed:" and Compare
// accepts exactly that form unless CompareFn overrides it.
type MockPasswordVerifier struct {
	CompareFn func(hashedPassword, password string) error
	HashFn    func(password string) (string, error)

	CompareCallCount int
}

var (
	_ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)
	_ auth.PasswordHasher   = (*MockPasswordVerifier)(nil)
)

func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCallCount++
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if hashedPassword != "hashed:"+password {
		return ErrPasswordMismatch
	}
	return nil
}

func (m *MockPasswordVerifier) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return "hashed:" + password, nil
}
