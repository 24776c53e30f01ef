package auth

import (
	"errors"
	"fmt"
	"strings"
)

// TokenErrorKind classifies a verification failure. The values double as the
// machine-readable error names rendered to clients.
type TokenErrorKind string

const (
	KindExpired      TokenErrorKind = "ExpiredToken"
	KindMalformed    TokenErrorKind = "MalformedToken"
	KindBadSignature TokenErrorKind = "BadSignature"
	KindRevoked      TokenErrorKind = "RevokedToken"
)

// Sentinels matched by errors.Is against a *TokenError of the same kind.
var (
	ErrExpiredToken   = errors.New("signature has expired")
	ErrMalformedToken = errors.New("not enough or too many segments")
	ErrBadSignature   = errors.New("signature verification failed")
	ErrRevokedToken   = errors.New("token has already been used")

	// ErrMissingSecret is returned at construction when no signing secret is configured.
	ErrMissingSecret = errors.New("jwt secret must be at least 32 characters")
)

// TokenError is the typed outcome of a failed verification.
type TokenError struct {
	Kind  TokenErrorKind
	Cause error
}

func newTokenError(kind TokenErrorKind, cause error) *TokenError {
	return &TokenError{Kind: kind, Cause: cause}
}

func (e *TokenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.sentinel(), e.Cause)
	}
	return e.sentinel().Error()
}

// Message is the client-safe description of the failure.
func (e *TokenError) Message() string {
	msg := e.sentinel().Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (e *TokenError) Unwrap() error {
	return e.sentinel()
}

func (e *TokenError) sentinel() error {
	switch e.Kind {
	case KindExpired:
		return ErrExpiredToken
	case KindBadSignature:
		return ErrBadSignature
	case KindRevoked:
		return ErrRevokedToken
	default:
		return ErrMalformedToken
	}
}
