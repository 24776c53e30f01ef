package auth

import (
	"context"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

// Purpose restricts where a token may be used.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "reset"
)

// SessionTokenLifetime is the default lifetime of a login token.
const SessionTokenLifetime = 7 * 24 * time.Hour

// Claims is the verified content of a token.
type Claims struct {
	SubjectID     string
	SubjectHandle string
	Purpose       Purpose
	// Extra carries caller-defined claims through the token unchanged.
	Extra     map[string]string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// TokenService issues and verifies signed, expiring tokens.
type TokenService interface {
	// Issue signs claims with an absolute expiry ttl from now. IssuedAt,
	// ExpiresAt and ID on the input are ignored and set by the service.
	Issue(ctx context.Context, claims Claims, ttl time.Duration) (string, error)

	// Verify returns the claims of a valid token or a *TokenError.
	Verify(ctx context.Context, token string) (*Claims, error)

	// VerifyPurpose is Verify plus a purpose check; a mismatch is a
	// MalformedToken error.
	VerifyPurpose(ctx context.Context, token string, purpose Purpose) (*Claims, error)

	// IssueSession issues a session token carrying the principal's id and handle.
	IssueSession(ctx context.Context, p *domain.Principal) (string, error)

	// IssueReset issues a reset token carrying only the principal's id.
	IssueReset(ctx context.Context, p *domain.Principal) (string, error)

	// Consume marks a token spent. Later verification of the same token
	// fails with RevokedToken until the token would have expired anyway.
	Consume(ctx context.Context, claims *Claims)
}
