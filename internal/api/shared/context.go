package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

// ContextKey namespaces request context values.
type ContextKey string

const (
	// TraceIDKey holds the request trace id.
	TraceIDKey ContextKey = "traceID"

	// PrincipalKey holds the authenticated *domain.Principal.
	PrincipalKey ContextKey = "principal"

	// TraceIDLength is the number of random bytes in a trace id.
	TraceIDLength = 16
)

// SetTraceID stores a fresh trace id in ctx.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the trace id stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// WithPrincipal stores the authenticated principal in ctx.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFrom returns the principal stored in ctx, nil for anonymous
// requests.
func PrincipalFrom(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(PrincipalKey).(*domain.Principal)
	return p
}

// generateTraceID returns 32 hex characters, falling back to a random uuid
// when the system source fails.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		u := uuid.New()
		return hex.EncodeToString(u[:])
	}
	return hex.EncodeToString(b)
}
