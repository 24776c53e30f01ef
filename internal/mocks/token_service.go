package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
)

// MockTokenService implements auth.TokenService.
type MockTokenService struct {
	IssueFn         func(ctx context.Context, claims auth.Claims, ttl time.Duration) (string, error)
	VerifyFn        func(ctx context.Context, token string) (*auth.Claims, error)
	VerifyPurposeFn func(ctx context.Context, token string, purpose auth.Purpose) (*auth.Claims, error)
	IssueSessionFn  func(ctx context.Context, p *domain.Principal) (string, error)
	IssueResetFn    func(ctx context.Context, p *domain.Principal) (string, error)

	// Defaults used when the matching Fn is nil.
	Token  string
	Claims *auth.Claims
	Err    error

	mu       sync.Mutex
	Consumed []*auth.Claims
}

var _ auth.TokenService = (*MockTokenService)(nil)

func (m *MockTokenService) Issue(ctx context.Context, claims auth.Claims, ttl time.Duration) (string, error) {
	if m.IssueFn != nil {
		return m.IssueFn(ctx, claims, ttl)
	}
	return m.Token, m.Err
}

func (m *MockTokenService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, token)
	}
	return m.Claims, m.Err
}

func (m *MockTokenService) VerifyPurpose(ctx context.Context, token string, purpose auth.Purpose) (*auth.Claims, error) {
	if m.VerifyPurposeFn != nil {
		return m.VerifyPurposeFn(ctx, token, purpose)
	}
	return m.Claims, m.Err
}

func (m *MockTokenService) IssueSession(ctx context.Context, p *domain.Principal) (string, error) {
	if m.IssueSessionFn != nil {
		return m.IssueSessionFn(ctx, p)
	}
	return m.Token, m.Err
}

func (m *MockTokenService) IssueReset(ctx context.Context, p *domain.Principal) (string, error) {
	if m.IssueResetFn != nil {
		return m.IssueResetFn(ctx, p)
	}
	return m.Token, m.Err
}

// Consume records claims in Consumed.
func (m *MockTokenService) Consume(_ context.Context, claims *auth.Claims) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Consumed = append(m.Consumed, claims)
}
