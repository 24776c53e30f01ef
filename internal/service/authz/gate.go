package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// Target is what the gate needs to know about a resource type.
type Target interface {
	TypeName() string
	IsPublic(action Action) bool
	AccessPolicy() Policy
}

// Gate applies the anonymous-access rule and then the target's policy.
type Gate struct {
	logger *slog.Logger
}

// NewGate returns a gate logging denials through logger.
func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{logger: logger.With("component", "authz_gate")}
}

// Authorize allows public actions unconditionally, denies everything else to
// an anonymous caller with domain.ErrAccessDenied, and otherwise defers to the
// target's policy, whose denials carry domain.ErrNotAuthorized.
func (g *Gate) Authorize(ctx context.Context, t Target, p *domain.Principal, action Action, r *domain.Record) error {
	if t.IsPublic(action) {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, g.logger)
	if p == nil {
		log.Debug("access denied to anonymous caller", "resource", t.TypeName(), "action", action)
		return domain.ErrAccessDenied
	}
	policy := t.AccessPolicy()
	if policy == nil {
		return nil
	}
	if err := policy.Authorize(ctx, p, action, r); err != nil {
		log.Debug("policy denied action",
			"resource", t.TypeName(),
			"action", action,
			"principal_id", p.ID,
			"error", err)
		if !errors.Is(err, domain.ErrNotAuthorized) {
			return fmt.Errorf("%w: %v", domain.ErrNotAuthorized, err)
		}
		return err
	}
	return nil
}

// VisibleScope narrows a listing scope through the target's policy. Anonymous
// callers of a public listing get scope unchanged.
func (g *Gate) VisibleScope(ctx context.Context, t Target, p *domain.Principal, scope store.Scope) store.Scope {
	policy := t.AccessPolicy()
	if p == nil || policy == nil {
		return scope
	}
	return policy.VisibleScope(ctx, p, scope)
}
