package authz

import (
	"context"
	"fmt"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// Action names a pipeline operation.
type Action string

const (
	ActionList   Action = "list"
	ActionNew    Action = "new"
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy is the per-resource-type authorization rule set. Authorize is only
// consulted for a resolved principal.
type Policy interface {
	// Authorize returns nil to allow, or an error wrapping
	// domain.ErrNotAuthorized to deny.
	Authorize(ctx context.Context, p *domain.Principal, action Action, r *domain.Record) error

	// VisibleScope narrows a listing scope to the records p may see.
	VisibleScope(ctx context.Context, p *domain.Principal, base store.Scope) store.Scope
}

// DefaultPolicy lets any authenticated principal do anything and see
// everything.
type DefaultPolicy struct{}

func (DefaultPolicy) Authorize(context.Context, *domain.Principal, Action, *domain.Record) error {
	return nil
}

func (DefaultPolicy) VisibleScope(_ context.Context, _ *domain.Principal, base store.Scope) store.Scope {
	return base
}

// OwnerPolicy restricts the listed actions to records owned by the principal.
// Ownership compares OwnerAttribute with the principal id; an empty
// OwnerAttribute means the record is the principal itself. Listing is
// unrestricted unless RestrictListing is set.
type OwnerPolicy struct {
	OwnerAttribute  string
	Restricted      []Action
	RestrictListing bool
}

func (o OwnerPolicy) Authorize(_ context.Context, p *domain.Principal, action Action, r *domain.Record) error {
	if !o.restricts(action) || r == nil {
		return nil
	}
	if o.owner(r) == p.ID {
		return nil
	}
	return fmt.Errorf("%w: %s %s %s", domain.ErrNotAuthorized, action, r.Type, r.ID)
}

func (o OwnerPolicy) VisibleScope(_ context.Context, p *domain.Principal, base store.Scope) store.Scope {
	if !o.RestrictListing {
		return base
	}
	if o.OwnerAttribute == "" {
		return base.WithIDs(p.ID)
	}
	return base.WhereEq(o.OwnerAttribute, p.ID)
}

func (o OwnerPolicy) owner(r *domain.Record) string {
	if o.OwnerAttribute == "" {
		return r.ID
	}
	return r.GetString(o.OwnerAttribute)
}

func (o OwnerPolicy) restricts(action Action) bool {
	for _, a := range o.Restricted {
		if a == action {
			return true
		}
	}
	return false
}
