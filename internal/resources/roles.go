package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

var rolePermitted = []string{"name", "description"}

// Roles returns the roles resource. Roles are hard deleted, which is refused
// while a live user still holds the role.
func Roles() *resource.Definition {
	return &resource.Definition{
		Type:       "roles",
		Singular:   "role",
		Name:       "Role",
		Attributes: []string{"name", "description"},
		Searchable: []string{"name", "description"},
		Actions: map[authz.Action]resource.ActionConfig{
			authz.ActionList:   {},
			authz.ActionNew:    {},
			authz.ActionCreate: {Permitted: rolePermitted},
			authz.ActionRead:   {},
			authz.ActionUpdate: {Permitted: rolePermitted},
			authz.ActionDelete: {},
		},
		Validate: validateRole,
		Deletion: resource.DeleteHard,
	}
}

func validateRole(ctx context.Context, st store.EntityStore, r *domain.Record, _ resource.Input) (*domain.ValidationErrors, error) {
	v := domain.NewValidationErrors()
	name := strings.TrimSpace(r.GetString("name"))
	if name == "" {
		v.Add("name", "can't be blank")
		return v, nil
	}

	// Case-insensitive uniqueness: narrow with cont, then compare exactly.
	scope := store.NewScope(r.Type).
		Where(store.Predicate{Attribute: "name", Op: store.OpCont, Value: name}).
		Where(store.Predicate{Attribute: store.AttrID, Op: store.OpNotEq, Value: r.ID})
	candidates, err := st.List(ctx, scope.Stable(), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check role name uniqueness: %w", err)
	}
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c.GetString("name")), name) {
			v.Add("name", "has already been taken")
			break
		}
	}
	return v, nil
}
