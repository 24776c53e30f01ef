package resource_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/platform/memory"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

func testDefinitions() (*resource.Definition, *resource.Definition, *resource.Definition) {
	users := &resource.Definition{
		Type:       "users",
		Singular:   "user",
		Name:       "User",
		Attributes: []string{"username", "email", "timezone", "password_digest", "external_id", "reset_token"},
		Exposed:    []string{"external_id"},
		Searchable: []string{"username", "email"},
		Relationships: []resource.Relationship{
			{Name: "roles", Target: "roles", InputKey: "role_ids"},
		},
		EagerLoadable: []string{"roles"},
		Actions: map[authz.Action]resource.ActionConfig{
			authz.ActionList:   {},
			authz.ActionRead:   {DefaultIncludes: []string{"roles"}},
			authz.ActionCreate: {Permitted: []string{"username", "email", "role_ids"}},
		},
	}
	roles := &resource.Definition{
		Type:       "roles",
		Singular:   "role",
		Name:       "Role",
		Attributes: []string{"name"},
		Searchable: []string{"name"},
		Relationships: []resource.Relationship{
			{Name: "permissions", Target: "permissions"},
		},
		Actions: map[authz.Action]resource.ActionConfig{authz.ActionList: {}},
	}
	permissions := &resource.Definition{
		Type:       "permissions",
		Singular:   "permission",
		Name:       "Permission",
		Attributes: []string{"code"},
		Actions:    map[authz.Action]resource.ActionConfig{},
	}
	return users, roles, permissions
}

type fixture struct {
	store    *memory.Store
	registry *resource.Registry
	users    *resource.Definition
	roles    *resource.Definition
}

// clock advances one second per reading so every write gets a distinct stamp.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users, roles, permissions := testDefinitions()
	reg, err := resource.NewRegistry(users, roles, permissions)
	require.NoError(t, err)
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return &fixture{
		store:    memory.NewStoreWithClock(c.Now),
		registry: reg,
		users:    users,
		roles:    roles,
	}
}

func (f *fixture) create(t *testing.T, recordType, id string, attrs map[string]any, rels map[string][]string) *domain.Record {
	t.Helper()
	r := domain.NewRecord(recordType)
	r.ID = id
	for k, v := range attrs {
		r.Set(k, v)
	}
	for k, v := range rels {
		r.SetRelated(k, v)
	}
	require.NoError(t, f.store.Create(context.Background(), r))
	return r
}

func storeScope(recordType string) store.Scope {
	return store.NewScope(recordType)
}
