package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

func userRecord(id, username, email string) *domain.Record {
	r := domain.NewRecord("users")
	r.ID = id
	r.Set("username", username)
	r.Set("email", email)
	return r
}

func TestScopeBuildersDoNotMutateReceiver(t *testing.T) {
	base := NewScope("users")
	filtered := base.WhereEq("username", "alice").Include("roles").OrderBy("username", true).WithDiscarded()

	assert.Empty(t, base.Conditions)
	assert.Empty(t, base.Includes)
	assert.Empty(t, base.Orders)
	assert.False(t, base.IncludeDiscarded)

	assert.Len(t, filtered.Conditions, 1)
	assert.Equal(t, []string{"roles"}, filtered.Includes)
	assert.True(t, filtered.IncludeDiscarded)

	a := filtered.WhereEq("email", "a@example.com")
	b := filtered.WhereEq("email", "b@example.com")
	assert.Equal(t, "a@example.com", a.Conditions[1][0].Value)
	assert.Equal(t, "b@example.com", b.Conditions[1][0].Value)
}

func TestScopeWhereWithoutPredicatesIsNoop(t *testing.T) {
	s := NewScope("users").Where()
	assert.Nil(t, s.Conditions)
}

func TestScopeStable(t *testing.T) {
	s := NewScope("users").Stable()
	require.Len(t, s.Orders, 1)
	assert.Equal(t, Order{Attribute: AttrID}, s.Orders[0])

	s = NewScope("users").OrderBy("username", true).Stable()
	assert.Equal(t, []Order{{Attribute: "username", Desc: true}, {Attribute: AttrID}}, s.Orders)

	s = s.Stable()
	assert.Len(t, s.Orders, 2)
}

func TestScopeWithIDsIntersects(t *testing.T) {
	s := NewScope("users").WithIDs("1", "2", "3").WithIDs("2", "3", "4")
	assert.Equal(t, []string{"2", "3"}, s.IDs)

	empty := NewScope("users").WithIDs()
	assert.NotNil(t, empty.IDs)
	assert.False(t, empty.Matches(userRecord("1", "alice", "a@example.com")))
}

func TestScopeInclude(t *testing.T) {
	s := NewScope("users").Include("roles", "roles", "profile")
	assert.Equal(t, []string{"roles", "profile"}, s.Includes)
}

func TestScopeMatches(t *testing.T) {
	alice := userRecord("1", "Alice", "alice@example.com")
	bob := userRecord("2", "bob", "bob@corp.io")
	gone := userRecord("3", "carol", "carol@example.com")
	gone.Discard(time.Now())

	tests := []struct {
		name  string
		scope Scope
		want  map[string]bool
	}{
		{
			name:  "type only",
			scope: NewScope("users"),
			want:  map[string]bool{"1": true, "2": true, "3": false},
		},
		{
			name:  "with discarded",
			scope: NewScope("users").WithDiscarded(),
			want:  map[string]bool{"1": true, "2": true, "3": true},
		},
		{
			name:  "other type",
			scope: NewScope("roles"),
			want:  map[string]bool{"1": false, "2": false, "3": false},
		},
		{
			name:  "eq is case sensitive",
			scope: NewScope("users").WhereEq("username", "alice"),
			want:  map[string]bool{"1": false, "2": false},
		},
		{
			name: "cont is case insensitive",
			scope: NewScope("users").Where(Predicate{
				Attribute: "username", Op: OpCont, Value: "LIC",
			}),
			want: map[string]bool{"1": true, "2": false},
		},
		{
			name: "or within a condition",
			scope: NewScope("users").Where(
				Predicate{Attribute: "username", Op: OpStart, Value: "bo"},
				Predicate{Attribute: "email", Op: OpEnd, Value: "example.com"},
			),
			want: map[string]bool{"1": true, "2": true},
		},
		{
			name: "and across conditions",
			scope: NewScope("users").
				Where(Predicate{Attribute: "email", Op: OpCont, Value: "@"}).
				Where(Predicate{Attribute: "username", Op: OpNotEq, Value: "bob"}),
			want: map[string]bool{"1": true, "2": false},
		},
		{
			name:  "not_eq matches missing attribute",
			scope: NewScope("users").Where(Predicate{Attribute: "nickname", Op: OpNotEq, Value: "x"}),
			want:  map[string]bool{"1": true},
		},
		{
			name:  "id attribute",
			scope: NewScope("users").WhereEq(AttrID, "2"),
			want:  map[string]bool{"1": false, "2": true},
		},
	}

	records := map[string]*domain.Record{"1": alice, "2": bob, "3": gone}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for id, want := range tt.want {
				assert.Equal(t, want, tt.scope.Matches(records[id]), "record %s", id)
			}
		})
	}
}

func TestScopeValidate(t *testing.T) {
	assert.NoError(t, NewScope("users").WhereEq("username", "a").OrderBy("created_at", true).Validate())
	assert.ErrorIs(t, Scope{}.Validate(), ErrInvalidScope)
	assert.ErrorIs(t, NewScope("users").WhereEq("user'name", "a").Validate(), ErrInvalidScope)
	assert.ErrorIs(t, NewScope("users").Where(Predicate{Attribute: "a", Op: "gt"}).Validate(), ErrInvalidScope)
	assert.ErrorIs(t, NewScope("users").OrderBy("DROP TABLE", false).Validate(), ErrInvalidScope)
}
