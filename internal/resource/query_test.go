package resource_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
)

func TestParseQuery(t *testing.T) {
	values, err := url.ParseQuery("include=roles,%20roles.permissions,&fields[user]=username,email" +
		"&fields[role]=&filter[s]=%20ali%20&filter[email_end]=example.com&page=2&per_page=%2010&sort=x")
	assert.NoError(t, err)

	q := resource.ParseQuery(values)
	assert.True(t, q.IncludeGiven)
	assert.Equal(t, []string{"roles", "roles.permissions"}, q.Include)
	assert.Equal(t, map[string][]string{"user": {"username", "email"}, "role": {}}, q.Fields)
	assert.Equal(t, " ali ", q.Filter["s"])
	assert.Equal(t, "ali", q.SearchTerm())
	assert.Equal(t, "example.com", q.Filter["email_end"])
	assert.Equal(t, "2", q.Page)
	assert.Equal(t, " 10", q.PerPage)
}

func TestQueryIncludesDefaults(t *testing.T) {
	users, _, _ := testDefinitions()

	absent := resource.ParseQuery(url.Values{})
	assert.False(t, absent.IncludeGiven)
	assert.Equal(t, []string{"roles"}, absent.Includes(users, authz.ActionRead))
	assert.Empty(t, absent.Includes(users, authz.ActionList))

	empty := resource.ParseQuery(url.Values{"include": {""}})
	assert.True(t, empty.IncludeGiven)
	assert.Empty(t, empty.Includes(users, authz.ActionRead))
}

func TestNormalizedIncludes(t *testing.T) {
	assert.Equal(t, []string{"a", "b.c"}, resource.NormalizedIncludes([]string{"b.c", "a", "", "b.c"}))
	assert.Empty(t, resource.NormalizedIncludes(nil))
}

func TestQueryLinkBase(t *testing.T) {
	users, _, _ := testDefinitions()

	link := func(raw string) string {
		values, err := url.ParseQuery(raw)
		assert.NoError(t, err)
		return resource.ParseQuery(values).LinkBase(users, authz.ActionList, "/users").String()
	}

	assert.Equal(t, "/users", link("page=2&per_page=5&sort=x"))
	assert.Equal(t, link("include=roles"), link("include=roles,roles"))
	assert.Equal(t, "/users?include=roles", link("include=roles,%20roles"))
	assert.Equal(t, "/users", link("include="), "empty include matches the list default")
	assert.Equal(t, "/users?fields%5Buser%5D=email%2Cusername", link("fields[user]=username,email"))
	assert.Equal(t, "/users?filter%5Busername_eq%5D=alice", link("filter[username_eq]=%20alice&filter[timezone_eq]=UTC"))
	assert.Equal(t, "/users?filter%5Bs%5D=al", link("filter[s]=%20al%20&filter[email_cont]=%20"))

	assert.Equal(t, "/users?include=", resource.ParseQuery(url.Values{"include": {""}}).
		LinkBase(users, authz.ActionRead, "/users").String(), "explicitly empty include overrides a default")
}
