package resource_test

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

func TestPageNumber(t *testing.T) {
	for raw, want := range map[string]int{"": 1, "0": 1, "-3": 1, "abc": 1, "1": 1, " 4 ": 4, "2.5": 1} {
		assert.Equal(t, want, resource.PageNumber(raw), "raw %q", raw)
	}
}

func TestPerPageReplacesOutOfRangeValues(t *testing.T) {
	p := resource.NewPaginator(100)
	tests := map[string]int{
		"":     100,
		"0":    100,
		"-1":   100,
		"abc":  100,
		"1":    1,
		"50":   50,
		"100":  100,
		"101":  100,
		"1000": 100,
	}
	for raw, want := range tests {
		assert.Equal(t, want, p.PerPage(raw), "raw %q", raw)
	}
	assert.Equal(t, resource.DefaultPageLimit, resource.NewPaginator(0).Limit)
}

func TestPaginate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		f.create(t, "users", fmt.Sprintf("u%d", i), map[string]any{"username": fmt.Sprintf("user%d", 8-i)}, nil)
	}
	p := resource.NewPaginator(3)
	scope := store.NewScope("users").OrderBy("username", false)

	first, err := p.Paginate(ctx, f.store, scope, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 3, first.PerPage)
	assert.Equal(t, 3, first.Count)
	assert.Equal(t, 7, first.TotalCount)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, []string{"u7", "u6", "u5"}, ids(first.Records))

	last, err := p.Paginate(ctx, f.store, scope, "3", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids(last.Records))

	beyond, err := p.Paginate(ctx, f.store, scope, "99999999999", "")
	require.NoError(t, err)
	assert.Empty(t, beyond.Records)
	assert.Equal(t, 7, beyond.TotalCount)
	assert.Equal(t, 99999999999, beyond.Page)

	overflow, err := p.Paginate(ctx, f.store, scope, "99999999999999999999", "")
	require.NoError(t, err)
	assert.Equal(t, 1, overflow.Page, "unparseable page numbers fall back to the first page")

	past, err := p.Paginate(ctx, f.store, scope, "9", "")
	require.NoError(t, err)
	assert.Empty(t, past.Records)
	assert.NotNil(t, past.Records)
}

func TestPaginateNeverExceedsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		f.create(t, "roles", fmt.Sprintf("r%02d", i), map[string]any{"name": strconv.Itoa(i)}, nil)
	}
	p := resource.NewPaginator(5)

	for _, raw := range []string{"", "-5", "0", "1", "4", "5", "6", "12", "1000", "x"} {
		page, err := p.Paginate(ctx, f.store, store.NewScope("roles"), "1", raw)
		require.NoError(t, err)
		assert.LessOrEqual(t, page.Count, 5, "per_page %q", raw)
		assert.LessOrEqual(t, page.PerPage, 5, "per_page %q", raw)
	}
}

func TestPaginateEmptyScope(t *testing.T) {
	f := newFixture(t)
	page, err := resource.NewPaginator(10).Paginate(context.Background(), f.store, store.NewScope("roles"), "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Records)
}

func TestPageLinks(t *testing.T) {
	base, err := url.Parse("http://api.test/api/users?filter%5Bs%5D=al&page=2&per_page=2")
	require.NoError(t, err)

	pg := &resource.Page{Page: 2, PerPage: 2, TotalPages: 3}
	links := pg.Links(base)
	assert.Equal(t, "/api/users?filter%5Bs%5D=al&page=2&per_page=2", links.Self)
	assert.Equal(t, "/api/users?filter%5Bs%5D=al&page=1&per_page=2", links.First)
	assert.Equal(t, "/api/users?filter%5Bs%5D=al&page=1&per_page=2", links.Prev)
	assert.Equal(t, "/api/users?filter%5Bs%5D=al&page=3&per_page=2", links.Next)
	assert.Equal(t, "/api/users?filter%5Bs%5D=al&page=3&per_page=2", links.Last)

	only := (&resource.Page{Page: 1, PerPage: 10, TotalPages: 1}).Links(base)
	assert.Empty(t, only.Prev)
	assert.Empty(t, only.Next)

	assert.Nil(t, pg.Links(nil))

	meta := pg.Meta()
	assert.Equal(t, 2, meta["page"])
	assert.Equal(t, 3, meta["total_pages"])
}
