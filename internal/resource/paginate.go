package resource

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// DefaultPageLimit is used when a Paginator is built without a limit.
const DefaultPageLimit = 100

// Page is one slice of a scope.
type Page struct {
	Records    []*domain.Record
	Page       int
	PerPage    int
	Count      int
	TotalCount int
	TotalPages int
}

// Paginator slices scopes into pages of at most Limit records.
type Paginator struct {
	Limit int
}

// NewPaginator returns a paginator; a non-positive limit selects
// DefaultPageLimit.
func NewPaginator(limit int) Paginator {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return Paginator{Limit: limit}
}

// PageNumber parses a raw page parameter. Absent, non-numeric and values
// below one select the first page.
func PageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PerPage parses a raw per_page parameter. Any value outside [1, Limit] is
// replaced by Limit rather than clamped.
func (p Paginator) PerPage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > p.Limit {
		return p.Limit
	}
	return n
}

// Paginate counts scope and loads the requested page. The scope is made
// stable first so consecutive pages never overlap.
func (p Paginator) Paginate(ctx context.Context, st store.EntityStore, scope store.Scope, rawPage, rawPerPage string) (*Page, error) {
	page := PageNumber(rawPage)
	perPage := p.PerPage(rawPerPage)

	total, err := st.Count(ctx, scope)
	if err != nil {
		return nil, err
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	records := []*domain.Record{}
	if page <= totalPages && total > 0 {
		records, err = st.List(ctx, scope.Stable(), (page-1)*perPage, perPage)
		if err != nil {
			return nil, err
		}
	}

	return &Page{
		Records:    records,
		Page:       page,
		PerPage:    perPage,
		Count:      len(records),
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// Links are the JSON:API pagination links.
type Links struct {
	Self  string `json:"self"`
	First string `json:"first"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last"`
}

// Links builds pagination links by rewriting page and per_page on base.
func (pg *Page) Links(base *url.URL) *Links {
	if base == nil {
		return nil
	}
	at := func(n int) string {
		u := *base
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		q.Set("per_page", strconv.Itoa(pg.PerPage))
		u.RawQuery = q.Encode()
		return u.RequestURI()
	}
	links := &Links{
		Self:  at(pg.Page),
		First: at(1),
		Last:  at(pg.TotalPages),
	}
	if pg.Page > 1 && pg.Page <= pg.TotalPages+1 {
		links.Prev = at(pg.Page - 1)
	}
	if pg.Page < pg.TotalPages {
		links.Next = at(pg.Page + 1)
	}
	return links
}

// Meta returns the pagination figures rendered under meta.
func (pg *Page) Meta() map[string]any {
	return map[string]any{
		"page":        pg.Page,
		"per_page":    pg.PerPage,
		"count":       pg.Count,
		"total_count": pg.TotalCount,
		"total_pages": pg.TotalPages,
	}
}
