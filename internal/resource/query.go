package resource

import (
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
)

// Query is the request-shaping part of a resource request.
type Query struct {
	// Include holds the requested include paths. IncludeGiven distinguishes
	// an absent parameter, which selects the action's default includes, from
	// an explicitly empty one, which selects none.
	Include      []string
	IncludeGiven bool
	// Fields maps a JSON:API type to its sparse fieldset.
	Fields map[string][]string
	// Filter holds filter[...] parameters keyed by the bracketed name.
	Filter map[string]string
	// Page and PerPage are the raw, untrimmed parameter values.
	Page    string
	PerPage string
}

// ParseQuery extracts the include, fields, filter and pagination parameters.
// Unrelated parameters are ignored.
func ParseQuery(values url.Values) Query {
	q := Query{
		Fields: map[string][]string{},
		Filter: map[string]string{},
		Page:   values.Get("page"),
	}
	q.PerPage = values.Get("per_page")

	if raw, ok := values["include"]; ok {
		q.IncludeGiven = true
		q.Include = splitList(strings.Join(raw, ","))
	}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if name, ok := bracketed(key, "fields"); ok {
			q.Fields[name] = splitList(vals[0])
			continue
		}
		if name, ok := bracketed(key, "filter"); ok {
			q.Filter[name] = vals[0]
		}
	}
	return q
}

// Includes returns the include paths in effect for action.
func (q Query) Includes(def *Definition, action authz.Action) []string {
	if q.IncludeGiven {
		return q.Include
	}
	return def.Actions[action].DefaultIncludes
}

// SearchTerm is the trimmed free-text filter.
func (q Query) SearchTerm() string {
	return strings.TrimSpace(q.Filter[searchKey])
}

// LinkBase renders path with a canonical form of the query, so requests that
// share a collection key also share its pagination links. page and per_page
// are left to Page.Links.
func (q Query) LinkBase(def *Definition, action authz.Action, path string) *url.URL {
	values := url.Values{}

	// include is only spelled out when it differs from the action default
	includes := NormalizedIncludes(q.Includes(def, action))
	if !slices.Equal(includes, NormalizedIncludes(def.Actions[action].DefaultIncludes)) {
		values.Set("include", strings.Join(includes, ","))
	}

	for t, fields := range q.Fields {
		sorted := append([]string(nil), fields...)
		sort.Strings(sorted)
		values.Set("fields["+t+"]", strings.Join(sorted, ","))
	}

	if term := q.SearchTerm(); term != "" {
		values.Set("filter["+searchKey+"]", term)
	}
	for _, f := range predicateFilters(def, q.Filter) {
		values.Set("filter["+f.key+"]", f.pred.Value)
	}

	return &url.URL{Path: path, RawQuery: values.Encode()}
}

// NormalizedIncludes de-duplicates and sorts include paths.
func NormalizedIncludes(includes []string) []string {
	seen := make(map[string]bool, len(includes))
	out := make([]string, 0, len(includes))
	for _, inc := range includes {
		if inc == "" || seen[inc] {
			continue
		}
		seen[inc] = true
		out = append(out, inc)
	}
	sort.Strings(out)
	return out
}

func bracketed(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix+"[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	name := key[len(prefix)+1 : len(key)-1]
	return name, name != ""
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
