package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

const searchKey = "s"

// BaseScope returns the starting scope for an action. Listing requests that
// name includes get the eager-loadable subset recorded as load hints; other
// actions resolve includes while serializing.
func BaseScope(def *Definition, action authz.Action, q Query) store.Scope {
	scope := store.NewScope(def.Type)
	if action != authz.ActionList || len(q.Include) == 0 || len(def.EagerLoadable) == 0 {
		return scope
	}
	var eager []string
	for _, path := range q.Include {
		head := strings.SplitN(path, ".", 2)[0]
		if contains(def.EagerLoadable, head) {
			eager = append(eager, head)
		}
	}
	return scope.Include(eager...)
}

// ApplyFilter narrows scope by the filter parameters. filter[s] matches any
// searchable attribute containing the term; filter[<attr>_<op>] adds one
// predicate per key. Keys naming unsearchable attributes or unknown operators
// are ignored, as are blank values.
func ApplyFilter(def *Definition, scope store.Scope, filter map[string]string) store.Scope {
	if term := strings.TrimSpace(filter[searchKey]); term != "" && len(def.Searchable) > 0 {
		preds := make([]store.Predicate, 0, len(def.Searchable))
		for _, attr := range def.Searchable {
			preds = append(preds, store.Predicate{Attribute: attr, Op: store.OpCont, Value: term})
		}
		scope = scope.Where(preds...)
	}

	for _, f := range predicateFilters(def, filter) {
		scope = scope.Where(f.pred)
	}
	return scope
}

// AppliedFilters returns the attribute predicates ApplyFilter would add, as
// sorted key=value pairs with trimmed values. filter[s] is not included.
func AppliedFilters(def *Definition, filter map[string]string) []string {
	applied := predicateFilters(def, filter)
	out := make([]string, 0, len(applied))
	for _, f := range applied {
		out = append(out, f.key+"="+f.pred.Value)
	}
	return out
}

type keyedPredicate struct {
	key  string
	pred store.Predicate
}

func predicateFilters(def *Definition, filter map[string]string) []keyedPredicate {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if k != searchKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []keyedPredicate
	for _, key := range keys {
		value := strings.TrimSpace(filter[key])
		if value == "" {
			continue
		}
		attr, op, ok := parsePredicateKey(key)
		if !ok || !contains(def.Searchable, attr) {
			continue
		}
		out = append(out, keyedPredicate{key: key, pred: store.Predicate{Attribute: attr, Op: op, Value: value}})
	}
	return out
}

func parsePredicateKey(key string) (string, store.Operator, bool) {
	for _, op := range store.Operators {
		suffix := "_" + string(op)
		if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
			return strings.TrimSuffix(key, suffix), op, true
		}
	}
	return "", "", false
}

// FindByID is the default finder: primary key lookup within scope.
func FindByID(ctx context.Context, st store.EntityStore, scope store.Scope, key string) (*domain.Record, error) {
	return st.FindBy(ctx, scope.WithIDs(key))
}

// Find resolves a single record through the definition's finder. A miss is
// reported as domain.ErrRecordNotFound.
func Find(ctx context.Context, st store.EntityStore, def *Definition, scope store.Scope, key string) (*domain.Record, error) {
	finder := def.Finder
	if finder == nil {
		finder = FindByID
	}
	r, err := finder(ctx, st, scope, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %s", domain.ErrRecordNotFound, def.Type, key)
		}
		return nil, err
	}
	return r, nil
}
