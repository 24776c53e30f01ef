package postgres

import (
	"fmt"
	"strings"

	"github.com/kumar-mithlesh/headless-api/internal/store"
)

const recordColumns = "r.id, r.type, r.attributes, r.state, r.created_at, r.updated_at, r.discarded_at"

// query accumulates a WHERE clause and its positional arguments.
type query struct {
	where []string
	args  []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// inList renders ids as a parenthesised placeholder list.
func (q *query) inList(ids []string) string {
	ph := make([]string, len(ids))
	for i, id := range ids {
		ph[i] = q.arg(id)
	}
	return "(" + strings.Join(ph, ", ") + ")"
}

// column returns the SQL expression for an attribute. Attribute names travel
// as arguments, never as SQL text.
func (q *query) column(attr string, asText bool) string {
	switch attr {
	case store.AttrID:
		return "r.id"
	case store.AttrCreatedAt, store.AttrUpdatedAt:
		if asText {
			return "r." + attr + "::text"
		}
		return "r." + attr
	}
	return "(r.attributes->>" + q.arg(attr) + ")"
}

// buildScope translates a validated scope into a WHERE clause.
func buildScope(scope store.Scope) *query {
	q := &query{}
	q.where = append(q.where, "r.type = "+q.arg(scope.Type))
	if !scope.IncludeDiscarded {
		q.where = append(q.where, "r.state = 'active'")
	}
	if scope.IDs != nil {
		if len(scope.IDs) == 0 {
			q.where = append(q.where, "FALSE")
		} else {
			q.where = append(q.where, "r.id IN "+q.inList(scope.IDs))
		}
	}
	for _, c := range scope.Conditions {
		ors := make([]string, 0, len(c))
		for _, p := range c {
			ors = append(ors, q.predicate(p))
		}
		q.where = append(q.where, "("+strings.Join(ors, " OR ")+")")
	}
	return q
}

func (q *query) predicate(p store.Predicate) string {
	col := q.column(p.Attribute, true)
	switch p.Op {
	case store.OpNotEq:
		return col + " IS DISTINCT FROM " + q.arg(p.Value)
	case store.OpCont:
		return col + ` ILIKE ` + q.arg("%"+escapeLike(p.Value)+"%") + ` ESCAPE '\'`
	case store.OpStart:
		return col + ` ILIKE ` + q.arg(escapeLike(p.Value)+"%") + ` ESCAPE '\'`
	case store.OpEnd:
		return col + ` ILIKE ` + q.arg("%"+escapeLike(p.Value)) + ` ESCAPE '\'`
	default:
		return col + " = " + q.arg(p.Value)
	}
}

// orderBy renders the ORDER BY clause. Text attributes sort bytewise so the
// order matches the in-memory store; missing attributes sort as smallest.
func (q *query) orderBy(orders []store.Order) string {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		col := q.column(o.Attribute, false)
		if o.Attribute != store.AttrCreatedAt && o.Attribute != store.AttrUpdatedAt {
			col += ` COLLATE "C"`
		}
		if o.Desc {
			parts = append(parts, col+" DESC NULLS LAST")
		} else {
			parts = append(parts, col+" ASC NULLS FIRST")
		}
	}
	return strings.Join(parts, ", ")
}

func (q *query) whereClause() string {
	return strings.Join(q.where, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
