package store

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

// Operator is a predicate comparison supported by every store.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNotEq Operator = "not_eq"
	OpCont  Operator = "cont"
	OpStart Operator = "start"
	OpEnd   Operator = "end"
)

// Operators lists the supported operators, longest suffix first so that
// "not_eq" is matched before "eq" when parsing filter keys.
var Operators = []Operator{OpNotEq, OpStart, OpCont, OpEnd, OpEq}

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNotEq, OpCont, OpStart, OpEnd:
		return true
	}
	return false
}

// Attribute names with dedicated storage rather than the attribute map.
const (
	AttrID        = "id"
	AttrCreatedAt = "created_at"
	AttrUpdatedAt = "updated_at"
)

var attributeName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidAttribute reports whether name is usable in a predicate or order clause.
func ValidAttribute(name string) bool {
	return attributeName.MatchString(name)
}

// Predicate compares one attribute with a string value.
type Predicate struct {
	Attribute string
	Op        Operator
	Value     string
}

// Condition is a disjunction: it holds when any of its predicates holds.
type Condition []Predicate

// Order sorts by one attribute.
type Order struct {
	Attribute string
	Desc      bool
}

// Scope describes a query over one record type. It is a value: every builder
// method returns a modified copy and leaves the receiver untouched. Nothing
// runs until a store materializes it.
type Scope struct {
	Type             string
	Conditions       []Condition
	IDs              []string
	Includes         []string
	Orders           []Order
	IncludeDiscarded bool
}

// NewScope returns the unrestricted scope for recordType.
func NewScope(recordType string) Scope {
	return Scope{Type: recordType}
}

// Where adds a condition satisfied when any of preds holds. Conditions added by
// separate calls must all hold. Calling Where with no predicates is a no-op.
func (s Scope) Where(preds ...Predicate) Scope {
	if len(preds) == 0 {
		return s
	}
	out := s.clone()
	out.Conditions = append(out.Conditions, append(Condition(nil), preds...))
	return out
}

// WhereEq is shorthand for a single equality condition.
func (s Scope) WhereEq(attr, value string) Scope {
	return s.Where(Predicate{Attribute: attr, Op: OpEq, Value: value})
}

// WithIDs restricts the scope to the given ids, intersecting with any
// restriction already present.
func (s Scope) WithIDs(ids ...string) Scope {
	out := s.clone()
	if s.IDs == nil {
		out.IDs = append([]string{}, ids...)
		return out
	}
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out.IDs = []string{}
	for _, id := range s.IDs {
		if keep[id] {
			out.IDs = append(out.IDs, id)
		}
	}
	return out
}

// Include records eager-load hints. Duplicates are ignored.
func (s Scope) Include(names ...string) Scope {
	out := s.clone()
	for _, n := range names {
		if !contains(out.Includes, n) {
			out.Includes = append(out.Includes, n)
		}
	}
	return out
}

// OrderBy appends a sort key.
func (s Scope) OrderBy(attr string, desc bool) Scope {
	out := s.clone()
	out.Orders = append(out.Orders, Order{Attribute: attr, Desc: desc})
	return out
}

// WithDiscarded makes soft-deleted records visible.
func (s Scope) WithDiscarded() Scope {
	out := s.clone()
	out.IncludeDiscarded = true
	return out
}

// Stable returns the scope with primary key appended as the final sort key
// unless it already sorts by it, so pagination slices a total order.
func (s Scope) Stable() Scope {
	for _, o := range s.Orders {
		if o.Attribute == AttrID {
			return s
		}
	}
	return s.OrderBy(AttrID, false)
}

// Validate checks attribute names and operators before a store builds a query.
func (s Scope) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("%w: missing record type", ErrInvalidScope)
	}
	for _, c := range s.Conditions {
		for _, p := range c {
			if !ValidAttribute(p.Attribute) {
				return fmt.Errorf("%w: attribute %q", ErrInvalidScope, p.Attribute)
			}
			if !p.Op.Valid() {
				return fmt.Errorf("%w: operator %q", ErrInvalidScope, p.Op)
			}
		}
	}
	for _, o := range s.Orders {
		if !ValidAttribute(o.Attribute) {
			return fmt.Errorf("%w: order attribute %q", ErrInvalidScope, o.Attribute)
		}
	}
	return nil
}

// Matches evaluates the scope against a single record. In-process stores use
// it directly; SQL stores translate the same semantics.
func (s Scope) Matches(r *domain.Record) bool {
	if r == nil || r.Type != s.Type {
		return false
	}
	if r.IsDiscarded() && !s.IncludeDiscarded {
		return false
	}
	if s.IDs != nil && !contains(s.IDs, r.ID) {
		return false
	}
	for _, c := range s.Conditions {
		if !c.matches(r) {
			return false
		}
	}
	return true
}

func (c Condition) matches(r *domain.Record) bool {
	for _, p := range c {
		if p.Matches(r) {
			return true
		}
	}
	return false
}

// Matches evaluates the predicate against a record. Containment operators are
// case-insensitive; equality is exact.
func (p Predicate) Matches(r *domain.Record) bool {
	actual, present := AttributeString(r, p.Attribute)
	switch p.Op {
	case OpEq:
		return present && actual == p.Value
	case OpNotEq:
		return !present || actual != p.Value
	}
	if !present {
		return false
	}
	a, v := strings.ToLower(actual), strings.ToLower(p.Value)
	switch p.Op {
	case OpCont:
		return strings.Contains(a, v)
	case OpStart:
		return strings.HasPrefix(a, v)
	case OpEnd:
		return strings.HasSuffix(a, v)
	}
	return false
}

// AttributeString returns the string form of a record attribute, resolving the
// dedicated id and timestamp columns. Timestamps use RFC 3339 with nanoseconds.
func AttributeString(r *domain.Record, attr string) (string, bool) {
	switch attr {
	case AttrID:
		return r.ID, true
	case AttrCreatedAt:
		return r.CreatedAt.UTC().Format(time.RFC3339Nano), true
	case AttrUpdatedAt:
		return r.UpdatedAt.UTC().Format(time.RFC3339Nano), true
	}
	v, ok := r.Attributes[attr]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

func (s Scope) clone() Scope {
	out := s
	if s.Conditions != nil {
		out.Conditions = append([]Condition(nil), s.Conditions...)
	}
	if s.IDs != nil {
		out.IDs = append([]string{}, s.IDs...)
	}
	if s.Includes != nil {
		out.Includes = append([]string(nil), s.Includes...)
	}
	if s.Orders != nil {
		out.Orders = append([]Order(nil), s.Orders...)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
