package resource

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// DeletionMode selects how the delete action removes a record.
type DeletionMode int

const (
	// DeleteHard removes the record, refusing while active records still
	// reference it.
	DeleteHard DeletionMode = iota
	// DeleteDiscard tags the record discarded and hides it from finders.
	DeleteDiscard
)

// ActionConfig is the per-action configuration of a resource type.
type ActionConfig struct {
	// Public actions skip the anonymous-caller check.
	Public bool
	// Permitted lists the input keys accepted by create and update. Other
	// keys are dropped.
	Permitted []string
	// DefaultIncludes apply when the request carries no include parameter.
	DefaultIncludes []string
}

// Relationship declares a to-many link to another registered type.
type Relationship struct {
	Name string
	// Target is the record type of the linked records.
	Target string
	// InputKey is the request attribute that assigns the linked ids, e.g.
	// "role_ids". Empty means the relationship is read-only.
	InputKey string
}

// Input is the permitted request attributes of a create or update.
type Input map[string]any

// String returns the input value as a string, "" when absent or not a string.
func (in Input) String(key string) string {
	s, _ := in[key].(string)
	return s
}

// Has reports whether key was supplied.
func (in Input) Has(key string) bool {
	_, ok := in[key]
	return ok
}

// FinderFunc resolves a single record by request key within scope.
type FinderFunc func(ctx context.Context, st store.EntityStore, scope store.Scope, key string) (*domain.Record, error)

// AssignFunc copies permitted input onto a record.
type AssignFunc func(ctx context.Context, def *Definition, r *domain.Record, in Input) error

// ValidateFunc checks a record about to be saved. It returns nil or an empty
// collection when the record is valid. A non-nil error means the check itself
// could not run.
type ValidateFunc func(ctx context.Context, st store.EntityStore, r *domain.Record, in Input) (*domain.ValidationErrors, error)

// Definition describes one resource type.
type Definition struct {
	// Type is the record type and URL segment, e.g. "users".
	Type string
	// Singular is the JSON:API type and the root key of request bodies.
	Singular string
	// Name is the human name used in response messages, e.g. "User".
	Name string

	Attributes []string
	// Exposed whitelists attributes that the name-pattern exclusion would
	// otherwise hide.
	Exposed    []string
	Searchable []string

	Relationships []Relationship
	EagerLoadable []string

	Actions map[authz.Action]ActionConfig
	Policy  authz.Policy

	Finder   FinderFunc
	Assign   AssignFunc
	Validate ValidateFunc

	Deletion DeletionMode
	// Messages overrides the default meta.message per action.
	Messages map[authz.Action]string
}

var _ authz.Target = (*Definition)(nil)

func (d *Definition) TypeName() string { return d.Type }

func (d *Definition) IsPublic(action authz.Action) bool {
	return d.Actions[action].Public
}

func (d *Definition) AccessPolicy() authz.Policy {
	if d.Policy == nil {
		return authz.DefaultPolicy{}
	}
	return d.Policy
}

// Relationship returns the declared relationship with the given name.
func (d *Definition) Relationship(name string) (Relationship, bool) {
	for _, rel := range d.Relationships {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Supports reports whether the action has a configuration entry.
func (d *Definition) Supports(action authz.Action) bool {
	_, ok := d.Actions[action]
	return ok
}

// excludedAttribute matches identity, credential and secret shaped names.
var excludedAttribute = regexp.MustCompile(`(^|_)id$|password|token|api_key|preferences`)

// ExposableAttributes lists the attributes a serializer may render: declared
// attributes minus pattern exclusions unless whitelisted, plus the timestamps.
func (d *Definition) ExposableAttributes() []string {
	out := make([]string, 0, len(d.Attributes)+2)
	for _, attr := range d.Attributes {
		if excludedAttribute.MatchString(attr) && !contains(d.Exposed, attr) {
			continue
		}
		out = append(out, attr)
	}
	for _, ts := range []string{store.AttrCreatedAt, store.AttrUpdatedAt} {
		if !contains(out, ts) {
			out = append(out, ts)
		}
	}
	return out
}

// Permit keeps the input keys the action permits.
func (d *Definition) Permit(action authz.Action, raw map[string]any) Input {
	allowed := d.Actions[action].Permitted
	in := make(Input, len(allowed))
	for _, key := range allowed {
		if v, ok := raw[key]; ok {
			in[key] = v
		}
	}
	return in
}

// Message returns the meta.message for a completed action.
func (d *Definition) Message(action authz.Action) string {
	if msg, ok := d.Messages[action]; ok {
		return msg
	}
	name := d.Name
	if name == "" {
		name = d.Singular
	}
	switch action {
	case authz.ActionList:
		return fmt.Sprintf("%s records were successfully loaded.", name)
	case authz.ActionNew:
		return fmt.Sprintf("%s was successfully initialized.", name)
	case authz.ActionCreate:
		return fmt.Sprintf("%s was successfully created.", name)
	case authz.ActionRead:
		return fmt.Sprintf("%s was successfully loaded.", name)
	case authz.ActionUpdate:
		return fmt.Sprintf("%s was successfully updated.", name)
	case authz.ActionDelete:
		return fmt.Sprintf("%s was successfully destroyed.", name)
	}
	return ""
}

// AssignInput is the default AssignFunc: relationship input keys replace the
// linked ids and every other key sets the attribute of the same name.
func AssignInput(_ context.Context, def *Definition, r *domain.Record, in Input) error {
	for key, value := range in {
		if rel, ok := def.relationshipByInput(key); ok {
			ids, err := idList(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrMalformedRequest, key, err)
			}
			r.SetRelated(rel.Name, ids)
			continue
		}
		if value == nil {
			r.Delete(key)
			continue
		}
		r.Set(key, value)
	}
	return nil
}

func (d *Definition) relationshipByInput(key string) (Relationship, bool) {
	for _, rel := range d.Relationships {
		if rel.InputKey != "" && rel.InputKey == key {
			return rel, true
		}
	}
	return Relationship{}, false
}

func idList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("expected a list of ids")
			}
			ids = append(ids, strings.TrimSpace(s))
		}
		return ids, nil
	}
	return nil, fmt.Errorf("expected a list of ids")
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
