package resource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// TimeFormat renders timestamps with millisecond precision and a zone offset.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Document is a JSON:API top-level document.
type Document struct {
	Data     any               `json:"data,omitempty"`
	Included []*ResourceObject `json:"included,omitempty"`
	Meta     map[string]any    `json:"meta"`
	Links    *Links            `json:"links,omitempty"`
}

// ResourceObject is one rendered record.
type ResourceObject struct {
	ID            string                      `json:"id"`
	Type          string                      `json:"type"`
	Attributes    map[string]any              `json:"attributes"`
	Relationships map[string]RelationshipData `json:"relationships,omitempty"`
}

// RelationshipData carries resource linkage.
type RelationshipData struct {
	Data []Identifier `json:"data"`
}

// Identifier is a resource identifier object.
type Identifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Options shape one serialization.
type Options struct {
	Includes  []string
	Fields    map[string][]string
	Principal *domain.Principal
	Meta      map[string]any
	Links     *Links
}

// Serializer renders records of registered types.
type Serializer struct {
	registry *Registry
	store    store.EntityStore
}

// NewSerializer returns a serializer that loads included records from st.
func NewSerializer(reg *Registry, st store.EntityStore) *Serializer {
	return &Serializer{registry: reg, store: st}
}

// One renders a single record. A nil record renders meta only.
func (s *Serializer) One(ctx context.Context, def *Definition, r *domain.Record, opts Options) (*Document, error) {
	doc := &Document{Meta: opts.Meta, Links: opts.Links}
	if doc.Meta == nil {
		doc.Meta = map[string]any{}
	}
	if r == nil {
		return doc, nil
	}
	if err := s.registry.ValidateIncludes(def, opts.Includes); err != nil {
		return nil, err
	}
	doc.Data = s.object(def, r, opts)
	included, err := s.included(ctx, def, []*domain.Record{r}, opts)
	if err != nil {
		return nil, err
	}
	doc.Included = included
	return doc, nil
}

// Many renders a collection; an empty collection renders "data": [].
func (s *Serializer) Many(ctx context.Context, def *Definition, records []*domain.Record, opts Options) (*Document, error) {
	if err := s.registry.ValidateIncludes(def, opts.Includes); err != nil {
		return nil, err
	}
	data := make([]*ResourceObject, 0, len(records))
	for _, r := range records {
		data = append(data, s.object(def, r, opts))
	}
	included, err := s.included(ctx, def, records, opts)
	if err != nil {
		return nil, err
	}
	doc := &Document{Data: data, Included: included, Meta: opts.Meta, Links: opts.Links}
	if doc.Meta == nil {
		doc.Meta = map[string]any{}
	}
	return doc, nil
}

func (s *Serializer) object(def *Definition, r *domain.Record, opts Options) *ResourceObject {
	sparse, restricted := opts.Fields[def.Singular]
	loc := opts.Principal.Location()

	obj := &ResourceObject{
		ID:         r.ID,
		Type:       def.Singular,
		Attributes: map[string]any{},
	}
	for _, attr := range def.ExposableAttributes() {
		if restricted && !contains(sparse, attr) {
			continue
		}
		obj.Attributes[attr] = attributeValue(r, attr, loc)
	}

	for _, rel := range def.Relationships {
		if restricted && !contains(sparse, rel.Name) {
			continue
		}
		target, _ := s.registry.Lookup(rel.Target)
		ids := r.Related(rel.Name)
		linkage := make([]Identifier, 0, len(ids))
		for _, id := range ids {
			linkage = append(linkage, Identifier{ID: id, Type: target.Singular})
		}
		if obj.Relationships == nil {
			obj.Relationships = map[string]RelationshipData{}
		}
		obj.Relationships[rel.Name] = RelationshipData{Data: linkage}
	}
	return obj
}

// included walks every include path from the primary records, loading each
// hop in one query. Objects are de-duplicated by type and id, and primary
// records are never repeated.
func (s *Serializer) included(ctx context.Context, def *Definition, primary []*domain.Record, opts Options) ([]*ResourceObject, error) {
	if len(opts.Includes) == 0 || len(primary) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool)
	for _, r := range primary {
		seen[def.Type+"/"+r.ID] = true
	}

	var out []*ResourceObject
	for _, path := range NormalizedIncludes(opts.Includes) {
		current, records := def, primary
		for _, seg := range strings.Split(path, ".") {
			rel, ok := current.Relationship(seg)
			if !ok {
				return nil, unsupportedInclude(def, path)
			}
			target, _ := s.registry.Lookup(rel.Target)

			var ids []string
			for _, r := range records {
				for _, id := range r.Related(rel.Name) {
					if !contains(ids, id) {
						ids = append(ids, id)
					}
				}
			}
			next := []*domain.Record{}
			if len(ids) > 0 {
				loaded, err := s.store.List(ctx, store.NewScope(target.Type).WithIDs(ids...), 0, 0)
				if err != nil {
					return nil, err
				}
				next = loaded
			}
			for _, r := range next {
				key := target.Type + "/" + r.ID
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, s.object(target, r, opts))
			}
			current, records = target, next
		}
	}
	return out, nil
}

func attributeValue(r *domain.Record, attr string, loc *time.Location) any {
	switch attr {
	case store.AttrCreatedAt:
		return formatTime(r.CreatedAt, loc)
	case store.AttrUpdatedAt:
		return formatTime(r.UpdatedAt, loc)
	}
	v := r.Get(attr)
	if t, ok := v.(time.Time); ok {
		return formatTime(t, loc)
	}
	return v
}

func formatTime(t time.Time, loc *time.Location) any {
	if t.IsZero() {
		return nil
	}
	return t.In(loc).Format(TimeFormat)
}

func unsupportedInclude(def *Definition, path string) error {
	return fmt.Errorf("%w: %s is not a relationship of %s", domain.ErrUnsupportedInclude, path, def.Singular)
}
