package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordState tags whether a record is live or soft-deleted.
type RecordState string

const (
	StateActive    RecordState = "active"
	StateDiscarded RecordState = "discarded"
)

// Record is the storage representation shared by every resource type. Which
// attributes and relationships a type carries is described by its resource
// definition, not by this struct.
type Record struct {
	ID            string
	Type          string
	Attributes    map[string]any
	Relationships map[string][]string
	State         RecordState
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DiscardedAt   *time.Time
}

// NewRecord returns an unsaved active record of the given type with a fresh id.
func NewRecord(recordType string) *Record {
	return &Record{
		ID:            uuid.NewString(),
		Type:          recordType,
		Attributes:    make(map[string]any),
		Relationships: make(map[string][]string),
		State:         StateActive,
	}
}

// Get returns the raw attribute value, nil when unset.
func (r *Record) Get(attr string) any {
	if r.Attributes == nil {
		return nil
	}
	return r.Attributes[attr]
}

// GetString returns the attribute formatted as a string, "" when unset.
func (r *Record) GetString(attr string) string {
	switch v := r.Get(attr).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Set assigns an attribute value.
func (r *Record) Set(attr string, value any) {
	if r.Attributes == nil {
		r.Attributes = make(map[string]any)
	}
	r.Attributes[attr] = value
}

// Delete removes an attribute.
func (r *Record) Delete(attr string) {
	delete(r.Attributes, attr)
}

// Related returns the ids linked under a relationship name.
func (r *Record) Related(name string) []string {
	if r.Relationships == nil {
		return nil
	}
	return r.Relationships[name]
}

// SetRelated replaces the ids linked under a relationship name.
func (r *Record) SetRelated(name string, ids []string) {
	if r.Relationships == nil {
		r.Relationships = make(map[string][]string)
	}
	r.Relationships[name] = append([]string(nil), ids...)
}

// IsDiscarded reports whether the record has been soft-deleted.
func (r *Record) IsDiscarded() bool {
	return r.State == StateDiscarded
}

// Discard tags the record as soft-deleted at now.
func (r *Record) Discard(now time.Time) {
	r.State = StateDiscarded
	r.DiscardedAt = &now
	r.UpdatedAt = now
}

// Clone returns a deep copy so callers can mutate without affecting stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Attributes = make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		c.Attributes[k] = v
	}
	c.Relationships = make(map[string][]string, len(r.Relationships))
	for k, ids := range r.Relationships {
		c.Relationships[k] = append([]string(nil), ids...)
	}
	if r.DiscardedAt != nil {
		t := *r.DiscardedAt
		c.DiscardedAt = &t
	}
	return &c
}
