package store

import (
	"context"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

// EntityStore persists generic records. Implementations return copies, so
// callers may mutate what they receive. Discarded records are invisible to
// Find and to scopes that do not opt into them.
type EntityStore interface {
	// Find returns the live record with the given type and id, or ErrNotFound.
	Find(ctx context.Context, recordType, id string) (*domain.Record, error)

	// FindBy returns the first record matching scope in scope order, or ErrNotFound.
	FindBy(ctx context.Context, scope Scope) (*domain.Record, error)

	// List returns records matching scope in scope order. A limit of zero or
	// less returns every match after offset.
	List(ctx context.Context, scope Scope, offset, limit int) ([]*domain.Record, error)

	// Count returns the number of records matching scope.
	Count(ctx context.Context, scope Scope) (int, error)

	// MaxUpdatedAt returns the latest modification time of any record of the
	// type, discarded ones included. It returns the zero time for an empty type.
	MaxUpdatedAt(ctx context.Context, recordType string) (time.Time, error)

	// Create stores a new record and stamps its timestamps.
	Create(ctx context.Context, r *domain.Record) error

	// Update replaces attributes, relationships and state of an existing
	// record and bumps UpdatedAt.
	Update(ctx context.Context, r *domain.Record) error

	// Delete removes a record permanently and detaches it from every
	// relationship that still lists it.
	Delete(ctx context.Context, recordType, id string) error

	// CountReferencing counts live records of recordType whose relationship
	// lists targetID.
	CountReferencing(ctx context.Context, recordType, relationship, targetID string) (int, error)
}
