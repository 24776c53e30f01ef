package mocks

import (
	"context"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// MockEntityStore implements store.EntityStore. Methods without an Fn return
// Err, or store.ErrNotFound for single-record lookups when Err is nil.
type MockEntityStore struct {
	FindFn             func(ctx context.Context, recordType, id string) (*domain.Record, error)
	FindByFn           func(ctx context.Context, scope store.Scope) (*domain.Record, error)
	ListFn             func(ctx context.Context, scope store.Scope, offset, limit int) ([]*domain.Record, error)
	CountFn            func(ctx context.Context, scope store.Scope) (int, error)
	MaxUpdatedAtFn     func(ctx context.Context, recordType string) (time.Time, error)
	CreateFn           func(ctx context.Context, r *domain.Record) error
	UpdateFn           func(ctx context.Context, r *domain.Record) error
	DeleteFn           func(ctx context.Context, recordType, id string) error
	CountReferencingFn func(ctx context.Context, recordType, relationship, targetID string) (int, error)

	Err error
}

var _ store.EntityStore = (*MockEntityStore)(nil)

func (m *MockEntityStore) Find(ctx context.Context, recordType, id string) (*domain.Record, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, recordType, id)
	}
	return nil, m.notFound()
}

func (m *MockEntityStore) FindBy(ctx context.Context, scope store.Scope) (*domain.Record, error) {
	if m.FindByFn != nil {
		return m.FindByFn(ctx, scope)
	}
	return nil, m.notFound()
}

func (m *MockEntityStore) List(ctx context.Context, scope store.Scope, offset, limit int) ([]*domain.Record, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, scope, offset, limit)
	}
	return nil, m.Err
}

func (m *MockEntityStore) Count(ctx context.Context, scope store.Scope) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, scope)
	}
	return 0, m.Err
}

func (m *MockEntityStore) MaxUpdatedAt(ctx context.Context, recordType string) (time.Time, error) {
	if m.MaxUpdatedAtFn != nil {
		return m.MaxUpdatedAtFn(ctx, recordType)
	}
	return time.Time{}, m.Err
}

func (m *MockEntityStore) Create(ctx context.Context, r *domain.Record) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return m.Err
}

func (m *MockEntityStore) Update(ctx context.Context, r *domain.Record) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, r)
	}
	return m.Err
}

func (m *MockEntityStore) Delete(ctx context.Context, recordType, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, recordType, id)
	}
	return m.Err
}

func (m *MockEntityStore) CountReferencing(ctx context.Context, recordType, relationship, targetID string) (int, error) {
	if m.CountReferencingFn != nil {
		return m.CountReferencingFn(ctx, recordType, relationship, targetID)
	}
	return 0, m.Err
}

func (m *MockEntityStore) notFound() error {
	if m.Err != nil {
		return m.Err
	}
	return store.ErrNotFound
}
