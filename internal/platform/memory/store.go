// Package memory provides an in-process EntityStore used for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// Store keeps records in a map guarded by a RWMutex. Every read and write
// copies records so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
	now     func() time.Time
}

var _ store.EntityStore = (*Store)(nil)

// NewStore returns an empty store stamping records with time.Now.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock returns an empty store with an injectable clock.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{records: make(map[string]*domain.Record), now: now}
}

func (s *Store) Find(_ context.Context, recordType, id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.Type != recordType || r.IsDiscarded() {
		return nil, fmt.Errorf("%w: %s %s", store.ErrNotFound, recordType, id)
	}
	return r.Clone(), nil
}

func (s *Store) FindBy(ctx context.Context, scope store.Scope) (*domain.Record, error) {
	found, err := s.List(ctx, scope, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, scope.Type)
	}
	return found[0], nil
}

func (s *Store) List(_ context.Context, scope store.Scope, offset, limit int) ([]*domain.Record, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	matches := s.match(scope)
	sortRecords(matches, scope.Stable().Orders)

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matches) {
		return []*domain.Record{}, nil
	}
	matches = matches[offset:]
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) Count(_ context.Context, scope store.Scope) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	return len(s.match(scope)), nil
}

func (s *Store) MaxUpdatedAt(_ context.Context, recordType string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for _, r := range s.records {
		if r.Type == recordType && r.UpdatedAt.After(latest) {
			latest = r.UpdatedAt
		}
	}
	return latest, nil
}

func (s *Store) Create(_ context.Context, r *domain.Record) error {
	if r == nil || r.Type == "" || r.ID == "" {
		return fmt.Errorf("%w: record requires a type and an id", store.ErrInvalidEntity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[r.ID]; exists {
		return fmt.Errorf("%w: %s %s", store.ErrDuplicate, r.Type, r.ID)
	}
	now := s.now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.State == "" {
		r.State = domain.StateActive
	}
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *Store) Update(_ context.Context, r *domain.Record) error {
	if r == nil {
		return fmt.Errorf("%w: nil record", store.ErrInvalidEntity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[r.ID]
	if !ok || existing.Type != r.Type {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, r.Type, r.ID)
	}
	now := s.now().UTC()
	if !now.After(existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(time.Microsecond)
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = now
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, recordType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[id]
	if !ok || existing.Type != recordType {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, recordType, id)
	}
	delete(s.records, id)

	now := s.now().UTC()
	for _, r := range s.records {
		for name, ids := range r.Relationships {
			kept := ids[:0:0]
			for _, linked := range ids {
				if linked != id {
					kept = append(kept, linked)
				}
			}
			if len(kept) != len(ids) {
				r.Relationships[name] = kept
				r.UpdatedAt = now
			}
		}
	}
	return nil
}

func (s *Store) CountReferencing(_ context.Context, recordType, relationship, targetID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.Type != recordType || r.IsDiscarded() {
			continue
		}
		for _, linked := range r.Relationships[relationship] {
			if linked == targetID {
				n++
				break
			}
		}
	}
	return n, nil
}

// match returns copies of every record in scope.
func (s *Store) match(scope store.Scope) []*domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Record
	for _, r := range s.records {
		if scope.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func sortRecords(records []*domain.Record, orders []store.Order) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, o := range orders {
			c := compareAttr(records[i], records[j], o.Attribute)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareAttr(a, b *domain.Record, attr string) int {
	switch attr {
	case store.AttrCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case store.AttrUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	av, _ := store.AttributeString(a, attr)
	bv, _ := store.AttributeString(b, attr)
	return strings.Compare(av, bv)
}
