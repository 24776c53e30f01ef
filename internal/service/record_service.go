package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/redact"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// RecordService performs the write side of the resource pipeline for any
// registered resource type.
type RecordService interface {
	// Build returns an unsaved record of def's type with in assigned.
	Build(ctx context.Context, def *resource.Definition, in resource.Input) (*domain.Record, error)

	// Create validates r and stores it. Validation failures are returned as
	// *domain.ValidationErrors.
	Create(ctx context.Context, def *resource.Definition, r *domain.Record, in resource.Input) error

	// Update assigns in onto r, validates and stores it.
	Update(ctx context.Context, def *resource.Definition, r *domain.Record, in resource.Input) error

	// Delete discards or removes r according to def.Deletion.
	Delete(ctx context.Context, def *resource.Definition, r *domain.Record) error
}

type recordService struct {
	store    store.EntityStore
	registry *resource.Registry
	now      func() time.Time
	logger   *slog.Logger
}

var _ RecordService = (*recordService)(nil)

// NewRecordService creates a RecordService over st.
func NewRecordService(st store.EntityStore, reg *resource.Registry, log *slog.Logger) RecordService {
	if log == nil {
		log = slog.Default()
	}
	return &recordService{
		store:    st,
		registry: reg,
		now:      time.Now,
		logger:   log.With("component", "record_service"),
	}
}

func (s *recordService) Build(ctx context.Context, def *resource.Definition, in resource.Input) (*domain.Record, error) {
	r := domain.NewRecord(def.Type)
	if err := s.assign(ctx, def, r, in); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *recordService) Create(ctx context.Context, def *resource.Definition, r *domain.Record, in resource.Input) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := s.validate(ctx, def, r, in); err != nil {
		log.Debug("record failed validation", "resource", def.Type, "error", err)
		return err
	}
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			v := domain.NewValidationErrors()
			v.Add("base", def.Name+" already exists")
			return v
		}
		log.Error("failed to create record",
			"resource", def.Type,
			"error", redact.Error(err))
		return fmt.Errorf("failed to create %s: %w", def.Singular, err)
	}
	log.Info("record created", "resource", def.Type, "record_id", r.ID)
	return nil
}

func (s *recordService) Update(ctx context.Context, def *resource.Definition, r *domain.Record, in resource.Input) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := s.assign(ctx, def, r, in); err != nil {
		return err
	}
	if err := s.validate(ctx, def, r, in); err != nil {
		log.Debug("record failed validation", "resource", def.Type, "record_id", r.ID, "error", err)
		return err
	}
	if err := s.store.Update(ctx, r); err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: %s %s", domain.ErrRecordNotFound, def.Type, r.ID)
		}
		log.Error("failed to update record",
			"resource", def.Type,
			"record_id", r.ID,
			"error", redact.Error(err))
		return fmt.Errorf("failed to update %s: %w", def.Singular, err)
	}
	log.Info("record updated", "resource", def.Type, "record_id", r.ID)
	return nil
}

func (s *recordService) Delete(ctx context.Context, def *resource.Definition, r *domain.Record) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if r.IsDiscarded() {
		return fmt.Errorf("%w: %s %s", domain.ErrRecordNotFound, def.Type, r.ID)
	}

	if def.Deletion == resource.DeleteDiscard {
		r.Discard(s.now())
		if err := s.store.Update(ctx, r); err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: %s %s", domain.ErrRecordNotFound, def.Type, r.ID)
			}
			return fmt.Errorf("failed to discard %s: %w", def.Singular, err)
		}
		log.Info("record discarded", "resource", def.Type, "record_id", r.ID)
		return nil
	}

	for _, ref := range s.registry.Referencing(def) {
		n, err := s.store.CountReferencing(ctx, ref.Source.Type, ref.Relationship.Name, r.ID)
		if err != nil {
			return fmt.Errorf("failed to count references to %s: %w", def.Singular, err)
		}
		if n > 0 {
			log.Debug("hard delete refused",
				"resource", def.Type,
				"record_id", r.ID,
				"referenced_by", ref.Source.Type,
				"count", n)
			return fmt.Errorf("%w: %d %s", domain.ErrConflictingDiscard, n, ref.Source.Type)
		}
	}

	if err := s.store.Delete(ctx, def.Type, r.ID); err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: %s %s", domain.ErrRecordNotFound, def.Type, r.ID)
		}
		log.Error("failed to delete record",
			"resource", def.Type,
			"record_id", r.ID,
			"error", redact.Error(err))
		return fmt.Errorf("failed to delete %s: %w", def.Singular, err)
	}
	log.Info("record deleted", "resource", def.Type, "record_id", r.ID)
	return nil
}

func (s *recordService) assign(ctx context.Context, def *resource.Definition, r *domain.Record, in resource.Input) error {
	assign := def.Assign
	if assign == nil {
		assign = resource.AssignInput
	}
	return assign(ctx, def, r, in)
}

// validate runs the definition's validator and checks that assigned
// relationship ids name live records of the target type.
func (s *recordService) validate(ctx context.Context, def *resource.Definition, r *domain.Record, in resource.Input) error {
	v := domain.NewValidationErrors()
	if def.Validate != nil {
		errs, err := def.Validate(ctx, s.store, r, in)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("record validation could not run",
				"resource", def.Type,
				"error", redact.Error(err))
			return fmt.Errorf("failed to validate %s: %w", def.Type, err)
		}
		v.Merge(errs)
	}

	for _, rel := range def.Relationships {
		if rel.InputKey == "" || !in.Has(rel.InputKey) {
			continue
		}
		ids := unique(r.Related(rel.Name))
		if len(ids) == 0 {
			continue
		}
		n, err := s.store.Count(ctx, store.NewScope(rel.Target).WithIDs(ids...))
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", rel.InputKey, err)
		}
		if n != len(ids) {
			v.Add(rel.InputKey, "must reference existing records")
		}
	}
	return v.ErrOrNil()
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
