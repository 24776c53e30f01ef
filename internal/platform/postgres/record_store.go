package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// RecordStore implements store.EntityStore on the records and record_links
// tables.
type RecordStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.EntityStore = (*RecordStore)(nil)

// NewRecordStore returns a store over db. The caller owns the connection.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, now: time.Now}
}

// stamp returns the current time at PostgreSQL precision.
func (s *RecordStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *RecordStore) Find(ctx context.Context, recordType, id string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records r WHERE r.type = $1 AND r.id = $2 AND r.state = 'active'",
		recordType, id)

	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %s", store.ErrNotFound, recordType, id)
		}
		return nil, store.NewStoreError(recordType, "find", "failed to load record", MapError(err))
	}
	if err := s.loadLinks(ctx, s.db, []*domain.Record{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RecordStore) FindBy(ctx context.Context, scope store.Scope) (*domain.Record, error) {
	found, err := s.List(ctx, scope, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, scope.Type)
	}
	return found[0], nil
}

func (s *RecordStore) List(ctx context.Context, scope store.Scope, offset, limit int) ([]*domain.Record, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	// Translate the scope into a parameterized WHERE and ORDER BY
	q := buildScope(scope)
	sqlText := "SELECT " + recordColumns + " FROM records r WHERE " + q.whereClause() +
		" ORDER BY " + q.orderBy(scope.Stable().Orders)
	if offset > 0 {
		sqlText += " OFFSET " + q.arg(offset)
	}
	if limit > 0 {
		sqlText += " LIMIT " + q.arg(limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, q.args...)
	if err != nil {
		return nil, store.NewStoreError(scope.Type, "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	// Scan rows into records
	records := []*domain.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, store.NewStoreError(scope.Type, "list", "failed to scan record", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(scope.Type, "list", "row iteration failed", MapError(err))
	}

	// Attach relationships in one follow-up query
	if err := s.loadLinks(ctx, s.db, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *RecordStore) Count(ctx context.Context, scope store.Scope) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	q := buildScope(scope)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records r WHERE "+q.whereClause(), q.args...).Scan(&n)
	if err != nil {
		return 0, store.NewStoreError(scope.Type, "count", "query failed", MapError(err))
	}
	return n, nil
}

func (s *RecordStore) MaxUpdatedAt(ctx context.Context, recordType string) (time.Time, error) {
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM records WHERE type = $1", recordType).Scan(&latest)
	if err != nil {
		return time.Time{}, store.NewStoreError(recordType, "max_updated_at", "query failed", MapError(err))
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time.UTC(), nil
}

func (s *RecordStore) Create(ctx context.Context, r *domain.Record) error {
	if r == nil || r.Type == "" || r.ID == "" {
		return fmt.Errorf("%w: record requires a type and an id", store.ErrInvalidEntity)
	}
	attrs, err := encodeAttributes(r)
	if err != nil {
		return err
	}
	if r.State == "" {
		r.State = domain.StateActive
	}
	now := s.stamp()

	// The record row and its links are written together
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, type, attributes, state, created_at, updated_at, discarded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID, r.Type, attrs, string(r.State), now, now, r.DiscardedAt)
		if err != nil {
			return MapError(err)
		}
		return insertLinks(ctx, tx, r)
	})
	if err != nil {
		return store.NewStoreError(r.Type, "create", "failed to insert record", err)
	}

	r.CreatedAt = now
	r.UpdatedAt = now
	logger.FromContextOrDefault(ctx, slog.Default()).Debug("record created", "type", r.Type, "id", r.ID)
	return nil
}

func (s *RecordStore) Update(ctx context.Context, r *domain.Record) error {
	if r == nil {
		return fmt.Errorf("%w: nil record", store.ErrInvalidEntity)
	}
	attrs, err := encodeAttributes(r)
	if err != nil {
		return err
	}
	now := s.stamp()

	var createdAt, updatedAt time.Time
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		// updated_at never moves backwards, even when two writes share a clock tick.
		err := tx.QueryRowContext(ctx,
			`UPDATE records
			SET attributes = $1, state = $2, discarded_at = $3,
				updated_at = GREATEST($4, updated_at + interval '1 microsecond')
			WHERE id = $5 AND type = $6
			RETURNING created_at, updated_at`,
			attrs, string(r.State), r.DiscardedAt, now, r.ID, r.Type).Scan(&createdAt, &updatedAt)
		if err != nil {
			return MapError(err)
		}
		// Replace the outgoing links wholesale
		if _, err := tx.ExecContext(ctx, "DELETE FROM record_links WHERE source_id = $1", r.ID); err != nil {
			return MapError(err)
		}
		return insertLinks(ctx, tx, r)
	})
	if err != nil {
		return store.NewStoreError(r.Type, "update", "failed to update record", err)
	}

	r.CreatedAt = createdAt.UTC()
	r.UpdatedAt = updatedAt.UTC()
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, recordType, id string) error {
	now := s.stamp()
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = $1 AND type = $2", id, recordType)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(res, recordType); err != nil {
			return err
		}
		// Records that linked to the deleted one change shape, so their
		// freshness moves forward too.
		if _, err := tx.ExecContext(ctx,
			`UPDATE records SET updated_at = GREATEST($1, updated_at + interval '1 microsecond')
			WHERE id IN (SELECT source_id FROM record_links WHERE target_id = $2)`,
			now, id); err != nil {
			return MapError(err)
		}
		// Drop the now dangling links
		if _, err := tx.ExecContext(ctx, "DELETE FROM record_links WHERE target_id = $1", id); err != nil {
			return MapError(err)
		}
		return nil
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return store.NewStoreError(recordType, "delete", "failed to delete record", err)
	}
	return nil
}

func (s *RecordStore) CountReferencing(ctx context.Context, recordType, relationship, targetID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT r.id) FROM records r
		JOIN record_links l ON l.source_id = r.id
		WHERE r.type = $1 AND r.state = 'active' AND l.name = $2 AND l.target_id = $3`,
		recordType, relationship, targetID).Scan(&n)
	if err != nil {
		return 0, store.NewStoreError(recordType, "count_referencing", "query failed", MapError(err))
	}
	return n, nil
}

// loadLinks fills Relationships for records in one query.
func (s *RecordStore) loadLinks(ctx context.Context, db store.DBTX, records []*domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Record, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	q := &query{}
	rows, err := db.QueryContext(ctx,
		"SELECT source_id, name, target_id FROM record_links WHERE source_id IN "+q.inList(ids)+
			" ORDER BY source_id, name, position", q.args...)
	if err != nil {
		return store.NewStoreError(records[0].Type, "load_links", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var source, name, target string
		if err := rows.Scan(&source, &name, &target); err != nil {
			return store.NewStoreError(records[0].Type, "load_links", "failed to scan link", err)
		}
		if r := byID[source]; r != nil {
			r.Relationships[name] = append(r.Relationships[name], target)
		}
	}
	return rows.Err()
}

func insertLinks(ctx context.Context, tx *sql.Tx, r *domain.Record) error {
	names := make([]string, 0, len(r.Relationships))
	for name := range r.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		seen := make(map[string]bool)
		position := 0
		for _, target := range r.Relationships[name] {
			if seen[target] {
				continue
			}
			seen[target] = true
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO record_links (source_id, name, target_id, position) VALUES ($1, $2, $3, $4)",
				r.ID, name, target, position); err != nil {
				return MapError(err)
			}
			position++
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		r           domain.Record
		attrs       []byte
		state       string
		discardedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Type, &attrs, &state, &r.CreatedAt, &r.UpdatedAt, &discardedAt); err != nil {
		return nil, err
	}
	r.Attributes = make(map[string]any)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &r.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode attributes of %s %s: %w", r.Type, r.ID, err)
		}
	}
	r.Relationships = make(map[string][]string)
	r.State = domain.RecordState(state)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	if discardedAt.Valid {
		t := discardedAt.Time.UTC()
		r.DiscardedAt = &t
	}
	return &r, nil
}

func encodeAttributes(r *domain.Record) ([]byte, error) {
	attrs := r.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("%w: attributes of %s %s are not JSON encodable: %v",
			store.ErrInvalidEntity, r.Type, r.ID, err)
	}
	return b, nil
}
