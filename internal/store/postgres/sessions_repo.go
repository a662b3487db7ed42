package postgres

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/store"
)

const resourceOverlapConstraint = "session_resources_no_overlap"

type SessionRepo struct {
	db *bun.DB
}

func NewSessionRepo(db *bun.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

type sessionTx struct {
	tx bun.Tx
}

func (r *SessionRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (domain.TrainingSession, error) {
	return findSessionByID(ctx, r.db, id)
}

func (r *SessionRepo) ListSessions(ctx context.Context, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error) {
	return findSessionsOverlapping(ctx, r.db, window, kind)
}

func (r *SessionRepo) InResourceTransaction(ctx context.Context, keys []string, fn func(ctx context.Context, tx store.SessionTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockResources(ctx, tx, keys); err != nil {
			return err
		}
		return fn(ctx, sessionTx{tx: tx})
	})
}

// lockResources takes transaction-scoped advisory locks in a stable order so
// two transactions over overlapping resources cannot deadlock.
func lockResources(ctx context.Context, tx bun.Tx, keys []string) error {
	for _, key := range lockOrder(keys) {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func lockOrder(keys []string) []string {
	out := slices.Clone(keys)
	sort.Strings(out)
	return slices.Compact(out)
}

func (t sessionTx) FindSessionsOverlapping(ctx context.Context, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error) {
	return findSessionsOverlapping(ctx, t.tx, window, kind)
}

func (t sessionTx) FindSessionByID(ctx context.Context, id uuid.UUID) (domain.TrainingSession, error) {
	return findSessionByID(ctx, t.tx, id)
}

func (t sessionTx) SaveSession(ctx context.Context, s domain.TrainingSession) (domain.TrainingSession, error) {
	m := s.Clone()
	m.UpdatedAt = time.Now().UTC()

	_, err := t.tx.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO UPDATE").
		Set("kind = EXCLUDED.kind").
		Set("status = EXCLUDED.status").
		Set("training_type_id = EXCLUDED.training_type_id").
		Set("location_id = EXCLUDED.location_id").
		Set("trainer_ids = EXCLUDED.trainer_ids").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("capacity_limit = EXCLUDED.capacity_limit").
		Set("client_id = EXCLUDED.client_id").
		Set("primary_roster = EXCLUDED.primary_roster").
		Set("waiting_roster = EXCLUDED.waiting_roster").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.TrainingSession{}, mapWriteError(err)
	}

	if err := t.syncResources(ctx, m); err != nil {
		return domain.TrainingSession{}, err
	}
	return m, nil
}

// syncResources rewrites the occupancy rows backing the exclusion
// constraint. Sessions that no longer occupy anything keep no rows.
func (t sessionTx) syncResources(ctx context.Context, s domain.TrainingSession) error {
	if _, err := t.tx.NewRaw("DELETE FROM session_resources WHERE session_id = ?", s.ID).Exec(ctx); err != nil {
		return err
	}
	if !s.Occupies() {
		return nil
	}
	for _, key := range lockOrder(s.ResourceKeys()) {
		_, err := t.tx.NewRaw(
			"INSERT INTO session_resources (session_id, resource_key, during) VALUES (?, ?, tstzrange(?, ?, '[)'))",
			s.ID, key, s.StartTime, s.EndTime,
		).Exec(ctx)
		if err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

func (t sessionTx) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.TrainingSession)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func findSessionByID(ctx context.Context, db bun.IDB, id uuid.UUID) (domain.TrainingSession, error) {
	var s domain.TrainingSession
	err := db.NewSelect().
		Model(&s).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TrainingSession{}, store.ErrNotFound
		}
		return domain.TrainingSession{}, err
	}
	return s, nil
}

func findSessionsOverlapping(ctx context.Context, db bun.IDB, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error) {
	var rows []domain.TrainingSession
	q := db.NewSelect().
		Model(&rows).
		Where("start_time < ?", window.End).
		Where("end_time > ?", window.Start)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.OrderExpr("start_time ASC, id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23P01" && pgErr.ConstraintName == resourceOverlapConstraint {
			return store.ErrConflict
		}
	}
	return err
}
