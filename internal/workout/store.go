package workout

import (
	"context"
	"errors"
	"time"

	"backend-fittrack/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StructuredStore persists structured workout records.
type StructuredStore interface {
	Insert(ctx context.Context, w Workout) (Workout, error)
	MarkSynced(ctx context.Context, id string) error
	DeleteByID(ctx context.Context, ownerID, id string) (xrefID string, err error)
	DeleteByXref(ctx context.Context, ownerID, xrefID string) (int64, error)
	List(ctx context.Context, f Filter) ([]Workout, error)
}

// LegacyStore persists legacy workout records.
type LegacyStore interface {
	Insert(ctx context.Context, w LegacyWorkout) (LegacyWorkout, error)
	DeleteByID(ctx context.Context, ownerID, id string) (xrefID string, err error)
	DeleteByXref(ctx context.Context, ownerID, xrefID string) (int64, error)
	List(ctx context.Context, f Filter) ([]LegacyWorkout, error)
}

type PostgresStructuredStore struct {
	db db.Querier
}

func NewStructuredStore(db db.Querier) *PostgresStructuredStore {
	return &PostgresStructuredStore{db: db}
}

func (s *PostgresStructuredStore) Insert(ctx context.Context, w Workout) (Workout, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.SyncStatus == "" {
		w.SyncStatus = SyncPending
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO workouts (id, xref_id, owner_id, title, duration, level, focus, calories, scheduled_date, sync_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, w.ID, w.XrefID, w.OwnerID, w.Title, w.Duration, w.Level, w.Focus, w.Calories, w.ScheduledDate, w.SyncStatus)
	if err := row.Scan(&w.CreatedAt); err != nil {
		return Workout{}, err
	}
	return w, nil
}

func (s *PostgresStructuredStore) MarkSynced(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE workouts SET sync_status=$2 WHERE id=$1`, id, SyncSynced)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStructuredStore) DeleteByID(ctx context.Context, ownerID, id string) (string, error) {
	var xref string
	err := s.db.QueryRow(ctx, `
		DELETE FROM workouts WHERE id=$1 AND owner_id=$2
		RETURNING xref_id
	`, id, ownerID).Scan(&xref)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return xref, err
}

func (s *PostgresStructuredStore) DeleteByXref(ctx context.Context, ownerID, xrefID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM workouts WHERE xref_id=$1 AND owner_id=$2`, xrefID, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStructuredStore) List(ctx context.Context, f Filter) ([]Workout, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, xref_id, owner_id, title, duration, level, focus, calories, scheduled_date, sync_status, created_at
		FROM workouts
		WHERE owner_id=$1
		  AND ($2::timestamptz IS NULL OR scheduled_date >= $2)
		  AND ($3::timestamptz IS NULL OR scheduled_date < $3)
		ORDER BY scheduled_date DESC, id DESC
	`, f.OwnerID, timePtr(f.From), timePtr(f.To))
	if err != nil {
		return nil, err
	}
	return scanWorkouts(rows)
}

// ListPending returns structured records still pending after olderThan,
// across all owners. These are left behind when a dual write could not be
// compensated.
func (s *PostgresStructuredStore) ListPending(ctx context.Context, olderThan time.Duration) ([]Workout, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, xref_id, owner_id, title, duration, level, focus, calories, scheduled_date, sync_status, created_at
		FROM workouts
		WHERE sync_status=$1 AND created_at < $2
		ORDER BY created_at
	`, SyncPending, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	return scanWorkouts(rows)
}

type PostgresLegacyStore struct {
	db db.Querier
}

func NewLegacyStore(db db.Querier) *PostgresLegacyStore {
	return &PostgresLegacyStore{db: db}
}

func (s *PostgresLegacyStore) Insert(ctx context.Context, w LegacyWorkout) (LegacyWorkout, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO legacy_workouts (id, xref_id, owner_id, category, workout_name, sets, reps, weight, duration, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, w.ID, nullIfEmpty(w.XrefID), w.OwnerID, w.Category, w.WorkoutName, w.Sets, w.Reps, w.Weight, w.Duration, w.Date)
	if err := row.Scan(&w.CreatedAt); err != nil {
		return LegacyWorkout{}, err
	}
	return w, nil
}

func (s *PostgresLegacyStore) DeleteByID(ctx context.Context, ownerID, id string) (string, error) {
	var xref string
	err := s.db.QueryRow(ctx, `
		DELETE FROM legacy_workouts WHERE id=$1 AND owner_id=$2
		RETURNING COALESCE(xref_id, '')
	`, id, ownerID).Scan(&xref)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return xref, err
}

func (s *PostgresLegacyStore) DeleteByXref(ctx context.Context, ownerID, xrefID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM legacy_workouts WHERE xref_id=$1 AND owner_id=$2`, xrefID, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresLegacyStore) List(ctx context.Context, f Filter) ([]LegacyWorkout, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, COALESCE(xref_id, ''), owner_id, category, workout_name,
		       COALESCE(sets,0), COALESCE(reps,0), COALESCE(weight,0), COALESCE(duration,0), date, created_at
		FROM legacy_workouts
		WHERE owner_id=$1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date < $3)
		ORDER BY date DESC, id DESC
	`, f.OwnerID, timePtr(f.From), timePtr(f.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []LegacyWorkout
	for rows.Next() {
		var w LegacyWorkout
		if err := rows.Scan(&w.ID, &w.XrefID, &w.OwnerID, &w.Category, &w.WorkoutName, &w.Sets, &w.Reps, &w.Weight, &w.Duration, &w.Date, &w.CreatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func scanWorkouts(rows pgx.Rows) ([]Workout, error) {
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.XrefID, &w.OwnerID, &w.Title, &w.Duration, &w.Level, &w.Focus, &w.Calories, &w.ScheduledDate, &w.SyncStatus, &w.CreatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
