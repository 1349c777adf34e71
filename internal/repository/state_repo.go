package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cpu_boost/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	boostStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO boost_state (id, active, cycle_id, floor_khz, started_at, deadline, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active=excluded.active,
			cycle_id=excluded.cycle_id,
			floor_khz=excluded.floor_khz,
			started_at=excluded.started_at,
			deadline=excluded.deadline,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, active, cycle_id, floor_khz, started_at, deadline, updated_at
		FROM boost_state WHERE id=?
	`
)

// nullableUTC stores zero times as NULL and everything else as UTC.
func nullableUTC(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func fromNullTime(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time.UTC()
}

// Save upserts the boost_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, state models.BoostState) error {
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		boostStateRowID,
		state.Active,
		state.CycleID,
		state.FloorKHz,
		nullableUTC(state.StartedAt),
		nullableUTC(state.Deadline),
		updatedAt.UTC(),
	)
	return err
}

// Load fetches the boost_state row. A missing row yields the zero state.
func (r *StateSQLite) Load(ctx context.Context) (models.BoostState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, boostStateRowID)

	var (
		s         models.BoostState
		startedAt sql.NullTime
		deadline  sql.NullTime
	)
	if err := row.Scan(
		&s.ID,
		&s.Active,
		&s.CycleID,
		&s.FloorKHz,
		&startedAt,
		&deadline,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BoostState{}, nil
		}
		return models.BoostState{}, err
	}

	s.StartedAt = fromNullTime(startedAt)
	s.Deadline = fromNullTime(deadline)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
