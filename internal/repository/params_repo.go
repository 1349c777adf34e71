package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cpu_boost/internal/models"
)

type ParamsSQLite struct {
	db *sql.DB
}

func NewParamsSQLite(db *sql.DB) *ParamsSQLite {
	return &ParamsSQLite{db: db}
}

const (
	boostParamsRowID = 1

	upsertParamsSQL = `
		INSERT INTO boost_params (id, frequency_khz, duration_ms, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			frequency_khz=excluded.frequency_khz,
			duration_ms=excluded.duration_ms,
			updated_at=excluded.updated_at
	`

	selectParamsSQL = `SELECT frequency_khz, duration_ms, updated_at FROM boost_params WHERE id=?`
)

// Save upserts the boost_params row.
func (r *ParamsSQLite) Save(ctx context.Context, p models.BoostParams) error {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, upsertParamsSQL,
		boostParamsRowID, p.FrequencyKHz, p.DurationMs, updatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("save boost params: %w", err)
	}
	return nil
}

// Load returns the persisted params; found is false when none were saved.
func (r *ParamsSQLite) Load(ctx context.Context) (models.BoostParams, bool, error) {
	var p models.BoostParams
	err := r.db.QueryRowContext(ctx, selectParamsSQL, boostParamsRowID).
		Scan(&p.FrequencyKHz, &p.DurationMs, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BoostParams{}, false, nil
		}
		return models.BoostParams{}, false, fmt.Errorf("load boost params: %w", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, true, nil
}
