package repository

import (
	"context"
	"database/sql"

	"cpu_boost/internal/models"
)

type Authorization interface {
	Create(username, hash, role string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StateRepo persists the monitor's boost state so a restarted process can
// undo a boost left behind by a crash.
type StateRepo interface {
	Save(ctx context.Context, s models.BoostState) error
	Load(ctx context.Context) (models.BoostState, error)
}

// ParamsRepo persists boost parameters set through the API.
type ParamsRepo interface {
	Save(ctx context.Context, p models.BoostParams) error
	Load(ctx context.Context) (models.BoostParams, bool, error)
}

type Repository struct {
	StateRepo  StateRepo
	ParamsRepo ParamsRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo:  NewStateSQLite(db),
		ParamsRepo: NewParamsSQLite(db),
		Auth:       NewUserRepository(db),
	}
}
