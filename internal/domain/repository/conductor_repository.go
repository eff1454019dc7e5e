package repository

import (
	"context"

	"faremetrics-service/internal/domain/entity"
)

// ConductorRepository defines read access to conductor reference data.
type ConductorRepository interface {
	FindAll(ctx context.Context) ([]entity.Conductor, error)
	FindByID(ctx context.Context, id string) (*entity.Conductor, error)
}
