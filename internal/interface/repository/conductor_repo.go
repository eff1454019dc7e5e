package repository

import (
	"context"
	"time"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormConductorRepository implements the ConductorRepository interface
type GormConductorRepository struct {
	db *gorm.DB
}

// NewGormConductorRepository creates a new GORM conductor repository
func NewGormConductorRepository(db *gorm.DB) repository.ConductorRepository {
	return &GormConductorRepository{
		db: db,
	}
}

// Conductors GORM model for database mapping
type Conductors struct {
	ID                string    `gorm:"primaryKey;column:id"`
	Name              string    `gorm:"column:name"`
	BusNumber         string    `gorm:"column:bus_number"`
	Capacity          int       `gorm:"column:capacity"`
	CurrentPassengers int       `gorm:"column:current_passengers"`
	IsOnline          bool      `gorm:"column:is_online"`
	LastSeen          time.Time `gorm:"column:last_seen"`
}

// TableName overrides the default table name
func (Conductors) TableName() string {
	return "m_conductors"
}

// FindAll returns all conductor reference records
func (r *GormConductorRepository) FindAll(ctx context.Context) ([]entity.Conductor, error) {
	var rows []Conductors
	result := r.db.WithContext(ctx).Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	conductors := make([]entity.Conductor, 0, len(rows))
	for _, row := range rows {
		conductors = append(conductors, toEntity(row))
	}
	return conductors, nil
}

// FindByID finds a conductor by id
func (r *GormConductorRepository) FindByID(ctx context.Context, id string) (*entity.Conductor, error) {
	var row Conductors
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&row)
	if result.Error != nil {
		return nil, result.Error
	}

	conductor := toEntity(row)
	return &conductor, nil
}

// toEntity converts the GORM model to the domain entity
func toEntity(row Conductors) entity.Conductor {
	return entity.Conductor{
		ID:                row.ID,
		Name:              row.Name,
		BusNumber:         row.BusNumber,
		Capacity:          row.Capacity,
		CurrentPassengers: row.CurrentPassengers,
		IsOnline:          row.IsOnline,
		LastSeen:          row.LastSeen,
	}
}
