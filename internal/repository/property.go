package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fernhill/fieldtrack/internal/domain"
)

// PropertyRepository handles property data access operations. Properties are
// owned by the scheduling system; this module only reads them.
type PropertyRepository struct {
	db *sqlx.DB
}

// NewPropertyRepository creates a new PropertyRepository.
func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// FindByID retrieves a property by its ID.
func (r *PropertyRepository) FindByID(ctx context.Context, id int64) (*domain.Property, error) {
	var property domain.Property
	err := r.db.GetContext(ctx, &property,
		`SELECT id, name, address, location_lat, location_lng, geofence_radius_meters, created_at, updated_at
		 FROM properties WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find property by id %d: %w", id, err)
	}
	return &property, nil
}
