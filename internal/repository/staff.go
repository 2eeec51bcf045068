package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fernhill/fieldtrack/internal/domain"
)

// StaffRepository handles staff data access operations.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByID retrieves a staff member by their ID.
func (r *StaffRepository) FindByID(ctx context.Context, id int64) (*domain.Staff, error) {
	var staff domain.Staff
	err := r.db.GetContext(ctx, &staff,
		`SELECT id, email, display_name, role, active, created_at, updated_at
		 FROM staff WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find staff by id %d: %w", id, err)
	}
	return &staff, nil
}
