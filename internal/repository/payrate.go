package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fernhill/fieldtrack/internal/domain"
)

const payRateColumns = `id, staff_id, hourly_rate, overtime_rate, overtime_threshold_hours,
	 effective_from, effective_to, created_by, created_at`

// PayRateRepository handles pay rate data access operations. Records are
// retained indefinitely; historical resolution depends on them.
type PayRateRepository struct {
	db *sqlx.DB
}

// NewPayRateRepository creates a new PayRateRepository.
func NewPayRateRepository(db *sqlx.DB) *PayRateRepository {
	return &PayRateRepository{db: db}
}

// FindByStaff retrieves a staff member's full rate history, newest first.
func (r *PayRateRepository) FindByStaff(ctx context.Context, staffID int64) ([]domain.StaffPayRate, error) {
	rates := []domain.StaffPayRate{}
	err := r.db.SelectContext(ctx, &rates,
		`SELECT `+payRateColumns+` FROM staff_pay_rates
		 WHERE staff_id = $1
		 ORDER BY effective_from DESC, id DESC`, staffID)
	if err != nil {
		return nil, fmt.Errorf("list pay rates for staff %d: %w", staffID, err)
	}
	return rates, nil
}

// Replace closes the currently open rate as of the new record's effective
// date and inserts the new open record, in one transaction. Both writes
// land or neither does.
func (r *PayRateRepository) Replace(ctx context.Context, rate domain.PayRateChange) (*domain.StaffPayRate, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rate tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE staff_pay_rates SET effective_to = $1
		 WHERE staff_id = $2 AND effective_to IS NULL`,
		rate.EffectiveFrom, rate.StaffID)
	if err != nil {
		return nil, fmt.Errorf("close open rate for staff %d: %w", rate.StaffID, err)
	}

	var inserted domain.StaffPayRate
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO staff_pay_rates
		     (staff_id, hourly_rate, overtime_rate, overtime_threshold_hours, effective_from, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+payRateColumns,
		rate.StaffID, rate.HourlyRate, rate.OvertimeRate, rate.OvertimeThresholdHours,
		rate.EffectiveFrom, rate.CreatedBy,
	).StructScan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("insert rate for staff %d: %w", rate.StaffID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rate change for staff %d: %w", rate.StaffID, err)
	}
	return &inserted, nil
}
