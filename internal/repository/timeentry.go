package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fernhill/fieldtrack/internal/domain"
)

const timeEntryColumns = `id, job_id, staff_id, clock_in, clock_out, total_minutes, break_minutes,
	 billable_minutes, clock_in_lat, clock_in_lng, clock_out_lat, clock_out_lng,
	 status, staff_notes, admin_notes, edited_by, edited_at, created_at, updated_at`

// TimeEntryRepository handles time entry data access operations. There is
// deliberately no delete: entries are the audit trail of worked time.
type TimeEntryRepository struct {
	db *sqlx.DB
}

// NewTimeEntryRepository creates a new TimeEntryRepository.
func NewTimeEntryRepository(db *sqlx.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// FindByID retrieves a time entry by its ID.
func (r *TimeEntryRepository) FindByID(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	err := r.db.GetContext(ctx, &entry,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find time entry by id %d: %w", id, err)
	}
	return &entry, nil
}

// FindActiveByJob retrieves the single open entry for a job, if any.
func (r *TimeEntryRepository) FindActiveByJob(ctx context.Context, jobID int64) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	err := r.db.GetContext(ctx, &entry,
		`SELECT `+timeEntryColumns+` FROM time_entries
		 WHERE job_id = $1 AND status = $2`, jobID, domain.TimeEntryStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find active entry for job %d: %w", jobID, err)
	}
	return &entry, nil
}

// ListByStaff retrieves a staff member's entries whose clock-in falls within
// [from, to), most recent first.
func (r *TimeEntryRepository) ListByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]domain.TimeEntry, error) {
	entries := []domain.TimeEntry{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+timeEntryColumns+` FROM time_entries
		 WHERE staff_id = $1 AND clock_in >= $2 AND clock_in < $3
		 ORDER BY clock_in DESC`, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list entries for staff %d: %w", staffID, err)
	}
	return entries, nil
}

// Save persists the mutable fields of an edited entry. Only the enumerated
// columns are written; identity and creation fields are immutable.
func (r *TimeEntryRepository) Save(ctx context.Context, entry *domain.TimeEntry) (*domain.TimeEntry, error) {
	var updated domain.TimeEntry
	err := r.db.QueryRowxContext(ctx,
		`UPDATE time_entries
		 SET clock_in = $1, clock_out = $2, total_minutes = $3, break_minutes = $4,
		     billable_minutes = $5, status = $6, staff_notes = $7, admin_notes = $8,
		     edited_by = $9, edited_at = $10, updated_at = NOW()
		 WHERE id = $11
		 RETURNING `+timeEntryColumns,
		entry.ClockIn, entry.ClockOut, entry.TotalMinutes, entry.BreakMinutes,
		entry.BillableMinutes, entry.Status, entry.StaffNotes, entry.AdminNotes,
		entry.EditedBy, entry.EditedAt, entry.ID,
	).StructScan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("save time entry %d: %w", entry.ID, err)
	}
	return &updated, nil
}
