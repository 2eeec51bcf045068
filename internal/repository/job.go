package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fernhill/fieldtrack/internal/domain"
)

const jobColumns = `id, property_id, assigned_staff_id, scheduled_date, scheduled_time, status,
	 start_time, end_time, checkin_lat, checkin_lng, checkout_lat, checkout_lng,
	 notes, issue_reported, actual_duration_minutes, created_at, updated_at`

// JobRepository handles job data access operations.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// FindByID retrieves a job by its ID.
func (r *JobRepository) FindByID(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	err := r.db.GetContext(ctx, &job,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find job by id %d: %w", id, err)
	}
	return &job, nil
}

// ListByStaffAndDate retrieves the jobs assigned to a staff member on a date.
func (r *JobRepository) ListByStaffAndDate(ctx context.Context, staffID int64, date string) ([]domain.Job, error) {
	jobs := []domain.Job{}
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE assigned_staff_id = $1 AND scheduled_date = $2
		 ORDER BY scheduled_time NULLS LAST, id`, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("list jobs for staff %d: %w", staffID, err)
	}
	return jobs, nil
}

// Checkin moves a job from Scheduled to InProgress and opens its time entry
// as one transaction. The status update is conditional on the job still
// being Scheduled: a concurrent caller that lost the race gets
// domain.ErrInvalidTransition.
func (r *JobRepository) Checkin(ctx context.Context, in domain.JobCheckin) (*domain.TimeEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE jobs
		 SET status = $1, start_time = $2, checkin_lat = $3, checkin_lng = $4, updated_at = NOW()
		 WHERE id = $5 AND status = $6`,
		domain.JobStatusInProgress, in.StartTime, in.CheckinLat, in.CheckinLng,
		in.JobID, domain.JobStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("checkin job %d: %w", in.JobID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checkin job %d rows: %w", in.JobID, err)
	}
	if rows == 0 {
		return nil, domain.ErrInvalidTransition
	}

	var entry domain.TimeEntry
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO time_entries (job_id, staff_id, clock_in, clock_in_lat, clock_in_lng, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+timeEntryColumns,
		in.JobID, in.StaffID, in.StartTime, in.CheckinLat, in.CheckinLng,
		domain.TimeEntryStatusActive,
	).StructScan(&entry)
	if err != nil {
		return nil, fmt.Errorf("open time entry for job %d: %w", in.JobID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkin for job %d: %w", in.JobID, err)
	}
	return &entry, nil
}

// Checkout moves a job from InProgress to Completed and closes its active
// time entry with a matching clock-out, as one transaction. Conditional on
// the job still being InProgress.
func (r *JobRepository) Checkout(ctx context.Context, out domain.JobCheckout) (*domain.TimeEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE jobs
		 SET status = $1, end_time = $2, actual_duration_minutes = $3,
		     checkout_lat = $4, checkout_lng = $5,
		     notes = COALESCE($6, notes), issue_reported = $7, updated_at = NOW()
		 WHERE id = $8 AND status = $9`,
		domain.JobStatusCompleted, out.EndTime, out.DurationMinutes,
		out.CheckoutLat, out.CheckoutLng, out.Notes, out.IssueReported,
		out.JobID, domain.JobStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("checkout job %d: %w", out.JobID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checkout job %d rows: %w", out.JobID, err)
	}
	if rows == 0 {
		return nil, domain.ErrInvalidTransition
	}

	// billable = max(0, total - break); the entry's break minutes are kept.
	var entry domain.TimeEntry
	err = tx.QueryRowxContext(ctx,
		`UPDATE time_entries
		 SET clock_out = $1, total_minutes = $2,
		     billable_minutes = GREATEST(0, $2 - break_minutes),
		     clock_out_lat = $3, clock_out_lng = $4,
		     staff_notes = COALESCE($5, staff_notes),
		     status = $6, updated_at = NOW()
		 WHERE job_id = $7 AND status = $8
		 RETURNING `+timeEntryColumns,
		out.EndTime, out.DurationMinutes, out.CheckoutLat, out.CheckoutLng,
		out.Notes, domain.TimeEntryStatusCompleted,
		out.JobID, domain.TimeEntryStatusActive,
	).StructScan(&entry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// InProgress job with no open entry: the pair is corrupt, roll back.
			return nil, fmt.Errorf("job %d has no active time entry: %w", out.JobID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("close time entry for job %d: %w", out.JobID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout for job %d: %w", out.JobID, err)
	}
	return &entry, nil
}
