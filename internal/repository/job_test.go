package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhill/fieldtrack/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func entryRows(clockIn time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "job_id", "staff_id", "clock_in", "clock_out", "total_minutes", "break_minutes",
		"billable_minutes", "clock_in_lat", "clock_in_lng", "clock_out_lat", "clock_out_lng",
		"status", "staff_notes", "admin_notes", "edited_by", "edited_at", "created_at", "updated_at",
	}).AddRow(
		int64(5), int64(1), int64(7), clockIn, nil, nil, 0,
		nil, nil, nil, nil, nil,
		string(domain.TimeEntryStatusActive), nil, nil, nil, nil, clockIn, clockIn,
	)
}

func TestListByStaffAndDate_ReturnsAssignedDay(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepository(db)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs(int64(7), "2024-06-01").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "assigned_staff_id", "scheduled_date", "scheduled_time", "status",
			"start_time", "end_time", "checkin_lat", "checkin_lng", "checkout_lat", "checkout_lng",
			"notes", "issue_reported", "actual_duration_minutes", "created_at", "updated_at",
		}).AddRow(
			int64(1), int64(10), int64(7), day, "09:00", string(domain.JobStatusScheduled),
			nil, nil, nil, nil, nil, nil,
			nil, false, nil, day, day,
		))

	jobs, err := repo.ListByStaffAndDate(context.Background(), 7, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(1), jobs[0].ID)
	assert.Equal(t, domain.JobStatusScheduled, jobs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveByJob_MapsNoRowsToNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeEntryRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM time_entries").
		WithArgs(int64(1), string(domain.TimeEntryStatusActive)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindActiveByJob(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckin_UpdatesJobAndOpensEntryInOneTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepository(db)
	startTime := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE jobs").
		WithArgs(string(domain.JobStatusInProgress), startTime, nil, nil, int64(1), string(domain.JobStatusScheduled)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO time_entries").
		WithArgs(int64(1), int64(7), startTime, nil, nil, string(domain.TimeEntryStatusActive)).
		WillReturnRows(entryRows(startTime))
	mock.ExpectCommit()

	entry, err := repo.Checkin(context.Background(), domain.JobCheckin{
		JobID:     1,
		StaffID:   7,
		StartTime: startTime,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), entry.ID)
	assert.Equal(t, domain.TimeEntryStatusActive, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckin_ConditionalUpdateMissIsInvalidTransition(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepository(db)
	startTime := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	// The job is no longer Scheduled: zero rows match the precondition.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Checkin(context.Background(), domain.JobCheckin{
		JobID:     1,
		StaffID:   7,
		StartTime: startTime,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_ConditionalUpdateMissIsInvalidTransition(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Checkout(context.Background(), domain.JobCheckout{
		JobID:           1,
		EndTime:         time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
		DurationMinutes: 120,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplace_ClosesOpenRateThenInserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayRateRepository(db)
	effective := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE staff_pay_rates").
		WithArgs(effective, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO staff_pay_rates").
		WithArgs(int64(7), 35.0, nil, 40.0, effective, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "staff_id", "hourly_rate", "overtime_rate", "overtime_threshold_hours",
			"effective_from", "effective_to", "created_by", "created_at",
		}).AddRow(int64(2), int64(7), 35.0, nil, 40.0, effective, nil, int64(1), effective))
	mock.ExpectCommit()

	rate, err := repo.Replace(context.Background(), domain.PayRateChange{
		StaffID:                7,
		HourlyRate:             35,
		OvertimeThresholdHours: 40,
		EffectiveFrom:          effective,
		CreatedBy:              1,
	})
	require.NoError(t, err)
	assert.Equal(t, 35.0, rate.HourlyRate)
	assert.Nil(t, rate.EffectiveTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
