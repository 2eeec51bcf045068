package domain

import "time"

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job represents a scheduled visit to a property by an assigned staff member.
// Jobs move monotonically Scheduled → InProgress → Completed; Cancelled is
// imposed by the scheduling system and is terminal.
type Job struct {
	ID                    int64      `json:"id" db:"id"`
	PropertyID            int64      `json:"property_id" db:"property_id"`
	AssignedStaffID       *int64     `json:"assigned_staff_id,omitempty" db:"assigned_staff_id"`
	ScheduledDate         time.Time  `json:"scheduled_date" db:"scheduled_date"`
	ScheduledTime         *string    `json:"scheduled_time,omitempty" db:"scheduled_time"`
	Status                JobStatus  `json:"status" db:"status"`
	StartTime             *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime               *time.Time `json:"end_time,omitempty" db:"end_time"`
	CheckinLat            *float64   `json:"checkin_lat,omitempty" db:"checkin_lat"`
	CheckinLng            *float64   `json:"checkin_lng,omitempty" db:"checkin_lng"`
	CheckoutLat           *float64   `json:"checkout_lat,omitempty" db:"checkout_lat"`
	CheckoutLng           *float64   `json:"checkout_lng,omitempty" db:"checkout_lng"`
	Notes                 *string    `json:"notes,omitempty" db:"notes"`
	IssueReported         bool       `json:"issue_reported" db:"issue_reported"`
	ActualDurationMinutes *int       `json:"actual_duration_minutes,omitempty" db:"actual_duration_minutes"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// JobCheckin holds the fields persisted when a job transitions to InProgress.
// The status update and the opening of the linked time entry are applied as
// one unit by the persistence layer.
type JobCheckin struct {
	JobID      int64
	StaffID    int64
	StartTime  time.Time
	CheckinLat *float64
	CheckinLng *float64
}

// JobCheckout holds the fields persisted when a job transitions to Completed.
type JobCheckout struct {
	JobID           int64
	EndTime         time.Time
	DurationMinutes int
	CheckoutLat     *float64
	CheckoutLng     *float64
	Notes           *string
	IssueReported   bool
}
