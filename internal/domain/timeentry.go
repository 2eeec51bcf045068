package domain

import "time"

// TimeEntryStatus represents the state of a time entry.
type TimeEntryStatus string

const (
	TimeEntryStatusActive    TimeEntryStatus = "active"
	TimeEntryStatusCompleted TimeEntryStatus = "completed"
	TimeEntryStatusEdited    TimeEntryStatus = "edited"
	TimeEntryStatusDisputed  TimeEntryStatus = "disputed"
)

// TimeEntry records one worked interval for a job. Entries are the audit
// trail of worked time: they accumulate and are never deleted, only closed
// or annotated by admin edits.
type TimeEntry struct {
	ID              int64           `json:"id" db:"id"`
	JobID           int64           `json:"job_id" db:"job_id"`
	StaffID         int64           `json:"staff_id" db:"staff_id"`
	ClockIn         time.Time       `json:"clock_in" db:"clock_in"`
	ClockOut        *time.Time      `json:"clock_out,omitempty" db:"clock_out"`
	TotalMinutes    *int            `json:"total_minutes,omitempty" db:"total_minutes"`
	BreakMinutes    int             `json:"break_minutes" db:"break_minutes"`
	BillableMinutes *int            `json:"billable_minutes,omitempty" db:"billable_minutes"`
	ClockInLat      *float64        `json:"clock_in_lat,omitempty" db:"clock_in_lat"`
	ClockInLng      *float64        `json:"clock_in_lng,omitempty" db:"clock_in_lng"`
	ClockOutLat     *float64        `json:"clock_out_lat,omitempty" db:"clock_out_lat"`
	ClockOutLng     *float64        `json:"clock_out_lng,omitempty" db:"clock_out_lng"`
	Status          TimeEntryStatus `json:"status" db:"status"`
	StaffNotes      *string         `json:"staff_notes,omitempty" db:"staff_notes"`
	AdminNotes      *string         `json:"admin_notes,omitempty" db:"admin_notes"`
	EditedBy        *int64          `json:"edited_by,omitempty" db:"edited_by"`
	EditedAt        *time.Time      `json:"edited_at,omitempty" db:"edited_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Closed reports whether the entry represents a finished worked interval.
func (e TimeEntry) Closed() bool {
	return e.Status == TimeEntryStatusCompleted || e.Status == TimeEntryStatusEdited
}

// WorkedMinutes returns billable minutes, falling back to total minutes when
// billable has not been computed.
func (e TimeEntry) WorkedMinutes() int {
	if e.BillableMinutes != nil {
		return *e.BillableMinutes
	}
	if e.TotalMinutes != nil {
		return *e.TotalMinutes
	}
	return 0
}

// TimeEntryUpdate enumerates the fields an admin may change on a time entry.
// Nil fields are left untouched.
type TimeEntryUpdate struct {
	ClockIn      *time.Time `json:"clock_in,omitempty"`
	ClockOut     *time.Time `json:"clock_out,omitempty"`
	TotalMinutes *int       `json:"total_minutes,omitempty"`
	BreakMinutes *int       `json:"break_minutes,omitempty"`
	StaffNotes   *string    `json:"staff_notes,omitempty"`
	AdminNotes   *string    `json:"admin_notes,omitempty"`
}

// BillableMinutes computes worked minutes net of breaks, floored at zero.
func BillableMinutes(totalMinutes, breakMinutes int) int {
	billable := totalMinutes - breakMinutes
	if billable < 0 {
		return 0
	}
	return billable
}
