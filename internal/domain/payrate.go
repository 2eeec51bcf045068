package domain

import "time"

// StaffPayRate is an effective-dated hourly rate for a staff member, valid
// over the half-open date interval [EffectiveFrom, EffectiveTo). A nil
// EffectiveTo marks the currently open record; a staff member has at most
// one open record at a time.
type StaffPayRate struct {
	ID                     int64      `json:"id" db:"id"`
	StaffID                int64      `json:"staff_id" db:"staff_id"`
	HourlyRate             float64    `json:"hourly_rate" db:"hourly_rate"`
	OvertimeRate           *float64   `json:"overtime_rate,omitempty" db:"overtime_rate"`
	OvertimeThresholdHours float64    `json:"overtime_threshold_hours" db:"overtime_threshold_hours"`
	EffectiveFrom          time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo            *time.Time `json:"effective_to,omitempty" db:"effective_to"`
	CreatedBy              int64      `json:"created_by" db:"created_by"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
}

// PayRateChange holds the fields of a rate record to open. The persistence
// layer closes the previously open record as of EffectiveFrom and inserts
// this one atomically.
type PayRateChange struct {
	StaffID                int64
	HourlyRate             float64
	OvertimeRate           *float64
	OvertimeThresholdHours float64
	EffectiveFrom          time.Time
	CreatedBy              int64
}

// Covers reports whether the rate is valid on the given date, using the
// half-open interval [EffectiveFrom, EffectiveTo).
func (r StaffPayRate) Covers(asOf time.Time) bool {
	day := DateOnly(asOf)
	if day.Before(DateOnly(r.EffectiveFrom)) {
		return false
	}
	return r.EffectiveTo == nil || day.Before(DateOnly(*r.EffectiveTo))
}

// DateOnly truncates a timestamp to midnight UTC so effective-dated
// comparisons operate on calendar dates, not instants.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
