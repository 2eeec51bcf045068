package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/fernhill/fieldtrack/internal/domain"
	"github.com/fernhill/fieldtrack/internal/geo"
	"github.com/fernhill/fieldtrack/internal/location"
)

// JobStore defines the job persistence interface consumed by WorkflowService.
// Checkin and Checkout apply the status transition and the linked time entry
// write as one unit, conditional on the expected prior status.
type JobStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Job, error)
	Checkin(ctx context.Context, in domain.JobCheckin) (*domain.TimeEntry, error)
	Checkout(ctx context.Context, out domain.JobCheckout) (*domain.TimeEntry, error)
}

// PropertyStore supplies job-site fence data.
type PropertyStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Property, error)
}

// StaffStore supplies worker records for the active-account gate.
type StaffStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Staff, error)
}

// AlertSink receives advisory alerts for exceptional conditions. Sink
// failures are logged by the caller and never escalate.
type AlertSink interface {
	RecordAlert(ctx context.Context, jobID int64, alertType, message string) error
}

// Alert types recorded through the sink.
const (
	AlertLateArrival       = "late_arrival"
	AlertGeofenceViolation = "geofence_violation"
)

// WorkflowConfig tunes the job workflow.
type WorkflowConfig struct {
	GPSTimeout       time.Duration
	LateArrivalGrace time.Duration
}

// WorkflowService drives jobs through their lifecycle: Scheduled →
// InProgress → Completed, with GPS-stamped transitions and a time entry
// opened and closed in lockstep.
type WorkflowService struct {
	jobs       JobStore
	properties PropertyStore
	staff      StaffStore
	alerts     AlertSink
	notifier   Notifier
	cfg        WorkflowConfig
	now        func() time.Time
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(jobs JobStore, properties PropertyStore, staff StaffStore, alerts AlertSink, notifier Notifier, cfg WorkflowConfig) *WorkflowService {
	return &WorkflowService{
		jobs:       jobs,
		properties: properties,
		staff:      staff,
		alerts:     alerts,
		notifier:   notifier,
		cfg:        cfg,
		now:        time.Now,
	}
}

// StartResult reports the outcome of starting a job.
type StartResult struct {
	Job             *domain.Job          `json:"job"`
	TimeEntry       *domain.TimeEntry    `json:"time_entry"`
	Geofence        *geo.Result          `json:"geofence,omitempty"`
	LocationFailure location.FailureCode `json:"location_failure,omitempty"`
}

// Start transitions a Scheduled job to InProgress and opens its time entry.
// GPS capture is best-effort within the configured timeout; acquisition
// failure is surfaced in the result and logged, never fatal. The transition
// itself is conditional at the storage layer, so of two concurrent callers
// exactly one succeeds and the other gets domain.ErrInvalidTransition.
func (s *WorkflowService) Start(ctx context.Context, jobID int64, caller domain.Caller, gps location.Provider) (*StartResult, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWorker(job, caller); err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusScheduled {
		return nil, fmt.Errorf("start job %d from %s: %w", jobID, job.Status, domain.ErrInvalidTransition)
	}

	// The entry belongs to the assigned worker even when an admin starts
	// the job on their behalf.
	staffID := caller.ID
	if job.AssignedStaffID != nil {
		staffID = *job.AssignedStaffID
	}
	if err := s.verifyActiveStaff(ctx, staffID); err != nil {
		return nil, err
	}

	result := &StartResult{}
	pos := s.capturePosition(ctx, gps, jobID, "checkin", &result.LocationFailure)
	if pos != nil {
		result.Geofence = s.fenceResult(ctx, job, *pos)
	}

	now := s.now()
	checkin := domain.JobCheckin{
		JobID:     jobID,
		StaffID:   staffID,
		StartTime: now,
	}
	if pos != nil {
		checkin.CheckinLat = &pos.Lat
		checkin.CheckinLng = &pos.Lng
	}

	entry, err := s.jobs.Checkin(ctx, checkin)
	if err != nil {
		s.notify(ctx, Outcome{Operation: "job.start", JobID: jobID, StaffID: caller.ID, Err: err})
		return nil, err
	}

	// Alerts are advisory rows tied to the transition; recording them only
	// after the conditional checkin commits keeps a losing concurrent start
	// from leaving them behind.
	s.recordFenceViolation(ctx, jobID, result.Geofence)
	s.checkLateArrival(ctx, job, now)

	refreshed, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		// The transition is already durable; serve a local snapshot
		// rather than failing the request on a read.
		slog.Warn("job re-read failed after checkin", "job_id", jobID, "error", err)
		snap := *job
		snap.Status = domain.JobStatusInProgress
		snap.StartTime = &now
		snap.CheckinLat = checkin.CheckinLat
		snap.CheckinLng = checkin.CheckinLng
		refreshed = &snap
	}

	result.Job = refreshed
	result.TimeEntry = entry
	s.notify(ctx, Outcome{Operation: "job.start", JobID: jobID, StaffID: caller.ID})
	return result, nil
}

// CompleteInput carries the worker-supplied completion fields.
type CompleteInput struct {
	StaffNotes    *string
	IssueReported bool
}

// CompleteResult reports the outcome of completing a job.
type CompleteResult struct {
	Job             *domain.Job          `json:"job"`
	TimeEntry       *domain.TimeEntry    `json:"time_entry"`
	DurationMinutes int                  `json:"duration_minutes"`
	Geofence        *geo.Result          `json:"geofence,omitempty"`
	LocationFailure location.FailureCode `json:"location_failure,omitempty"`
}

// Complete transitions an InProgress job to Completed, computing the worked
// duration from the recorded start time and closing the linked time entry
// with a matching clock-out.
func (s *WorkflowService) Complete(ctx context.Context, jobID int64, caller domain.Caller, gps location.Provider, in CompleteInput) (*CompleteResult, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWorker(job, caller); err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusInProgress {
		return nil, fmt.Errorf("complete job %d from %s: %w", jobID, job.Status, domain.ErrInvalidTransition)
	}
	if job.StartTime == nil {
		return nil, fmt.Errorf("complete job %d: %w", jobID, domain.ErrMissingStartTime)
	}

	result := &CompleteResult{}
	pos := s.capturePosition(ctx, gps, jobID, "checkout", &result.LocationFailure)
	if pos != nil {
		result.Geofence = s.fenceResult(ctx, job, *pos)
	}

	now := s.now()
	duration := int(math.Round(now.Sub(*job.StartTime).Minutes()))

	checkout := domain.JobCheckout{
		JobID:           jobID,
		EndTime:         now,
		DurationMinutes: duration,
		Notes:           in.StaffNotes,
		IssueReported:   in.IssueReported,
	}
	if pos != nil {
		checkout.CheckoutLat = &pos.Lat
		checkout.CheckoutLng = &pos.Lng
	}

	entry, err := s.jobs.Checkout(ctx, checkout)
	if err != nil {
		s.notify(ctx, Outcome{Operation: "job.complete", JobID: jobID, StaffID: caller.ID, Err: err})
		return nil, err
	}

	s.recordFenceViolation(ctx, jobID, result.Geofence)

	refreshed, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		slog.Warn("job re-read failed after checkout", "job_id", jobID, "error", err)
		snap := *job
		snap.Status = domain.JobStatusCompleted
		snap.EndTime = &now
		snap.CheckoutLat = checkout.CheckoutLat
		snap.CheckoutLng = checkout.CheckoutLng
		snap.Notes = checkout.Notes
		snap.IssueReported = checkout.IssueReported
		snap.ActualDurationMinutes = &duration
		refreshed = &snap
	}

	result.Job = refreshed
	result.TimeEntry = entry
	result.DurationMinutes = duration
	s.notify(ctx, Outcome{Operation: "job.complete", JobID: jobID, StaffID: caller.ID})
	return result, nil
}

// authorizeWorker allows admins and the assigned worker through. Jobs with
// no assignment may be picked up by any staff member.
func (s *WorkflowService) authorizeWorker(job *domain.Job, caller domain.Caller) error {
	if caller.IsAdmin() {
		return nil
	}
	if job.AssignedStaffID != nil && *job.AssignedStaffID != caller.ID {
		return fmt.Errorf("job %d is assigned to another worker: %w", job.ID, domain.ErrForbidden)
	}
	return nil
}

// capturePosition acquires a GPS fix within the configured timeout. Failures
// are recoverable: they are logged, recorded in the result, and the workflow
// proceeds without coordinates.
func (s *WorkflowService) capturePosition(ctx context.Context, gps location.Provider, jobID int64, phase string, failure *location.FailureCode) *location.Position {
	pos, err := location.Acquire(ctx, gps, s.cfg.GPSTimeout)
	if err != nil {
		var locErr *location.Error
		if errors.As(err, &locErr) {
			*failure = locErr.Code
		} else {
			*failure = location.PositionUnavailable
		}
		slog.Warn("proceeding without GPS fix",
			"job_id", jobID,
			"phase", phase,
			"reason", string(*failure),
		)
		return nil
	}
	return pos
}

// verifyActiveStaff confirms the worker who will own the transition exists
// and has not been deactivated.
func (s *WorkflowService) verifyActiveStaff(ctx context.Context, staffID int64) error {
	worker, err := s.staff.FindByID(ctx, staffID)
	if err != nil {
		return fmt.Errorf("verify staff %d: %w", staffID, err)
	}
	if !worker.Active {
		return fmt.Errorf("staff %d is deactivated: %w", staffID, domain.ErrForbidden)
	}
	return nil
}

// fenceResult validates the fix against the job site's fence. Pure check:
// any advisory alert is recorded separately, after the transition commits.
func (s *WorkflowService) fenceResult(ctx context.Context, job *domain.Job, pos location.Position) *geo.Result {
	property, err := s.properties.FindByID(ctx, job.PropertyID)
	if err != nil {
		slog.Warn("skipping fence check, property lookup failed",
			"job_id", job.ID, "property_id", job.PropertyID, "error", err)
		return nil
	}

	res := geo.Validate(
		geo.Point{Lat: pos.Lat, Lng: pos.Lng},
		geo.Site{Lat: property.LocationLat, Lng: property.LocationLng, RadiusMeters: property.GeofenceRadiusMeters},
	)
	return &res
}

func (s *WorkflowService) recordFenceViolation(ctx context.Context, jobID int64, fence *geo.Result) {
	if fence == nil || !fence.Verified || fence.WithinFence {
		return
	}
	s.recordAlert(ctx, jobID, AlertGeofenceViolation,
		fmt.Sprintf("position %.0fm from site, fence radius %.0fm", fence.DistanceMeters, fence.RadiusMeters))
}

func (s *WorkflowService) checkLateArrival(ctx context.Context, job *domain.Job, now time.Time) {
	slot := scheduledSlot(job)
	if slot == nil {
		return
	}
	if now.After(slot.Add(s.cfg.LateArrivalGrace)) {
		s.recordAlert(ctx, job.ID, AlertLateArrival,
			fmt.Sprintf("started %s after scheduled slot", now.Sub(*slot).Round(time.Minute)))
	}
}

func (s *WorkflowService) recordAlert(ctx context.Context, jobID int64, alertType, message string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.RecordAlert(ctx, jobID, alertType, message); err != nil {
		slog.Warn("alert sink failure", "job_id", jobID, "alert_type", alertType, "error", err)
	}
}

func (s *WorkflowService) notify(ctx context.Context, out Outcome) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, out)
	}
}

// scheduledSlot combines the job's date and "HH:MM" time into an instant.
// Returns nil when the job has no time slot or it does not parse.
func scheduledSlot(job *domain.Job) *time.Time {
	if job.ScheduledTime == nil {
		return nil
	}
	t, err := time.Parse("15:04", *job.ScheduledTime)
	if err != nil {
		return nil
	}
	d := job.ScheduledDate
	slot := time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location())
	return &slot
}
