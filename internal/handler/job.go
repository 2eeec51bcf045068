package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fernhill/fieldtrack/internal/domain"
	"github.com/fernhill/fieldtrack/internal/location"
	"github.com/fernhill/fieldtrack/internal/service"
)

// JobDirectory is the read surface served directly by JobHandler, alongside
// the workflow's transitions.
type JobDirectory interface {
	FindByID(ctx context.Context, id int64) (*domain.Job, error)
	ListByStaffAndDate(ctx context.Context, staffID int64, date string) ([]domain.Job, error)
}

// JobHandler handles job workflow endpoints.
type JobHandler struct {
	workflow *service.WorkflowService
	jobs     JobDirectory
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(workflow *service.WorkflowService, jobs JobDirectory) *JobHandler {
	return &JobHandler{workflow: workflow, jobs: jobs}
}

// gpsFixRequest is the client-reported position attached to a transition.
// Both coordinates must be present together.
type gpsFixRequest struct {
	Lat *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
}

// provider turns the client fix into a location provider. Requests without
// coordinates still flow through the acquisition path so the failure is
// typed and logged.
func (r gpsFixRequest) provider() (location.Provider, error) {
	switch {
	case r.Lat != nil && r.Lng != nil:
		return location.Fixed(location.Position{Lat: *r.Lat, Lng: *r.Lng}), nil
	case r.Lat != nil || r.Lng != nil:
		return nil, &domain.ValidationError{Field: "lat", Message: "lat and lng must be supplied together"}
	default:
		return location.Unavailable(location.PositionUnavailable), nil
	}
}

// Get returns a job by ID.
func (h *JobHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	job, err := h.jobs.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, job)
}

// ListByStaff returns a staff member's jobs for one schedule day. Workers
// may only see their own day; admins may see anyone's.
func (h *JobHandler) ListByStaff(c echo.Context) error {
	staffID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller, ok := GetCaller(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	if !caller.IsAdmin() && caller.ID != staffID {
		return domain.ErrForbidden
	}

	date := c.QueryParam("date")
	if date == "" {
		return &domain.ValidationError{Field: "date", Message: "is required (YYYY-MM-DD)"}
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return &domain.ValidationError{Field: "date", Message: "must be a date in YYYY-MM-DD form"}
	}

	jobs, err := h.jobs.ListByStaffAndDate(c.Request().Context(), staffID, date)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, jobs)
}

type startJobRequest struct {
	gpsFixRequest
}

// Start clocks a worker into a scheduled job.
func (h *JobHandler) Start(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller, ok := GetCaller(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req startJobRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	gps, err := req.provider()
	if err != nil {
		return err
	}

	result, err := h.workflow.Start(c.Request().Context(), id, caller, gps)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, result)
}

type completeJobRequest struct {
	gpsFixRequest
	StaffNotes    *string `json:"staff_notes" validate:"omitempty,max=2000"`
	IssueReported bool    `json:"issue_reported"`
}

// Complete clocks a worker out of an in-progress job.
func (h *JobHandler) Complete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller, ok := GetCaller(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req completeJobRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	gps, err := req.provider()
	if err != nil {
		return err
	}

	result, err := h.workflow.Complete(c.Request().Context(), id, caller, gps, service.CompleteInput{
		StaffNotes:    req.StaffNotes,
		IssueReported: req.IssueReported,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, result)
}

// pathID parses a positive int64 path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}
