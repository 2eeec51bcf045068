package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fernhill/fieldtrack/internal/domain"
	"github.com/fernhill/fieldtrack/internal/service"
)

// TimeEntryHandler handles time entry ledger endpoints.
type TimeEntryHandler struct {
	ledger *service.LedgerService
}

// NewTimeEntryHandler creates a new TimeEntryHandler.
func NewTimeEntryHandler(ledger *service.LedgerService) *TimeEntryHandler {
	return &TimeEntryHandler{ledger: ledger}
}

type editTimeEntryRequest struct {
	ClockIn      *time.Time `json:"clock_in"`
	ClockOut     *time.Time `json:"clock_out"`
	TotalMinutes *int       `json:"total_minutes" validate:"omitempty,min=0"`
	BreakMinutes *int       `json:"break_minutes" validate:"omitempty,min=0"`
	StaffNotes   *string    `json:"staff_notes" validate:"omitempty,max=2000"`
	AdminNotes   *string    `json:"admin_notes" validate:"omitempty,max=2000"`
}

// Edit applies an admin correction to a time entry.
func (h *TimeEntryHandler) Edit(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller, ok := GetCaller(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req editTimeEntryRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.ledger.Edit(c.Request().Context(), id, domain.TimeEntryUpdate{
		ClockIn:      req.ClockIn,
		ClockOut:     req.ClockOut,
		TotalMinutes: req.TotalMinutes,
		BreakMinutes: req.BreakMinutes,
		StaffNotes:   req.StaffNotes,
		AdminNotes:   req.AdminNotes,
	}, caller)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, entry)
}

type forceClockOutRequest struct {
	ClockOutTime *time.Time `json:"clock_out_time"`
}

// ForceClockOut closes a stale active entry on the worker's behalf.
func (h *TimeEntryHandler) ForceClockOut(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller, ok := GetCaller(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req forceClockOutRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	entry, err := h.ledger.ForceClockOut(c.Request().Context(), id, req.ClockOutTime, caller)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, entry)
}

// ActiveByJob returns the open entry for a job, for admins chasing a stale
// clock-in.
func (h *TimeEntryHandler) ActiveByJob(c echo.Context) error {
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller, ok := GetCaller(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}

	entry, err := h.ledger.ActiveByJob(c.Request().Context(), jobID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, entry)
}

// staffEntriesResponse pairs a period's entries with their billable total.
type staffEntriesResponse struct {
	Entries              []domain.TimeEntry `json:"entries"`
	TotalBillableMinutes int                `json:"total_billable_minutes"`
}

// ListByStaff returns a staff member's entries for a period along with the
// billable total over closed entries.
func (h *TimeEntryHandler) ListByStaff(c echo.Context) error {
	staffID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if _, ok := GetCaller(c); !ok {
		return domain.ErrUnauthorized
	}

	from, err := queryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return err
	}

	entries, err := h.ledger.ListByStaff(c.Request().Context(), staffID, from, to)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, staffEntriesResponse{
		Entries:              entries,
		TotalBillableMinutes: h.ledger.Totals(entries),
	})
}

func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: name, Message: "is required (YYYY-MM-DD)"}
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: name, Message: "must be a date in YYYY-MM-DD form"}
	}
	return t, nil
}
