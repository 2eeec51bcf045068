package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fernhill/fieldtrack/internal/domain"
	"github.com/fernhill/fieldtrack/internal/service"
)

// PayRateHandler handles pay rate endpoints.
type PayRateHandler struct {
	rates *service.PayRateService
}

// NewPayRateHandler creates a new PayRateHandler.
func NewPayRateHandler(rates *service.PayRateService) *PayRateHandler {
	return &PayRateHandler{rates: rates}
}

// GetCurrent returns the rate in force for a staff member. An `as_of` query
// parameter resolves the rate for a historical date instead of today.
func (h *PayRateHandler) GetCurrent(c echo.Context) error {
	staffID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if _, ok := GetCaller(c); !ok {
		return domain.ErrUnauthorized
	}

	if raw := c.QueryParam("as_of"); raw != "" {
		asOf, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return &domain.ValidationError{Field: "as_of", Message: "must be a date in YYYY-MM-DD form"}
		}
		rate, err := h.rates.ResolveRate(c.Request().Context(), staffID, asOf)
		if err != nil {
			return err
		}
		return JSON(c, http.StatusOK, rate)
	}

	rate, err := h.rates.GetStaffRate(c.Request().Context(), staffID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, rate)
}

// History returns a staff member's full rate history.
func (h *PayRateHandler) History(c echo.Context) error {
	staffID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if _, ok := GetCaller(c); !ok {
		return domain.ErrUnauthorized
	}

	rates, err := h.rates.RateHistory(c.Request().Context(), staffID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, rates)
}

type setRateRequest struct {
	HourlyRate    float64  `json:"hourly_rate" validate:"required,gt=0"`
	OvertimeRate  *float64 `json:"overtime_rate" validate:"omitempty,gt=0"`
	EffectiveDate *string  `json:"effective_date"`
}

// Set records a new rate effective from the given date (default today),
// closing the previously open record.
func (h *PayRateHandler) Set(c echo.Context) error {
	staffID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	caller, ok := GetCaller(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req setRateRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := service.SetRateInput{
		StaffID:      staffID,
		HourlyRate:   req.HourlyRate,
		OvertimeRate: req.OvertimeRate,
	}
	if req.EffectiveDate != nil {
		effective, err := time.Parse("2006-01-02", *req.EffectiveDate)
		if err != nil {
			return &domain.ValidationError{Field: "effective_date", Message: "must be a date in YYYY-MM-DD form"}
		}
		in.EffectiveDate = &effective
	}

	rate, err := h.rates.SetRate(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, rate)
}
