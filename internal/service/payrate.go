package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fernhill/fieldtrack/internal/domain"
)

// RateStore defines the pay rate persistence interface consumed by
// PayRateService.
type RateStore interface {
	FindByStaff(ctx context.Context, staffID int64) ([]domain.StaffPayRate, error)
	Replace(ctx context.Context, rate domain.PayRateChange) (*domain.StaffPayRate, error)
}

// defaultOvertimeThresholdHours applies when a new rate does not override it
// and to the synthesized fallback rate.
const defaultOvertimeThresholdHours = 40

// PayRateService resolves the hourly rate in force for a worker on any
// historical date from an effective-dated rate history.
type PayRateService struct {
	rates       RateStore
	defaultRate float64
	now         func() time.Time
}

// NewPayRateService creates a new PayRateService. defaultRate is the
// documented fallback returned when no rate interval covers a date.
func NewPayRateService(rates RateStore, defaultRate float64) *PayRateService {
	return &PayRateService{rates: rates, defaultRate: defaultRate, now: time.Now}
}

// ResolveRate returns the rate whose [effective_from, effective_to)
// interval contains asOf. Should overlapping intervals exist from historical
// data anomalies, the one with the highest effective_from wins. When no
// interval matches — including the window where a close succeeded but the
// matching insert did not — the documented default rate is returned with
// ID 0, never an error.
func (s *PayRateService) ResolveRate(ctx context.Context, staffID int64, asOf time.Time) (*domain.StaffPayRate, error) {
	rates, err := s.rates.FindByStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}

	var match *domain.StaffPayRate
	for i := range rates {
		r := rates[i]
		if !r.Covers(asOf) {
			continue
		}
		if match == nil || r.EffectiveFrom.After(match.EffectiveFrom) {
			match = &rates[i]
		}
	}
	if match != nil {
		return match, nil
	}

	return &domain.StaffPayRate{
		StaffID:                staffID,
		HourlyRate:             s.defaultRate,
		OvertimeThresholdHours: defaultOvertimeThresholdHours,
	}, nil
}

// GetStaffRate resolves the rate in force today.
func (s *PayRateService) GetStaffRate(ctx context.Context, staffID int64) (*domain.StaffPayRate, error) {
	return s.ResolveRate(ctx, staffID, s.now())
}

// RateHistory returns a staff member's full rate history, newest first.
func (s *PayRateService) RateHistory(ctx context.Context, staffID int64) ([]domain.StaffPayRate, error) {
	return s.rates.FindByStaff(ctx, staffID)
}

// SetRateInput carries the fields of a rate change.
type SetRateInput struct {
	StaffID       int64
	HourlyRate    float64
	OvertimeRate  *float64
	EffectiveDate *time.Time
}

// SetRate closes the currently open rate record as of the effective date and
// opens a new one, as a single storage transaction. The effective date
// defaults to today and must not precede the open record's start, which
// would invert its interval.
func (s *PayRateService) SetRate(ctx context.Context, caller domain.Caller, in SetRateInput) (*domain.StaffPayRate, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("set rate for staff %d: %w", in.StaffID, domain.ErrForbidden)
	}
	if in.HourlyRate <= 0 {
		return nil, &domain.ValidationError{Field: "hourly_rate", Message: "must be positive"}
	}
	if in.OvertimeRate != nil && *in.OvertimeRate <= 0 {
		return nil, &domain.ValidationError{Field: "overtime_rate", Message: "must be positive"}
	}

	effective := domain.DateOnly(s.now())
	if in.EffectiveDate != nil {
		effective = domain.DateOnly(*in.EffectiveDate)
	}

	rates, err := s.rates.FindByStaff(ctx, in.StaffID)
	if err != nil {
		return nil, err
	}
	for _, r := range rates {
		if r.EffectiveTo == nil && effective.Before(domain.DateOnly(r.EffectiveFrom)) {
			return nil, &domain.ValidationError{
				Field:   "effective_date",
				Message: "precedes the start of the currently open rate",
			}
		}
	}

	return s.rates.Replace(ctx, domain.PayRateChange{
		StaffID:                in.StaffID,
		HourlyRate:             in.HourlyRate,
		OvertimeRate:           in.OvertimeRate,
		OvertimeThresholdHours: defaultOvertimeThresholdHours,
		EffectiveFrom:          effective,
		CreatedBy:              caller.ID,
	})
}
