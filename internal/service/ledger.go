package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fernhill/fieldtrack/internal/domain"
)

// EntryStore defines the time entry persistence interface consumed by
// LedgerService. The store exposes no delete: entries are append-only.
type EntryStore interface {
	FindByID(ctx context.Context, id int64) (*domain.TimeEntry, error)
	FindActiveByJob(ctx context.Context, jobID int64) (*domain.TimeEntry, error)
	ListByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]domain.TimeEntry, error)
	Save(ctx context.Context, entry *domain.TimeEntry) (*domain.TimeEntry, error)
}

// LedgerService maintains the audit ledger of worked time. Entries are
// opened and closed by the job workflow; admins may correct them here, but
// nothing is ever removed.
type LedgerService struct {
	entries EntryStore
	now     func() time.Time
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(entries EntryStore) *LedgerService {
	return &LedgerService{entries: entries, now: time.Now}
}

// Edit applies an admin correction to a time entry. Every recognized field
// is enumerated in domain.TimeEntryUpdate; nil fields are untouched.
// Billable minutes are recomputed whenever total or break minutes change.
// A closed entry is restamped as Edited; an open entry stays Active unless
// the edit supplies its clock-out, so the open-entry invariant holds.
func (s *LedgerService) Edit(ctx context.Context, entryID int64, upd domain.TimeEntryUpdate, caller domain.Caller) (*domain.TimeEntry, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("edit time entry %d: %w", entryID, domain.ErrForbidden)
	}

	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	// Total minutes only exist once an entry has a clock-out; an edit may
	// set both together, but not a total alone on an open entry.
	if upd.TotalMinutes != nil && entry.ClockOut == nil && upd.ClockOut == nil {
		return nil, &domain.ValidationError{Field: "total_minutes", Message: "cannot be set while the entry is still clocked in"}
	}

	recompute := false
	if upd.ClockIn != nil {
		entry.ClockIn = *upd.ClockIn
	}
	if upd.ClockOut != nil {
		entry.ClockOut = upd.ClockOut
	}
	if upd.TotalMinutes != nil {
		entry.TotalMinutes = upd.TotalMinutes
		recompute = true
	}
	if upd.BreakMinutes != nil {
		entry.BreakMinutes = *upd.BreakMinutes
		recompute = true
	}
	if upd.StaffNotes != nil {
		entry.StaffNotes = upd.StaffNotes
	}
	if upd.AdminNotes != nil {
		entry.AdminNotes = upd.AdminNotes
	}

	if entry.ClockOut != nil && entry.ClockOut.Before(entry.ClockIn) {
		return nil, fmt.Errorf("edit time entry %d: clock out before clock in: %w", entryID, domain.ErrInvalidTimeRange)
	}
	if recompute && entry.TotalMinutes != nil {
		billable := domain.BillableMinutes(*entry.TotalMinutes, entry.BreakMinutes)
		entry.BillableMinutes = &billable
	}

	if entry.Status != domain.TimeEntryStatusActive || entry.ClockOut != nil {
		entry.Status = domain.TimeEntryStatusEdited
	}
	now := s.now()
	entry.EditedBy = &caller.ID
	entry.EditedAt = &now

	return s.entries.Save(ctx, entry)
}

// ForceClockOut closes a stale Active entry on behalf of a worker who
// forgot to clock out. Only Active entries can be force-closed; the closed
// entry is marked Edited with a standard audit annotation.
func (s *LedgerService) ForceClockOut(ctx context.Context, entryID int64, clockOut *time.Time, caller domain.Caller) (*domain.TimeEntry, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("force clock out entry %d: %w", entryID, domain.ErrForbidden)
	}

	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.TimeEntryStatusActive {
		return nil, fmt.Errorf("force clock out entry %d with status %s: %w", entryID, entry.Status, domain.ErrInvalidTransition)
	}

	now := s.now()
	at := now
	if clockOut != nil {
		at = *clockOut
	}
	if at.Before(entry.ClockIn) {
		return nil, fmt.Errorf("force clock out entry %d before its clock in: %w", entryID, domain.ErrInvalidTimeRange)
	}

	total := int(math.Round(at.Sub(entry.ClockIn).Minutes()))
	billable := domain.BillableMinutes(total, entry.BreakMinutes)

	annotation := fmt.Sprintf("force clock-out by admin %d at %s", caller.ID, now.UTC().Format(time.RFC3339))
	if entry.AdminNotes != nil && *entry.AdminNotes != "" {
		annotation = *entry.AdminNotes + "\n" + annotation
	}

	entry.ClockOut = &at
	entry.TotalMinutes = &total
	entry.BillableMinutes = &billable
	entry.Status = domain.TimeEntryStatusEdited
	entry.AdminNotes = &annotation
	entry.EditedBy = &caller.ID
	entry.EditedAt = &now

	return s.entries.Save(ctx, entry)
}

// ActiveByJob returns the single open entry for a job, if any. Admins use
// it to locate the stale entry behind a force clock-out.
func (s *LedgerService) ActiveByJob(ctx context.Context, jobID int64) (*domain.TimeEntry, error) {
	return s.entries.FindActiveByJob(ctx, jobID)
}

// ListByStaff returns a staff member's entries with clock-in inside [from, to).
func (s *LedgerService) ListByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]domain.TimeEntry, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("list entries: %w", domain.ErrInvalidTimeRange)
	}
	return s.entries.ListByStaff(ctx, staffID, from, to)
}

// Totals sums worked minutes over closed entries. Active entries have no
// settled duration yet and Disputed entries are held out until resolved, so
// neither contributes.
func (s *LedgerService) Totals(entries []domain.TimeEntry) int {
	total := 0
	for _, e := range entries {
		if e.Closed() {
			total += e.WorkedMinutes()
		}
	}
	return total
}
