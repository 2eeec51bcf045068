package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhill/fieldtrack/internal/domain"
)

type fakeEntryStore struct {
	entries map[int64]*domain.TimeEntry
}

func newFakeEntryStore(entries ...*domain.TimeEntry) *fakeEntryStore {
	s := &fakeEntryStore{entries: map[int64]*domain.TimeEntry{}}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return s
}

func (s *fakeEntryStore) FindByID(_ context.Context, id int64) (*domain.TimeEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *fakeEntryStore) FindActiveByJob(_ context.Context, jobID int64) (*domain.TimeEntry, error) {
	for _, e := range s.entries {
		if e.JobID == jobID && e.Status == domain.TimeEntryStatusActive {
			copied := *e
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeEntryStore) ListByStaff(_ context.Context, staffID int64, from, to time.Time) ([]domain.TimeEntry, error) {
	out := []domain.TimeEntry{}
	for _, e := range s.entries {
		if e.StaffID == staffID && !e.ClockIn.Before(from) && e.ClockIn.Before(to) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeEntryStore) Save(_ context.Context, entry *domain.TimeEntry) (*domain.TimeEntry, error) {
	if _, ok := s.entries[entry.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	result := copied
	return &result, nil
}

var (
	admin      = domain.Caller{ID: 1, Role: domain.RoleAdmin}
	plainStaff = domain.Caller{ID: 7, Role: domain.RoleStaff}
)

func closedEntry(id int64, totalMinutes int) *domain.TimeEntry {
	clockIn := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(time.Duration(totalMinutes) * time.Minute)
	billable := totalMinutes
	return &domain.TimeEntry{
		ID:              id,
		JobID:           id,
		StaffID:         plainStaff.ID,
		ClockIn:         clockIn,
		ClockOut:        &clockOut,
		TotalMinutes:    &totalMinutes,
		BillableMinutes: &billable,
		Status:          domain.TimeEntryStatusCompleted,
	}
}

func activeEntry(id int64) *domain.TimeEntry {
	return &domain.TimeEntry{
		ID:      id,
		JobID:   id,
		StaffID: plainStaff.ID,
		ClockIn: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Status:  domain.TimeEntryStatusActive,
	}
}

func TestEdit_RequiresAdmin(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(closedEntry(1, 60)))

	minutes := 30
	_, err := svc.Edit(context.Background(), 1, domain.TimeEntryUpdate{TotalMinutes: &minutes}, plainStaff)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestEdit_RecomputesBillableMinutes(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(closedEntry(1, 120)))
	now := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	breakMinutes := 30
	entry, err := svc.Edit(context.Background(), 1, domain.TimeEntryUpdate{BreakMinutes: &breakMinutes}, admin)
	require.NoError(t, err)

	require.NotNil(t, entry.BillableMinutes)
	assert.Equal(t, 90, *entry.BillableMinutes)
	assert.Equal(t, domain.TimeEntryStatusEdited, entry.Status)
	require.NotNil(t, entry.EditedBy)
	assert.Equal(t, admin.ID, *entry.EditedBy)
	require.NotNil(t, entry.EditedAt)
	assert.True(t, entry.EditedAt.Equal(now))
}

func TestEdit_BillableFlooredAtZero(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(closedEntry(1, 30)))

	breakMinutes := 45
	entry, err := svc.Edit(context.Background(), 1, domain.TimeEntryUpdate{BreakMinutes: &breakMinutes}, admin)
	require.NoError(t, err)

	require.NotNil(t, entry.BillableMinutes)
	assert.Zero(t, *entry.BillableMinutes)
}

func TestEdit_RejectsInvertedInterval(t *testing.T) {
	entry := closedEntry(1, 60)
	svc := NewLedgerService(newFakeEntryStore(entry))

	before := entry.ClockIn.Add(-time.Hour)
	_, err := svc.Edit(context.Background(), 1, domain.TimeEntryUpdate{ClockOut: &before}, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestEdit_RejectsTotalMinutesOnOpenEntry(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(activeEntry(1)))

	minutes := 90
	_, err := svc.Edit(context.Background(), 1, domain.TimeEntryUpdate{TotalMinutes: &minutes}, admin)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr, "totals exist only once a clock-out is set")
	assert.Equal(t, "total_minutes", verr.Field)
}

func TestEdit_AcceptsTotalMinutesWithClosingClockOut(t *testing.T) {
	entry := activeEntry(1)
	svc := NewLedgerService(newFakeEntryStore(entry))

	minutes := 90
	clockOut := entry.ClockIn.Add(2 * time.Hour)
	edited, err := svc.Edit(context.Background(), 1, domain.TimeEntryUpdate{ClockOut: &clockOut, TotalMinutes: &minutes}, admin)
	require.NoError(t, err)

	assert.Equal(t, domain.TimeEntryStatusEdited, edited.Status)
	require.NotNil(t, edited.TotalMinutes)
	assert.Equal(t, 90, *edited.TotalMinutes)
}

func TestEdit_ActiveEntryStaysActive(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(activeEntry(1)))

	breakMinutes := 15
	entry, err := svc.Edit(context.Background(), 1, domain.TimeEntryUpdate{BreakMinutes: &breakMinutes}, admin)
	require.NoError(t, err)

	assert.Equal(t, domain.TimeEntryStatusActive, entry.Status, "an open entry must stay open when the edit does not close it")
	assert.Nil(t, entry.ClockOut)
	require.NotNil(t, entry.EditedBy)
}

func TestForceClockOut_RequiresAdmin(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(activeEntry(1)))

	_, err := svc.ForceClockOut(context.Background(), 1, nil, plainStaff)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestForceClockOut_RejectsTimeBeforeClockIn(t *testing.T) {
	entry := activeEntry(1)
	svc := NewLedgerService(newFakeEntryStore(entry))

	before := entry.ClockIn.Add(-time.Minute)
	_, err := svc.ForceClockOut(context.Background(), 1, &before, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestForceClockOut_ClosesStaleEntry(t *testing.T) {
	entry := activeEntry(1)
	entry.BreakMinutes = 20
	svc := NewLedgerService(newFakeEntryStore(entry))
	now := entry.ClockIn.Add(8 * time.Hour)
	svc.now = func() time.Time { return now }

	closed, err := svc.ForceClockOut(context.Background(), 1, nil, admin)
	require.NoError(t, err)

	require.NotNil(t, closed.ClockOut)
	assert.True(t, closed.ClockOut.Equal(now))
	require.NotNil(t, closed.TotalMinutes)
	assert.Equal(t, 480, *closed.TotalMinutes)
	require.NotNil(t, closed.BillableMinutes)
	assert.Equal(t, 460, *closed.BillableMinutes)
	assert.Equal(t, domain.TimeEntryStatusEdited, closed.Status)
	require.NotNil(t, closed.AdminNotes)
	assert.Contains(t, *closed.AdminNotes, "force clock-out by admin 1")
}

func TestForceClockOut_RejectsClosedEntry(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(closedEntry(1, 60)))

	_, err := svc.ForceClockOut(context.Background(), 1, nil, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTotals_SumsOnlyClosedEntries(t *testing.T) {
	completed := closedEntry(1, 90)
	active := activeEntry(2)
	disputed := closedEntry(3, 45)
	disputed.Status = domain.TimeEntryStatusDisputed

	svc := NewLedgerService(newFakeEntryStore())
	total := svc.Totals([]domain.TimeEntry{*completed, *active, *disputed})

	assert.Equal(t, 90, total)
}

func TestTotals_FallsBackToTotalMinutes(t *testing.T) {
	entry := closedEntry(1, 75)
	entry.BillableMinutes = nil

	svc := NewLedgerService(newFakeEntryStore())
	assert.Equal(t, 75, svc.Totals([]domain.TimeEntry{*entry}))
}

func TestActiveByJob_ReturnsOpenEntry(t *testing.T) {
	entry := activeEntry(5)
	svc := NewLedgerService(newFakeEntryStore(entry, closedEntry(6, 60)))

	found, err := svc.ActiveByJob(context.Background(), entry.JobID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)
	assert.Equal(t, domain.TimeEntryStatusActive, found.Status)
}

func TestActiveByJob_NotFoundWhenClosed(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore(closedEntry(6, 60)))

	_, err := svc.ActiveByJob(context.Background(), 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByStaff_RejectsInvertedRange(t *testing.T) {
	svc := NewLedgerService(newFakeEntryStore())
	from := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.ListByStaff(context.Background(), plainStaff.ID, from, from)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
