package service

import (
	"context"
	"log/slog"
)

// Outcome is a structured operation result delivered to the notification
// collaborator. It carries no influence back into core logic.
type Outcome struct {
	Operation string
	JobID     int64
	StaffID   int64
	Err       error
}

// Notifier receives operation outcomes for display to users.
type Notifier interface {
	Notify(ctx context.Context, out Outcome)
}

// LogNotifier is the default Notifier: it logs outcomes and nothing more.
type LogNotifier struct{}

// Notify logs the outcome at info or warn level.
func (LogNotifier) Notify(_ context.Context, out Outcome) {
	if out.Err != nil {
		slog.Warn("operation failed",
			"operation", out.Operation, "job_id", out.JobID, "staff_id", out.StaffID, "error", out.Err)
		return
	}
	slog.Info("operation succeeded",
		"operation", out.Operation, "job_id", out.JobID, "staff_id", out.StaffID)
}
