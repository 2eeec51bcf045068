package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AlertRepository persists advisory job alerts (late arrival, geofence
// violation, no-show). It backs the alert sink; failures here are logged by
// callers, never escalated.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// RecordAlert inserts an alert row for a job.
func (r *AlertRepository) RecordAlert(ctx context.Context, jobID int64, alertType, message string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_alerts (job_id, alert_type, message) VALUES ($1, $2, $3)`,
		jobID, alertType, message)
	if err != nil {
		return fmt.Errorf("record %s alert for job %d: %w", alertType, jobID, err)
	}
	return nil
}
