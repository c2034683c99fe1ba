package repository

import (
	"context"
	"database/sql"
	"time"

	"campushub/internal/database"
	"campushub/internal/models"
)

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, job *models.ReminderJob) error {
	query := `
		INSERT INTO reminder_jobs (event_id, user_id, email, event_title, fire_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, attempts, status, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		job.EventID,
		job.UserID,
		job.Email,
		job.EventTitle,
		job.FireAt,
	).Scan(&job.ID, &job.Attempts, &job.Status, &job.CreatedAt, &job.UpdatedAt)
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int64) (*models.ReminderJob, error) {
	job := &models.ReminderJob{}
	query := `
		SELECT id, event_id, user_id, email, event_title, fire_at,
		       attempts, status, created_at, updated_at
		FROM reminder_jobs
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.EventID,
		&job.UserID,
		&job.Email,
		&job.EventTitle,
		&job.FireAt,
		&job.Attempts,
		&job.Status,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return job, err
}

// ClaimDue atomically claims up to limit due jobs and marks them in flight.
// SKIP LOCKED lets dispatcher instances run concurrently without handing the
// same job to two workers.
func (r *ReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.ReminderJob, error) {
	query := `
		UPDATE reminder_jobs
		SET status = 'IN_FLIGHT', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM reminder_jobs
			WHERE status = 'PENDING' AND fire_at <= $1
			ORDER BY fire_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, user_id, email, event_title, fire_at,
		          attempts, status, created_at, updated_at`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.ReminderJob
	for rows.Next() {
		var job models.ReminderJob
		err := rows.Scan(
			&job.ID,
			&job.EventID,
			&job.UserID,
			&job.Email,
			&job.EventTitle,
			&job.FireAt,
			&job.Attempts,
			&job.Status,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (r *ReminderRepository) MarkDelivered(ctx context.Context, id int64) error {
	query := `UPDATE reminder_jobs SET status = 'DELIVERED', updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Reschedule re-enqueues the same logical job with an incremented attempt
// count and a later fire time.
func (r *ReminderRepository) Reschedule(ctx context.Context, id int64, attempts int, fireAt time.Time) error {
	query := `
		UPDATE reminder_jobs
		SET status = 'PENDING', attempts = $1, fire_at = $2, updated_at = NOW()
		WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, attempts, fireAt, id)
	return err
}

func (r *ReminderRepository) Abandon(ctx context.Context, id int64, attempts int) error {
	query := `
		UPDATE reminder_jobs
		SET status = 'ABANDONED', attempts = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, attempts, id)
	return err
}

// CancelPending drops the pending reminder for a (event, user) pair after
// deregistration.
func (r *ReminderRepository) CancelPending(ctx context.Context, eventID, userID int64) error {
	query := `DELETE FROM reminder_jobs WHERE event_id = $1 AND user_id = $2 AND status = 'PENDING'`
	_, err := r.db.ExecContext(ctx, query, eventID, userID)
	return err
}
