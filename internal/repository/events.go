package repository

import (
	"context"
	"database/sql"

	"campushub/internal/database"
	"campushub/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, organiser_id, organiser_institution,
		                    capacity, paid, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.OrganiserID,
		event.OrganiserInstitution,
		event.Capacity,
		event.Paid,
		event.StartAt,
		event.EndAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, description, organiser_id, organiser_institution,
		       capacity, paid, start_at, end_at, deleted, created_at, updated_at
		FROM events
		WHERE id = $1 AND NOT deleted`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.OrganiserID,
		&event.OrganiserInstitution,
		&event.Capacity,
		&event.Paid,
		&event.StartAt,
		&event.EndAt,
		&event.Deleted,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context, organiserID *int64) ([]models.Event, error) {
	var events []models.Event
	query := `
		SELECT id, title, description, organiser_id, organiser_institution,
		       capacity, paid, start_at, end_at, deleted, created_at, updated_at
		FROM events
		WHERE NOT deleted`
	var args []interface{}

	if organiserID != nil {
		query += ` AND organiser_id = $1`
		args = append(args, *organiserID)
	}

	query += ` ORDER BY start_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.OrganiserID,
			&event.OrganiserInstitution,
			&event.Capacity,
			&event.Paid,
			&event.StartAt,
			&event.EndAt,
			&event.Deleted,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// UpdateDescriptive updates only descriptive fields. Capacity, paid flag and
// schedule are immutable once registrations exist; the service enforces that
// rule before calling here.
func (r *EventRepository) UpdateDescriptive(ctx context.Context, id int64, title, description string) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND NOT deleted`

	_, err := r.db.ExecContext(ctx, query, title, description, id)
	return err
}

func (r *EventRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE events SET deleted = TRUE, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
