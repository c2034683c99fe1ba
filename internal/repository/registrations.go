package repository

import (
	"context"
	"database/sql"
	"fmt"

	"campushub/internal/database"
	apperrors "campushub/internal/errors"
	"campushub/internal/models"
)

type RegistrationRepository struct {
	db *database.DB
}

func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register inserts an active registration under the event's capacity bound.
//
// The capacity check and the insert are not safe as two separate statements:
// two concurrent calls racing for the last slot would both pass the check
// before either commits. The transaction below takes a row-level lock on the
// event (SELECT ... FOR UPDATE), which serialises registration attempts per
// event, then re-validates the duplicate and capacity conditions under the
// lock before inserting.
func (r *RegistrationRepository) Register(ctx context.Context, reg *models.Registration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var capacity sql.NullInt64
	lockQuery := `SELECT capacity FROM events WHERE id = $1 AND NOT deleted FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, reg.EventID).Scan(&capacity)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.ErrEventNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	var activeCount int
	countQuery := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND NOT cancelled`
	if err := tx.QueryRowContext(ctx, countQuery, reg.EventID).Scan(&activeCount); err != nil {
		return fmt.Errorf("count active registrations: %w", err)
	}

	var dupCount int
	dupQuery := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2 AND NOT cancelled`
	if err := tx.QueryRowContext(ctx, dupQuery, reg.EventID, reg.UserID).Scan(&dupCount); err != nil {
		return fmt.Errorf("check duplicate registration: %w", err)
	}
	if dupCount > 0 {
		return apperrors.ErrAlreadyRegistered
	}

	// NULL capacity means unlimited.
	if capacity.Valid && int64(activeCount) >= capacity.Int64 {
		return apperrors.ErrCapacityExceeded
	}

	// Paid registrations charge one seat against the release's quantity.
	// The ticket row is locked under the same transaction as the event row
	// (event first, then ticket) so concurrent buyers of the last ticket
	// serialise here too.
	if reg.TicketTypeID != nil {
		var quantity sql.NullInt64
		ticketQuery := `SELECT quantity FROM ticket_types WHERE id = $1 AND event_id = $2 FOR UPDATE`
		err = tx.QueryRowContext(ctx, ticketQuery, *reg.TicketTypeID, reg.EventID).Scan(&quantity)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperrors.ErrTicketNotFound
			}
			return fmt.Errorf("lock ticket type row: %w", err)
		}

		var sold int
		soldQuery := `SELECT COUNT(*) FROM registrations WHERE ticket_type_id = $1 AND NOT cancelled`
		if err := tx.QueryRowContext(ctx, soldQuery, *reg.TicketTypeID).Scan(&sold); err != nil {
			return fmt.Errorf("count sold tickets: %w", err)
		}

		// NULL quantity means unlimited.
		if quantity.Valid && int64(sold) >= quantity.Int64 {
			return apperrors.ErrTicketsSoldOut
		}
	}

	insertQuery := `
		INSERT INTO registrations (event_id, user_id, ticket_type_id, name, email, institution, external)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, insertQuery,
		reg.EventID,
		reg.UserID,
		reg.TicketTypeID,
		reg.Name,
		reg.Email,
		reg.Institution,
		reg.External,
	).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}

	return nil
}

func (r *RegistrationRepository) GetActive(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	reg := &models.Registration{}
	query := `
		SELECT id, event_id, user_id, ticket_type_id, name, email, institution, external,
		       cancelled, cancelled_at, created_at
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND NOT cancelled`

	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.TicketTypeID,
		&reg.Name,
		&reg.Email,
		&reg.Institution,
		&reg.External,
		&reg.Cancelled,
		&reg.CancelledAt,
		&reg.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return reg, err
}

// Cancel marks the active registration cancelled. Returns false when no
// active registration existed, which callers treat as an idempotent no-op.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, userID int64) (bool, error) {
	query := `
		UPDATE registrations
		SET cancelled = TRUE, cancelled_at = NOW()
		WHERE event_id = $1 AND user_id = $2 AND NOT cancelled`

	result, err := r.db.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64, includeCancelled bool) ([]models.Registration, error) {
	query := `
		SELECT id, event_id, user_id, ticket_type_id, name, email, institution, external,
		       cancelled, cancelled_at, created_at
		FROM registrations
		WHERE event_id = $1`

	if !includeCancelled {
		query += ` AND NOT cancelled`
	}

	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		var reg models.Registration
		err := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.UserID,
			&reg.TicketTypeID,
			&reg.Name,
			&reg.Email,
			&reg.Institution,
			&reg.External,
			&reg.Cancelled,
			&reg.CancelledAt,
			&reg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

func (r *RegistrationRepository) CountActive(ctx context.Context, eventID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND NOT cancelled`
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count)
	return count, err
}
