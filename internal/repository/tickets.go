package repository

import (
	"context"
	"database/sql"

	"campushub/internal/database"
	"campushub/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.TicketType) error {
	query := `
		INSERT INTO ticket_types (event_id, name, price_ref, price_amount, currency,
		                          quantity, release_start, release_end, release_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		ticket.EventID,
		ticket.Name,
		ticket.PriceRef,
		ticket.PriceAmount,
		ticket.Currency,
		ticket.Quantity,
		ticket.ReleaseStart,
		ticket.ReleaseEnd,
		ticket.ReleaseOrder,
	).Scan(&ticket.ID, &ticket.CreatedAt)

	return err
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.TicketType, error) {
	ticket := &models.TicketType{}
	query := `
		SELECT id, event_id, name, price_ref, price_amount, currency,
		       quantity, release_start, release_end, release_order, created_at
		FROM ticket_types
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.Name,
		&ticket.PriceRef,
		&ticket.PriceAmount,
		&ticket.Currency,
		&ticket.Quantity,
		&ticket.ReleaseStart,
		&ticket.ReleaseEnd,
		&ticket.ReleaseOrder,
		&ticket.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return ticket, err
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.TicketType, error) {
	query := `
		SELECT id, event_id, name, price_ref, price_amount, currency,
		       quantity, release_start, release_end, release_order, created_at
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY release_order ASC, price_amount ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.TicketType
	for rows.Next() {
		var ticket models.TicketType
		err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.Name,
			&ticket.PriceRef,
			&ticket.PriceAmount,
			&ticket.Currency,
			&ticket.Quantity,
			&ticket.ReleaseStart,
			&ticket.ReleaseEnd,
			&ticket.ReleaseOrder,
			&ticket.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// SoldCounts returns, per ticket type of the event, how many active
// registrations hold a ticket of that type. Releases nobody bought yet are
// absent from the map.
func (r *TicketRepository) SoldCounts(ctx context.Context, eventID int64) (map[int64]int, error) {
	query := `
		SELECT ticket_type_id, COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND ticket_type_id IS NOT NULL AND NOT cancelled
		GROUP BY ticket_type_id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var ticketTypeID int64
		var count int
		if err := rows.Scan(&ticketTypeID, &count); err != nil {
			return nil, err
		}
		counts[ticketTypeID] = count
	}

	return counts, rows.Err()
}
