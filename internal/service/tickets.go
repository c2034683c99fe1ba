package service

import (
	"context"
	"fmt"
	"time"

	apperrors "campushub/internal/errors"
	"campushub/internal/models"
)

type TicketService struct {
	tickets TicketStore
	events  EventStore
}

func NewTicketService(tickets TicketStore, events EventStore) *TicketService {
	return &TicketService{tickets: tickets, events: events}
}

func (s *TicketService) Create(ctx context.Context, organiserID, eventID int64, req *models.CreateTicketTypeRequest) (*models.TicketType, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if event.OrganiserID != organiserID {
		return nil, fmt.Errorf("event %d does not belong to organiser %d", eventID, organiserID)
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be a positive integer")
	}
	if req.ReleaseStart != nil && req.ReleaseEnd != nil && req.ReleaseEnd.Before(*req.ReleaseStart) {
		return nil, fmt.Errorf("release window cannot end before it starts")
	}

	ticket := &models.TicketType{
		EventID:      eventID,
		Name:         req.Name,
		PriceRef:     req.PriceRef,
		PriceAmount:  req.PriceAmount,
		Currency:     req.Currency,
		Quantity:     req.Quantity,
		ReleaseStart: req.ReleaseStart,
		ReleaseEnd:   req.ReleaseEnd,
		ReleaseOrder: req.ReleaseOrder,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket type: %w", err)
	}

	return ticket, nil
}

// Current returns the ticket type on sale right now, or nil when no release
// is open. A closed or sold-out release is an ordinary result, not an error:
// paid registration is simply closed at that moment.
func (s *TicketService) Current(ctx context.Context, eventID int64) (*models.TicketType, error) {
	tickets, err := s.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket types: %w", err)
	}

	sold, err := s.tickets.SoldCounts(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	return CurrentRelease(tickets, sold, time.Now()), nil
}

// SoldOut reports whether the release's quantity is exhausted. Advisory
// only; the ledger re-checks under a lock before committing a purchase.
func (s *TicketService) SoldOut(ctx context.Context, ticket *models.TicketType) (bool, error) {
	if ticket.Quantity == nil {
		return false, nil
	}

	sold, err := s.tickets.SoldCounts(ctx, ticket.EventID)
	if err != nil {
		return false, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	return sold[ticket.ID] >= *ticket.Quantity, nil
}

// PriceFor returns the external price reference for a ticket type.
func (s *TicketService) PriceFor(ctx context.Context, ticketID int64) (string, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return "", fmt.Errorf("failed to get ticket type: %w", err)
	}
	if ticket == nil {
		return "", apperrors.ErrTicketNotFound
	}
	return ticket.PriceRef, nil
}

// CurrentRelease picks the active release: among ticket types whose window
// contains now (or that have no window) and that still have tickets left,
// the lowest release order wins, ties broken by lowest price. sold maps
// ticket type id to active purchases.
func CurrentRelease(tickets []models.TicketType, sold map[int64]int, now time.Time) *models.TicketType {
	var current *models.TicketType

	for i := range tickets {
		t := &tickets[i]
		if !releaseOpen(t, now) {
			continue
		}
		if t.Quantity != nil && sold[t.ID] >= *t.Quantity {
			continue
		}
		if current == nil {
			current = t
			continue
		}
		if t.ReleaseOrder < current.ReleaseOrder ||
			(t.ReleaseOrder == current.ReleaseOrder && t.PriceAmount < current.PriceAmount) {
			current = t
		}
	}

	return current
}

func releaseOpen(t *models.TicketType, now time.Time) bool {
	if t.ReleaseStart != nil && now.Before(*t.ReleaseStart) {
		return false
	}
	if t.ReleaseEnd != nil && now.After(*t.ReleaseEnd) {
		return false
	}
	return true
}
