package service

import (
	"context"
	"fmt"
	"strconv"

	"campushub/internal/checkout"
	apperrors "campushub/internal/errors"
	"campushub/internal/external"
	"campushub/internal/models"
)

type CheckoutService struct {
	events        EventStore
	tickets       *TicketService
	registrations *RegistrationService
	settlement    *SettlementService
	processor     ProcessorClient
	poller        *checkout.Poller
}

func NewCheckoutService(events EventStore, tickets *TicketService, registrations *RegistrationService, settlement *SettlementService, processor ProcessorClient, poller *checkout.Poller) *CheckoutService {
	return &CheckoutService{
		events:        events,
		tickets:       tickets,
		registrations: registrations,
		settlement:    settlement,
		processor:     processor,
		poller:        poller,
	}
}

// CreateSession opens a checkout session for the event's current ticket
// release. The platform-fee split is encoded into the session at creation
// time, not at settlement time.
func (s *CheckoutService) CreateSession(ctx context.Context, eventID, ticketID int64, attendee Attendee) (*models.CreateCheckoutSessionResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if !event.Paid {
		return nil, fmt.Errorf("event %d does not sell tickets", eventID)
	}

	// Unknown capacity stays distinguishable from a full event: the caller
	// may retry the former but not the latter.
	available, err := s.registrations.CheckCapacity(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperrors.ErrCapacityExceeded
	}

	ticket, err := s.resolveTicket(ctx, eventID, ticketID)
	if err != nil {
		return nil, err
	}

	soldOut, err := s.tickets.SoldOut(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if soldOut {
		return nil, apperrors.ErrTicketsSoldOut
	}

	account, err := s.settlement.AccountForCheckout(ctx, event.OrganiserID)
	if err != nil {
		return nil, err
	}

	session, err := s.processor.CreateCheckoutSession(ctx, external.CheckoutSessionParams{
		PriceRef:           ticket.PriceRef,
		Quantity:           1,
		DestinationAccount: account.AccountID,
		FeePercent:         s.processor.PlatformFeePercent(),
		EventID:            eventID,
		TicketTypeID:       ticket.ID,
		UserID:             attendee.UserID,
		UserEmail:          attendee.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &models.CreateCheckoutSessionResponse{
		SessionID:    session.ID,
		ClientSecret: session.ClientSecret,
	}, nil
}

// SessionStatus reads the session once, for the manual re-check a caller
// should offer after a confirmation timeout.
func (s *CheckoutService) SessionStatus(ctx context.Context, sessionID string) (*models.CheckoutStatusResponse, error) {
	session, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &models.CheckoutStatusResponse{
		Status:   external.SessionStatus(session),
		Amount:   session.AmountTotal,
		Currency: session.Currency,
		EventID:  sessionEventID(session),
	}, nil
}

// Confirm runs the bounded polling loop and, on paid, finalizes the
// registration. Register is idempotent per (event, user), so the
// finalization happens at most once even if Confirm is retried.
func (s *CheckoutService) Confirm(ctx context.Context, sessionID string, attendee Attendee) (checkout.Outcome, *RegisterResult, error) {
	outcome, session, err := s.poller.Await(ctx, sessionID)
	if err != nil {
		return outcome, nil, err
	}

	if outcome != checkout.OutcomePaid {
		return outcome, nil, nil
	}

	eventID := sessionEventID(session)
	if eventID == 0 {
		return outcome, nil, fmt.Errorf("paid session %s carries no event reference", sessionID)
	}

	result, err := s.registrations.Register(ctx, eventID, attendee, true, sessionTicketID(session))
	if err != nil {
		return outcome, nil, err
	}

	return outcome, result, nil
}

func (s *CheckoutService) resolveTicket(ctx context.Context, eventID, ticketID int64) (*models.TicketType, error) {
	if ticketID != 0 {
		ticket, err := s.tickets.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return nil, fmt.Errorf("failed to get ticket type: %w", err)
		}
		if ticket == nil || ticket.EventID != eventID {
			return nil, apperrors.ErrTicketNotFound
		}
		return ticket, nil
	}

	ticket, err := s.tickets.Current(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.ErrNoActiveRelease
	}
	return ticket, nil
}

func sessionEventID(session *external.CheckoutSession) int64 {
	return sessionMetaID(session, "event_id")
}

func sessionTicketID(session *external.CheckoutSession) int64 {
	return sessionMetaID(session, "ticket_type_id")
}

func sessionMetaID(session *external.CheckoutSession, key string) int64 {
	if session == nil {
		return 0
	}
	id, err := strconv.ParseInt(session.Metadata[key], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
