package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "campushub/internal/errors"
	"campushub/internal/logger"
	"campushub/internal/metrics"
	"campushub/internal/models"
)

// Attendee is the registrant's identity as supplied by the auth boundary.
type Attendee struct {
	UserID      int64
	Name        string
	Email       string
	Institution string
}

// RegisterResult reports how a registration attempt resolved.
type RegisterResult struct {
	Registration *models.Registration
	// AlreadyRegistered marks the idempotent no-op path: an active
	// registration for this (event, user) pair already existed.
	AlreadyRegistered bool
}

type RegistrationService struct {
	events        EventStore
	registrations RegistrationStore
	reminders     ReminderStore
	publisher     Publisher

	reminderOffset time.Duration
}

func NewRegistrationService(events EventStore, registrations RegistrationStore, reminders ReminderStore, publisher Publisher, reminderOffset time.Duration) *RegistrationService {
	return &RegistrationService{
		events:         events,
		registrations:  registrations,
		reminders:      reminders,
		publisher:      publisher,
		reminderOffset: reminderOffset,
	}
}

// CheckCapacity reports whether the event has a free slot. It does not
// reserve one; Register re-validates under a lock before committing. If the
// inventory cannot be read the guard fails closed and reports no capacity,
// never open.
func (s *RegistrationService) CheckCapacity(ctx context.Context, eventID int64) (bool, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		metrics.CapacityDenialsTotal.WithLabelValues("datastore_error").Inc()
		return false, fmt.Errorf("%w: %v", apperrors.ErrCapacityUnknown, err)
	}
	if event == nil {
		return false, apperrors.ErrEventNotFound
	}

	if event.Capacity == nil {
		return true, nil
	}

	count, err := s.registrations.CountActive(ctx, eventID)
	if err != nil {
		metrics.CapacityDenialsTotal.WithLabelValues("datastore_error").Inc()
		return false, fmt.Errorf("%w: %v", apperrors.ErrCapacityUnknown, err)
	}

	if count >= *event.Capacity {
		metrics.CapacityDenialsTotal.WithLabelValues("full").Inc()
		return false, nil
	}

	return true, nil
}

// Register records the attendee for the event. The sequence is: idempotency
// lookup, capacity guard, internal/external classification, then the atomic
// capacity-checked insert in the ledger. For paid events the caller must
// have confirmed payment first; the free path refuses them. A non-zero
// ticketTypeID records the purchased release on the registration and charges
// it against that release's quantity inside the ledger transaction.
func (s *RegistrationService) Register(ctx context.Context, eventID int64, attendee Attendee, paymentConfirmed bool, ticketTypeID int64) (*RegisterResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		return nil, apperrors.ErrEventNotFound
	}

	if event.Paid && !paymentConfirmed {
		metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		return nil, apperrors.ErrPaymentRequired
	}

	// Duplicate registration is success, not an error.
	existing, err := s.registrations.GetActive(ctx, eventID, attendee.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up registration: %w", err)
	}
	if existing != nil {
		metrics.RegistrationsTotal.WithLabelValues("already_registered").Inc()
		return &RegisterResult{Registration: existing, AlreadyRegistered: true}, nil
	}

	// Advisory pre-check. The authoritative check happens again inside the
	// ledger transaction, because availability can change between here and
	// the commit.
	available, err := s.CheckCapacity(ctx, eventID)
	if err != nil && !errors.Is(err, apperrors.ErrCapacityUnknown) {
		return nil, err
	}
	if err != nil || !available {
		metrics.RegistrationsTotal.WithLabelValues("capacity_exceeded").Inc()
		return nil, apperrors.ErrCapacityExceeded
	}

	reg := &models.Registration{
		EventID:     eventID,
		UserID:      attendee.UserID,
		Name:        attendee.Name,
		Email:       attendee.Email,
		Institution: attendee.Institution,
		External:    classifyExternal(attendee.Institution, event.OrganiserInstitution),
	}
	if ticketTypeID != 0 {
		reg.TicketTypeID = &ticketTypeID
	}

	if err := s.registrations.Register(ctx, reg); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyRegistered):
			// Lost a race with a concurrent register for the same user.
			metrics.RegistrationsTotal.WithLabelValues("already_registered").Inc()
			existing, lookupErr := s.registrations.GetActive(ctx, eventID, attendee.UserID)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to look up registration: %w", lookupErr)
			}
			if existing == nil {
				return nil, fmt.Errorf("registration conflict for event %d, but no active registration found for user %d", eventID, attendee.UserID)
			}
			return &RegisterResult{Registration: existing, AlreadyRegistered: true}, nil
		case errors.Is(err, apperrors.ErrCapacityExceeded):
			metrics.RegistrationsTotal.WithLabelValues("capacity_exceeded").Inc()
			return nil, err
		case errors.Is(err, apperrors.ErrTicketsSoldOut):
			metrics.RegistrationsTotal.WithLabelValues("sold_out").Inc()
			return nil, err
		default:
			metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("failed to register: %w", err)
		}
	}

	metrics.RegistrationsTotal.WithLabelValues("registered").Inc()

	s.scheduleReminder(ctx, event, attendee)

	if s.publisher != nil {
		created := models.RegistrationCreatedEvent{
			RegistrationID: reg.ID,
			EventID:        eventID,
			UserID:         attendee.UserID,
			External:       reg.External,
			Timestamp:      time.Now(),
		}
		if err := s.publisher.Publish(models.SubjectRegistrationCreated, created); err != nil {
			logger.WithContext(ctx).Error("Failed to publish registration created event",
				"error", err,
				"event_id", eventID,
				"user_id", attendee.UserID)
		}
	}

	return &RegisterResult{Registration: reg}, nil
}

// Deregister cancels the active registration. Repeated calls after the
// first are reported as not registered. Cancellation does not talk to the
// settlement gateway: a refund is a separately authorized operation.
func (s *RegistrationService) Deregister(ctx context.Context, eventID, userID int64) error {
	cancelled, err := s.registrations.Cancel(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to deregister: %w", err)
	}
	if !cancelled {
		return apperrors.ErrNotRegistered
	}

	if err := s.reminders.CancelPending(ctx, eventID, userID); err != nil {
		logger.WithContext(ctx).Error("Failed to cancel pending reminder",
			"error", err,
			"event_id", eventID,
			"user_id", userID)
	}

	if s.publisher != nil {
		msg := models.RegistrationCancelledEvent{
			EventID:   eventID,
			UserID:    userID,
			Timestamp: time.Now(),
		}
		if err := s.publisher.Publish(models.SubjectRegistrationCancelled, msg); err != nil {
			logger.WithContext(ctx).Error("Failed to publish registration cancelled event",
				"error", err,
				"event_id", eventID,
				"user_id", userID)
		}
	}

	return nil
}

// ListForEvent returns an event's registrations with aggregate totals for
// organiser-facing stats.
func (s *RegistrationService) ListForEvent(ctx context.Context, eventID int64, includeCancelled bool) ([]models.Registration, models.RegistrationTotals, error) {
	regs, err := s.registrations.ListByEvent(ctx, eventID, includeCancelled)
	if err != nil {
		return nil, models.RegistrationTotals{}, fmt.Errorf("failed to list registrations: %w", err)
	}

	var totals models.RegistrationTotals
	for _, reg := range regs {
		if reg.Cancelled {
			totals.Cancelled++
			continue
		}
		totals.Active++
		if reg.External {
			totals.External++
		} else {
			totals.Internal++
		}
	}

	return regs, totals, nil
}

func (s *RegistrationService) scheduleReminder(ctx context.Context, event *models.Event, attendee Attendee) {
	fireAt := event.StartAt.Add(-s.reminderOffset)
	if fireAt.Before(time.Now()) {
		fireAt = time.Now()
	}

	job := &models.ReminderJob{
		EventID:    event.ID,
		UserID:     attendee.UserID,
		Email:      attendee.Email,
		EventTitle: event.Title,
		FireAt:     fireAt,
	}

	if err := s.reminders.Create(ctx, job); err != nil {
		// The registration stands; a missing reminder is recoverable and
		// logged, never a reason to roll back.
		logger.WithContext(ctx).Error("Failed to schedule reminder",
			"error", err,
			"event_id", event.ID,
			"user_id", attendee.UserID)
	}
}

// classifyExternal compares the registrant's home institution with the
// organiser's. Unknown institutions count as external.
func classifyExternal(attendeeInstitution, organiserInstitution string) bool {
	if organiserInstitution == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(attendeeInstitution), strings.TrimSpace(organiserInstitution))
}
