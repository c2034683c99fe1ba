package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "campushub/internal/errors"
	"campushub/internal/logger"
	"campushub/internal/models"
)

type EventService struct {
	events  EventStore
	indexer EventIndexer
}

func NewEventService(events EventStore, indexer EventIndexer) *EventService {
	return &EventService{events: events, indexer: indexer}
}

// Create publishes a new event owned by the organiser.
func (s *EventService) Create(ctx context.Context, organiserID int64, organiserInstitution string, req *models.CreateEventRequest) (*models.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be a positive integer")
	}
	if req.EndAt != nil && req.EndAt.Before(req.StartAt) {
		return nil, fmt.Errorf("event cannot end before it starts")
	}

	event := &models.Event{
		Title:                req.Title,
		Description:          req.Description,
		OrganiserID:          organiserID,
		OrganiserInstitution: organiserInstitution,
		Capacity:             req.Capacity,
		Paid:                 req.Paid,
		StartAt:              req.StartAt,
		EndAt:                req.EndAt,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	// The search index trails the datastore; indexing failures must not
	// fail event creation.
	if s.indexer != nil {
		if err := s.indexer.IndexEvent(ctx, event); err != nil {
			logger.WithContext(ctx).Error("Failed to index event",
				"error", err,
				"event_id", event.ID)
		}
	}

	return event, nil
}

func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context, organiserID *int64) ([]models.Event, error) {
	events, err := s.events.List(ctx, organiserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Search queries the event search index.
func (s *EventService) Search(ctx context.Context, query string, page, pageSize int) ([]models.Event, error) {
	if s.indexer == nil {
		return nil, fmt.Errorf("event search is not configured")
	}
	return s.indexer.Search(ctx, query, page, pageSize)
}

// UpdateDescriptive changes the title and description of an event the
// organiser owns. Capacity, pricing and schedule stay immutable once the
// event exists; only descriptive fields may drift.
func (s *EventService) UpdateDescriptive(ctx context.Context, organiserID, eventID int64, title, description string) error {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganiserID != organiserID {
		return fmt.Errorf("event %d does not belong to organiser %d", eventID, organiserID)
	}

	if err := s.events.UpdateDescriptive(ctx, eventID, title, description); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	if s.indexer != nil {
		event.Title = title
		event.Description = description
		if err := s.indexer.IndexEvent(ctx, event); err != nil {
			logger.WithContext(ctx).Error("Failed to reindex event",
				"error", err,
				"event_id", eventID)
		}
	}

	return nil
}

func (s *EventService) Delete(ctx context.Context, organiserID, eventID int64) error {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganiserID != organiserID {
		return fmt.Errorf("event %d does not belong to organiser %d", eventID, organiserID)
	}

	if err := s.events.SoftDelete(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteEvent(ctx, eventID); err != nil {
			logger.WithContext(ctx).Error("Failed to remove event from index",
				"error", err,
				"event_id", eventID)
		}
	}

	return nil
}
