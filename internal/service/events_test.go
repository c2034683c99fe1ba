package service

import (
	"context"
	"testing"
	"time"

	"campushub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCreate_Validation(t *testing.T) {
	svc := NewEventService(&fakeEventStore{}, nil)

	start := time.Now().Add(24 * time.Hour)

	t.Run("empty title", func(t *testing.T) {
		_, err := svc.Create(context.Background(), 9, "TU Delft", &models.CreateEventRequest{
			Title:   "   ",
			StartAt: start,
		})
		assert.Error(t, err)
	})

	t.Run("non-positive capacity", func(t *testing.T) {
		_, err := svc.Create(context.Background(), 9, "TU Delft", &models.CreateEventRequest{
			Title:    "Hack night",
			Capacity: intPtr(0),
			StartAt:  start,
		})
		assert.Error(t, err)
	})

	t.Run("end before start", func(t *testing.T) {
		end := start.Add(-time.Hour)
		_, err := svc.Create(context.Background(), 9, "TU Delft", &models.CreateEventRequest{
			Title:   "Hack night",
			StartAt: start,
			EndAt:   &end,
		})
		assert.Error(t, err)
	})

	t.Run("valid event", func(t *testing.T) {
		event, err := svc.Create(context.Background(), 9, "TU Delft", &models.CreateEventRequest{
			Title:   "Hack night",
			StartAt: start,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(9), event.OrganiserID)
		assert.Equal(t, "TU Delft", event.OrganiserInstitution)
	})
}

func TestEventSearch_NotConfigured(t *testing.T) {
	svc := NewEventService(&fakeEventStore{}, nil)

	_, err := svc.Search(context.Background(), "robotics", 1, 20)
	assert.Error(t, err)
}

func TestEventUpdateDescriptive_OwnershipEnforced(t *testing.T) {
	store := testEvent(nil, false)
	svc := NewEventService(store, nil)

	err := svc.UpdateDescriptive(context.Background(), 1234, 1, "New title", "")
	assert.Error(t, err, "only the organiser may edit")

	err = svc.UpdateDescriptive(context.Background(), 9, 1, "New title", "desc")
	assert.NoError(t, err)
}

func TestEventDelete_OwnershipEnforced(t *testing.T) {
	store := testEvent(nil, false)
	svc := NewEventService(store, nil)

	err := svc.Delete(context.Background(), 1234, 1)
	assert.Error(t, err)
	assert.Empty(t, store.deleted)

	require.NoError(t, svc.Delete(context.Background(), 9, 1))
	assert.Equal(t, []int64{1}, store.deleted)
}
