package service

import (
	"testing"
	"time"

	"campushub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticketType(id int64, order int, price int64, start, end *time.Time) models.TicketType {
	return models.TicketType{
		ID:           id,
		EventID:      1,
		Name:         "ticket",
		PriceAmount:  price,
		ReleaseOrder: order,
		ReleaseStart: start,
		ReleaseEnd:   end,
	}
}

func TestCurrentRelease_NoTickets(t *testing.T) {
	assert.Nil(t, CurrentRelease(nil, nil, time.Now()))
	assert.Nil(t, CurrentRelease([]models.TicketType{}, nil, time.Now()))
}

func TestCurrentRelease_WindowContainsNow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tickets := []models.TicketType{
		ticketType(1, 1, 1000, &past, &future),
	}

	got := CurrentRelease(tickets, nil, now)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestCurrentRelease_ClosedWindowsSkipped(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	pastEnd := now.Add(-time.Hour)
	futureStart := now.Add(time.Hour)
	futureEnd := now.Add(2 * time.Hour)

	tickets := []models.TicketType{
		ticketType(1, 1, 1000, &past, &pastEnd),          // already over
		ticketType(2, 2, 2000, &futureStart, &futureEnd), // not open yet
	}

	assert.Nil(t, CurrentRelease(tickets, nil, now))
}

func TestCurrentRelease_NoWindowAlwaysOpen(t *testing.T) {
	now := time.Now()

	tickets := []models.TicketType{
		ticketType(7, 3, 1500, nil, nil),
	}

	got := CurrentRelease(tickets, nil, now)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
}

func TestCurrentRelease_LowestOrderWins(t *testing.T) {
	now := time.Now()

	tickets := []models.TicketType{
		ticketType(1, 2, 500, nil, nil),
		ticketType(2, 1, 3000, nil, nil),
	}

	got := CurrentRelease(tickets, nil, now)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID, "lower release order wins regardless of price")
}

func TestCurrentRelease_TieBrokenByPrice(t *testing.T) {
	now := time.Now()

	tickets := []models.TicketType{
		ticketType(1, 1, 3000, nil, nil),
		ticketType(2, 1, 1000, nil, nil),
		ticketType(3, 1, 2000, nil, nil),
	}

	got := CurrentRelease(tickets, nil, now)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestCurrentRelease_SoldOutFallsToNextRelease(t *testing.T) {
	now := time.Now()

	early := ticketType(1, 1, 1000, nil, nil)
	early.Quantity = intPtr(50)
	regular := ticketType(2, 2, 2000, nil, nil)

	tickets := []models.TicketType{early, regular}

	got := CurrentRelease(tickets, map[int64]int{1: 50}, now)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID, "exhausted early release yields to the next one")
}

func TestCurrentRelease_AllReleasesSoldOut(t *testing.T) {
	now := time.Now()

	only := ticketType(1, 1, 1000, nil, nil)
	only.Quantity = intPtr(10)

	assert.Nil(t, CurrentRelease([]models.TicketType{only}, map[int64]int{1: 10}, now))
}

func TestCurrentRelease_NilQuantityNeverSellsOut(t *testing.T) {
	now := time.Now()

	tickets := []models.TicketType{ticketType(1, 1, 1000, nil, nil)}

	got := CurrentRelease(tickets, map[int64]int{1: 1000000}, now)
	require.NotNil(t, got)
}

func TestCurrentRelease_HalfOpenWindows(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	openEnded := []models.TicketType{ticketType(1, 1, 1000, &past, nil)}
	require.NotNil(t, CurrentRelease(openEnded, nil, now), "start in the past with no end is open")

	openStarted := []models.TicketType{ticketType(2, 1, 1000, nil, &future)}
	require.NotNil(t, CurrentRelease(openStarted, nil, now), "no start with end in the future is open")
}
