package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campushub/internal/middleware"
	"campushub/internal/models"
	"campushub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEventStore struct {
	events map[int64]*models.Event
}

func (s *stubEventStore) Create(_ context.Context, event *models.Event) error {
	event.ID = int64(len(s.events) + 1)
	s.events[event.ID] = event
	return nil
}

func (s *stubEventStore) GetByID(_ context.Context, id int64) (*models.Event, error) {
	return s.events[id], nil
}

func (s *stubEventStore) List(_ context.Context, _ *int64) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, nil
}

func (s *stubEventStore) UpdateDescriptive(_ context.Context, _ int64, _, _ string) error {
	return nil
}

func (s *stubEventStore) SoftDelete(_ context.Context, _ int64) error { return nil }

type stubRegistrationStore struct {
	rows map[int64]*models.Registration
}

func (s *stubRegistrationStore) Register(_ context.Context, reg *models.Registration) error {
	reg.ID = int64(len(s.rows) + 1)
	s.rows[reg.UserID] = reg
	return nil
}

func (s *stubRegistrationStore) GetActive(_ context.Context, _, userID int64) (*models.Registration, error) {
	return s.rows[userID], nil
}

func (s *stubRegistrationStore) Cancel(_ context.Context, _, userID int64) (bool, error) {
	if s.rows[userID] == nil {
		return false, nil
	}
	delete(s.rows, userID)
	return true, nil
}

func (s *stubRegistrationStore) ListByEvent(_ context.Context, _ int64, _ bool) ([]models.Registration, error) {
	var out []models.Registration
	for _, r := range s.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubRegistrationStore) CountActive(_ context.Context, _ int64) (int, error) {
	return len(s.rows), nil
}

type stubReminderStore struct{}

func (stubReminderStore) Create(_ context.Context, _ *models.ReminderJob) error { return nil }
func (stubReminderStore) CancelPending(_ context.Context, _, _ int64) error     { return nil }

func intPtr(v int) *int { return &v }

func testRouter(t *testing.T) (*gin.Engine, *stubRegistrationStore) {
	t.Helper()

	events := &stubEventStore{
		events: map[int64]*models.Event{
			1: {
				ID:          1,
				Title:       "Open lecture",
				OrganiserID: 9,
				Capacity:    intPtr(2),
				StartAt:     time.Now().Add(24 * time.Hour),
			},
		},
	}
	regs := &stubRegistrationStore{rows: map[int64]*models.Registration{}}

	services := service.NewServices(service.Deps{
		Events:         events,
		Registrations:  regs,
		Reminders:      stubReminderStore{},
		ReminderOffset: time.Hour,
	})

	h := NewHandlers(services, nil)

	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.CurrentUser())
	api.POST("/events/:id/register", h.Register)
	api.POST("/events/:id/deregister", h.Deregister)
	api.GET("/events/:id/capacity", h.CheckCapacity)
	api.GET("/events/:id/registrations", h.ListRegistrations)

	return router, regs
}

func doRequest(router *gin.Engine, method, path string, userID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Email", "user"+userID+"@student.test")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(router, http.MethodPost, "/api/events/1/register", "5")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Registered)
}

func TestRegisterEndpoint_DuplicateReportsRegistered(t *testing.T) {
	router, _ := testRouter(t)

	doRequest(router, http.MethodPost, "/api/events/1/register", "5")
	w := doRequest(router, http.MethodPost, "/api/events/1/register", "5")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Registered)
}

func TestRegisterEndpoint_CapacityExceeded(t *testing.T) {
	router, _ := testRouter(t)

	doRequest(router, http.MethodPost, "/api/events/1/register", "1")
	doRequest(router, http.MethodPost, "/api/events/1/register", "2")
	w := doRequest(router, http.MethodPost, "/api/events/1/register", "3")

	require.Equal(t, http.StatusConflict, w.Code)

	var resp models.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestRegisterEndpoint_UnknownEvent(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(router, http.MethodPost, "/api/events/404/register", "5")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterEndpoint_Unauthenticated(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(router, http.MethodPost, "/api/events/1/register", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeregisterEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	doRequest(router, http.MethodPost, "/api/events/1/register", "5")

	w := doRequest(router, http.MethodPost, "/api/events/1/deregister", "5")
	require.Equal(t, http.StatusOK, w.Code)

	// A second cancel has nothing left to cancel.
	w = doRequest(router, http.MethodPost, "/api/events/1/deregister", "5")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCapacityEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(router, http.MethodGet, "/api/events/1/capacity", "5")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CapacityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Available)

	doRequest(router, http.MethodPost, "/api/events/1/register", "1")
	doRequest(router, http.MethodPost, "/api/events/1/register", "2")

	w = doRequest(router, http.MethodGet, "/api/events/1/capacity", "5")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
}

func TestListRegistrationsEndpoint_OrganiserOnly(t *testing.T) {
	router, _ := testRouter(t)

	doRequest(router, http.MethodPost, "/api/events/1/register", "5")

	// Not the organiser.
	w := doRequest(router, http.MethodGet, "/api/events/1/registrations", "5")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The organiser sees the listing with totals.
	w = doRequest(router, http.MethodGet, "/api/events/1/registrations", "9")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RegistrationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Registrations, 1)
	assert.Equal(t, 1, resp.Totals.Active)
}
