package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "campushub/internal/errors"
	"campushub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventStore struct {
	events  map[int64]*models.Event
	getErr  error
	deleted []int64
}

func (f *fakeEventStore) Create(_ context.Context, event *models.Event) error {
	if f.events == nil {
		f.events = map[int64]*models.Event{}
	}
	event.ID = int64(len(f.events) + 1)
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id int64) (*models.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.events[id], nil
}

func (f *fakeEventStore) List(_ context.Context, _ *int64) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEventStore) UpdateDescriptive(_ context.Context, _ int64, _, _ string) error {
	return nil
}

func (f *fakeEventStore) SoftDelete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRegistrationStore struct {
	active      map[string]*models.Registration
	count       int
	countErr    error
	registerErr error
	cancelled   []string
	// missFirstLookup makes the first GetActive come back empty, as if a
	// concurrent insert landed between the lookup and the write.
	missFirstLookup bool
}

func regKey(eventID, userID int64) string {
	return fmt.Sprintf("%d:%d", eventID, userID)
}

func (f *fakeRegistrationStore) Register(_ context.Context, reg *models.Registration) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	if f.active == nil {
		f.active = map[string]*models.Registration{}
	}
	reg.ID = int64(len(f.active) + 1)
	f.active[regKey(reg.EventID, reg.UserID)] = reg
	f.count++
	return nil
}

func (f *fakeRegistrationStore) GetActive(_ context.Context, eventID, userID int64) (*models.Registration, error) {
	if f.missFirstLookup {
		f.missFirstLookup = false
		return nil, nil
	}
	return f.active[regKey(eventID, userID)], nil
}

func (f *fakeRegistrationStore) Cancel(_ context.Context, eventID, userID int64) (bool, error) {
	key := regKey(eventID, userID)
	if f.active[key] == nil {
		return false, nil
	}
	delete(f.active, key)
	f.count--
	f.cancelled = append(f.cancelled, key)
	return true, nil
}

func (f *fakeRegistrationStore) ListByEvent(_ context.Context, _ int64, _ bool) ([]models.Registration, error) {
	var regs []models.Registration
	for _, reg := range f.active {
		regs = append(regs, *reg)
	}
	return regs, nil
}

func (f *fakeRegistrationStore) CountActive(_ context.Context, _ int64) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

type fakeReminderStore struct {
	created   []*models.ReminderJob
	cancelled []string
}

func (f *fakeReminderStore) Create(_ context.Context, job *models.ReminderJob) error {
	f.created = append(f.created, job)
	return nil
}

func (f *fakeReminderStore) CancelPending(_ context.Context, eventID, userID int64) error {
	f.cancelled = append(f.cancelled, regKey(eventID, userID))
	return nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(subject string, _ interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, subject)
	return nil
}

func intPtr(v int) *int { return &v }

func testEvent(capacity *int, paid bool) *fakeEventStore {
	return &fakeEventStore{
		events: map[int64]*models.Event{
			1: {
				ID:                   1,
				Title:                "Robotics demo night",
				OrganiserID:          9,
				OrganiserInstitution: "TU Delft",
				Capacity:             capacity,
				Paid:                 paid,
				StartAt:              time.Now().Add(48 * time.Hour),
			},
		},
	}
}

func testAttendee(userID int64, institution string) Attendee {
	return Attendee{
		UserID:      userID,
		Name:        "Sam Visser",
		Email:       "sam@student.test",
		Institution: institution,
	}
}

func TestRegister_Succeeds(t *testing.T) {
	events := testEvent(intPtr(10), false)
	regs := &fakeRegistrationStore{}
	reminders := &fakeReminderStore{}
	pub := &fakePublisher{}

	svc := NewRegistrationService(events, regs, reminders, pub, 24*time.Hour)

	result, err := svc.Register(context.Background(), 1, testAttendee(5, "TU Delft"), false, 0)
	require.NoError(t, err)
	assert.False(t, result.AlreadyRegistered)
	assert.False(t, result.Registration.External)

	require.Len(t, reminders.created, 1)
	assert.Equal(t, int64(1), reminders.created[0].EventID)
	assert.Equal(t, []string{models.SubjectRegistrationCreated}, pub.published)
}

func TestRegister_EventNotFound(t *testing.T) {
	svc := NewRegistrationService(&fakeEventStore{}, &fakeRegistrationStore{}, &fakeReminderStore{}, nil, time.Hour)

	_, err := svc.Register(context.Background(), 404, testAttendee(5, ""), false, 0)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestRegister_DuplicateIsIdempotent(t *testing.T) {
	events := testEvent(intPtr(10), false)
	regs := &fakeRegistrationStore{}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	first, err := svc.Register(context.Background(), 1, testAttendee(5, "TU Delft"), false, 0)
	require.NoError(t, err)

	second, err := svc.Register(context.Background(), 1, testAttendee(5, "TU Delft"), false, 0)
	require.NoError(t, err)
	assert.True(t, second.AlreadyRegistered)
	assert.Equal(t, first.Registration.ID, second.Registration.ID)
	assert.Equal(t, 1, regs.count, "no second row created")
}

func TestRegister_CapacityExceeded(t *testing.T) {
	events := testEvent(intPtr(1), false)
	regs := &fakeRegistrationStore{count: 1}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	_, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
}

func TestRegister_NilCapacityIsUnlimited(t *testing.T) {
	events := testEvent(nil, false)
	regs := &fakeRegistrationStore{count: 100000}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	result, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	require.NoError(t, err)
	assert.False(t, result.AlreadyRegistered)
}

func TestRegister_CapacityUnknownFailsClosed(t *testing.T) {
	events := testEvent(intPtr(10), false)
	regs := &fakeRegistrationStore{countErr: fmt.Errorf("connection reset")}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	_, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded, "unknown inventory refuses, never admits")
}

func TestRegister_PaidEventNeedsConfirmedPayment(t *testing.T) {
	events := testEvent(intPtr(10), true)
	regs := &fakeRegistrationStore{}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	_, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)

	result, err := svc.Register(context.Background(), 1, testAttendee(5, ""), true, 0)
	require.NoError(t, err)
	assert.False(t, result.AlreadyRegistered)
}

func TestRegister_PaidPathRecordsTicket(t *testing.T) {
	events := testEvent(intPtr(10), true)
	regs := &fakeRegistrationStore{}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	result, err := svc.Register(context.Background(), 1, testAttendee(5, ""), true, 3)
	require.NoError(t, err)
	require.NotNil(t, result.Registration.TicketTypeID)
	assert.Equal(t, int64(3), *result.Registration.TicketTypeID)

	// Free registrations carry no ticket reference.
	result, err = svc.Register(context.Background(), 1, testAttendee(6, ""), true, 0)
	require.NoError(t, err)
	assert.Nil(t, result.Registration.TicketTypeID)
}

func TestRegister_SoldOutRelease(t *testing.T) {
	events := testEvent(intPtr(10), true)
	regs := &fakeRegistrationStore{registerErr: apperrors.ErrTicketsSoldOut}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	_, err := svc.Register(context.Background(), 1, testAttendee(5, ""), true, 3)
	assert.ErrorIs(t, err, apperrors.ErrTicketsSoldOut)
}

func TestRegister_RaceLostResolvesIdempotently(t *testing.T) {
	events := testEvent(intPtr(10), false)
	existing := &models.Registration{ID: 77, EventID: 1, UserID: 5}
	regs := &fakeRegistrationStore{
		registerErr:     apperrors.ErrAlreadyRegistered,
		missFirstLookup: true,
		active:          map[string]*models.Registration{regKey(1, 5): existing},
	}

	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	result, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	require.NoError(t, err)
	assert.True(t, result.AlreadyRegistered)
	assert.Equal(t, int64(77), result.Registration.ID)
}

func TestRegister_RaceLostWithNoSurvivingRow(t *testing.T) {
	// The insert reports a conflict but the winning row is already gone
	// (cancelled in between). The error must name the condition rather
	// than wrap a nil lookup error.
	events := testEvent(intPtr(10), false)
	regs := &fakeRegistrationStore{registerErr: apperrors.ErrAlreadyRegistered}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	_, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active registration")
	assert.NotContains(t, err.Error(), "%!")
}

func TestRegister_PublishFailureDoesNotFail(t *testing.T) {
	events := testEvent(intPtr(10), false)
	regs := &fakeRegistrationStore{}
	pub := &fakePublisher{err: fmt.Errorf("nats: connection closed")}

	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, pub, time.Hour)

	result, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	require.NoError(t, err)
	assert.NotNil(t, result.Registration)
}

func TestClassifyExternal(t *testing.T) {
	tests := []struct {
		name      string
		attendee  string
		organiser string
		want      bool
	}{
		{"same institution", "TU Delft", "TU Delft", false},
		{"case insensitive", "tu delft", "TU Delft", false},
		{"whitespace ignored", "  TU Delft ", "TU Delft", false},
		{"different institution", "Leiden", "TU Delft", true},
		{"unknown attendee institution", "", "TU Delft", true},
		{"organiser without institution", "Leiden", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyExternal(tt.attendee, tt.organiser))
		})
	}
}

func TestDeregister(t *testing.T) {
	events := testEvent(intPtr(10), false)
	regs := &fakeRegistrationStore{}
	reminders := &fakeReminderStore{}
	pub := &fakePublisher{}

	svc := NewRegistrationService(events, regs, reminders, pub, time.Hour)

	_, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Deregister(context.Background(), 1, 5))
	assert.Equal(t, []string{regKey(1, 5)}, reminders.cancelled, "pending reminder withdrawn")
	assert.Contains(t, pub.published, models.SubjectRegistrationCancelled)

	// Second cancel finds nothing active.
	err = svc.Deregister(context.Background(), 1, 5)
	assert.ErrorIs(t, err, apperrors.ErrNotRegistered)
}

func TestDeregisterThenReregister(t *testing.T) {
	events := testEvent(intPtr(1), false)
	regs := &fakeRegistrationStore{}
	svc := NewRegistrationService(events, regs, &fakeReminderStore{}, nil, time.Hour)

	_, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	require.NoError(t, err)
	require.NoError(t, svc.Deregister(context.Background(), 1, 5))

	// The freed slot is open again, including to the same user.
	result, err := svc.Register(context.Background(), 1, testAttendee(5, ""), false, 0)
	require.NoError(t, err)
	assert.False(t, result.AlreadyRegistered)
}

func TestCheckCapacity(t *testing.T) {
	t.Run("free slot", func(t *testing.T) {
		svc := NewRegistrationService(testEvent(intPtr(2), false), &fakeRegistrationStore{count: 1}, &fakeReminderStore{}, nil, time.Hour)

		available, err := svc.CheckCapacity(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("full", func(t *testing.T) {
		svc := NewRegistrationService(testEvent(intPtr(2), false), &fakeRegistrationStore{count: 2}, &fakeReminderStore{}, nil, time.Hour)

		available, err := svc.CheckCapacity(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("count failure fails closed", func(t *testing.T) {
		regs := &fakeRegistrationStore{countErr: fmt.Errorf("timeout")}
		svc := NewRegistrationService(testEvent(intPtr(2), false), regs, &fakeReminderStore{}, nil, time.Hour)

		available, err := svc.CheckCapacity(context.Background(), 1)
		assert.ErrorIs(t, err, apperrors.ErrCapacityUnknown)
		assert.False(t, available)
	})
}

func TestListForEvent_Totals(t *testing.T) {
	regs := &fakeRegistrationStore{
		active: map[string]*models.Registration{
			regKey(1, 1): {EventID: 1, UserID: 1, External: false},
			regKey(1, 2): {EventID: 1, UserID: 2, External: true},
			regKey(1, 3): {EventID: 1, UserID: 3, Cancelled: true},
		},
	}
	svc := NewRegistrationService(testEvent(nil, false), regs, &fakeReminderStore{}, nil, time.Hour)

	_, totals, err := svc.ListForEvent(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Active)
	assert.Equal(t, 1, totals.Internal)
	assert.Equal(t, 1, totals.External)
	assert.Equal(t, 1, totals.Cancelled)
}
