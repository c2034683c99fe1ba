package reminder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campushub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobStore struct {
	jobs   map[int64]*models.ReminderJob
	getErr error

	rescheduledAttempts []int
	abandonedAttempts   []int
}

func (f *fakeJobStore) GetByID(_ context.Context, id int64) (*models.ReminderJob, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.jobs[id], nil
}

func (f *fakeJobStore) MarkDelivered(_ context.Context, id int64) error {
	f.jobs[id].Status = models.ReminderDelivered
	return nil
}

func (f *fakeJobStore) Reschedule(_ context.Context, id int64, attempts int, fireAt time.Time) error {
	job := f.jobs[id]
	job.Status = models.ReminderPending
	job.Attempts = attempts
	job.FireAt = fireAt
	f.rescheduledAttempts = append(f.rescheduledAttempts, attempts)
	return nil
}

func (f *fakeJobStore) Abandon(_ context.Context, id int64, attempts int) error {
	job := f.jobs[id]
	job.Status = models.ReminderAbandoned
	job.Attempts = attempts
	f.abandonedAttempts = append(f.abandonedAttempts, attempts)
	return nil
}

type fakeMailer struct {
	// errs is consumed one entry per Send; a nil entry means success.
	// When exhausted, sends succeed.
	errs []error
	sent []string
}

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err != nil {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

func pendingJob(id int64, attempts int) *models.ReminderJob {
	return &models.ReminderJob{
		ID:         id,
		EventID:    1,
		UserID:     5,
		Email:      "sam@student.test",
		EventTitle: "Robotics demo night",
		FireAt:     time.Now(),
		Attempts:   attempts,
		Status:     models.ReminderPending,
	}
}

func testWorker(store *fakeJobStore, mailer *fakeMailer) *Worker {
	return NewWorker(store, mailer, Policy{Base: time.Minute, MaxAttempts: 3})
}

func TestWorker_DeliversAndMarks(t *testing.T) {
	store := &fakeJobStore{jobs: map[int64]*models.ReminderJob{7: pendingJob(7, 0)}}
	mailer := &fakeMailer{}
	w := testWorker(store, mailer)

	ack := w.deliver(context.Background(), 7)

	assert.True(t, ack)
	assert.Equal(t, []string{"sam@student.test"}, mailer.sent)
	assert.Equal(t, models.ReminderDelivered, store.jobs[7].Status)
}

func TestWorker_FailTwiceThenSucceed(t *testing.T) {
	store := &fakeJobStore{jobs: map[int64]*models.ReminderJob{7: pendingJob(7, 0)}}
	mailer := &fakeMailer{errs: []error{
		fmt.Errorf("smtp: connection refused"),
		fmt.Errorf("smtp: connection refused"),
		nil,
	}}
	w := testWorker(store, mailer)

	// Each redelivery of the queue message runs one attempt.
	for i := 0; i < 3; i++ {
		assert.True(t, w.deliver(context.Background(), 7))
	}

	assert.Equal(t, []int{1, 2}, store.rescheduledAttempts)
	assert.Empty(t, store.abandonedAttempts)
	assert.Equal(t, models.ReminderDelivered, store.jobs[7].Status)
	assert.Len(t, mailer.sent, 1)
}

func TestWorker_AbandonedAfterThirdFailure(t *testing.T) {
	store := &fakeJobStore{jobs: map[int64]*models.ReminderJob{7: pendingJob(7, 2)}}
	mailer := &fakeMailer{errs: []error{fmt.Errorf("smtp: mailbox unavailable")}}
	w := testWorker(store, mailer)

	require.True(t, w.deliver(context.Background(), 7))

	assert.Equal(t, []int{3}, store.abandonedAttempts)
	assert.Equal(t, models.ReminderAbandoned, store.jobs[7].Status)

	// A late redelivery of the same message finds the abandonment record
	// and does not attempt another send.
	require.True(t, w.deliver(context.Background(), 7))
	assert.Empty(t, mailer.sent)
	assert.Equal(t, []int{3}, store.abandonedAttempts)
}

func TestWorker_RedeliveryAfterDeliveredIsNoOp(t *testing.T) {
	job := pendingJob(7, 1)
	job.Status = models.ReminderDelivered
	store := &fakeJobStore{jobs: map[int64]*models.ReminderJob{7: job}}
	mailer := &fakeMailer{}
	w := testWorker(store, mailer)

	ack := w.deliver(context.Background(), 7)

	assert.True(t, ack, "resolved jobs are acknowledged without a send")
	assert.Empty(t, mailer.sent)
}

func TestWorker_StoreErrorLeavesMessageQueued(t *testing.T) {
	store := &fakeJobStore{getErr: fmt.Errorf("connection reset")}
	mailer := &fakeMailer{}
	w := testWorker(store, mailer)

	ack := w.deliver(context.Background(), 7)

	assert.False(t, ack, "unreadable job rows rely on queue redelivery")
	assert.Empty(t, mailer.sent)
}

func TestWorker_UnknownJobAcked(t *testing.T) {
	store := &fakeJobStore{jobs: map[int64]*models.ReminderJob{}}
	w := testWorker(store, &fakeMailer{})

	assert.True(t, w.deliver(context.Background(), 404))
}
