package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"campushub/internal/metrics"
	"campushub/internal/models"

	"github.com/nats-io/stan.go"
)

// Mailer is the outbound email boundary.
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

// JobStore is the durable side of the reminder pipeline, satisfied by the
// reminder repository.
type JobStore interface {
	GetByID(ctx context.Context, id int64) (*models.ReminderJob, error)
	MarkDelivered(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, attempts int, fireAt time.Time) error
	Abandon(ctx context.Context, id int64, attempts int) error
}

// Worker consumes due reminder jobs from the queue and delivers them. Each
// job is owned by exactly one worker for the duration of an attempt; the
// message is acknowledged only after the send, so a crash mid-attempt leads
// to redelivery, and the job row's status guards against a duplicate send.
type Worker struct {
	jobs   JobStore
	mailer Mailer
	policy Policy
}

func NewWorker(jobs JobStore, mailer Mailer, policy Policy) *Worker {
	return &Worker{
		jobs:   jobs,
		mailer: mailer,
		policy: policy,
	}
}

// Handle processes one queued reminder job message.
func (w *Worker) Handle(m *stan.Msg) {
	var msg models.ReminderDueEvent
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		slog.Error("Failed to unmarshal reminder job message", "error", err)
		m.Ack()
		return
	}

	if w.deliver(context.Background(), msg.JobID) {
		m.Ack()
	}
	// No ack when the job row could not be read; the queue redelivers.
}

// deliver runs one delivery attempt for the job and reports whether the
// queue message should be acknowledged.
func (w *Worker) deliver(ctx context.Context, jobID int64) bool {
	// Redelivery guard: if an earlier attempt already resolved this job,
	// acknowledge without sending again.
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		slog.Error("Failed to load reminder job", "error", err, "job_id", jobID)
		return false
	}
	if job == nil || job.Status == models.ReminderDelivered || job.Status == models.ReminderAbandoned {
		return true
	}

	subject, body := composeReminder(job)

	if err := w.mailer.Send(ctx, job.Email, subject, body); err != nil {
		metrics.ReminderAttemptsTotal.WithLabelValues("failed").Inc()
		w.handleFailure(ctx, job, err)
		return true
	}

	metrics.ReminderAttemptsTotal.WithLabelValues("delivered").Inc()

	if err := w.jobs.MarkDelivered(ctx, job.ID); err != nil {
		slog.Error("Failed to mark reminder delivered",
			"error", err,
			"job_id", job.ID)
		// The email went out. Acknowledge anyway: redelivery would risk a
		// duplicate send, while a stale IN_FLIGHT row is recoverable.
	}

	return true
}

func (w *Worker) handleFailure(ctx context.Context, job *models.ReminderJob, sendErr error) {
	attempts := job.Attempts + 1
	decision := w.policy.Next(attempts)

	if !decision.Retry {
		metrics.ReminderAbandonedTotal.Inc()
		slog.Error("Abandoning reminder job after max attempts",
			"error", sendErr,
			"job_id", job.ID,
			"event_id", job.EventID,
			"user_id", job.UserID,
			"attempts", attempts)

		if err := w.jobs.Abandon(ctx, job.ID, attempts); err != nil {
			slog.Error("Failed to abandon reminder job", "error", err, "job_id", job.ID)
		}
		return
	}

	nextAt := time.Now().Add(decision.Delay)
	slog.Warn("Reminder delivery failed, rescheduling",
		"error", sendErr,
		"job_id", job.ID,
		"attempts", attempts,
		"retry_in", decision.Delay.String())

	if err := w.jobs.Reschedule(ctx, job.ID, attempts, nextAt); err != nil {
		slog.Error("Failed to reschedule reminder job", "error", err, "job_id", job.ID)
	}
}

func composeReminder(job *models.ReminderJob) (string, string) {
	subject := fmt.Sprintf("Reminder: %s", job.EventTitle)
	body := fmt.Sprintf("Hi,\n\nThis is a reminder that %s is coming up.\n\nSee you there!\n", job.EventTitle)
	return subject, body
}
