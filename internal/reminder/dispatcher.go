package reminder

import (
	"context"
	"log/slog"
	"time"

	"campushub/internal/messaging"
	"campushub/internal/models"
	"campushub/internal/repository"
)

// Dispatcher periodically claims due reminder jobs and hands them to the
// worker pool over the queue. Claiming marks jobs in flight, so concurrent
// dispatcher instances never publish the same job twice.
type Dispatcher struct {
	reminderRepo *repository.ReminderRepository
	natsClient   *messaging.NATSClient
	interval     time.Duration
	batchSize    int
	ticker       *time.Ticker
	done         chan bool
}

func NewDispatcher(reminderRepo *repository.ReminderRepository, natsClient *messaging.NATSClient, interval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		reminderRepo: reminderRepo,
		natsClient:   natsClient,
		interval:     interval,
		batchSize:    batchSize,
		done:         make(chan bool),
	}
}

// Start begins the background loop that checks for due jobs.
func (d *Dispatcher) Start(ctx context.Context) {
	slog.Info("Starting reminder dispatcher", "interval", d.interval.String(), "batch_size", d.batchSize)

	d.ticker = time.NewTicker(d.interval)

	// Run initial check immediately
	go d.dispatchDue(ctx)

	go func() {
		for {
			select {
			case <-d.ticker.C:
				go d.dispatchDue(ctx)
			case <-d.done:
				slog.Info("Reminder dispatcher stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background loop.
func (d *Dispatcher) Stop() {
	if d.ticker != nil {
		d.ticker.Stop()
	}
	close(d.done)
}

func (d *Dispatcher) dispatchDue(ctx context.Context) {
	jobs, err := d.reminderRepo.ClaimDue(ctx, time.Now(), d.batchSize)
	if err != nil {
		slog.Error("Failed to claim due reminder jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		slog.Debug("No due reminder jobs")
		return
	}

	slog.Info("Dispatching due reminder jobs", "count", len(jobs))

	for _, job := range jobs {
		msg := models.ReminderDueEvent{
			JobID:      job.ID,
			EventID:    job.EventID,
			UserID:     job.UserID,
			Email:      job.Email,
			EventTitle: job.EventTitle,
			StartAt:    job.FireAt,
			Attempts:   job.Attempts,
			Timestamp:  time.Now(),
		}

		if err := d.natsClient.Publish(models.SubjectReminderDue, msg); err != nil {
			slog.Error("Failed to publish reminder job, releasing claim",
				"error", err,
				"job_id", job.ID)

			// Put the job back so the next tick retries the publish.
			if err := d.reminderRepo.Reschedule(ctx, job.ID, job.Attempts, job.FireAt); err != nil {
				slog.Error("Failed to release reminder job claim",
					"error", err,
					"job_id", job.ID)
			}
		}
	}
}
