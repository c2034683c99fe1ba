package reminder

import (
	"context"
	"log/slog"

	"campushub/internal/config"
	"campushub/internal/database"
	"campushub/internal/external"
	"campushub/internal/messaging"
	"campushub/internal/models"
	"campushub/internal/repository"
)

// Service bundles the dispatcher and the worker pool into one runnable
// reminders process.
type Service struct {
	db         *database.DB
	nats       *messaging.NATSClient
	dispatcher *Dispatcher
	worker     *Worker
}

func NewService(cfg *config.Config) (*Service, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	reminderRepo := repository.NewReminderRepository(db)
	mailClient := external.NewMailClient(cfg.Mail)

	policy := Policy{
		Base:        cfg.ReminderBaseBackoff,
		MaxAttempts: cfg.ReminderMaxAttempts,
	}

	return &Service{
		db:         db,
		nats:       natsClient,
		dispatcher: NewDispatcher(reminderRepo, natsClient, cfg.ReminderDispatchInterval, cfg.ReminderDispatchBatch),
		worker:     NewWorker(reminderRepo, mailClient, policy),
	}, nil
}

// Start subscribes the worker queue group and begins dispatching due jobs.
func (s *Service) Start(ctx context.Context) error {
	slog.Info("Starting reminder service...")

	if _, err := s.nats.SubscribeQueue(models.SubjectReminderDue, "reminders", s.worker.Handle); err != nil {
		return err
	}

	s.dispatcher.Start(ctx)

	slog.Info("Reminder service started successfully")
	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down reminder service...")

	s.dispatcher.Stop()

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
