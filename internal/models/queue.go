package models

import "time"

// NATS subjects
const (
	SubjectRegistrationCreated   = "registration.created"
	SubjectRegistrationCancelled = "registration.cancelled"
	SubjectReminderDue           = "reminder.due"
)

// RegistrationCreatedEvent is published when a registration becomes active
type RegistrationCreatedEvent struct {
	RegistrationID int64     `json:"registration_id"`
	EventID        int64     `json:"event_id"`
	UserID         int64     `json:"user_id"`
	External       bool      `json:"external"`
	Timestamp      time.Time `json:"timestamp"`
}

// RegistrationCancelledEvent is published when a registration is cancelled
type RegistrationCancelledEvent struct {
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ReminderDueEvent carries one claimed reminder job to the worker pool.
// The payload is a pointer into reminder_jobs; the row stays authoritative
// for attempt accounting.
type ReminderDueEvent struct {
	JobID      int64     `json:"job_id"`
	EventID    int64     `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	EventTitle string    `json:"event_title"`
	StartAt    time.Time `json:"start_at"`
	Attempts   int       `json:"attempts"`
	Timestamp  time.Time `json:"timestamp"`
}
