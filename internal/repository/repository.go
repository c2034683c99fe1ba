package repository

import (
	"campushub/internal/database"
)

type Repositories struct {
	Events        *EventRepository
	Tickets       *TicketRepository
	Registrations *RegistrationRepository
	Accounts      *SettlementAccountRepository
	Reminders     *ReminderRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:        NewEventRepository(db),
		Tickets:       NewTicketRepository(db),
		Registrations: NewRegistrationRepository(db),
		Accounts:      NewSettlementAccountRepository(db),
		Reminders:     NewReminderRepository(db),
	}
}
