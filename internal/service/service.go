package service

import (
	"context"
	"time"

	"campushub/internal/checkout"
	"campushub/internal/external"
	"campushub/internal/models"
)

// Store interfaces are satisfied by the repository layer. Services depend on
// them so business rules can be tested against mocks.

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, organiserID *int64) ([]models.Event, error)
	UpdateDescriptive(ctx context.Context, id int64, title, description string) error
	SoftDelete(ctx context.Context, id int64) error
}

type RegistrationStore interface {
	Register(ctx context.Context, reg *models.Registration) error
	GetActive(ctx context.Context, eventID, userID int64) (*models.Registration, error)
	Cancel(ctx context.Context, eventID, userID int64) (bool, error)
	ListByEvent(ctx context.Context, eventID int64, includeCancelled bool) ([]models.Registration, error)
	CountActive(ctx context.Context, eventID int64) (int, error)
}

type TicketStore interface {
	Create(ctx context.Context, ticket *models.TicketType) error
	GetByID(ctx context.Context, id int64) (*models.TicketType, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.TicketType, error)
	SoldCounts(ctx context.Context, eventID int64) (map[int64]int, error)
}

type AccountStore interface {
	GetByOrganiser(ctx context.Context, organiserID int64) (*models.SettlementAccount, error)
	Create(ctx context.Context, account *models.SettlementAccount) error
	UpdateFlags(ctx context.Context, account *models.SettlementAccount) error
}

type ReminderStore interface {
	Create(ctx context.Context, job *models.ReminderJob) error
	CancelPending(ctx context.Context, eventID, userID int64) error
}

// Publisher is the queue side effect of the registration path.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// EventIndexer mirrors events into the search index.
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, eventID int64) error
	Search(ctx context.Context, query string, page, pageSize int) ([]models.Event, error)
}

// ProcessorClient is the payment processor boundary.
type ProcessorClient interface {
	CreateAccount(ctx context.Context, organiserID int64) (*external.AccountState, error)
	GetAccount(ctx context.Context, accountID string) (*external.AccountState, error)
	CreateOnboardingLink(ctx context.Context, accountID string) (string, error)
	CreateCheckoutSession(ctx context.Context, params external.CheckoutSessionParams) (*external.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*external.CheckoutSession, error)
	PlatformFeePercent() float64
}

// StatusCache is the settlement status read-through cache.
type StatusCache interface {
	GetSettlementStatus(ctx context.Context, organiserID int64) (*models.SettlementStatusResponse, error)
	SetSettlementStatus(ctx context.Context, organiserID int64, status *models.SettlementStatusResponse, ttl time.Duration) error
}

type Services struct {
	Events        *EventService
	Tickets       *TicketService
	Registrations *RegistrationService
	Settlement    *SettlementService
	Checkout      *CheckoutService
}

// Deps collects everything the service layer is built from. Optional
// collaborators (indexer, publisher, cache) may be nil; the services degrade
// gracefully without them.
type Deps struct {
	Events        EventStore
	Tickets       TicketStore
	Registrations RegistrationStore
	Accounts      AccountStore
	Reminders     ReminderStore

	Publisher Publisher
	Indexer   EventIndexer
	Processor ProcessorClient
	Cache     StatusCache

	Poller         *checkout.Poller
	ReminderOffset time.Duration
}

func NewServices(d Deps) *Services {
	events := NewEventService(d.Events, d.Indexer)
	tickets := NewTicketService(d.Tickets, d.Events)
	registrations := NewRegistrationService(d.Events, d.Registrations, d.Reminders, d.Publisher, d.ReminderOffset)
	settlement := NewSettlementService(d.Accounts, d.Processor, d.Cache)
	co := NewCheckoutService(d.Events, tickets, registrations, settlement, d.Processor, d.Poller)

	return &Services{
		Events:        events,
		Tickets:       tickets,
		Registrations: registrations,
		Settlement:    settlement,
		Checkout:      co,
	}
}
