package models

import "time"

// Event is a published campus event. Capacity nil means unlimited.
// Once registrations exist only descriptive fields may change.
type Event struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	OrganiserID          int64      `json:"organiser_id"`
	OrganiserInstitution string     `json:"organiser_institution"`
	Capacity             *int       `json:"capacity"`
	Paid                 bool       `json:"paid"`
	StartAt              time.Time  `json:"start_at"`
	EndAt                *time.Time `json:"end_at"`
	Deleted              bool       `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TicketType is one release of tickets for an event. Quantity nil means
// unlimited. A nil release window means the release is always open.
type TicketType struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"event_id"`
	Name         string     `json:"name"`
	PriceRef     string     `json:"price_ref"`
	PriceAmount  int64      `json:"price_amount"`
	Currency     string     `json:"currency"`
	Quantity     *int       `json:"quantity"`
	ReleaseStart *time.Time `json:"release_start"`
	ReleaseEnd   *time.Time `json:"release_end"`
	ReleaseOrder int        `json:"release_order"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Registration records one (event, user) attendance. At most one active
// (non-cancelled) row may exist per pair. TicketTypeID is set on the paid
// path and charges the purchase against that release's quantity; free
// registrations carry nil.
type Registration struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"event_id"`
	UserID       int64      `json:"user_id"`
	TicketTypeID *int64     `json:"ticket_type_id,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Institution  string     `json:"institution"`
	External     bool       `json:"external"`
	Cancelled    bool       `json:"cancelled"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"registered_at"`
}

// SettlementStatus is the categorical onboarding state of an organiser's
// settlement sub-account.
type SettlementStatus string

const (
	SettlementNotStarted       SettlementStatus = "not_started"
	SettlementMoreInfoRequired SettlementStatus = "more_info_required"
	SettlementApproved         SettlementStatus = "approved"
	SettlementDisabled         SettlementStatus = "disabled"
	// SettlementInconclusive means the processor could not be reached.
	// Callers must not treat it as not_started.
	SettlementInconclusive SettlementStatus = "inconclusive"
)

// SettlementAccount caches processor-reported capability flags for an
// organiser's sub-account. The flags are a read-through optimization only;
// status is always recomputed from the live processor account.
type SettlementAccount struct {
	OrganiserID         int64     `json:"organiser_id"`
	AccountID           string    `json:"account_id"`
	CardPaymentsEnabled bool      `json:"card_payments_enabled"`
	TransfersEnabled    bool      `json:"transfers_enabled"`
	PayoutsEnabled      bool      `json:"payouts_enabled"`
	OnboardingComplete  bool      `json:"onboarding_complete"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CheckoutStatus is the state of an ephemeral processor checkout session.
type CheckoutStatus string

const (
	CheckoutOpen    CheckoutStatus = "open"
	CheckoutPaid    CheckoutStatus = "paid"
	CheckoutExpired CheckoutStatus = "expired"
	CheckoutFailed  CheckoutStatus = "failed"
)

// Reminder job states. Jobs are durable rows; the queue carries only a
// pointer to them.
const (
	ReminderPending   = "PENDING"
	ReminderDelivered = "DELIVERED"
	ReminderAbandoned = "ABANDONED"
)

// ReminderJob is one "send this user a reminder for this event" obligation
// with bounded retry.
type ReminderJob struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	EventTitle string    `json:"event_title"`
	FireAt     time.Time `json:"fire_at"`
	Attempts   int       `json:"attempts"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
