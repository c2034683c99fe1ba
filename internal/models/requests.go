package models

import "time"

// CreateEventRequest - request body for POST /api/events
type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Capacity    *int       `json:"capacity"`
	Paid        bool       `json:"paid"`
	StartAt     time.Time  `json:"start_at" binding:"required"`
	EndAt       *time.Time `json:"end_at"`
}

// CreateEventResponse - response for POST /api/events
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// CreateTicketTypeRequest - request body for POST /api/events/:id/tickets
type CreateTicketTypeRequest struct {
	Name         string     `json:"name" binding:"required"`
	PriceRef     string     `json:"price_ref" binding:"required"`
	PriceAmount  int64      `json:"price_amount" binding:"required"`
	Currency     string     `json:"currency" binding:"required"`
	Quantity     *int       `json:"quantity"`
	ReleaseStart *time.Time `json:"release_start"`
	ReleaseEnd   *time.Time `json:"release_end"`
	ReleaseOrder int        `json:"release_order"`
}

// CapacityResponse - response for GET /api/events/:id/capacity
type CapacityResponse struct {
	Available bool `json:"available"`
}

// RegisterResponse - response for POST /api/events/:id/register.
// Registered=true signals an idempotent no-op on an existing active
// registration.
type RegisterResponse struct {
	Success    bool   `json:"success"`
	Registered bool   `json:"registered,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DeregisterResponse - response for POST /api/events/:id/deregister
type DeregisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegistrationItem - one row of an organiser-facing registration listing
type RegistrationItem struct {
	UserID       int64     `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	External     bool      `json:"external"`
	Cancelled    bool      `json:"cancelled"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// RegistrationTotals - aggregate counts for an event's registrations
type RegistrationTotals struct {
	Active    int `json:"active"`
	Internal  int `json:"internal"`
	External  int `json:"external"`
	Cancelled int `json:"cancelled"`
}

// RegistrationsResponse - response for GET /api/events/:id/registrations
type RegistrationsResponse struct {
	Success       bool               `json:"success"`
	Registrations []RegistrationItem `json:"registrations"`
	Totals        RegistrationTotals `json:"totals"`
}

// CreateSettlementAccountResponse - response for POST /api/settlement/accounts
type CreateSettlementAccountResponse struct {
	AccountID     string `json:"accountId"`
	OnboardingURL string `json:"onboardingUrl"`
}

// SettlementStatusResponse - response for GET /api/settlement/status
type SettlementStatusResponse struct {
	HasAccount          bool             `json:"hasAccount"`
	Status              SettlementStatus `json:"status"`
	CardPaymentsEnabled bool             `json:"cardPaymentsEnabled"`
	TransfersEnabled    bool             `json:"transfersEnabled"`
	PayoutsEnabled      bool             `json:"payoutsEnabled"`
}

// CreateCheckoutSessionRequest - request body for POST /api/checkout/sessions
type CreateCheckoutSessionRequest struct {
	EventID  int64 `json:"event_id" binding:"required"`
	TicketID int64 `json:"ticket_id"`
}

// CreateCheckoutSessionResponse - response for POST /api/checkout/sessions
type CreateCheckoutSessionResponse struct {
	SessionID    string `json:"sessionId"`
	ClientSecret string `json:"clientSecret"`
}

// CheckoutStatusResponse - response for GET /api/checkout/sessions/:id
type CheckoutStatusResponse struct {
	Status   CheckoutStatus `json:"status"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	EventID  int64          `json:"eventId"`
}

// ConfirmCheckoutResponse - response for POST /api/checkout/sessions/:id/confirm
type ConfirmCheckoutResponse struct {
	Success    bool   `json:"success"`
	Outcome    string `json:"outcome"`
	Registered bool   `json:"registered,omitempty"`
	Error      string `json:"error,omitempty"`
}
