package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "campushub/internal/errors"
	"campushub/internal/models"
)

type SettlementClient struct {
	baseURL    string
	apiKey     string
	feePercent float64
	returnURL  string
	httpClient *http.Client
}

type SettlementConfig struct {
	BaseURL            string
	APIKey             string
	PlatformFeePercent float64
	OnboardingReturn   string
	Timeout            time.Duration
}

// AccountState is the processor's live view of a settlement sub-account.
// A non-empty DisabledReason takes precedence over everything else.
type AccountState struct {
	ID                      string   `json:"id"`
	DisabledReason          string   `json:"disabled_reason"`
	OutstandingRequirements []string `json:"outstanding_requirements"`
	CardPaymentsEnabled     bool     `json:"card_payments_enabled"`
	TransfersEnabled        bool     `json:"transfers_enabled"`
	PayoutsEnabled          bool     `json:"payouts_enabled"`
	DetailsSubmitted        bool     `json:"details_submitted"`
}

type createAccountRequest struct {
	Capabilities []string          `json:"capabilities"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type onboardingLinkRequest struct {
	AccountID string `json:"account_id"`
	ReturnURL string `json:"return_url"`
}

type onboardingLinkResponse struct {
	URL string `json:"url"`
}

// CheckoutSessionParams describes a checkout that charges the attendee and
// credits the organiser's sub-account. The platform fee split is encoded at
// creation time, not at settlement time.
type CheckoutSessionParams struct {
	PriceRef           string
	Quantity           int
	DestinationAccount string
	FeePercent         float64
	EventID            int64
	TicketTypeID       int64
	UserID             int64
	UserEmail          string
}

type checkoutSessionRequest struct {
	PriceRef           string            `json:"price_ref"`
	Quantity           int               `json:"quantity"`
	DestinationAccount string            `json:"destination_account"`
	ApplicationFeePct  float64           `json:"application_fee_percent"`
	CustomerEmail      string            `json:"customer_email,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type CheckoutSession struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	AmountTotal  int64             `json:"amount_total"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

func NewSettlementClient(cfg SettlementConfig) *SettlementClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &SettlementClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		feePercent: cfg.PlatformFeePercent,
		returnURL:  cfg.OnboardingReturn,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// PlatformFeePercent returns the configured platform cut.
func (sc *SettlementClient) PlatformFeePercent() float64 {
	return sc.feePercent
}

// OnboardingReturnURL returns where the processor sends the organiser back
// after compliance onboarding.
func (sc *SettlementClient) OnboardingReturnURL() string {
	return sc.returnURL
}

// CreateAccount creates a settlement sub-account requesting card-payment
// and transfer capabilities.
func (sc *SettlementClient) CreateAccount(ctx context.Context, organiserID int64) (*AccountState, error) {
	req := createAccountRequest{
		Capabilities: []string{"card_payments", "transfers"},
		Metadata:     map[string]string{"organiser_id": fmt.Sprintf("%d", organiserID)},
	}

	var account AccountState
	if err := sc.post(ctx, "/v1/accounts", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccount fetches the live account object. Status is always recomputed
// from this, never purely from locally cached flags.
func (sc *SettlementClient) GetAccount(ctx context.Context, accountID string) (*AccountState, error) {
	var account AccountState
	if err := sc.get(ctx, "/v1/accounts/"+accountID, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateOnboardingLink produces the URL the organiser visits to satisfy the
// processor's compliance requirements.
func (sc *SettlementClient) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	req := onboardingLinkRequest{
		AccountID: accountID,
		ReturnURL: sc.returnURL,
	}

	var link onboardingLinkResponse
	if err := sc.post(ctx, "/v1/account_links", req, &link); err != nil {
		return "", err
	}
	return link.URL, nil
}

// CreateCheckoutSession opens a checkout session routing funds to the
// organiser's sub-account minus the platform fee.
func (sc *SettlementClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	req := checkoutSessionRequest{
		PriceRef:           params.PriceRef,
		Quantity:           params.Quantity,
		DestinationAccount: params.DestinationAccount,
		ApplicationFeePct:  params.FeePercent,
		CustomerEmail:      params.UserEmail,
		Metadata: map[string]string{
			"event_id":       fmt.Sprintf("%d", params.EventID),
			"ticket_type_id": fmt.Sprintf("%d", params.TicketTypeID),
			"user_id":        fmt.Sprintf("%d", params.UserID),
		},
	}

	var session CheckoutSession
	if err := sc.post(ctx, "/v1/checkout/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetCheckoutSession returns the current state of a checkout session.
func (sc *SettlementClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := sc.get(ctx, "/v1/checkout/sessions/"+sessionID, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (sc *SettlementClient) post(ctx context.Context, path string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sc.apiKey)

	return sc.do(req, out)
}

func (sc *SettlementClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sc.apiKey)

	return sc.do(req, out)
}

func (sc *SettlementClient) do(req *http.Request, out interface{}) error {
	resp, err := sc.httpClient.Do(req)
	if err != nil {
		// Network-level failures are inconclusive, not "not started".
		return fmt.Errorf("%w: %v", apperrors.ErrProcessorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: processor returned %d", apperrors.ErrProcessorUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("processor rejected request: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SessionStatus maps the processor's session state onto the checkout enum.
// Unknown states count as open so the poller keeps watching.
func SessionStatus(session *CheckoutSession) models.CheckoutStatus {
	switch session.Status {
	case "paid", "complete":
		return models.CheckoutPaid
	case "expired":
		return models.CheckoutExpired
	case "failed":
		return models.CheckoutFailed
	default:
		return models.CheckoutOpen
	}
}
