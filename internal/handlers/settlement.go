package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"campushub/internal/checkout"
	apperrors "campushub/internal/errors"
	"campushub/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateSettlementAccount - POST /api/settlement/accounts
func (h *Handlers) CreateSettlementAccount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.services.Settlement.EnsureAccount(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProcessorUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment processor unavailable"})
			return
		}
		slog.Error("Failed to ensure settlement account", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create settlement account"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SettlementStatus - GET /api/settlement/status
func (h *Handlers) SettlementStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.services.Settlement.Status(c.Request.Context(), user.ID)
	if err != nil {
		// An inconclusive read still carries a usable response body.
		if errors.Is(err, apperrors.ErrProcessorUnavailable) && resp != nil {
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		slog.Error("Failed to read settlement status", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settlement status"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateCheckoutSession - POST /api/checkout/sessions
func (h *Handlers) CreateCheckoutSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Checkout.CreateSession(c.Request.Context(), req.EventID, req.TicketID, attendeeFrom(user))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		case errors.Is(err, apperrors.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		case errors.Is(err, apperrors.ErrNoActiveRelease):
			c.JSON(http.StatusConflict, gin.H{"error": "No ticket release is currently open"})
		case errors.Is(err, apperrors.ErrTicketsSoldOut):
			c.JSON(http.StatusConflict, gin.H{"error": "Tickets for this release are sold out"})
		case errors.Is(err, apperrors.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, gin.H{"error": "Event is at capacity"})
		case errors.Is(err, apperrors.ErrCapacityUnknown):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Capacity could not be verified, try again"})
		case errors.Is(err, apperrors.ErrSettlementNotConfigured):
			c.JSON(http.StatusConflict, gin.H{"error": "Organiser cannot accept payments yet"})
		case errors.Is(err, apperrors.ErrProcessorUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment processor unavailable"})
		default:
			slog.Error("Failed to create checkout session", "error", err, "event_id", req.EventID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CheckoutSessionStatus - GET /api/checkout/sessions/:id
func (h *Handlers) CheckoutSessionStatus(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	resp, err := h.services.Checkout.SessionStatus(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProcessorUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment processor unavailable"})
			return
		}
		slog.Error("Failed to read checkout session", "error", err, "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read checkout session"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConfirmCheckout - POST /api/checkout/sessions/:id/confirm
func (h *Handlers) ConfirmCheckout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ConfirmCheckoutResponse{Success: false, Error: "Unauthorized"})
		return
	}

	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, models.ConfirmCheckoutResponse{Success: false, Error: "invalid session id"})
		return
	}

	outcome, result, err := h.services.Checkout.Confirm(c.Request.Context(), sessionID, attendeeFrom(user))
	if err != nil {
		slog.Error("Checkout confirmation failed", "error", err, "session_id", sessionID, "outcome", outcome)
		c.JSON(http.StatusInternalServerError, models.ConfirmCheckoutResponse{
			Success: false,
			Outcome: string(outcome),
			Error:   "Failed to confirm checkout",
		})
		return
	}

	switch outcome {
	case checkout.OutcomePaid:
		c.JSON(http.StatusOK, models.ConfirmCheckoutResponse{
			Success:    true,
			Outcome:    string(outcome),
			Registered: result != nil && result.AlreadyRegistered,
		})
	case checkout.OutcomeTimeout:
		// Payment may still settle later; the client can confirm again.
		c.JSON(http.StatusAccepted, models.ConfirmCheckoutResponse{
			Success: false,
			Outcome: string(outcome),
			Error:   "Payment not confirmed yet",
		})
	default:
		c.JSON(http.StatusConflict, models.ConfirmCheckoutResponse{
			Success: false,
			Outcome: string(outcome),
			Error:   "Payment was not completed",
		})
	}
}
