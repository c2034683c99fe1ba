package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "campushub/internal/errors"
	"campushub/internal/models"

	"github.com/gin-gonic/gin"
)

// CheckCapacity - GET /api/events/:id/capacity
func (h *Handlers) CheckCapacity(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	available, err := h.services.Registrations.CheckCapacity(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		// Capacity unknown reads as unavailable. The caller may retry.
		if errors.Is(err, apperrors.ErrCapacityUnknown) {
			c.JSON(http.StatusServiceUnavailable, models.CapacityResponse{Available: false})
			return
		}
		slog.Error("Failed to check capacity", "error", err, "event_id", eventID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check capacity"})
		return
	}

	c.JSON(http.StatusOK, models.CapacityResponse{Available: available})
}

// Register - POST /api/events/:id/register
func (h *Handlers) Register(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.RegisterResponse{Success: false, Error: "Unauthorized"})
		return
	}

	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	result, err := h.services.Registrations.Register(c.Request.Context(), eventID, attendeeFrom(user), false, 0)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEventNotFound):
			c.JSON(http.StatusNotFound, models.RegisterResponse{Success: false, Error: "Event not found"})
		case errors.Is(err, apperrors.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, models.RegisterResponse{Success: false, Error: "Event is at capacity"})
		case errors.Is(err, apperrors.ErrCapacityUnknown):
			c.JSON(http.StatusServiceUnavailable, models.RegisterResponse{Success: false, Error: "Capacity could not be verified, try again"})
		case errors.Is(err, apperrors.ErrPaymentRequired):
			c.JSON(http.StatusPaymentRequired, models.RegisterResponse{Success: false, Error: "Event requires payment, use checkout"})
		default:
			slog.Error("Failed to register", "error", err, "event_id", eventID, "user_id", user.ID)
			c.JSON(http.StatusInternalServerError, models.RegisterResponse{Success: false, Error: "Failed to register"})
		}
		return
	}

	c.JSON(http.StatusOK, models.RegisterResponse{Success: true, Registered: result.AlreadyRegistered})
}

// Deregister - POST /api/events/:id/deregister
func (h *Handlers) Deregister(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.DeregisterResponse{Success: false, Error: "Unauthorized"})
		return
	}

	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	err := h.services.Registrations.Deregister(c.Request.Context(), eventID, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotRegistered) {
			c.JSON(http.StatusNotFound, models.DeregisterResponse{Success: false, Error: "No active registration for this event"})
			return
		}
		slog.Error("Failed to deregister", "error", err, "event_id", eventID, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, models.DeregisterResponse{Success: false, Error: "Failed to deregister"})
		return
	}

	c.JSON(http.StatusOK, models.DeregisterResponse{Success: true, Message: "Registration cancelled"})
}

// ListRegistrations - GET /api/events/:id/registrations
func (h *Handlers) ListRegistrations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		slog.Error("Failed to get event", "error", err, "event_id", eventID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get event"})
		return
	}
	if event.OrganiserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the organiser may list registrations"})
		return
	}

	includeCancelled := c.Query("includeCancelled") == "true"

	regs, totals, err := h.services.Registrations.ListForEvent(c.Request.Context(), eventID, includeCancelled)
	if err != nil {
		slog.Error("Failed to list registrations", "error", err, "event_id", eventID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list registrations"})
		return
	}

	items := make([]models.RegistrationItem, 0, len(regs))
	for _, reg := range regs {
		items = append(items, models.RegistrationItem{
			UserID:       reg.UserID,
			Name:         reg.Name,
			Email:        reg.Email,
			External:     reg.External,
			Cancelled:    reg.Cancelled,
			RegisteredAt: reg.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, models.RegistrationsResponse{
		Success:       true,
		Registrations: items,
		Totals:        totals,
	})
}
