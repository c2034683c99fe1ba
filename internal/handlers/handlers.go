package handlers

import (
	"net/http"

	"campushub/internal/database"
	"campushub/internal/middleware"
	"campushub/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
	db       *database.DB
}

func NewHandlers(services *service.Services, db *database.DB) *Handlers {
	return &Handlers{
		services: services,
		db:       db,
	}
}

// HealthCheck - GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	dbHealth := h.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "campushub-api",
		"database": dbHealth,
	})
}

// currentUser pulls the authenticated user out of the request context.
func currentUser(c *gin.Context) (middleware.User, bool) {
	return middleware.UserFromContext(c.Request.Context())
}

func attendeeFrom(u middleware.User) service.Attendee {
	return service.Attendee{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Institution: u.Institution,
	}
}
