package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"campushub/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Ctx key and helpers for the authenticated user.
// Using unexported type to avoid collisions.

type ctxKey string

const userKey ctxKey = "current_user"

// User is the opaque "current user" fact produced by the upstream auth
// layer. Identity arrives in trusted headers; session issuance is not this
// service's concern.
type User struct {
	ID          int64
	Email       string
	Name        string
	Institution string
}

func ContextWithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (User, bool) {
	v := ctx.Value(userKey)
	if v == nil {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}

// CORS handles cross-origin requests
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-Id, X-User-Email, X-User-Name, X-User-Institution")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger emits one structured log line per request and feeds the latency
// histogram
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Observe(latency.Seconds())

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if userID, exists := c.Get("user_id"); exists {
			logFields = append(logFields, "user_id", userID)
		}

		if status >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request completed with error", logFields...)
		} else {
			slog.Info("Request completed", logFields...)
		}
	}
}

// Recovery recovers from panics with detailed logging
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// CurrentUser extracts the authenticated user from the trusted identity
// headers set by the auth gateway and rejects requests without one.
func CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		idHeader := c.GetHeader("X-User-Id")
		if idHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, err := strconv.ParseInt(idHeader, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user identity"})
			return
		}

		user := User{
			ID:          userID,
			Email:       c.GetHeader("X-User-Email"),
			Name:        c.GetHeader("X-User-Name"),
			Institution: c.GetHeader("X-User-Institution"),
		}

		c.Set("user_id", user.ID)
		c.Request = c.Request.WithContext(ContextWithUser(c.Request.Context(), user))

		c.Next()
	}
}

// WindowCounter is the shared counter store behind the rate limiter.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit rejects clients that exceed limit requests per window. Counters
// live in a shared store keyed by client IP and window slot, so the limit
// holds across server instances. A counter-store error lets the request
// through: the rate limiter protects throughput, not correctness.
func RateLimit(counter WindowCounter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		slot := time.Now().Unix() / int64(window.Seconds())
		key := "ratelimit:" + c.ClientIP() + ":" + strconv.FormatInt(slot, 10)

		count, err := counter.IncrWindow(c.Request.Context(), key, window)
		if err != nil {
			slog.Warn("Rate limit counter unavailable", "error", err)
			c.Next()
			return
		}

		if count > int64(limit) {
			metrics.RateLimitedTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		c.Next()
	}
}
