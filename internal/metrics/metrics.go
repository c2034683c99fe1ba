package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts registration attempts by outcome
	// (registered, already_registered, capacity_exceeded, rejected).
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campushub_registrations_total",
		Help: "Registration attempts by outcome",
	}, []string{"outcome"})

	// CapacityDenialsTotal counts capacity-guard denials, including
	// fail-closed denials on datastore errors.
	CapacityDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campushub_capacity_denials_total",
		Help: "Capacity guard denials by reason",
	}, []string{"reason"})

	// CheckoutPollsTotal counts individual status polls against the
	// payment processor.
	CheckoutPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_checkout_polls_total",
		Help: "Checkout session status polls issued",
	})

	// CheckoutOutcomesTotal counts finished confirmation loops by outcome
	// (paid, failed, expired, timeout, cancelled).
	CheckoutOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campushub_checkout_outcomes_total",
		Help: "Checkout confirmation outcomes",
	}, []string{"outcome"})

	// ReminderAttemptsTotal counts reminder delivery attempts by outcome
	// (delivered, failed).
	ReminderAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campushub_reminder_attempts_total",
		Help: "Reminder delivery attempts by outcome",
	}, []string{"outcome"})

	// ReminderAbandonedTotal counts jobs abandoned after the retry ceiling.
	ReminderAbandonedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_reminder_abandoned_total",
		Help: "Reminder jobs abandoned after max attempts",
	})

	// RequestDuration observes HTTP request latency per route and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campushub_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// RateLimitedTotal counts requests rejected at the rate limiter.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
