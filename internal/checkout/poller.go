// Package checkout converts an ephemeral payment-processor session into a
// finalized registration by polling session status with a bounded number of
// attempts.
package checkout

import (
	"context"
	"time"

	"campushub/internal/external"
	"campushub/internal/logger"
	"campushub/internal/metrics"
	"campushub/internal/models"
)

// Outcome is the terminal result of one confirmation loop.
type Outcome string

const (
	OutcomePaid    Outcome = "paid"
	OutcomeFailed  Outcome = "failed"
	OutcomeExpired Outcome = "expired"
	// OutcomeTimeout means the attempt ceiling was reached without a
	// terminal session state. The payment may still complete
	// asynchronously and must not be treated as failed.
	OutcomeTimeout Outcome = "timeout"
)

// SessionSource reads checkout session state from the processor.
type SessionSource interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*external.CheckoutSession, error)
}

type Poller struct {
	source      SessionSource
	interval    time.Duration
	maxAttempts int
}

func NewPoller(source SessionSource, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	return &Poller{
		source:      source,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Await polls the session until it reaches a terminal state, the attempt
// ceiling is hit, or ctx is cancelled. Transient processor errors consume
// an attempt and the loop keeps going: the processor is eventually, not
// immediately, consistent. No request is issued after cancellation.
func (p *Poller) Await(ctx context.Context, sessionID string) (Outcome, *external.CheckoutSession, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	var last *external.CheckoutSession

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			metrics.CheckoutOutcomesTotal.WithLabelValues("cancelled").Inc()
			return "", last, ctx.Err()
		case <-timer.C:
		}

		metrics.CheckoutPollsTotal.Inc()
		session, err := p.source.GetCheckoutSession(ctx, sessionID)
		if err != nil {
			logger.WithContext(ctx).Warn("Checkout status poll failed",
				"error", err,
				"session_id", sessionID,
				"attempt", attempt)
		} else {
			last = session
			switch external.SessionStatus(session) {
			case models.CheckoutPaid:
				metrics.CheckoutOutcomesTotal.WithLabelValues(string(OutcomePaid)).Inc()
				return OutcomePaid, session, nil
			case models.CheckoutFailed:
				metrics.CheckoutOutcomesTotal.WithLabelValues(string(OutcomeFailed)).Inc()
				return OutcomeFailed, session, nil
			case models.CheckoutExpired:
				metrics.CheckoutOutcomesTotal.WithLabelValues(string(OutcomeExpired)).Inc()
				return OutcomeExpired, session, nil
			}
		}

		timer.Reset(p.interval)
	}

	metrics.CheckoutOutcomesTotal.WithLabelValues(string(OutcomeTimeout)).Inc()
	return OutcomeTimeout, last, nil
}
