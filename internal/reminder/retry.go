// Package reminder implements the durable reminder queue: a dispatcher that
// claims due jobs from Postgres and publishes them, and a worker pool that
// delivers them with bounded, linearly backed-off retries.
package reminder

import "time"

// Policy decides what happens after a failed delivery attempt. It is pure:
// sending and re-enqueueing stay in the worker.
type Policy struct {
	Base        time.Duration
	MaxAttempts int
}

// Decision is the outcome of a retry decision: either retry after Delay or
// abandon the job.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Next returns the decision after the attempts-th failed attempt. The delay
// grows linearly with the attempt count; once attempts reaches the ceiling
// the job is abandoned.
func (p Policy) Next(attempts int) Decision {
	if attempts >= p.MaxAttempts {
		return Decision{}
	}
	return Decision{
		Retry: true,
		Delay: time.Duration(attempts) * p.Base,
	}
}
