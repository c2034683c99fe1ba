// Package errors defines the sentinel errors shared across the registration,
// settlement and reminder paths. Handlers map these to categorized API
// responses instead of leaking raw failures.
package errors

import "errors"

var ErrEventNotFound = errors.New("event not found")
var ErrTicketNotFound = errors.New("ticket type not found")

// Registration ledger outcomes that are expected, not exceptional.
var ErrAlreadyRegistered = errors.New("user is already registered for event")
var ErrCapacityExceeded = errors.New("event capacity exceeded")
var ErrNotRegistered = errors.New("user is not registered for event")

// ErrCapacityUnknown is returned when the registration inventory cannot be
// read. The capacity guard fails closed on it.
var ErrCapacityUnknown = errors.New("capacity could not be determined")

// ErrPaymentRequired marks a paid event reached through the free
// registration path.
var ErrPaymentRequired = errors.New("event requires payment before registration")

// ErrTicketsSoldOut marks a release whose quantity is exhausted. The event
// itself may still have capacity through other releases.
var ErrTicketsSoldOut = errors.New("ticket release is sold out")

// Settlement errors.
var ErrSettlementNotConfigured = errors.New("organiser settlement account is not configured")
var ErrNoActiveRelease = errors.New("no ticket release is currently open")
var ErrProcessorUnavailable = errors.New("payment processor unavailable")
