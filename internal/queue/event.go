// Package queue defines message payloads exchanged over the message broker
// together with the publisher used by the API and the event log consumer.
package queue

import "time"

// Queue names.  Both are durable and use the default exchange.
const (
    ReservationCreatedQueue = "reservation.created"
    LoginLockedQueue        = "auth.lockout"
)

// TicketInfo is one seat of a ReservationCreatedEvent.
type TicketInfo struct {
    PerformanceID uint64 `json:"performance_id"`
    Row           int    `json:"row"`
    Seat          int    `json:"seat"`
}

// ReservationCreatedEvent is published after a reservation commits.  It
// carries enough for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type ReservationCreatedEvent struct {
    EventID       string       `json:"event_id"`
    ReservationID uint64       `json:"reservation_id"`
    UserID        uint64       `json:"user_id"`
    Tickets       []TicketInfo `json:"tickets"`
    CreatedAt     time.Time    `json:"created_at"`
}

// LoginLockedEvent is published when the login throttle locks an email.
type LoginLockedEvent struct {
    EventID     string    `json:"event_id"`
    Email       string    `json:"email"`
    LockSeconds int       `json:"lock_seconds"`
    LockedAt    time.Time `json:"locked_at"`
}
