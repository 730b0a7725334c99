// Package service holds the booking rules: seat allocation, the reservation
// transaction, performance scheduling, catalog validation and
// authentication.  Handlers translate the errors defined here into HTTP
// responses in one place.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermission         = errors.New("permission denied")
)

// ErrSoldOut is returned when a performance has no seats left.
var ErrSoldOut = fmt.Errorf("%w: performance is sold out", ErrConflict)

// ValidationError rejects input.  Field names the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SeatTakenError reports a seat that another ticket already holds.
type SeatTakenError struct {
	PerformanceID uint64
	Row           int
	Seat          int
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %d in row %d is already taken for performance %d", e.Seat, e.Row, e.PerformanceID)
}

func (e *SeatTakenError) Is(target error) bool { return target == ErrConflict }

// TicketError wraps the failure of the ticket at Index (zero-based) in a
// reservation request.
type TicketError struct {
	Index int
	Err   error
}

func (e *TicketError) Error() string { return fmt.Sprintf("ticket %d: %v", e.Index, e.Err) }

func (e *TicketError) Unwrap() error { return e.Err }
