package model

import "time"

// Reservation is one checkout by one user.  It owns one or more tickets
// and is never updated after it has been committed.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who made the reservation.
//  CreatedAt – commit timestamp, shared by all tickets of the reservation.
//  Tickets   – seats claimed, in the order they were requested.
type Reservation struct {
    ID        uint64    // reservations.id
    UserID    uint64    // reservations.user_id
    CreatedAt time.Time // reservations.created_at
    Tickets   []Ticket
}

// Ticket is a claim on a single seat of a performance.  The triple
// (PerformanceID, Row, Seat) is unique across all tickets.
type Ticket struct {
    ID            uint64       // tickets.id
    Row           int          // tickets.seat_row
    Seat          int          // tickets.seat_number
    PerformanceID uint64       // tickets.performance_id
    ReservationID uint64       // tickets.reservation_id
    Performance   *Performance // joined performance, may be nil
}
