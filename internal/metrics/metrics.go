// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request counter
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTP request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Reservations by outcome: created, rejected, conflict, error.
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Reservation attempts by result",
		},
		[]string{"result"},
	)

	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickets_issued_total",
		Help: "Tickets committed as part of a reservation",
	})

	SeatConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seat_conflicts_total",
		Help: "Seat claims rejected by the unique seat constraint",
	})

	// Login attempts: success, invalid, locked.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	LoginLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "login_lockouts_total",
		Help: "Identities locked by the login throttle",
	})

	// Broker publishes by queue and status.
	BrokerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_total",
			Help: "Total number of RabbitMQ messages",
		},
		[]string{"action", "queue", "status"},
	)
)
