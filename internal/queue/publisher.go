package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theatre-reservation/internal/metrics"
)

// Publisher sends events to RabbitMQ.  Each publish dials, declares the
// durable queue and sends one persistent message; errors are logged and
// returned so callers can treat delivery as best effort.
type Publisher struct {
    url string
    log logrus.FieldLogger
}

func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
    return &Publisher{url: url, log: log}
}

// ReservationCreated publishes ev to the reservation.created queue.
func (p *Publisher) ReservationCreated(ctx context.Context, ev ReservationCreatedEvent) error {
    return p.Publish(ctx, ReservationCreatedQueue, ev)
}

// LoginLocked publishes ev to the auth.lockout queue.
func (p *Publisher) LoginLocked(ctx context.Context, ev LoginLockedEvent) error {
    return p.Publish(ctx, LoginLockedQueue, ev)
}

// Publish marshals event as JSON and sends it to queue.
func (p *Publisher) Publish(ctx context.Context, queue string, event any) error {
    err := p.publish(ctx, queue, event)
    status := "ok"
    if err != nil {
        status = "error"
        p.log.WithError(err).WithField("queue", queue).Warn("rabbitmq: publish failed")
    }
    metrics.BrokerMessages.WithLabelValues("publish", queue, status).Inc()
    return err
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
    body, err := json.Marshal(event)
    if err != nil {
        return err
    }
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    return ch.PublishWithContext(ctx, "", queue, false, false, pub)
}
