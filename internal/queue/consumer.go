package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer reads both event queues and appends one JSON line per event to
// its sink.
type Consumer struct {
    url  string
    log  logrus.FieldLogger
    sink *logrus.Logger
}

// NewConsumer returns a Consumer writing event lines to w.
func NewConsumer(url string, log logrus.FieldLogger, w io.Writer) *Consumer {
    sink := logrus.New()
    sink.SetOutput(w)
    sink.SetFormatter(&logrus.JSONFormatter{})
    return &Consumer{url: url, log: log, sink: sink}
}

// Run connects with exponential backoff and consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.WithError(err).Warnf("event-consumer: failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.WithError(err).Warn("event-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

type delivery struct {
    queue string
    amqp.Delivery
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.WithError(err).Warn("event-consumer: set QoS failed")
    }

    merged := make(chan delivery)
    done := make(chan struct{})
    defer close(done)
    for _, q := range []string{ReservationCreatedQueue, LoginLockedQueue} {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        go func(q string, msgs <-chan amqp.Delivery) {
            for d := range msgs {
                select {
                case merged <- delivery{queue: q, Delivery: d}:
                case <-done:
                    return
                }
            }
        }(q, msgs)
    }

    closed := conn.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case amqpErr := <-closed:
            if amqpErr != nil {
                return amqpErr
            }
            return errors.New("connection closed")
        case d := <-merged:
            if err := c.Handle(d.queue, d.Body); err != nil {
                c.log.WithError(err).WithField("queue", d.queue).Error("event-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body from queue and writes it to the sink.
func (c *Consumer) Handle(queue string, body []byte) error {
    switch queue {
    case ReservationCreatedQueue:
        var ev ReservationCreatedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        seats := make([]string, 0, len(ev.Tickets))
        for _, t := range ev.Tickets {
            seats = append(seats, fmt.Sprintf("%d:%d-%d", t.PerformanceID, t.Row, t.Seat))
        }
        c.sink.WithFields(logrus.Fields{
            "event":          queue,
            "event_id":       ev.EventID,
            "reservation_id": ev.ReservationID,
            "user_id":        ev.UserID,
            "seats":          seats,
            "created_at":     ev.CreatedAt.UTC().Format(time.RFC3339),
        }).Info("reservation created")
    case LoginLockedQueue:
        var ev LoginLockedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        c.sink.WithFields(logrus.Fields{
            "event":        queue,
            "event_id":     ev.EventID,
            "email":        ev.Email,
            "lock_seconds": ev.LockSeconds,
            "locked_at":    ev.LockedAt.UTC().Format(time.RFC3339),
        }).Warnf("email %s has been blocked for %d seconds", ev.Email, ev.LockSeconds)
    default:
        return fmt.Errorf("unknown queue %q", queue)
    }
    return nil
}
