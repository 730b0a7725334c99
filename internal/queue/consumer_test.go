package queue

import (
    "bytes"
    "encoding/json"
    "io"
    "testing"
    "time"

    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}

func TestConsumerHandleReservationCreated(t *testing.T) {
    var buf bytes.Buffer
    c := NewConsumer("", quietLogger(), &buf)

    body, err := json.Marshal(ReservationCreatedEvent{
        EventID:       "e1",
        ReservationID: 7,
        UserID:        3,
        Tickets:       []TicketInfo{{PerformanceID: 1, Row: 2, Seat: 5}},
        CreatedAt:     time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC),
    })
    require.NoError(t, err)
    require.NoError(t, c.Handle(ReservationCreatedQueue, body))

    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, "reservation created", line["msg"])
    assert.Equal(t, float64(7), line["reservation_id"])
    assert.Equal(t, []any{"1:2-5"}, line["seats"])
    assert.Equal(t, "2030-01-01T10:00:00Z", line["created_at"])
}

func TestConsumerHandleLoginLocked(t *testing.T) {
    var buf bytes.Buffer
    c := NewConsumer("", quietLogger(), &buf)

    body, _ := json.Marshal(LoginLockedEvent{EventID: "e2", Email: "a@b.c", LockSeconds: 90})
    require.NoError(t, c.Handle(LoginLockedQueue, body))

    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, "email a@b.c has been blocked for 90 seconds", line["msg"])
    assert.Equal(t, "warning", line["level"])
}

func TestConsumerHandleRejectsBadInput(t *testing.T) {
    c := NewConsumer("", quietLogger(), io.Discard)
    assert.Error(t, c.Handle(ReservationCreatedQueue, []byte("{")))
    assert.Error(t, c.Handle("other", []byte("{}")))
}
