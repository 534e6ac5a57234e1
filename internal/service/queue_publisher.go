// Package service publishes domain events to RabbitMQ.  Errors are logged and
// returned so callers can ignore failures without interrupting the request.
package service

import (
    "context"
    "encoding/json"
    "time"

    "github.com/charmbracelet/log"
    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/exam-seating/internal/queue"
)

// SeatingPublisher publishes seating.published events to the broker at URL.
type SeatingPublisher struct {
    URL    string
    Logger *log.Logger
}

// NewSeatingPublisher returns a publisher for url.  A nil logger uses
// log.Default().
func NewSeatingPublisher(url string, l *log.Logger) *SeatingPublisher {
    if l == nil {
        l = log.Default()
    }
    return &SeatingPublisher{URL: url, Logger: l}
}

// PublishSeating sends event to the seating.published queue as a persistent
// message and returns the event ID used.  An empty EventID is replaced with
// a random UUID.
func (p *SeatingPublisher) PublishSeating(ctx context.Context, event q.SeatingPublishedEvent) (string, error) {
    if event.EventID == "" {
        event.EventID = uuid.NewString()
    }
    body, err := json.Marshal(event)
    if err != nil {
        p.Logger.Error("rabbitmq: marshal event failed", "err", err)
        return "", err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Logger.Warn("rabbitmq: dial failed", "err", err)
        return "", err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Logger.Warn("rabbitmq: channel open failed", "err", err)
        return "", err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.SeatingQueueName, true, false, false, false, nil); err != nil {
        p.Logger.Warn("rabbitmq: queue declare failed", "err", err)
        return "", err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    event.EventID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.SeatingQueueName, false, false, pub); err != nil {
        p.Logger.Warn("rabbitmq: publish failed", "err", err)
        return "", err
    }
    p.Logger.Debug("rabbitmq: published", "queue", q.SeatingQueueName, "event_id", event.EventID, "room", event.RoomCode)
    return event.EventID, nil
}
