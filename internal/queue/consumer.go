package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/charmbracelet/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// SeatingLogFile is the file, inside the log directory, events are appended to.
const SeatingLogFile = "seating.log"

// StartSeatingConsumer connects to RabbitMQ at url, declares the
// seating.published queue (durable) and appends every event to
// <logDir>/seating.log as a single line.  It reconnects with backoff until
// ctx is cancelled, then returns ctx.Err().  Malformed messages are logged
// and rejected without requeue so the loop keeps running.
func StartSeatingConsumer(ctx context.Context, url, logDir string, l *log.Logger) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            l.Warn("seating-consumer: failed to dial broker", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, logDir, l)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        l.Warn("seating-consumer: consume loop ended, reconnecting", "err", err)
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, l *log.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        l.Warn("seating-consumer: set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(SeatingQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(SeatingQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    l.Info("seating-consumer: consuming", "queue", SeatingQueueName)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(logDir, d.Body); err != nil {
                l.Error("seating-consumer: handle message failed", "err", err)
                _ = d.Nack(false, false) // do not requeue, avoids tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(logDir string, body []byte) error {
    var ev SeatingPublishedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.RoomID == 0 {
        return errors.New("event without room_id")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, SeatingLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatEvent(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatEvent renders ev as one newline-terminated log line.
func formatEvent(ev SeatingPublishedEvent) string {
    seats := make([]string, len(ev.Assignments))
    for i, a := range ev.Assignments {
        mark := ""
        if a.Pinned {
            mark = "*"
        }
        seats[i] = fmt.Sprintf("%s%s@%d/%d", a.Name, mark, a.Row, a.Seat)
    }
    return fmt.Sprintf("[%s] Seating published | event_id=%s | room_id=%d | room=%q | name=%q | placed=%d | overflow=%d | diagnostics=%d | seats=[%s]\n",
        ev.PublishedAt, ev.EventID, ev.RoomID, ev.RoomCode, ev.RoomName,
        len(ev.Assignments), ev.Overflow, len(ev.Diagnostics), strings.Join(seats, ","))
}
