// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
    "time"

    "github.com/iliyamo/exam-seating/internal/model"
)

// SeatingQueueName is the durable queue seating events travel on.
const SeatingQueueName = "seating.published"

// SeatingPublishedEvent is published when an owner publishes the seating of
// a room.  It carries the full allocation so consumers never query the
// database.
type SeatingPublishedEvent struct {
    EventID     string                 `json:"event_id"`
    RoomID      uint64                 `json:"room_id"`
    RoomCode    string                 `json:"room_code"`
    RoomName    string                 `json:"room_name"`
    Assignments []model.SeatAssignment `json:"assignments"`
    Overflow    int                    `json:"overflow"`
    Diagnostics []model.SeatDiagnostic `json:"diagnostics"`
    PublishedAt string                 `json:"published_at"` // RFC 3339, UTC
}

// NewSeatingPublishedEvent builds an event for room from an allocation.
// EventID is left for the publisher to fill.
func NewSeatingPublishedEvent(room model.Room, assignments []model.SeatAssignment, overflow int, diags []model.SeatDiagnostic, at time.Time) SeatingPublishedEvent {
    return SeatingPublishedEvent{
        RoomID:      room.ID,
        RoomCode:    room.Code,
        RoomName:    room.Name,
        Assignments: assignments,
        Overflow:    overflow,
        Diagnostics: diags,
        PublishedAt: at.UTC().Format(time.RFC3339),
    }
}
