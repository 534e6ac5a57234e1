package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/exam-seating/internal/seating"
)

// Room represents an exam room owned by a user.  Its seat topology lives in
// RoomRow records, its people in RosterEntry records and its manual
// placements in RoomPin records.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the room owner.
//  Code      – short unique code (e.g. R501).
//  Name      – display name.
//  IsActive  – whether the room is in use.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64    `json:"id"`         // rooms.id
	OwnerID   uint64    `json:"-"`          // rooms.owner_id
	Code      string    `json:"code"`       // rooms.code
	Name      string    `json:"name"`       // rooms.name
	IsActive  bool      `json:"is_active"`  // rooms.is_active
	CreatedAt time.Time `json:"created_at"` // rooms.created_at
	UpdatedAt time.Time `json:"updated_at"` // rooms.updated_at
}

// RoomRow is one row of a room.  Slots are stored as a comma separated list
// of "desk" and "gap".
type RoomRow struct {
	RoomID    uint64 // room_rows.room_id
	RowNumber int    // room_rows.row_no (1-based)
	Slots     string // room_rows.slots
	IsSkipped bool   // room_rows.is_skipped
}

// RosterEntry is one person on a room's roster.  Position orders automatic filling.
type RosterEntry struct {
	RoomID   uint64 // roster_entries.room_id
	Position int    // roster_entries.position
	Name     string // roster_entries.name
}

// RoomPin is a manual placement.  Position keeps the order pins were given in.
type RoomPin struct {
	RoomID     uint64 // room_pins.room_id
	Position   int    // room_pins.position
	RowNumber  int    // room_pins.row_no
	SeatNumber int    // room_pins.seat_no
	Name       string // room_pins.name
}

// RoomDefinition bundles everything the allocator needs for one room.
type RoomDefinition struct {
	Room   Room
	Rows   []RoomRow
	Roster []RosterEntry
	Pins   []RoomPin
}

// JoinSlots renders slots in the stored comma separated form.
func JoinSlots(slots []seating.Slot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// SplitSlots parses the stored comma separated form.  An empty string is an
// empty row.
func SplitSlots(raw string) ([]seating.Slot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]seating.Slot, len(parts))
	for i, p := range parts {
		s, err := seating.ParseSlot(p)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Layout converts stored rows to a seating layout.  Rows must be ordered by
// RowNumber and numbered 1..n.
func (d *RoomDefinition) Layout() (seating.Layout, error) {
	rows := make([][]seating.Slot, len(d.Rows))
	var skipped []int
	for i, r := range d.Rows {
		if r.RowNumber != i+1 {
			return seating.Layout{}, fmt.Errorf("room %d: row %d stored at position %d", d.Room.ID, r.RowNumber, i+1)
		}
		slots, err := SplitSlots(r.Slots)
		if err != nil {
			return seating.Layout{}, fmt.Errorf("room %d row %d: %w", d.Room.ID, r.RowNumber, err)
		}
		rows[i] = slots
		if r.IsSkipped {
			skipped = append(skipped, r.RowNumber)
		}
	}
	return seating.NewLayout(rows, skipped...), nil
}

// RosterNames returns roster names in position order.
func (d *RoomDefinition) RosterNames() []string {
	out := make([]string, len(d.Roster))
	for i, e := range d.Roster {
		out[i] = e.Name
	}
	return out
}

// SeatingPins returns pins in position order.
func (d *RoomDefinition) SeatingPins() []seating.Pin {
	out := make([]seating.Pin, len(d.Pins))
	for i, p := range d.Pins {
		out[i] = seating.Pin{Coord: seating.Coord{Row: p.RowNumber, Seat: p.SeatNumber}, Name: p.Name}
	}
	return out
}

// Allocate runs the allocator over the stored definition.
func (d *RoomDefinition) Allocate() (seating.Layout, seating.Result, error) {
	layout, err := d.Layout()
	if err != nil {
		return seating.Layout{}, seating.Result{}, err
	}
	return layout, seating.Allocate(layout, d.RosterNames(), d.SeatingPins()), nil
}
