// Package seating assigns people to seats in a room.  A Layout describes the
// rows of a room as sequences of desks and gaps, and Allocate combines a
// roster with manual pins into a seat map, filling every other seat
// automatically.
package seating

import (
	"fmt"
	"strings"
)

// Slot is one position in a row: a desk holding two seats or an empty gap.
type Slot uint8

const (
	Gap  Slot = iota // Gap holds no seats, it only takes up space
	Desk             // Desk holds two consecutively numbered seats
)

// SeatsPerDesk is the number of seats a desk contributes to its row.
const SeatsPerDesk = 2

// String returns the configuration spelling of the slot.
func (s Slot) String() string {
	if s == Desk {
		return "desk"
	}
	return "gap"
}

// ParseSlot converts "desk" or "gap" (case-insensitive) to a Slot.
func ParseSlot(raw string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "desk":
		return Desk, nil
	case "gap":
		return Gap, nil
	}
	return Gap, fmt.Errorf("unknown slot %q", raw)
}

// Layout is the seat topology of a room.  Rows are numbered from 1 in the
// order they appear in Rows.
type Layout struct {
	Rows    [][]Slot     // slots of every row, nearest row first
	Skipped map[int]bool // 1-based row numbers that accept nobody
}

// NewLayout builds a layout from slot rows and a list of skipped row numbers.
func NewLayout(rows [][]Slot, skipped ...int) Layout {
	l := Layout{Rows: rows}
	if len(skipped) > 0 {
		l.Skipped = make(map[int]bool, len(skipped))
		for _, r := range skipped {
			l.Skipped[r] = true
		}
	}
	return l
}

// RowCount returns the number of rows in the layout.
func (l Layout) RowCount() int { return len(l.Rows) }

// SeatCount returns the number of seats in row, two per desk.
func (l Layout) SeatCount(row int) (int, error) {
	if row < 1 || row > len(l.Rows) {
		return 0, &ConfigError{Kind: RowOutOfRange, Coord: Coord{Row: row}, Rows: len(l.Rows)}
	}
	n := 0
	for _, s := range l.Rows[row-1] {
		if s == Desk {
			n += SeatsPerDesk
		}
	}
	return n, nil
}

// IsSkipped reports whether row is flagged as skipped.
func (l Layout) IsSkipped(row int) bool { return l.Skipped[row] }

// TotalSeats counts the seats across rows that are not skipped.
func (l Layout) TotalSeats() int {
	total := 0
	for r := 1; r <= len(l.Rows); r++ {
		if l.IsSkipped(r) {
			continue
		}
		n, _ := l.SeatCount(r)
		total += n
	}
	return total
}

// FillableSeats counts the odd-numbered seats across rows that are not
// skipped.  Only these seats are ever filled automatically.
func (l Layout) FillableSeats() int {
	total := 0
	for r := 1; r <= len(l.Rows); r++ {
		if l.IsSkipped(r) {
			continue
		}
		n, _ := l.SeatCount(r)
		total += (n + 1) / 2
	}
	return total
}

// DeskSeats returns the left and right seat numbers of every desk in row,
// in slot order.  Gaps are omitted.
func (l Layout) DeskSeats(row int) ([][2]int, error) {
	if _, err := l.SeatCount(row); err != nil {
		return nil, err
	}
	var out [][2]int
	seat := 1
	for _, s := range l.Rows[row-1] {
		if s != Desk {
			continue
		}
		out = append(out, [2]int{seat, seat + 1})
		seat += SeatsPerDesk
	}
	return out, nil
}
