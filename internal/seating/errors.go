package seating

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a configuration problem found while applying pins.
type ErrorKind string

const (
	RowOutOfRange    ErrorKind = "ROW_OUT_OF_RANGE"
	SeatOutOfRange   ErrorKind = "SEAT_OUT_OF_RANGE"
	SkippedRowTarget ErrorKind = "SKIPPED_ROW_TARGET"
	// DuplicateSeat marks a pin on a coordinate an earlier pin already took.
	DuplicateSeat ErrorKind = "DUPLICATE_SEAT"
	// DuplicatePerson marks a pin for someone an earlier pin already seated.
	DuplicatePerson ErrorKind = "DUPLICATE_PERSON"
)

// Sentinels for errors.Is checks against a *ConfigError.
var (
	ErrRowOutOfRange    = errors.New("row out of range")
	ErrSeatOutOfRange   = errors.New("seat out of range")
	ErrSkippedRowTarget = errors.New("row is skipped")
	ErrDuplicateSeat    = errors.New("seat already pinned")
	ErrDuplicatePerson  = errors.New("person already pinned")
)

var kindSentinels = map[ErrorKind]error{
	RowOutOfRange:    ErrRowOutOfRange,
	SeatOutOfRange:   ErrSeatOutOfRange,
	SkippedRowTarget: ErrSkippedRowTarget,
	DuplicateSeat:    ErrDuplicateSeat,
	DuplicatePerson:  ErrDuplicatePerson,
}

// ConfigError describes a rejected pin or an invalid row lookup.  Allocation
// never stops on a ConfigError; it is reported alongside the result.
type ConfigError struct {
	Kind  ErrorKind
	Coord Coord  // offending coordinate; Seat is 0 for row lookups
	Name  string // pinned identifier, empty for row lookups
	Rows  int    // row count of the layout, set for RowOutOfRange
	Seats int    // seat count of the row, set for SeatOutOfRange
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	switch e.Kind {
	case RowOutOfRange:
		return fmt.Sprintf("config error: row %d does not exist (rows 1-%d)", e.Coord.Row, e.Rows)
	case SeatOutOfRange:
		return fmt.Sprintf("config error: seat %s does not exist (row %d has %d seats)", e.Coord, e.Coord.Row, e.Seats)
	case SkippedRowTarget:
		return fmt.Sprintf("config error: %s is in skipped row %d", e.Coord, e.Coord.Row)
	case DuplicateSeat:
		return fmt.Sprintf("config error: %s is already pinned, %q ignored", e.Coord, e.Name)
	case DuplicatePerson:
		return fmt.Sprintf("config error: %q is already pinned, %s ignored", e.Name, e.Coord)
	}
	return fmt.Sprintf("config error: %s at %s", e.Kind, e.Coord)
}

// Is matches the sentinel for the error's kind.
func (e *ConfigError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}
