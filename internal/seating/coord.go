package seating

import (
	"fmt"
	"sort"
)

// Coord addresses one seat: a 1-based row and a 1-based seat number.
type Coord struct {
	Row  int `json:"row"`
	Seat int `json:"seat"`
}

// Less orders coordinates row-major, then by seat.
func (c Coord) Less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Seat < o.Seat
}

// String renders the coordinate as shown in seating tables.
func (c Coord) String() string {
	return fmt.Sprintf("Row %d, Seat %d", c.Row, c.Seat)
}

// SortCoords sorts cs in place in row-major order.
func SortCoords(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
}
