package model

import (
	"github.com/iliyamo/exam-seating/internal/seating"
)

// SeatAssignment is one placed person as returned by the API and carried on
// seating.published events.
type SeatAssignment struct {
	Name   string `json:"name"`
	Row    int    `json:"row"`
	Seat   int    `json:"seat"`
	Place  string `json:"place"` // "Row r, Seat s"
	Pinned bool   `json:"pinned"`
}

// SeatDiagnostic is a rejected pin in wire form.
type SeatDiagnostic struct {
	Kind    string `json:"kind"`
	Row     int    `json:"row"`
	Seat    int    `json:"seat"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// NewSeatAssignments flattens res into assignments sorted by coordinate.
func NewSeatAssignments(res seating.Result) []SeatAssignment {
	entries := res.Entries()
	out := make([]SeatAssignment, len(entries))
	for i, e := range entries {
		out[i] = SeatAssignment{
			Name:   e.Name,
			Row:    e.Row,
			Seat:   e.Seat,
			Place:  e.Coord.String(),
			Pinned: e.Pinned,
		}
	}
	return out
}

// NewSeatDiagnostics converts res.Diagnostics, keeping pin order.
func NewSeatDiagnostics(res seating.Result) []SeatDiagnostic {
	out := make([]SeatDiagnostic, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		out[i] = SeatDiagnostic{
			Kind:    string(d.Kind),
			Row:     d.Coord.Row,
			Seat:    d.Coord.Seat,
			Name:    d.Name,
			Message: d.Error(),
		}
	}
	return out
}
