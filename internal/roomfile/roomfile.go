// Package roomfile reads room definitions from TOML.  A file lists rooms,
// each with its rows of desks and gaps, the rows to skip, a roster and
// optional manual pins:
//
//	[[room]]
//	code = "R501"
//	name = "Auditorium R503"
//	rows = [["desk", "desk", "gap", "desk"], ["desk", "desk"]]
//	skip_rows = [2]
//	roster = ["Ivanov", "Petrov"]
//
//	[[room.pin]]
//	row = 1
//	seat = 2
//	name = "Petrov"
package roomfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/seating"
)

// File is a decoded room definition file.
type File struct {
	Rooms []Room `toml:"room"`
}

// Room is one room definition.
type Room struct {
	Code     string     `toml:"code"`
	Name     string     `toml:"name"`
	Rows     [][]string `toml:"rows"`
	SkipRows []int      `toml:"skip_rows"`
	Roster   []string   `toml:"roster"`
	Pins     []Pin      `toml:"pin"`
}

// Pin is a manual placement as written in the file.
type Pin struct {
	Row  int    `toml:"row"`
	Seat int    `toml:"seat"`
	Name string `toml:"name"`
}

// ErrRoomNotFound is returned by File.Room for unknown codes.
var ErrRoomNotFound = errors.New("room not found")

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rooms file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a room file from r.
func Decode(r io.Reader) (*File, error) {
	var out File
	md, err := toml.NewDecoder(r).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode rooms file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode rooms file: unknown key %q", undecoded[0].String())
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks room codes, slot names and roster uniqueness.  Pins are
// not checked here; the allocator reports bad pins as diagnostics.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Rooms))
	for i, room := range f.Rooms {
		code := strings.TrimSpace(room.Code)
		if code == "" {
			return fmt.Errorf("room #%d: code is required", i+1)
		}
		if seen[code] {
			return fmt.Errorf("room %s: duplicate code", code)
		}
		seen[code] = true
		if err := room.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single room the way File.Validate does.
func (r Room) Validate() error {
	code := strings.TrimSpace(r.Code)
	if code == "" {
		return errors.New("room code is required")
	}
	if _, err := r.Layout(); err != nil {
		return fmt.Errorf("room %s: %w", code, err)
	}
	for _, row := range r.SkipRows {
		if row < 1 || row > len(r.Rows) {
			return fmt.Errorf("room %s: skipped row %d does not exist", code, row)
		}
	}
	names := make(map[string]bool, len(r.Roster))
	for _, n := range r.RosterNames() {
		if n == "" {
			return fmt.Errorf("room %s: empty roster name", code)
		}
		if names[n] {
			return fmt.Errorf("room %s: %q listed twice in roster", code, n)
		}
		names[n] = true
	}
	for i, p := range r.Pins {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("room %s: pin #%d has no name", code, i+1)
		}
	}
	return nil
}

// Definition converts a validated room to its stored form.  An empty name
// falls back to the code.
func (r Room) Definition(ownerID uint64) (*model.RoomDefinition, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(r.Code)
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = code
	}
	skipped := make(map[int]bool, len(r.SkipRows))
	for _, row := range r.SkipRows {
		skipped[row] = true
	}
	def := &model.RoomDefinition{
		Room:   model.Room{OwnerID: ownerID, Code: code, Name: name, IsActive: true},
		Rows:   make([]model.RoomRow, len(r.Rows)),
		Roster: make([]model.RosterEntry, len(r.Roster)),
		Pins:   make([]model.RoomPin, len(r.Pins)),
	}
	layout, _ := r.Layout()
	for i := range r.Rows {
		def.Rows[i] = model.RoomRow{RowNumber: i + 1, Slots: model.JoinSlots(layout.Rows[i]), IsSkipped: skipped[i+1]}
	}
	for i, n := range r.RosterNames() {
		def.Roster[i] = model.RosterEntry{Position: i, Name: n}
	}
	for i, p := range r.SeatingPins() {
		def.Pins[i] = model.RoomPin{Position: i, RowNumber: p.Row, SeatNumber: p.Seat, Name: p.Name}
	}
	return def, nil
}

// Room returns the room with the given code.
func (f *File) Room(code string) (*Room, error) {
	for i := range f.Rooms {
		if f.Rooms[i].Code == code {
			return &f.Rooms[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, code)
}

// Layout converts the room's rows to a seating layout.
func (r Room) Layout() (seating.Layout, error) {
	rows := make([][]seating.Slot, len(r.Rows))
	for i, raw := range r.Rows {
		rows[i] = make([]seating.Slot, len(raw))
		for j, s := range raw {
			slot, err := seating.ParseSlot(s)
			if err != nil {
				return seating.Layout{}, fmt.Errorf("row %d: %w", i+1, err)
			}
			rows[i][j] = slot
		}
	}
	return seating.NewLayout(rows, r.SkipRows...), nil
}

// RosterNames returns the roster with surrounding whitespace trimmed, the
// form names are compared and stored in.
func (r Room) RosterNames() []string {
	out := make([]string, len(r.Roster))
	for i, n := range r.Roster {
		out[i] = strings.TrimSpace(n)
	}
	return out
}

// SeatingPins returns the room's pins in file order, names trimmed like
// RosterNames.
func (r Room) SeatingPins() []seating.Pin {
	out := make([]seating.Pin, len(r.Pins))
	for i, p := range r.Pins {
		out[i] = seating.Pin{Coord: seating.Coord{Row: p.Row, Seat: p.Seat}, Name: strings.TrimSpace(p.Name)}
	}
	return out
}

// Allocate runs the allocator over the room's own definition.
func (r Room) Allocate() (seating.Result, error) {
	layout, err := r.Layout()
	if err != nil {
		return seating.Result{}, err
	}
	return seating.Allocate(layout, r.RosterNames(), r.SeatingPins()), nil
}
