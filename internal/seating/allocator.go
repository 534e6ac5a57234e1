package seating

// Pin fixes one person to one seat before automatic filling runs.
type Pin struct {
	Coord
	Name string `json:"name"`
}

// Result is the outcome of one allocation.  The caller owns it.
type Result struct {
	Assignments map[Coord]string // every occupied seat, pinned or auto-filled
	Pinned      map[Coord]bool   // coordinates filled by a valid pin
	Overflow    int              // roster entries left without a seat
	Diagnostics []*ConfigError   // rejected pins, in pin order
}

// Entry is one row of a seating table.
type Entry struct {
	Coord
	Name   string `json:"name"`
	Pinned bool   `json:"pinned"`
}

// Entries returns the assignments sorted by coordinate.
func (r Result) Entries() []Entry {
	coords := make([]Coord, 0, len(r.Assignments))
	for c := range r.Assignments {
		coords = append(coords, c)
	}
	SortCoords(coords)
	out := make([]Entry, len(coords))
	for i, c := range coords {
		out[i] = Entry{Coord: c, Name: r.Assignments[c], Pinned: r.Pinned[c]}
	}
	return out
}

// Allocate seats roster in layout, honoring pins first.
//
// Pins are applied in order.  A pin is rejected when its row does not exist,
// its row is skipped, its seat does not exist in the row, or an earlier pin
// already took the seat or the person.  Someone pinned to a skipped row is
// still withheld from automatic filling.  Everybody else on the roster, in
// roster order, takes the next free odd-numbered seat scanning rows from
// front to back; even seats are only ever filled by pins.  Roster entries
// that do not fit are counted in Overflow.
func Allocate(layout Layout, roster []string, pins []Pin) Result {
	res := Result{
		Assignments: make(map[Coord]string, len(pins)+len(roster)),
		Pinned:      make(map[Coord]bool, len(pins)),
	}
	used := make(map[string]bool, len(pins))
	placed := make(map[string]bool, len(pins))

	for _, p := range pins {
		if err := checkPin(layout, p); err != nil {
			if err.Kind == SkippedRowTarget {
				used[p.Name] = true
			}
			res.Diagnostics = append(res.Diagnostics, err)
			continue
		}
		if res.Pinned[p.Coord] {
			res.Diagnostics = append(res.Diagnostics, &ConfigError{Kind: DuplicateSeat, Coord: p.Coord, Name: p.Name})
			continue
		}
		if placed[p.Name] {
			res.Diagnostics = append(res.Diagnostics, &ConfigError{Kind: DuplicatePerson, Coord: p.Coord, Name: p.Name})
			continue
		}
		res.Assignments[p.Coord] = p.Name
		res.Pinned[p.Coord] = true
		placed[p.Name] = true
		used[p.Name] = true
	}

	pool := make([]string, 0, len(roster))
	for _, name := range roster {
		if !used[name] {
			pool = append(pool, name)
		}
	}

	next := 0
	for row := 1; row <= layout.RowCount() && next < len(pool); row++ {
		if layout.IsSkipped(row) {
			continue
		}
		seats, _ := layout.SeatCount(row)
		for seat := 1; seat <= seats && next < len(pool); seat += 2 {
			c := Coord{Row: row, Seat: seat}
			if res.Pinned[c] {
				continue
			}
			res.Assignments[c] = pool[next]
			next++
		}
	}
	res.Overflow = len(pool) - next
	return res
}

func checkPin(layout Layout, p Pin) *ConfigError {
	if p.Row < 1 || p.Row > layout.RowCount() {
		return &ConfigError{Kind: RowOutOfRange, Coord: p.Coord, Name: p.Name, Rows: layout.RowCount()}
	}
	if layout.IsSkipped(p.Row) {
		return &ConfigError{Kind: SkippedRowTarget, Coord: p.Coord, Name: p.Name}
	}
	seats, _ := layout.SeatCount(p.Row)
	if p.Seat < 1 || p.Seat > seats {
		return &ConfigError{Kind: SeatOutOfRange, Coord: p.Coord, Name: p.Name, Seats: seats}
	}
	return nil
}
