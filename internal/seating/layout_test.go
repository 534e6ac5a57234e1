package seating

import (
	"errors"
	"reflect"
	"testing"
)

func TestSeatCount(t *testing.T) {
	l := NewLayout([][]Slot{
		row(Desk, Desk, Gap, Desk, Desk, Gap, Desk),
		row(Gap),
		row(Desk, Gap, Desk),
	})
	tests := []struct {
		row     int
		want    int
		wantErr bool
	}{
		{1, 10, false},
		{2, 0, false},
		{3, 4, false},
		{0, 0, true},
		{4, 0, true},
		{-1, 0, true},
	}
	for _, tt := range tests {
		got, err := l.SeatCount(tt.row)
		if (err != nil) != tt.wantErr {
			t.Fatalf("SeatCount(%d) error = %v, wantErr %v", tt.row, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrRowOutOfRange) {
			t.Errorf("SeatCount(%d) error = %v, want ErrRowOutOfRange", tt.row, err)
		}
		if got != tt.want {
			t.Errorf("SeatCount(%d) = %d, want %d", tt.row, got, tt.want)
		}
	}
}

func TestLayoutTotals(t *testing.T) {
	l := NewLayout([][]Slot{row(Desk, Desk), row(Desk), row(Desk, Gap, Desk, Desk)}, 2)
	if !l.IsSkipped(2) || l.IsSkipped(1) || l.IsSkipped(7) {
		t.Error("IsSkipped mismatch")
	}
	if got := l.TotalSeats(); got != 10 {
		t.Errorf("TotalSeats() = %d, want 10", got)
	}
	if got := l.FillableSeats(); got != 5 {
		t.Errorf("FillableSeats() = %d, want 5", got)
	}
}

func TestDeskSeats(t *testing.T) {
	l := NewLayout([][]Slot{row(Desk, Gap, Desk)})
	got, err := l.DeskSeats(1)
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{1, 2}, {3, 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeskSeats(1) = %v, want %v", got, want)
	}
	if _, err := l.DeskSeats(2); err == nil {
		t.Error("DeskSeats(2) should fail")
	}
}

func TestParseSlot(t *testing.T) {
	for _, in := range []string{"desk", "DESK", " Desk "} {
		if s, err := ParseSlot(in); err != nil || s != Desk {
			t.Errorf("ParseSlot(%q) = %v, %v", in, s, err)
		}
	}
	if s, err := ParseSlot("gap"); err != nil || s != Gap {
		t.Errorf("ParseSlot(gap) = %v, %v", s, err)
	}
	if _, err := ParseSlot("chair"); err == nil {
		t.Error("ParseSlot(chair) should fail")
	}
}

func TestCoordOrdering(t *testing.T) {
	cs := []Coord{{2, 1}, {1, 3}, {1, 1}, {10, 1}}
	SortCoords(cs)
	want := []Coord{{1, 1}, {1, 3}, {2, 1}, {10, 1}}
	if !reflect.DeepEqual(cs, want) {
		t.Errorf("SortCoords = %v, want %v", cs, want)
	}
	if got := (Coord{3, 4}).String(); got != "Row 3, Seat 4" {
		t.Errorf("String() = %q", got)
	}
}
