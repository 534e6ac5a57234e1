package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/iliyamo/exam-seating/internal/model"
)

// seed stores a room for owner 1: three rows of two desks, row 2 skipped,
// five people on the roster and one pin.
func seed(t *testing.T, rooms *fakeRooms) uint64 {
	t.Helper()
	def := &model.RoomDefinition{
		Room: model.Room{OwnerID: 1, Code: "R501", Name: "Auditorium R503", IsActive: true},
		Rows: []model.RoomRow{
			{RowNumber: 1, Slots: "desk,gap,desk"},
			{RowNumber: 2, Slots: "desk,gap,desk", IsSkipped: true},
			{RowNumber: 3, Slots: "desk,gap,desk"},
		},
		Roster: []model.RosterEntry{
			{Position: 0, Name: "Ivanov"}, {Position: 1, Name: "Petrov"}, {Position: 2, Name: "Sidorova"},
			{Position: 3, Name: "Kuznetsov"}, {Position: 4, Name: "Smirnova"},
		},
		Pins: []model.RoomPin{{Position: 0, RowNumber: 1, SeatNumber: 2, Name: "Petrov"}},
	}
	if err := rooms.CreateWithDefinition(context.Background(), def); err != nil {
		t.Fatal(err)
	}
	return def.Room.ID
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/healthz", "", 0, "")
	if err := Health(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestListRooms(t *testing.T) {
	rooms := newFakeRooms()
	seed(t, rooms)
	h := NewPublicHandler(rooms)

	c, rec := newCtx(http.MethodGet, "/v1/rooms", "", 0, "")
	if err := h.ListRooms(c); err != nil {
		t.Fatal(err)
	}
	got := decode[struct{ Items []roomItem }](t, rec.Body.Bytes())
	if len(got.Items) != 1 || got.Items[0].Code != "R501" || got.Items[0].ID == 0 {
		t.Errorf("items = %+v", got.Items)
	}
}

func TestGetSeating(t *testing.T) {
	rooms := newFakeRooms()
	id := seed(t, rooms)
	h := NewPublicHandler(rooms)

	c, rec := newCtx(http.MethodGet, "/v1/rooms/1/seating", "", 0, "1")
	if err := h.GetSeating(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	got := decode[seatingResp](t, rec.Body.Bytes())
	if got.Room.ID != id {
		t.Errorf("room = %+v", got.Room)
	}
	// Rows 1 and 3 have odd seats 1 and 3 each; Petrov is pinned to 1/2.
	want := []model.SeatAssignment{
		{Name: "Ivanov", Row: 1, Seat: 1, Place: "Row 1, Seat 1"},
		{Name: "Petrov", Row: 1, Seat: 2, Place: "Row 1, Seat 2", Pinned: true},
		{Name: "Sidorova", Row: 1, Seat: 3, Place: "Row 1, Seat 3"},
		{Name: "Kuznetsov", Row: 3, Seat: 1, Place: "Row 3, Seat 1"},
		{Name: "Smirnova", Row: 3, Seat: 3, Place: "Row 3, Seat 3"},
	}
	if len(got.Assignments) != len(want) {
		t.Fatalf("assignments = %+v", got.Assignments)
	}
	for i := range want {
		if got.Assignments[i] != want[i] {
			t.Errorf("assignment %d = %+v, want %+v", i, got.Assignments[i], want[i])
		}
	}
	if got.Overflow != 0 || len(got.Diagnostics) != 0 {
		t.Errorf("overflow = %d diagnostics = %+v", got.Overflow, got.Diagnostics)
	}
	if got.Seats != 8 || got.Fillable != 4 {
		t.Errorf("seats = %d fillable = %d", got.Seats, got.Fillable)
	}
}

func TestPublicErrors(t *testing.T) {
	rooms := newFakeRooms()
	seed(t, rooms)
	hidden := &model.RoomDefinition{
		Room: model.Room{OwnerID: 1, Code: "R502", Name: "Closed", IsActive: false},
		Rows: []model.RoomRow{{RowNumber: 1, Slots: "desk"}},
	}
	if err := rooms.CreateWithDefinition(context.Background(), hidden); err != nil {
		t.Fatal(err)
	}
	h := NewPublicHandler(rooms)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"bad id", "abc", http.StatusBadRequest},
		{"zero id", "0", http.StatusBadRequest},
		{"missing", "99", http.StatusNotFound},
		{"inactive", "2", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newCtx(http.MethodGet, "/v1/rooms/x/seating", "", 0, tt.id)
			if err := h.GetSeating(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Errorf("GetSeating status = %d, want %d", rec.Code, tt.want)
			}
			c, rec = newCtx(http.MethodGet, "/v1/rooms/x/layout", "", 0, tt.id)
			if err := h.GetLayout(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Errorf("GetLayout status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetLayout(t *testing.T) {
	rooms := newFakeRooms()
	seed(t, rooms)
	h := NewPublicHandler(rooms)

	c, rec := newCtx(http.MethodGet, "/v1/rooms/1/layout", "", 0, "1")
	if err := h.GetLayout(c); err != nil {
		t.Fatal(err)
	}
	got := decode[layoutResp](t, rec.Body.Bytes())
	if len(got.Rows) != 3 {
		t.Fatalf("rows = %+v", got.Rows)
	}
	r1 := got.Rows[0]
	if r1.Row != 1 || r1.Seats != 4 || r1.Skipped || strings.Join(r1.Slots, ",") != "desk,gap,desk" {
		t.Errorf("row 1 = %+v", r1)
	}
	if len(r1.Desks) != 2 || r1.Desks[1] != [2]int{3, 4} {
		t.Errorf("row 1 desks = %v", r1.Desks)
	}
	if !got.Rows[1].Skipped {
		t.Error("row 2 should be skipped")
	}
	if got.Seats != 8 || got.Fillable != 4 {
		t.Errorf("seats = %d fillable = %d", got.Seats, got.Fillable)
	}
}

func newOwner(rooms *fakeRooms, pub SeatingPublisher) (*OwnerHandler, *[]string) {
	var purged []string
	h := NewOwnerHandler(rooms, fakeRoster{rooms}, fakePins{rooms}, pub,
		func(_ context.Context, prefix string) error {
			purged = append(purged, prefix)
			return nil
		})
	return h, &purged
}

func TestCreateRoom(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"code":"R9","rows":[["desk","gap","desk"]],"roster":["a","b"],"pins":[{"row":1,"seat":2,"name":"b"}]}`, http.StatusCreated},
		{"duplicate code", `{"code":"R501","rows":[["desk"]]}`, http.StatusConflict},
		{"no code", `{"rows":[["desk"]]}`, http.StatusBadRequest},
		{"bad slot", `{"code":"R9","rows":[["sofa"]]}`, http.StatusBadRequest},
		{"bad skip row", `{"code":"R9","rows":[["desk"]],"skip_rows":[3]}`, http.StatusBadRequest},
		{"duplicate roster", `{"code":"R9","roster":["a","a"]}`, http.StatusBadRequest},
		{"bad json", `{"code":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := newFakeRooms()
			seed(t, rooms)
			h, purged := newOwner(rooms, nil)

			c, rec := newCtx(http.MethodPost, "/v1/rooms", tt.body, 1, "")
			if err := h.CreateRoom(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if tt.want != http.StatusCreated {
				if len(*purged) != 0 {
					t.Error("failed create purged the cache")
				}
				return
			}
			room := decode[model.Room](t, rec.Body.Bytes())
			def := rooms.defs[room.ID]
			if def == nil || def.Room.Name != "R9" || len(def.Roster) != 2 || len(def.Pins) != 1 {
				t.Errorf("stored = %+v", def)
			}
			if len(*purged) != 1 || (*purged)[0] != "/v1/rooms" {
				t.Errorf("purged = %v", *purged)
			}
		})
	}
}

func TestCreateRoomRequiresUser(t *testing.T) {
	h, _ := newOwner(newFakeRooms(), nil)
	c, rec := newCtx(http.MethodPost, "/v1/rooms", `{"code":"R1"}`, 0, "")
	if err := h.CreateRoom(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestUpdateRoom(t *testing.T) {
	rooms := newFakeRooms()
	id := seed(t, rooms)
	h, purged := newOwner(rooms, nil)

	c, rec := newCtx(http.MethodPatch, "/v1/rooms/1", `{"name":"Big hall"}`, 1, "1")
	if err := h.UpdateRoom(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rooms.defs[id].Room.Name != "Big hall" {
		t.Fatalf("status = %d room = %+v", rec.Code, rooms.defs[id].Room)
	}
	if len(rooms.defs[id].Rows) != 3 {
		t.Error("name-only update must keep the layout")
	}

	// skip_rows alone re-flags the stored rows and keeps their slots.
	c, rec = newCtx(http.MethodPatch, "/v1/rooms/1", `{"skip_rows":[3]}`, 1, "1")
	if err := h.UpdateRoom(c); err != nil {
		t.Fatal(err)
	}
	rows := rooms.defs[id].Rows
	if rec.Code != http.StatusOK || len(rows) != 3 || rows[1].IsSkipped || !rows[2].IsSkipped || rows[2].Slots != "desk,gap,desk" {
		t.Fatalf("status = %d body = %s rows = %+v", rec.Code, rec.Body, rows)
	}

	c, rec = newCtx(http.MethodPatch, "/v1/rooms/1", `{"skip_rows":[5]}`, 1, "1")
	if err := h.UpdateRoom(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "skipped row 5 does not exist") {
		t.Errorf("out of range skip: status = %d body = %s", rec.Code, rec.Body)
	}
	if !rooms.defs[id].Rows[2].IsSkipped {
		t.Error("rejected update changed the layout")
	}

	c, rec = newCtx(http.MethodPut, "/v1/rooms/1", `{"rows":[["desk"],["desk"]],"skip_rows":[1]}`, 1, "1")
	if err := h.UpdateRoom(c); err != nil {
		t.Fatal(err)
	}
	rows = rooms.defs[id].Rows
	if rec.Code != http.StatusOK || len(rows) != 2 || !rows[0].IsSkipped || rows[1].IsSkipped {
		t.Fatalf("status = %d rows = %+v", rec.Code, rows)
	}
	if len(*purged) != 3 {
		t.Errorf("purged = %v", *purged)
	}

	// Another owner cannot see the room.
	c, rec = newCtx(http.MethodPatch, "/v1/rooms/1", `{"name":"x"}`, 2, "1")
	if err := h.UpdateRoom(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("other owner status = %d", rec.Code)
	}
}

func TestUpdateRoomCodeConflict(t *testing.T) {
	rooms := newFakeRooms()
	seed(t, rooms)
	other := &model.RoomDefinition{Room: model.Room{OwnerID: 1, Code: "R505", Name: "x"}}
	_ = rooms.CreateWithDefinition(context.Background(), other)
	h, _ := newOwner(rooms, nil)

	// Code and layout change together or not at all.
	c, rec := newCtx(http.MethodPatch, "/v1/rooms/2", `{"code":"R501","rows":[["desk"]]}`, 1, "2")
	if err := h.UpdateRoom(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
	if d := rooms.defs[2]; d.Room.Code != "R505" || len(d.Rows) != 0 {
		t.Errorf("rejected update applied: %+v", d)
	}
}

func TestDeleteRoom(t *testing.T) {
	tests := []struct {
		name string
		uid  uint64
		id   string
		want int
	}{
		{"other owner", 2, "1", http.StatusForbidden},
		{"missing", 1, "42", http.StatusNotFound},
		{"bad id", 1, "x", http.StatusBadRequest},
		{"owner", 1, "1", http.StatusNoContent},
	}
	rooms := newFakeRooms()
	seed(t, rooms)
	h, _ := newOwner(rooms, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newCtx(http.MethodDelete, "/v1/rooms/"+tt.id, "", tt.uid, tt.id)
			if err := h.DeleteRoom(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if len(rooms.defs) != 0 {
		t.Error("room should be gone")
	}
}

func TestReplaceRoster(t *testing.T) {
	rooms := newFakeRooms()
	id := seed(t, rooms)
	h, _ := newOwner(rooms, nil)

	c, rec := newCtx(http.MethodPut, "/v1/rooms/1/roster", `{"roster":["x","y"]}`, 1, "1")
	if err := h.ReplaceRoster(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || len(rooms.defs[id].Roster) != 2 || rooms.defs[id].Roster[1].Name != "y" {
		t.Fatalf("status = %d roster = %+v", rec.Code, rooms.defs[id].Roster)
	}

	c, rec = newCtx(http.MethodPut, "/v1/rooms/1/roster", `{"roster":["x","x"]}`, 1, "1")
	if err := h.ReplaceRoster(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate roster status = %d", rec.Code)
	}
}

func TestReplacePinsReportsDiagnostics(t *testing.T) {
	rooms := newFakeRooms()
	seed(t, rooms)
	h, _ := newOwner(rooms, nil)

	body := `{"pins":[
		{"row":3,"seat":4,"name":"Ivanov"},
		{"row":2,"seat":1,"name":"Petrov"},
		{"row":9,"seat":1,"name":"Sidorova"},
		{"row":3,"seat":4,"name":"Smirnova"}
	]}`
	c, rec := newCtx(http.MethodPut, "/v1/rooms/1/pins", body, 1, "1")
	if err := h.ReplacePins(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[seatingResp](t, rec.Body.Bytes())
	var kinds []string
	for _, d := range got.Diagnostics {
		kinds = append(kinds, d.Kind)
	}
	if strings.Join(kinds, ",") != "SKIPPED_ROW_TARGET,ROW_OUT_OF_RANGE,DUPLICATE_SEAT" {
		t.Errorf("diagnostics = %v", kinds)
	}
	// Ivanov pinned; Petrov withheld by the skipped-row pin; Sidorova,
	// Kuznetsov, Smirnova fill 1/1, 1/3, 3/1.
	placed := map[string]string{}
	for _, a := range got.Assignments {
		placed[a.Name] = a.Place
	}
	if placed["Ivanov"] != "Row 3, Seat 4" || placed["Sidorova"] != "Row 1, Seat 1" || placed["Smirnova"] != "Row 3, Seat 1" {
		t.Errorf("placed = %v", placed)
	}
	if _, ok := placed["Petrov"]; ok {
		t.Error("Petrov must not be auto-filled")
	}
	if got.Overflow != 0 {
		t.Errorf("overflow = %d", got.Overflow)
	}
}

func TestPublishSeating(t *testing.T) {
	rooms := newFakeRooms()
	seed(t, rooms)

	pub := &fakePublisher{}
	h, _ := newOwner(rooms, pub)
	c, rec := newCtx(http.MethodPost, "/v1/rooms/1/seating/publish", "", 1, "1")
	if err := h.PublishSeating(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[struct {
		Published bool        `json:"published"`
		EventID   string      `json:"event_id"`
		Seating   seatingResp `json:"seating"`
	}](t, rec.Body.Bytes())
	if !got.Published || got.EventID != "evt-1" || len(got.Seating.Assignments) != 5 {
		t.Errorf("response = %+v", got)
	}
	if len(pub.events) != 1 || pub.events[0].RoomCode != "R501" || len(pub.events[0].Assignments) != 5 {
		t.Errorf("events = %+v", pub.events)
	}

	h, _ = newOwner(rooms, &fakePublisher{err: errBroker})
	c, rec = newCtx(http.MethodPost, "/v1/rooms/1/seating/publish", "", 1, "1")
	if err := h.PublishSeating(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), `"published":false`) {
		t.Errorf("broker failure: %d %s", rec.Code, rec.Body)
	}
}

func TestImport(t *testing.T) {
	rooms := newFakeRooms()
	seed(t, rooms)
	h, purged := newOwner(rooms, nil)

	doc := `
[[room]]
code = "R501"
rows = [["desk"]]

[[room]]
code = "R777"
name = "Annex"
rows = [["desk", "gap", "desk"]]
roster = ["a", "b", "c"]
`
	c, rec := newCtx(http.MethodPost, "/v1/rooms/import", doc, 1, "")
	if err := h.Import(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[struct {
		Created []model.Room `json:"created"`
		Skipped []string     `json:"skipped"`
	}](t, rec.Body.Bytes())
	if len(got.Created) != 1 || got.Created[0].Code != "R777" {
		t.Errorf("created = %+v", got.Created)
	}
	if len(got.Skipped) != 1 || got.Skipped[0] != "R501" {
		t.Errorf("skipped = %v", got.Skipped)
	}
	if len(*purged) != 1 {
		t.Errorf("purged = %v", *purged)
	}

	c, rec = newCtx(http.MethodPost, "/v1/rooms/import", "[[room]\n", 1, "")
	if err := h.Import(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed import status = %d", rec.Code)
	}
}
