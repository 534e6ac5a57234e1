package main

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
)

type stubUsers map[string]model.User

func (s stubUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	if u, ok := s[email]; ok {
		return u, nil
	}
	return model.User{}, sql.ErrNoRows
}

type stubRooms struct {
	existing map[string]bool
	created  []*model.RoomDefinition
}

func (s *stubRooms) CreateWithDefinition(_ context.Context, def *model.RoomDefinition) error {
	if s.existing[def.Room.Code] {
		return repository.ErrRoomExists
	}
	def.Room.ID = uint64(len(s.created) + 1)
	s.created = append(s.created, def)
	return nil
}

func TestImportRoomsFile(t *testing.T) {
	const file = "../seatctl/testdata/rooms.toml"
	users := stubUsers{
		"owner@example.com":  {ID: 5, Email: "owner@example.com", Role: model.RoleOwner},
		"viewer@example.com": {ID: 6, Email: "viewer@example.com", Role: model.RoleViewer},
	}
	var buf bytes.Buffer
	l := log.New(&buf)

	rooms := &stubRooms{existing: map[string]bool{"R505": true}}
	if err := importRoomsFile(context.Background(), file, "owner@example.com", users, rooms, l); err != nil {
		t.Fatalf("importRoomsFile() error = %v", err)
	}
	if len(rooms.created) != 1 || rooms.created[0].Room.Code != "R501" || rooms.created[0].Room.OwnerID != 5 {
		t.Errorf("created = %+v", rooms.created)
	}
	if !strings.Contains(buf.String(), "rooms: imported") {
		t.Errorf("log = %q", buf.String())
	}

	tests := []struct {
		name, path, owner, want string
	}{
		{"no owner", file, "", "ROOMS_OWNER_EMAIL"},
		{"unknown owner", file, "nobody@example.com", "load owner"},
		{"viewer owner", file, "viewer@example.com", "not an owner"},
		{"missing file", "does-not-exist.toml", "owner@example.com", "open rooms file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := importRoomsFile(context.Background(), tt.path, tt.owner, users, &stubRooms{}, l)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
