package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/roomfile"
)

type ownerLookup interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

type roomCreator interface {
	CreateWithDefinition(ctx context.Context, def *model.RoomDefinition) error
}

// importRoomsFile creates the rooms of a TOML room file for the owner with
// ownerEmail.  Rooms whose code already exists are left alone.
func importRoomsFile(ctx context.Context, path, ownerEmail string, users ownerLookup, rooms roomCreator, l *log.Logger) error {
	if ownerEmail == "" {
		return errors.New("ROOMS_OWNER_EMAIL is required with ROOMS_FILE")
	}
	file, err := roomfile.Load(path)
	if err != nil {
		return err
	}
	owner, err := users.GetByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("load owner %s: %w", ownerEmail, err)
	}
	if owner.Role != model.RoleOwner {
		return fmt.Errorf("user %s is not an owner", ownerEmail)
	}

	for _, fr := range file.Rooms {
		def, err := fr.Definition(owner.ID)
		if err != nil {
			return err
		}
		if err := rooms.CreateWithDefinition(ctx, def); err != nil {
			if errors.Is(err, repository.ErrRoomExists) {
				l.Debug("rooms: already present", "code", def.Room.Code)
				continue
			}
			return fmt.Errorf("room %s: %w", def.Room.Code, err)
		}
		l.Info("rooms: imported", "code", def.Room.Code, "id", def.Room.ID)
	}
	return nil
}
