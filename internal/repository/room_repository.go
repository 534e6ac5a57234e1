// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for exam rooms.  A room owns its rows,
// roster and pins; those live in their own tables and are always replaced as
// a whole.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/exam-seating/internal/model"
)

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomExists is returned when a room code is already taken.
var ErrRoomExists = errors.New("room code already exists")

const roomColumns = `id, owner_id, code, name, is_active, created_at, updated_at`

// RoomRepo provides methods to create, retrieve and delete rooms.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func scanRoom(row interface{ Scan(...any) error }, r *model.Room) error {
	return row.Scan(&r.ID, &r.OwnerID, &r.Code, &r.Name, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
}

func insertRoom(ctx context.Context, q dbtx, r *model.Room) error {
	res, err := q.ExecContext(ctx, `INSERT INTO rooms (owner_id, code, name) VALUES (?, ?, ?)`, r.OwnerID, r.Code, r.Name)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrRoomExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	// Read the row back so is_active and the timestamps are populated.
	return scanRoom(q.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, r.ID), r)
}

// CreateWithDefinition inserts a room together with its rows, roster and
// pins in a single transaction.  def.Room is updated with the new ID.
func (r *RoomRepo) CreateWithDefinition(ctx context.Context, def *model.RoomDefinition) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertRoom(ctx, tx, &def.Room); err != nil {
			return err
		}
		if err := replaceRows(ctx, tx, def.Room.ID, def.Rows); err != nil {
			return err
		}
		if err := replaceRoster(ctx, tx, def.Room.ID, def.Roster); err != nil {
			return err
		}
		return replacePins(ctx, tx, def.Room.ID, def.Pins)
	})
}

// GetByID retrieves a room by its ID regardless of owner.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id), &room)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// GetByIDAndOwner retrieves a room only if it belongs to ownerID.
func (r *RoomRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Room, error) {
	var room model.Room
	err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? AND owner_id = ?`, id, ownerID), &room)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// ListAll returns every active room ordered by code.
func (r *RoomRepo) ListAll(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE is_active = 1 ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var room model.Room
		if err := scanRoom(rows, &room); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateWithRows changes code and name of a room owned by room.OwnerID and,
// when rows is non-nil, replaces its layout, all in one transaction.  It
// returns ErrRoomNotFound for rooms the owner does not have.
func (r *RoomRepo) UpdateWithRows(ctx context.Context, room *model.Room, rows []model.RoomRow) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var ownerID uint64
		err := tx.QueryRowContext(ctx, `SELECT owner_id FROM rooms WHERE id = ? FOR UPDATE`, room.ID).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && ownerID != room.OwnerID) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE rooms SET code = ?, name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			room.Code, room.Name, room.ID)
		if isDuplicateKey(err) {
			return ErrRoomExists
		}
		if err != nil {
			return err
		}
		if rows == nil {
			return nil
		}
		return replaceRows(ctx, tx, room.ID, rows)
	})
}

// DeleteByIDAndOwner removes a room with its rows, roster and pins.  It
// returns sql.ErrNoRows if the room does not exist and ErrForbidden if it
// belongs to someone else.
func (r *RoomRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var dbOwnerID uint64
		if err := tx.QueryRowContext(ctx, `SELECT owner_id FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&dbOwnerID); err != nil {
			return err
		}
		if dbOwnerID != ownerID {
			return ErrForbidden
		}
		for _, q := range []string{
			`DELETE FROM room_pins WHERE room_id = ?`,
			`DELETE FROM roster_entries WHERE room_id = ?`,
			`DELETE FROM room_rows WHERE room_id = ?`,
			`DELETE FROM rooms WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadDefinition reads a room with its rows, roster and pins.
func (r *RoomRepo) LoadDefinition(ctx context.Context, id uint64) (*model.RoomDefinition, error) {
	room, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	def := &model.RoomDefinition{Room: *room}
	if def.Rows, err = listRows(ctx, r.db, id); err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	if def.Roster, err = listRoster(ctx, r.db, id); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if def.Pins, err = listPins(ctx, r.db, id); err != nil {
		return nil, fmt.Errorf("load pins: %w", err)
	}
	return def, nil
}
