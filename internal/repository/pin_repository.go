package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/exam-seating/internal/model"
)

// PinRepo stores manual placements.  Pins are kept verbatim, including ones
// that point outside the layout; the allocator reports those.
type PinRepo struct {
	db *sql.DB
}

// NewPinRepo constructs a PinRepo with the given DB handle.
func NewPinRepo(db *sql.DB) *PinRepo {
	return &PinRepo{db: db}
}

// Replace swaps all pins of a room.
func (r *PinRepo) Replace(ctx context.Context, roomID uint64, pins []model.RoomPin) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return replacePins(ctx, tx, roomID, pins)
	})
}

func listPins(ctx context.Context, q dbtx, roomID uint64) ([]model.RoomPin, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT room_id, position, row_no, seat_no, name FROM room_pins WHERE room_id = ? ORDER BY position`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoomPin
	for rows.Next() {
		var p model.RoomPin
		if err := rows.Scan(&p.RoomID, &p.Position, &p.RowNumber, &p.SeatNumber, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func replacePins(ctx context.Context, q dbtx, roomID uint64, pins []model.RoomPin) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM room_pins WHERE room_id = ?`, roomID); err != nil {
		return err
	}
	if len(pins) == 0 {
		return nil
	}
	args := make([]any, 0, len(pins)*5)
	for i, p := range pins {
		args = append(args, roomID, i, p.RowNumber, p.SeatNumber, p.Name)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO room_pins (room_id, position, row_no, seat_no, name) VALUES `+placeholders(len(pins), 5), args...)
	return err
}
