package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/exam-seating/internal/model"
)

// RosterRepo stores the ordered roster of a room.
type RosterRepo struct {
	db *sql.DB
}

// NewRosterRepo constructs a RosterRepo with the given DB handle.
func NewRosterRepo(db *sql.DB) *RosterRepo {
	return &RosterRepo{db: db}
}

// Replace swaps the whole roster.  A repeated name yields ErrConflict.
func (r *RosterRepo) Replace(ctx context.Context, roomID uint64, entries []model.RosterEntry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return replaceRoster(ctx, tx, roomID, entries)
	})
}

func listRoster(ctx context.Context, q dbtx, roomID uint64) ([]model.RosterEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT room_id, position, name FROM roster_entries WHERE room_id = ? ORDER BY position`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.RoomID, &e.Position, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func replaceRoster(ctx context.Context, q dbtx, roomID uint64, entries []model.RosterEntry) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM roster_entries WHERE room_id = ?`, roomID); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	args := make([]any, 0, len(entries)*3)
	for i, e := range entries {
		args = append(args, roomID, i, e.Name)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO roster_entries (room_id, position, name) VALUES `+placeholders(len(entries), 3), args...)
	if isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}
