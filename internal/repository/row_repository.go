package repository

import (
	"context"

	"github.com/iliyamo/exam-seating/internal/model"
)

// listRows reads a room's rows ordered by row number.  Rows are only written
// together with their room, by CreateWithDefinition and UpdateWithRows.
func listRows(ctx context.Context, q dbtx, roomID uint64) ([]model.RoomRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT room_id, row_no, slots, is_skipped FROM room_rows WHERE room_id = ? ORDER BY row_no`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoomRow
	for rows.Next() {
		var rr model.RoomRow
		if err := rows.Scan(&rr.RoomID, &rr.RowNumber, &rr.Slots, &rr.IsSkipped); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// replaceRows inserts all rows in a single statement after clearing the old ones.
func replaceRows(ctx context.Context, q dbtx, roomID uint64, rows []model.RoomRow) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM room_rows WHERE room_id = ?`, roomID); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	args := make([]any, 0, len(rows)*4)
	for i, rr := range rows {
		args = append(args, roomID, i+1, rr.Slots, rr.IsSkipped)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO room_rows (room_id, row_no, slots, is_skipped) VALUES `+placeholders(len(rows), 4), args...)
	return err
}
