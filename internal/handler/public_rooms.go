package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/exam-seating/internal/logging"
    "github.com/iliyamo/exam-seating/internal/model"
    "github.com/iliyamo/exam-seating/internal/repository"
)

// RoomReader is the read side of room storage.
type RoomReader interface {
    ListAll(ctx context.Context) ([]model.Room, error)
    LoadDefinition(ctx context.Context, id uint64) (*model.RoomDefinition, error)
}

// PublicHandler serves unauthenticated room and seating endpoints.
type PublicHandler struct {
    Rooms RoomReader
}

func NewPublicHandler(rooms RoomReader) *PublicHandler {
    return &PublicHandler{Rooms: rooms}
}

type roomItem struct {
    ID   uint64 `json:"id"`
    Code string `json:"code"`
    Name string `json:"name"`
}

type layoutRow struct {
    Row     int      `json:"row"`
    Slots   []string `json:"slots"`
    Skipped bool     `json:"skipped"`
    Seats   int      `json:"seats"`
    Desks   [][2]int `json:"desks"` // seat pairs per desk
}

type layoutResp struct {
    Room     model.Room  `json:"room"`
    Rows     []layoutRow `json:"rows"`
    Seats    int         `json:"seats"`
    Fillable int         `json:"fillable"`
}

// ListRooms returns all active rooms.
func (h *PublicHandler) ListRooms(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rooms, err := h.Rooms.ListAll(ctx)
    if err != nil {
        logging.FromContext(ctx).Error("rooms: list failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list rooms"})
    }
    items := make([]roomItem, len(rooms))
    for i, r := range rooms {
        items[i] = roomItem{ID: r.ID, Code: r.Code, Name: r.Name}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// loadDefinition fetches the active room named by :id and writes the error
// response itself when that fails.  Inactive rooms are hidden from the
// public side the same way ListAll hides them.
func (h *PublicHandler) loadDefinition(c echo.Context) (*model.RoomDefinition, bool, error) {
    id, ok := parseRoomID(c)
    if !ok {
        return nil, false, badRoomID(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    def, err := h.Rooms.LoadDefinition(ctx, id)
    if err == nil && !def.Room.IsActive {
        err = repository.ErrRoomNotFound
    }
    if err != nil {
        if errors.Is(err, repository.ErrRoomNotFound) {
            return nil, false, c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        logging.FromContext(ctx).Error("rooms: load definition failed", "room_id", id, "err", err)
        return nil, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
    }
    return def, true, nil
}

// GetLayout returns the rows of a room with per-row seat counts.
func (h *PublicHandler) GetLayout(c echo.Context) error {
    def, ok, err := h.loadDefinition(c)
    if !ok {
        return err
    }
    layout, lerr := def.Layout()
    if lerr != nil {
        logging.FromContext(c.Request().Context()).Error("rooms: stored layout invalid", "room_id", def.Room.ID, "err", lerr)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "room layout is corrupt"})
    }
    names := slotNames(layout)
    rows := make([]layoutRow, layout.RowCount())
    for i := range layout.Rows {
        row := i + 1
        seats, _ := layout.SeatCount(row)
        desks, _ := layout.DeskSeats(row)
        rows[i] = layoutRow{Row: row, Slots: names[i], Skipped: layout.IsSkipped(row), Seats: seats, Desks: desks}
    }
    return c.JSON(http.StatusOK, layoutResp{
        Room:     def.Room,
        Rows:     rows,
        Seats:    layout.TotalSeats(),
        Fillable: layout.FillableSeats(),
    })
}

// GetSeating runs the allocator over the stored room and returns the table.
// Nothing is persisted; every request recomputes.
func (h *PublicHandler) GetSeating(c echo.Context) error {
    def, ok, err := h.loadDefinition(c)
    if !ok {
        return err
    }
    layout, res, aerr := def.Allocate()
    if aerr != nil {
        logging.FromContext(c.Request().Context()).Error("rooms: stored layout invalid", "room_id", def.Room.ID, "err", aerr)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "room layout is corrupt"})
    }
    logDiagnostics(c, def.Room, res.Diagnostics)
    return c.JSON(http.StatusOK, newSeatingResp(def.Room, layout, res))
}
