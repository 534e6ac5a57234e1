package handler

import (
    "context"
    "database/sql"
    "errors"
    "io"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/exam-seating/internal/logging"
    "github.com/iliyamo/exam-seating/internal/model"
    "github.com/iliyamo/exam-seating/internal/queue"
    "github.com/iliyamo/exam-seating/internal/repository"
    "github.com/iliyamo/exam-seating/internal/roomfile"
)

// maxImportBytes caps the TOML body accepted by Import.
const maxImportBytes = 1 << 20

// RoomStore is the room persistence OwnerHandler needs.
type RoomStore interface {
    CreateWithDefinition(ctx context.Context, def *model.RoomDefinition) error
    GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Room, error)
    UpdateWithRows(ctx context.Context, room *model.Room, rows []model.RoomRow) error
    DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
    LoadDefinition(ctx context.Context, id uint64) (*model.RoomDefinition, error)
}

// RosterStore replaces the roster of a room.
type RosterStore interface {
    Replace(ctx context.Context, roomID uint64, entries []model.RosterEntry) error
}

// PinStore replaces the pins of a room.
type PinStore interface {
    Replace(ctx context.Context, roomID uint64, pins []model.RoomPin) error
}

// SeatingPublisher sends seating.published events.
type SeatingPublisher interface {
    PublishSeating(ctx context.Context, event queue.SeatingPublishedEvent) (string, error)
}

// CachePurger drops cached responses under a path prefix.
type CachePurger func(ctx context.Context, pathPrefix string) error

// OwnerHandler bundles the stores owners use to manage rooms.
type OwnerHandler struct {
    Rooms     RoomStore
    Roster    RosterStore
    Pins      PinStore
    Publisher SeatingPublisher // nil disables publishing
    Purge     CachePurger      // nil when caching is off
}

// NewOwnerHandler constructs an OwnerHandler and panics if a store is nil.
func NewOwnerHandler(rooms RoomStore, roster RosterStore, pins PinStore, pub SeatingPublisher, purge CachePurger) *OwnerHandler {
    if rooms == nil || roster == nil || pins == nil {
        panic("nil repository passed to NewOwnerHandler")
    }
    return &OwnerHandler{Rooms: rooms, Roster: roster, Pins: pins, Publisher: pub, Purge: purge}
}

type pinReq struct {
    Row  int    `json:"row"`
    Seat int    `json:"seat"`
    Name string `json:"name"`
}

func toFilePins(in []pinReq) []roomfile.Pin {
    out := make([]roomfile.Pin, len(in))
    for i, p := range in {
        out[i] = roomfile.Pin{Row: p.Row, Seat: p.Seat, Name: p.Name}
    }
    return out
}

type createRoomReq struct {
    Code     string     `json:"code"`
    Name     string     `json:"name"`
    Rows     [][]string `json:"rows"`
    SkipRows []int      `json:"skip_rows"`
    Roster   []string   `json:"roster"`
    Pins     []pinReq   `json:"pins"`
}

type updateRoomReq struct {
    Code     *string     `json:"code"`
    Name     *string     `json:"name"`
    Rows     *[][]string `json:"rows"`
    SkipRows []int       `json:"skip_rows"`
}

type rosterReq struct {
    Roster []string `json:"roster"`
}

type pinsReq struct {
    Pins []pinReq `json:"pins"`
}

// purge drops cached room responses after an edit.  Failures only log; the
// cache entries expire on their own.
func (h *OwnerHandler) purge(ctx context.Context) {
    if h.Purge == nil {
        return
    }
    if err := h.Purge(ctx, "/v1/rooms"); err != nil {
        logging.FromContext(ctx).Warn("cache: purge failed", "err", err)
    }
}

// ownedRoom resolves :id to a room owned by the caller.  On failure the
// response has been written and ok is false.
func (h *OwnerHandler) ownedRoom(ctx context.Context, c echo.Context) (room *model.Room, ok bool, err error) {
    uid, uerr := getUserID(c)
    if uerr != nil {
        return nil, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, valid := parseRoomID(c)
    if !valid {
        return nil, false, badRoomID(c)
    }
    room, rerr := h.Rooms.GetByIDAndOwner(ctx, id, uid)
    if rerr != nil {
        if errors.Is(rerr, repository.ErrRoomNotFound) {
            return nil, false, c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        logging.FromContext(ctx).Error("rooms: lookup failed", "room_id", id, "err", rerr)
        return nil, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
    }
    return room, true, nil
}

// CreateRoom creates a room with its rows and, optionally, roster and pins.
func (h *OwnerHandler) CreateRoom(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createRoomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    def, err := roomfile.Room{
        Code:     req.Code,
        Name:     req.Name,
        Rows:     req.Rows,
        SkipRows: req.SkipRows,
        Roster:   req.Roster,
        Pins:     toFilePins(req.Pins),
    }.Definition(uid)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Rooms.CreateWithDefinition(ctx, def); err != nil {
        switch {
        case errors.Is(err, repository.ErrRoomExists):
            return c.JSON(http.StatusConflict, echo.Map{"error": "room code already exists"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "roster names must be unique"})
        }
        logging.FromContext(ctx).Error("rooms: create failed", "code", def.Room.Code, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
    }
    h.purge(ctx)
    return c.JSON(http.StatusCreated, def.Room)
}

// UpdateRoom changes code, name or layout.  Omitted fields keep their value.
// rows replaces the whole layout together with skip_rows; skip_rows alone
// re-flags the stored rows.
func (h *OwnerHandler) UpdateRoom(c echo.Context) error {
    var req updateRoomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room, ok, err := h.ownedRoom(ctx, c)
    if !ok {
        return err
    }
    if req.Code != nil {
        room.Code = *req.Code
    }
    if req.Name != nil {
        room.Name = *req.Name
    }
    fileRoom := roomfile.Room{Code: room.Code, Name: room.Name, SkipRows: req.SkipRows}
    layoutChanged := req.Rows != nil || req.SkipRows != nil
    switch {
    case req.Rows != nil:
        fileRoom.Rows = *req.Rows
    case req.SkipRows != nil:
        stored, lerr := h.Rooms.LoadDefinition(ctx, room.ID)
        if lerr != nil {
            logging.FromContext(ctx).Error("rooms: load definition failed", "room_id", room.ID, "err", lerr)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
        }
        layout, lerr := stored.Layout()
        if lerr != nil {
            logging.FromContext(ctx).Error("rooms: stored layout invalid", "room_id", room.ID, "err", lerr)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "room layout is corrupt"})
        }
        fileRoom.Rows = slotNames(layout)
    }
    def, err := fileRoom.Definition(room.OwnerID)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    room.Code, room.Name = def.Room.Code, def.Room.Name

    var rows []model.RoomRow
    if layoutChanged {
        rows = def.Rows
    }
    if err := h.Rooms.UpdateWithRows(ctx, room, rows); err != nil {
        switch {
        case errors.Is(err, repository.ErrRoomExists):
            return c.JSON(http.StatusConflict, echo.Map{"error": "room code already exists"})
        case errors.Is(err, repository.ErrRoomNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        logging.FromContext(ctx).Error("rooms: update failed", "room_id", room.ID, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room"})
    }
    h.purge(ctx)
    return c.JSON(http.StatusOK, room)
}

// DeleteRoom removes a room with everything attached to it.
func (h *OwnerHandler) DeleteRoom(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseRoomID(c)
    if !ok {
        return badRoomID(c)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Rooms.DeleteByIDAndOwner(ctx, id, uid); err != nil {
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        logging.FromContext(ctx).Error("rooms: delete failed", "room_id", id, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room"})
    }
    h.purge(ctx)
    return c.NoContent(http.StatusNoContent)
}

// ReplaceRoster swaps the roster for the given ordered list of names.
func (h *OwnerHandler) ReplaceRoster(c echo.Context) error {
    var req rosterReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room, ok, err := h.ownedRoom(ctx, c)
    if !ok {
        return err
    }
    def, err := roomfile.Room{Code: room.Code, Roster: req.Roster}.Definition(room.OwnerID)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    if err := h.Roster.Replace(ctx, room.ID, def.Roster); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "roster names must be unique"})
        }
        logging.FromContext(ctx).Error("rooms: replace roster failed", "room_id", room.ID, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace roster"})
    }
    h.purge(ctx)
    return c.JSON(http.StatusOK, echo.Map{"room_id": room.ID, "count": len(def.Roster)})
}

// ReplacePins swaps the pins and returns the seating they produce, so bad
// pins show up as diagnostics right away.
func (h *OwnerHandler) ReplacePins(c echo.Context) error {
    var req pinsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room, ok, err := h.ownedRoom(ctx, c)
    if !ok {
        return err
    }
    def, err := roomfile.Room{Code: room.Code, Pins: toFilePins(req.Pins)}.Definition(room.OwnerID)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    if err := h.Pins.Replace(ctx, room.ID, def.Pins); err != nil {
        logging.FromContext(ctx).Error("rooms: replace pins failed", "room_id", room.ID, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace pins"})
    }
    h.purge(ctx)
    return h.writeSeating(ctx, c, room.ID, http.StatusOK, nil)
}

// PublishSeating allocates the room and sends a seating.published event.
// Publishing is best effort: the seating is returned with 202 either way and
// "published" tells whether the broker accepted the event.
func (h *OwnerHandler) PublishSeating(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    room, ok, err := h.ownedRoom(ctx, c)
    if !ok {
        return err
    }
    return h.writeSeating(ctx, c, room.ID, http.StatusAccepted, func(resp seatingResp) echo.Map {
        out := echo.Map{"published": false, "seating": resp}
        if h.Publisher == nil {
            return out
        }
        ev := queue.NewSeatingPublishedEvent(resp.Room, resp.Assignments, resp.Overflow, resp.Diagnostics, time.Now())
        id, err := h.Publisher.PublishSeating(ctx, ev)
        if err != nil {
            logging.FromContext(ctx).Warn("seating: publish failed", "room", resp.Room.Code, "err", err)
            return out
        }
        out["published"] = true
        out["event_id"] = id
        return out
    })
}

// writeSeating loads and allocates a room, then writes either the seating
// or wrap(seating) with status.
func (h *OwnerHandler) writeSeating(ctx context.Context, c echo.Context, roomID uint64, status int, wrap func(seatingResp) echo.Map) error {
    def, err := h.Rooms.LoadDefinition(ctx, roomID)
    if err != nil {
        logging.FromContext(ctx).Error("rooms: load definition failed", "room_id", roomID, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
    }
    layout, res, err := def.Allocate()
    if err != nil {
        logging.FromContext(ctx).Error("rooms: stored layout invalid", "room_id", roomID, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "room layout is corrupt"})
    }
    logDiagnostics(c, def.Room, res.Diagnostics)
    resp := newSeatingResp(def.Room, layout, res)
    if wrap == nil {
        return c.JSON(status, resp)
    }
    return c.JSON(status, wrap(resp))
}

// Import creates every room of a TOML room file sent as the request body.
// Rooms whose code already exists are skipped and listed.
func (h *OwnerHandler) Import(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    file, err := roomfile.Decode(io.LimitReader(c.Request().Body, maxImportBytes))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    created := []model.Room{}
    skipped := []string{}
    for _, fr := range file.Rooms {
        def, err := fr.Definition(uid)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        if err := h.Rooms.CreateWithDefinition(ctx, def); err != nil {
            if errors.Is(err, repository.ErrRoomExists) {
                skipped = append(skipped, def.Room.Code)
                continue
            }
            logging.FromContext(ctx).Error("rooms: import failed", "code", def.Room.Code, "err", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to import rooms", "created": created})
        }
        created = append(created, def.Room)
    }
    if len(created) > 0 {
        h.purge(ctx)
    }
    return c.JSON(http.StatusCreated, echo.Map{"created": created, "skipped": skipped})
}
