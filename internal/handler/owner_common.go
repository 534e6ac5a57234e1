package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/exam-seating/internal/logging"
    "github.com/iliyamo/exam-seating/internal/model"
    "github.com/iliyamo/exam-seating/internal/seating"
)

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// parseRoomID reads the :id path parameter.
func parseRoomID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

func badRoomID(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
}

// seatingResp is the body of seating endpoints.
type seatingResp struct {
    Room        model.Room             `json:"room"`
    Assignments []model.SeatAssignment `json:"assignments"`
    Overflow    int                    `json:"overflow"`
    Diagnostics []model.SeatDiagnostic `json:"diagnostics"`
    Seats       int                    `json:"seats"`
    Fillable    int                    `json:"fillable"`
}

func newSeatingResp(room model.Room, layout seating.Layout, res seating.Result) seatingResp {
    return seatingResp{
        Room:        room,
        Assignments: model.NewSeatAssignments(res),
        Overflow:    res.Overflow,
        Diagnostics: model.NewSeatDiagnostics(res),
        Seats:       layout.TotalSeats(),
        Fillable:    layout.FillableSeats(),
    }
}

// logDiagnostics reports rejected pins as warnings on the request logger.
func logDiagnostics(c echo.Context, room model.Room, diags []*seating.ConfigError) {
    if len(diags) == 0 {
        return
    }
    l := logging.FromContext(c.Request().Context())
    for _, d := range diags {
        l.Warn("seating: pin rejected", "room", room.Code, "kind", d.Kind, "name", d.Name, "err", d.Error())
    }
}

// slotNames renders every row of layout in its configuration spelling.
func slotNames(layout seating.Layout) [][]string {
    out := make([][]string, len(layout.Rows))
    for i, slots := range layout.Rows {
        out[i] = make([]string, len(slots))
        for j, s := range slots {
            out[i][j] = s.String()
        }
    }
    return out
}
