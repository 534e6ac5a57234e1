package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/exam-seating/internal/logging"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/roomfile"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// roomSeating is the JSON form of one allocated room.
type roomSeating struct {
	Code        string                 `json:"code"`
	Name        string                 `json:"name"`
	Assignments []model.SeatAssignment `json:"assignments"`
	Overflow    int                    `json:"overflow"`
	Diagnostics []model.SeatDiagnostic `json:"diagnostics"`
	Seats       int                    `json:"seats"`
	Fillable    int                    `json:"fillable"`
}

func (c *cli) allocateCommand() *cobra.Command {
	var (
		file   string
		room   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Print the seating of every room in a file",
		Example: `  seatctl allocate --file rooms.toml
  seatctl allocate --file rooms.toml --room R501 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatTable, formatJSON)
			}
			rooms, err := selectRooms(file, room)
			if err != nil {
				return err
			}
			logger := logging.FromContext(cmd.Context())

			out := make([]roomSeating, 0, len(rooms))
			for _, r := range rooms {
				layout, err := r.Layout()
				if err != nil {
					return err
				}
				res, err := r.Allocate()
				if err != nil {
					return err
				}
				logger.Debug("allocated", "room", r.Code, "placed", len(res.Assignments), "overflow", res.Overflow)
				for _, d := range res.Diagnostics {
					logger.Warn("pin rejected", "room", r.Code, "kind", d.Kind, "err", d.Error())
				}
				out = append(out, roomSeating{
					Code:        r.Code,
					Name:        r.Name,
					Assignments: model.NewSeatAssignments(res),
					Overflow:    res.Overflow,
					Diagnostics: model.NewSeatDiagnostics(res),
					Seats:       layout.TotalSeats(),
					Fillable:    layout.FillableSeats(),
				})
			}

			if format == formatJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			for i, rs := range out {
				if i > 0 {
					fmt.Fprintln(c.out)
				}
				printTable(c.out, rs)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML room file")
	cmd.Flags().StringVarP(&room, "room", "r", "", "only this room code")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table or json")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// selectRooms loads path and returns every room, or only the one with code.
func selectRooms(path, code string) ([]roomfile.Room, error) {
	f, err := roomfile.Load(path)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return f.Rooms, nil
	}
	r, err := f.Room(code)
	if err != nil {
		return nil, err
	}
	return []roomfile.Room{*r}, nil
}

// printTable renders one room: a title, one line per seat and a summary.
// Pinned seats carry a trailing "*".
func printTable(w io.Writer, rs roomSeating) {
	title := rs.Code
	if rs.Name != "" && rs.Name != rs.Code {
		title += " · " + rs.Name
	}
	fmt.Fprintln(w, styleTitle.Render(title))
	for _, a := range rs.Assignments {
		name := a.Name
		if a.Pinned {
			name += styleDim.Render(" *")
		}
		fmt.Fprintln(w, "  "+stylePlace.Render(a.Place)+" "+name)
	}
	summary := []string{
		fmt.Sprintf("%d seats", rs.Seats),
		fmt.Sprintf("%d fillable", rs.Fillable),
		fmt.Sprintf("%d placed", len(rs.Assignments)),
		fmt.Sprintf("%d overflow", rs.Overflow),
	}
	fmt.Fprintln(w, "  "+styleDim.Render(strings.Join(summary, " · ")))
	if rs.Overflow > 0 {
		printWarning(w, "%d of the roster did not fit", rs.Overflow)
	}
	for _, d := range rs.Diagnostics {
		printWarning(w, "%s", d.Message)
	}
}
