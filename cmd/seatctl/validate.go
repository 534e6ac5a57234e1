package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) validateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a room file and its pins",
		Long:  `validate decodes a room file, then runs the allocator on every room and reports each rejected pin. It exits non-zero if any room has one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := selectRooms(file, "")
			if err != nil {
				return err
			}
			problems := 0
			for _, r := range rooms {
				layout, err := r.Layout()
				if err != nil {
					return err
				}
				res, err := r.Allocate()
				if err != nil {
					return err
				}
				if len(res.Diagnostics) == 0 {
					printSuccess(c.out, "%s: %d on roster, %d pins, %d fillable seats", r.Code, len(r.Roster), len(r.Pins), layout.FillableSeats())
					continue
				}
				problems += len(res.Diagnostics)
				for _, d := range res.Diagnostics {
					printWarning(c.out, "%s: %s", r.Code, d.Error())
				}
			}
			if problems > 0 {
				return fmt.Errorf("%d pin problem(s) in %s", problems, file)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML room file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
