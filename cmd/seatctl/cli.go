package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/exam-seating/internal/logging"
)

// cli holds state shared by all commands.
type cli struct {
	out    io.Writer
	logger *log.Logger
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{out: out, logger: logging.New(errOut, log.InfoLevel)}
}

func (c *cli) rootCommand() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "seatctl",
		Short:         "seatctl seats an exam roster in a room",
		Long:          `seatctl reads rooms from a TOML file and prints who sits where: pinned people first, everybody else on every other seat from the front row back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.logger.SetLevel(log.DebugLevel)
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), c.logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.allocateCommand())
	root.AddCommand(c.validateCommand())
	return root
}
