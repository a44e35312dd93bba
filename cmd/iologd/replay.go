package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ehrlich-b/iologd/internal/replay"
)

func replayCmd() *cobra.Command {
	var speed float64
	var maxWait time.Duration

	cmd := &cobra.Command{
		Use:   "replay <session-dir>",
		Short: "Play a recorded session back to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Recorded output contains raw control sequences; raw mode
			// keeps the local terminal from reinterpreting them.
			if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
				state, err := term.MakeRaw(fd)
				if err == nil {
					defer term.Restore(fd, state)
				}
			}
			return replay.Play(args[0], os.Stdout, replay.Options{
				Speed:   speed,
				MaxWait: maxWait,
			})
		},
	}
	cmd.Flags().Float64Var(&speed, "speed", 1, "playback speed multiplier")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 2*time.Second, "cap on a single pause")
	return cmd
}
