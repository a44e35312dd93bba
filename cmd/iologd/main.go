package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "iologd",
		Short:         "remote session I/O logging service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("config", "iologd.yaml", "config file path")

	root.AddCommand(serveCmd())
	root.AddCommand(sessionsCmd())
	root.AddCommand(replayCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
