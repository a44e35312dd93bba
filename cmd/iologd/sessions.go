package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/iologd/internal/config"
	"github.com/ehrlich-b/iologd/internal/store"
)

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List indexed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("open session index: %w", err)
			}
			defer st.Close()

			sessions, err := st.ListSessions()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tHOST\tUSER\tSTATUS\tCOMMAND\tLOG DIR")
			for _, s := range sessions {
				started := time.Unix(s.StartTime, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					started, s.SubmitHost, s.SubmitUser, s.Status, s.Command, s.LogDir)
			}
			return w.Flush()
		},
	}
}
