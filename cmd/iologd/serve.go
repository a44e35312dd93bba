package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/iologd/internal/config"
	"github.com/ehrlich-b/iologd/internal/logger"
	"github.com/ehrlich-b/iologd/internal/server"
	"github.com/ehrlich-b/iologd/internal/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the session logging daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			st, err := store.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("open session index: %w", err)
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Log-level changes apply without a restart; everything
			// else in the config needs one.
			go config.Watch(ctx, cfgPath, func(fresh *config.Config) {
				logger.SetLevel(fresh.LogLevel)
				logger.Info("config reloaded", "log_level", fresh.LogLevel)
			})

			srv := server.New(cfg, st)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe(ctx)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				return nil
			case err := <-errCh:
				return err
			}
		},
	}
}
