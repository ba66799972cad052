package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, push queues and scheduled sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().String("port", "", "HTTP listen port")
	if err := viper.BindPFlag("SERVER_PORT", cmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	return cmd
}

func serve(cfg *config.Config) error {
	app, cleanup, err := initializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := app.Logger
	logger.Info("Starting rankd")
	logger.WithField("config_dir", cfg.ConfigDir).Info("Configuration loaded")

	if err := app.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Server.Start(ctx)
	}()

	logger.Info("rankd is running")

	select {
	case err = <-serverErr:
		if err != nil {
			err = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		if serr := <-serverErr; serr != nil {
			logger.WithError(serr).Error("Error during server shutdown")
		}
	}

	// Stop producing work before draining the push queues
	app.Scheduler.Stop()
	app.Sessions.Close()

	logger.Info("rankd stopped")
	return err
}
