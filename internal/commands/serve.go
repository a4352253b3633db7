package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/runbridge/internal/handlers"
	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/server"
)

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sensor loop and the health/metrics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.OutOrStdout(), cfg)
			logging.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			router := server.NewRouter(handlers.NewHandler(a.runner, a.publisher))
			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      router,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info("Starting runbridge", "port", cfg.Server.Port, logging.Sensor(cfg.Sensor.Name))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
				close(serverErr)
			}()

			runnerDone := make(chan error, 1)
			go func() {
				runnerDone <- a.runner.Run(ctx)
			}()

			select {
			case err, ok := <-serverErr:
				if ok && err != nil {
					stop()
					<-runnerDone
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
			}

			logger.Info("Shutting down server...")
			<-runnerDone

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			logger.Info("Server exited")
			return nil
		},
	}
}
