package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinical-records/internal/handler/doctor"
	"github.com/jwalitptl/clinical-records/internal/handler/health"
	"github.com/jwalitptl/clinical-records/internal/handler/patient"
	"github.com/jwalitptl/clinical-records/internal/handler/profile"
	"github.com/jwalitptl/clinical-records/internal/handler/sharing"
	"github.com/jwalitptl/clinical-records/internal/middleware"
	"github.com/jwalitptl/clinical-records/internal/router"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	if a.cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required to serve the API")
	}

	timeout := time.Duration(a.cfg.Server.TimeoutSeconds) * time.Second
	r := router.NewRouter(
		a.log,
		middleware.NewAuthMiddleware(a.cfg.JWT.Secret),
		health.NewHandler(a.checks),
		a.prom,
		router.RouterConfig{
			RateLimit:      a.cfg.RateLimit.RPS,
			RateBurst:      a.cfg.RateLimit.Burst,
			RequestTimeout: timeout,
		},
		patient.NewHandler(a.patients),
		sharing.NewHandler(a.patients, a.doctors),
		doctor.NewHandler(a.doctors),
		profile.NewHandler(a.profiles),
	)
	r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("server exited properly")
	return nil
}
