package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/volt/internal/adapter/driven/auth"
	httphandler "github.com/ericfisherdev/volt/internal/adapter/driving/http"
	"github.com/ericfisherdev/volt/internal/application"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the JSON API on VOLT_LISTEN_ADDR. Requests that change the vault or
reveal a password need "Authorization: Bearer <token>" where the token is
VOLT_API_TOKEN or a JWT from "volt token". With neither configured those
requests are refused. VOLT_AUDIT_SCHEDULE runs the orphan
audit periodically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

// authenticator accepts the static API token and, when a secret is
// configured, signed JWTs.
func (c *cli) authenticator() auth.AnyOf {
	var authn auth.AnyOf
	if c.app.cfg.APIToken != "" {
		authn = append(authn, auth.NewStaticToken(c.app.cfg.APIToken))
	}
	if jc := c.app.cfg.JWT; jc.Secret != "" {
		authn = append(authn, auth.NewJWT(jc.Secret, jc.Issuer, jc.TTL))
	}
	return authn
}

func (c *cli) serve(parent context.Context) error {
	cfg := c.app.cfg
	logger := c.app.logger

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	authn := c.authenticator()
	if len(authn) == 0 {
		logger.Warn("no api token or jwt secret configured, mutating requests will be refused")
	}

	var scheduler *application.AuditScheduler
	if cfg.Audit.Schedule != "" {
		s, err := application.NewAuditScheduler(c.app.svc.Audit, cfg.Audit.Schedule, logger)
		if err != nil {
			return err
		}
		scheduler = s
		scheduler.Start()
		logger.Info("audit scheduler started", "schedule", cfg.Audit.Schedule)
	}

	h := httphandler.NewHandler(c.app.svc, authn, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(h, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("http server error", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	logger.Info("shutdown complete")
	return serveErr
}
