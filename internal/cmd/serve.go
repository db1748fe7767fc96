package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petrijr/stepform/internal/catalog"
	"github.com/petrijr/stepform/internal/config"
	"github.com/petrijr/stepform/internal/httpapi"
	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/internal/wizard"
	"github.com/petrijr/stepform/pkg/api"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured wizard over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	c, err := loadedConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	logger := c.Log.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, c, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.close(closeCtx); err != nil {
			logger.Warn("store_close_failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              c.HTTP.Addr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", c.HTTP.Addr, "wizard", c.Wizard.ID, "store", c.Store.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("http_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// application is the wired server with its store.
type application struct {
	handler http.Handler
	metrics *api.BasicMetrics
	close   func(ctx context.Context) error
}

func build(ctx context.Context, c *config.Config, logger *slog.Logger) (*application, error) {
	opened, err := persistence.Open(ctx, persistence.Options{
		Driver:   c.Store.Driver,
		DSN:      c.Store.DSN,
		Prefix:   c.Store.Prefix,
		Database: c.Store.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.Store.Driver, err)
	}

	metrics := &api.BasicMetrics{}
	ctrl, err := wizard.New(wizard.Config{
		WizardID: c.Wizard.ID,
		Tag:      c.Wizard.Tag,
		RecordDefaults: api.RecordDefaults{
			Type:   c.Wizard.RecordType,
			Status: api.Status(c.Wizard.RecordStatus),
		},
		Labels: wizard.Labels{
			Next:   c.Wizard.Labels.Next,
			Finish: c.Wizard.Labels.Finish,
			Thanks: c.Wizard.Labels.Thanks,
		},
		ParentURL: c.Wizard.ParentURL,
		Catalog:   catalog.NewFile(c.Catalog.Path, c.Wizard.ID),
		Store:     opened.Store,
		Observer:  api.NewCompositeObserver(api.NewLoggingObserver(logger), metrics),
		Logger:    logger,
	})
	if err != nil {
		_ = opened.Close(ctx)
		return nil, err
	}

	srv := httpapi.NewServer(httpapi.Options{
		Wizards:   []*wizard.Controller{ctrl},
		Parents:   opened.Store,
		JWTSecret: c.Admin.JWTSecret,
		Logger:    logger,
		Metrics:   metrics,
	})

	return &application{
		handler: srv.Routes(),
		metrics: metrics,
		close:   opened.Close,
	}, nil
}
