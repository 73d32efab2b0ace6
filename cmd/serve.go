package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/api"
	"github.com/primlogix/leadscout/internal/crawl"
	"github.com/primlogix/leadscout/internal/fetch"
	"github.com/primlogix/leadscout/internal/parse"
	"github.com/primlogix/leadscout/internal/store"
	"github.com/primlogix/leadscout/internal/worker"
)

// newServeCmd creates the 'serve' subcommand: the long-running HTTP
// service with its crawl worker pool.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API and crawl worker pool",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, store.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	// Each worker owns a fetch orchestrator, and with it a browser
	// session, so tabs never contend across jobs.
	factory := func() (worker.Crawler, func()) {
		fetcher := fetch.New(fetch.Config{HTTPTimeout: cfg.FetchTimeout()}, log)
		return crawl.New(fetcher, parse.New(log), log), fetcher.Close
	}

	jobs := worker.NewJobStore()
	pool := worker.NewPool(cfg.Crawl.Workers, factory, st, jobs, log)
	pool.Start(ctx)

	server := api.NewServer(pool, jobs, st, log)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
	pool.Wait()
	log.Info("shutdown complete")
	return nil
}
