package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"house-flipping/api"
	"house-flipping/watcher"
)

var addr string

// serveCmd is the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the reports over HTTP",
	Long: `Loads the sales file and serves every report as JSON. The data is reloaded
when the local file changes (WATCH_SOURCE) and on REFRESH_SCHEDULE.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	serveCmd.SilenceUsage = true
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, pipeline := setup()
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	ctx := cmd.Context()

	metrics := api.NewMetrics()
	refresh := func(ctx context.Context) {
		snap, err := pipeline.Refresh(ctx)
		metrics.ObserveRefresh(snap, err)
	}

	snap, err := pipeline.Refresh(ctx)
	metrics.ObserveRefresh(snap, err)
	if err != nil {
		return err
	}

	if cfg.WatchSource && !cfg.IsRemoteSource() {
		fw := watcher.NewFileWatcher(logger, cfg.DataPath, watcher.DefaultDebounce, refresh)
		go func() {
			if err := fw.Run(ctx); err != nil {
				logger.Error("File watcher stopped: %v", err)
			}
		}()
	}

	if cfg.RefreshSchedule != "" {
		sched, err := watcher.NewScheduler(ctx, logger, cfg.RefreshSchedule, refresh)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	server := api.NewServer(logger, pipeline, metrics, cfg.MapSampleSize)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("=== Serving on %s ===", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
