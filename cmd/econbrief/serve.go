package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/deusflow/econbrief/internal/api"
	"github.com/deusflow/econbrief/internal/app"
	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/sources"
	"github.com/deusflow/econbrief/internal/timeparse"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled crawls",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			svc, err := buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			scheduler, err := startScheduler(ctx, svc)
			if err != nil {
				return err
			}
			if scheduler != nil {
				defer func() { <-scheduler.Stop().Done() }()
			}

			httpServer := &http.Server{
				Addr: svc.Config.HTTPAddr,
				Handler: api.NewRouter(api.Deps{
					Pipeline:       svc.Pipeline,
					Store:          svc.Store,
					Knowledge:      svc.Knowledge,
					Answerer:       svc.Answerer,
					Metrics:        svc.Metrics,
					ModelAvailable: svc.ModelAvailable(),
				}),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				// A synchronous crawl can take minutes.
				WriteTimeout: 10 * time.Minute,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("api server starting", "addr", svc.Config.HTTPAddr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				logger.Info("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown", "error", err)
			}
			return nil
		},
	}
}

// startScheduler registers the crawl and tips jobs when CRAWL_SCHEDULE is
// set. It returns nil when scheduling is disabled.
func startScheduler(ctx context.Context, svc *app.Services) (*cron.Cron, error) {
	spec := svc.Config.CrawlSchedule
	if spec == "" {
		return nil, nil
	}

	c := cron.New(cron.WithLocation(timeparse.LoadLocation(svc.Config.Timezone)))
	_, err := c.AddFunc(spec, func() {
		if _, err := svc.Pipeline.Run(ctx, sources.Options{}); err != nil {
			if errors.Is(err, app.ErrRunInProgress) {
				logger.Warn("scheduled crawl skipped", "reason", err)
				return
			}
			logger.Error("scheduled crawl failed", "error", err)
		}
		if svc.Tips != nil {
			if _, err := svc.Tips.Run(ctx); err != nil {
				logger.Error("scheduled tips failed", "error", err)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("crawl scheduled", "spec", spec)
	return c, nil
}
