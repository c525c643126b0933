package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"subwise/internal/cli"
	"subwise/internal/config"
	apphttp "subwise/internal/http"
	"subwise/internal/log"
	"subwise/internal/metrics"
	"subwise/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	app, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open subscription store (%s backend): %w", cfg.DataBackend, err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	opts := []apphttp.Option{
		apphttp.WithLogger(logger.WithComponent(log.ComponentHTTP)),
		apphttp.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		apphttp.WithRenewalWindow(cfg.RenewalWindowDays),
		apphttp.WithReadiness(app.Ready),
	}
	if cfg.MetricsPort == "" {
		opts = append(opts, apphttp.WithMetricsEndpoint())
	}
	srv := apphttp.NewServer(":"+cfg.Port, app.Store, opts...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting subwise API", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler())
		metricsSrv = &http.Server{
			Addr:              net.JoinHostPort("", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Starting metrics server", "port", cfg.MetricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if cfg.RenewalEnabled() {
		w, err := worker.NewRenewalWorker(app.Store, worker.Config{
			Schedule: cfg.RenewalSchedule,
			Location: cfg.Location(),
			OnStart:  cfg.RenewalOnStart,
			Timeout:  time.Minute,
		}, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	} else {
		logger.Info("Renewal sweep disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
