package main

import (
	"context"
	"os"
	"time"

	"subwise/internal/cli"
	"subwise/internal/log"
	"subwise/internal/worker"
)

// renewal-worker runs the renewal sweep without the API, for deployments
// that scale the two separately.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting renewal-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.RenewalEnabled() {
		logger.Error("RENEWAL_SCHEDULE is off, nothing to do")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	app, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open subscription store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer app.Close()

	w, err := worker.NewRenewalWorker(app.Store, worker.Config{
		Schedule: cfg.RenewalSchedule,
		Location: cfg.Location(),
		OnStart:  cfg.RenewalOnStart,
		Timeout:  time.Minute,
	}, logger)
	if err != nil {
		logger.Error("Failed to create renewal worker", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Renewal sweep configured",
		"schedule", cfg.RenewalSchedule,
		"timezone", cfg.Timezone,
		"backend", cfg.DataBackend)

	if err := w.Run(ctx); err != nil {
		logger.Error("Renewal worker failed", log.FieldError, err)
	}
	logger.Info("Renewal-worker shutdown complete")
}
