// Package cli provides common initialization shared by cmd/subwise,
// cmd/subwise-cli and cmd/renewal-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"subwise/internal/amqp"
	"subwise/internal/backend"
	"subwise/internal/config"
	"subwise/internal/core"
	"subwise/internal/log"
	"subwise/internal/storage"
	"subwise/internal/store"
)

// SetupLogger initializes structured logging at the given level and makes
// it the process default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldOperation, log.OpValidate,
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// App bundles the store with the resources backing it.
type App struct {
	Store *store.Store
	Blobs storage.BlobStore
	// Feed is nil when the change feed is disabled or unreachable.
	Feed *amqp.Client

	key     string
	cleanup []func() error
}

type openOptions struct {
	withFeed bool
	readOnly bool
	factory  backend.Factory
}

type OpenOption func(*openOptions)

// WithoutFeed skips connecting to the broker, for read-only commands.
func WithoutFeed() OpenOption { return func(o *openOptions) { o.withFeed = false } }

// ReadOnly opens the store without a feed and without the write-back that
// Load performs for seeded or advanced collections. For inspection commands.
func ReadOnly() OpenOption {
	return func(o *openOptions) {
		o.withFeed = false
		o.readOnly = true
	}
}

// WithFactory replaces the backend factory.
func WithFactory(f backend.Factory) OpenOption { return func(o *openOptions) { o.factory = f } }

// OpenStore creates the configured backend, connects the change feed when
// AMQP_URL is set and loads the collection. A load error that left the
// seed in place is logged, not returned, so the service can still start.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...OpenOption) (*App, error) {
	o := openOptions{withFeed: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := o.factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	app := &App{Blobs: res.Store, key: cfg.StorageKey}
	app.cleanup = append(app.cleanup, res.Cleanup)

	storeOpts := []store.Option{
		store.WithClock(core.SystemClock{Location: cfg.Location()}),
		store.WithLogger(logger.Logger),
		store.WithKey(cfg.StorageKey),
	}
	if o.readOnly {
		storeOpts = append(storeOpts, store.WithoutWriteBack())
	}
	if cfg.SeedFile != "" {
		seed, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		storeOpts = append(storeOpts, store.WithSeed(seed))
		logger.Info("Using seed file", "path", cfg.SeedFile, "subscriptions", len(seed))
	}

	if o.withFeed && cfg.AMQPURL != "" {
		feed, err := amqp.NewClient(amqp.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
		}, logger.Logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change feed", log.FieldError, err)
		} else {
			app.Feed = feed
			app.cleanup = append(app.cleanup, feed.Close)
			storeOpts = append(storeOpts, store.WithPublisher(feed))
			logger.Info("AMQP change feed enabled", "exchange", cfg.AMQPExchange)
		}
	}

	s, err := store.Open(ctx, res.Store, storeOpts...)
	if err != nil {
		logger.Error("Initial load failed, serving the default collection", log.FieldError, err)
	}
	app.Store = s
	return app, nil
}

// Ready reports whether the backend answers reads.
func (a *App) Ready(ctx context.Context) error {
	_, err := a.Blobs.Get(ctx, a.key)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return fmt.Errorf("backend not ready: %w", err)
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
