// Package worker runs the scheduled renewal sweep.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"subwise/internal/log"
)

// Renewer advances billing dates that have fallen into the past.
type Renewer interface {
	Renew(ctx context.Context) ([]string, error)
}

// Config controls when the sweep runs.
type Config struct {
	// Schedule is a standard cron expression or descriptor such as "@daily".
	Schedule string
	Location *time.Location
	OnStart  bool
	// Timeout bounds a single sweep; zero means no limit.
	Timeout time.Duration
}

// RenewalWorker drives Renewer on a cron schedule.
type RenewalWorker struct {
	renewer Renewer
	cfg     Config
	logger  *log.Logger

	mu   sync.Mutex
	runs int
	last time.Time
}

func NewRenewalWorker(renewer Renewer, cfg Config, logger *log.Logger) (*RenewalWorker, error) {
	if renewer == nil {
		return nil, fmt.Errorf("renewal worker: renewer is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("renewal worker: invalid schedule %q: %w", cfg.Schedule, err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RenewalWorker{
		renewer: renewer,
		cfg:     cfg,
		logger:  logger.WithComponent(log.ComponentWorker),
	}, nil
}

// RunOnce performs a single sweep and returns the ids it advanced.
func (w *RenewalWorker) RunOnce(ctx context.Context) ([]string, error) {
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	advanced, err := w.renewer.Renew(ctx)

	w.mu.Lock()
	w.runs++
	w.last = start
	w.mu.Unlock()

	if err != nil {
		errorType := log.ErrorTypePersistence
		if errors.Is(err, context.DeadlineExceeded) {
			errorType = log.ErrorTypeTimeout
		}
		w.logger.ErrorContext(ctx, "renewal sweep failed",
			log.FieldOperation, log.OpRenew,
			log.FieldErrorType, errorType,
			log.FieldError, err)
		return nil, err
	}
	w.logger.InfoContext(ctx, "renewal sweep complete",
		log.FieldOperation, log.OpRenew,
		log.FieldAdvanced, len(advanced),
		log.FieldDuration, time.Since(start).Milliseconds())
	return advanced, nil
}

// Run schedules the sweep and blocks until ctx is cancelled. A sweep still
// in flight at shutdown is allowed to finish.
func (w *RenewalWorker) Run(ctx context.Context) error {
	if w.cfg.OnStart {
		_, _ = w.RunOnce(ctx)
	}

	c := cron.New(cron.WithLocation(w.cfg.Location))
	if _, err := c.AddFunc(w.cfg.Schedule, func() { _, _ = w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule renewal sweep: %w", err)
	}
	c.Start()

	next := time.Time{}
	if entries := c.Entries(); len(entries) > 0 {
		next = entries[0].Next
	}
	w.logger.InfoContext(ctx, "renewal worker started",
		"schedule", w.cfg.Schedule,
		"location", w.cfg.Location.String(),
		"next_run", next)

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("renewal worker stopped", log.FieldOperation, log.OpShutdown)
	return nil
}

// Runs reports how many sweeps have executed and when the last one started.
func (w *RenewalWorker) Runs() (int, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs, w.last
}
