// Package store owns the subscription collection. Every mutation builds the
// next collection as a copy, writes it to the blob store in one Put and only
// then swaps it in, so a failed write leaves the in-memory state untouched.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"subwise/internal/core"
	"subwise/internal/log"
	"subwise/internal/metrics"
	"subwise/internal/schedule"
	"subwise/internal/storage"
)

// DefaultKey is the blob key the collection is stored under.
const DefaultKey = "subwise_subscriptions"

type Store struct {
	mu        sync.RWMutex
	subs      []core.Subscription
	blobs     storage.BlobStore
	key       string
	clock     core.Clock
	logger    *slog.Logger
	newID     func() string
	publisher Publisher
	seed      []core.Subscription
	writeBack bool
}

type Option func(*Store)

func WithClock(c core.Clock) Option { return func(s *Store) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(f func() string) Option { return func(s *Store) { s.newID = f } }

func WithPublisher(p Publisher) Option { return func(s *Store) { s.publisher = p } }

// WithSeed replaces the built-in default collection.
func WithSeed(subs []core.Subscription) Option {
	return func(s *Store) { s.seed = clone(subs) }
}

func WithKey(key string) Option { return func(s *Store) { s.key = key } }

// WithoutWriteBack stops Load from persisting a seeded or advanced
// collection. Normalized dates are still served from memory.
func WithoutWriteBack() Option { return func(s *Store) { s.writeBack = false } }

// New returns an empty store. Call Load before serving reads.
func New(blobs storage.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:     blobs,
		key:       DefaultKey,
		clock:     core.SystemClock{},
		logger:    slog.Default(),
		newID:     func() string { return uuid.NewString() },
		seed:      DefaultSeed(),
		writeBack: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.FieldComponent, log.ComponentStore)
	return s
}

// Open is New followed by Load. A persistence error from Load is returned
// together with a usable store holding the seed.
func Open(ctx context.Context, blobs storage.BlobStore, opts ...Option) (*Store, error) {
	s := New(blobs, opts...)
	_, err := s.Load(ctx)
	return s, err
}

// Today reports the store's current date.
func (s *Store) Today() core.Date {
	return s.clock.Today()
}

// Load reads the persisted collection, falling back to the seed when the
// key is missing or the data is malformed, and normalizes every billing
// date. The collection is written back once if it was seeded or advanced,
// unless the store was built WithoutWriteBack.
// A backend read failure is returned as core.ErrPersistence; the store then
// serves the seed but does not overwrite the backend with it.
func (s *Store) Load(ctx context.Context) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		subs    []core.Subscription
		seeded  bool
		loadErr error
	)

	raw, err := s.blobs.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		s.logger.InfoContext(ctx, "no persisted collection, seeding defaults", log.FieldKey, s.key)
		metrics.LoadFallback("missing")
		subs, seeded = clone(s.seed), true
	case err != nil:
		loadErr = fmt.Errorf("%w: read %s: %w", core.ErrPersistence, s.key, err)
		s.logger.ErrorContext(ctx, "failed to read persisted collection",
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypePersistence,
			log.FieldError, err)
		metrics.LoadFallback("backend_error")
		subs = clone(s.seed)
	default:
		subs, err = Decode(raw)
		if err != nil {
			s.logger.WarnContext(ctx, "persisted collection is malformed, seeding defaults",
				log.FieldKey, s.key,
				log.FieldErrorType, log.ErrorTypeMalformedData,
				log.FieldError, err)
			metrics.LoadFallback("malformed")
			subs, seeded = clone(s.seed), true
		}
	}

	subs, advanced := schedule.NormalizeAll(subs, s.clock.Today())
	metrics.RenewalsAdvanced(len(advanced))

	if s.writeBack && loadErr == nil && (seeded || len(advanced) > 0) {
		if err := s.write(ctx, subs); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist loaded collection", log.FieldError, err)
			loadErr = err
		}
	}

	s.subs = subs
	metrics.ObserveSubscriptions(s.subs)
	metrics.StoreOperation(log.OpLoad, loadErr)

	s.logger.InfoContext(ctx, "collection loaded",
		log.FieldCount, len(subs),
		"seeded", seeded,
		log.FieldAdvanced, len(advanced))

	return clone(subs), loadErr
}

// Add validates f, assigns a fresh id, normalizes the billing date and
// persists the collection.
func (s *Store) Add(ctx context.Context, f core.Fields) (core.Subscription, error) {
	if err := f.Validate(); err != nil {
		s.logger.WarnContext(ctx, "rejected subscription", log.FieldError, err)
		metrics.StoreOperation(log.OpCreate, err)
		return core.Subscription{}, err
	}

	s.mu.Lock()
	sub := f.Subscription(s.uniqueIDLocked())
	sub, _ = schedule.NormalizeOne(sub, s.clock.Today())
	next := append(clone(s.subs), sub)
	err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	metrics.StoreOperation(log.OpCreate, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create subscription", "name", sub.Name, log.FieldError, err)
		return core.Subscription{}, err
	}

	s.logger.InfoContext(ctx, "subscription created", s.fields(sub)...)
	s.publish(ctx, EventCreated, sub.ID, &sub)
	return sub, nil
}

// Get returns the subscription with id.
func (s *Store) Get(_ context.Context, id string) (core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return core.Subscription{}, notFound(id)
	}
	return s.subs[i], nil
}

// List returns a snapshot of the collection in insertion order.
func (s *Store) List(_ context.Context) ([]core.Subscription, error) {
	return s.Snapshot(), nil
}

// Snapshot returns a copy of the collection for read-only aggregation.
func (s *Store) Snapshot() []core.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.subs)
}

// Update merges p over the stored record. When p supplies a billing cycle
// or date, the merged date is renormalized with the merged cycle.
func (s *Store) Update(ctx context.Context, id string, p core.Patch) (core.Subscription, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		err := notFound(id)
		s.logger.WarnContext(ctx, "subscription not found", log.FieldSubscriptionID, id)
		metrics.StoreOperation(log.OpUpdate, err)
		return core.Subscription{}, err
	}
	if err := p.Validate(); err != nil {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "rejected update", log.FieldSubscriptionID, id, log.FieldError, err)
		metrics.StoreOperation(log.OpUpdate, err)
		return core.Subscription{}, err
	}

	merged := p.Apply(s.subs[i])
	if p.TouchesSchedule() {
		merged, _ = schedule.NormalizeOne(merged, s.clock.Today())
	}
	next := clone(s.subs)
	next[i] = merged
	err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	metrics.StoreOperation(log.OpUpdate, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update subscription", log.FieldSubscriptionID, id, log.FieldError, err)
		return core.Subscription{}, err
	}

	s.logger.InfoContext(ctx, "subscription updated", s.fields(merged)...)
	s.publish(ctx, EventUpdated, id, &merged)
	return merged, nil
}

// Cancel marks the subscription cancelled.
func (s *Store) Cancel(ctx context.Context, id string) (core.Subscription, error) {
	status := core.StatusCancelled
	return s.Update(ctx, id, core.Patch{Status: &status})
}

// Delete removes the subscription. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "delete of absent subscription ignored", log.FieldSubscriptionID, id)
		metrics.StoreOperation(log.OpDelete, nil)
		return nil
	}
	next := slices.Delete(clone(s.subs), i, i+1)
	err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	metrics.StoreOperation(log.OpDelete, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete subscription", log.FieldSubscriptionID, id, log.FieldError, err)
		return err
	}

	s.logger.InfoContext(ctx, "subscription deleted", log.FieldSubscriptionID, id)
	s.publish(ctx, EventDeleted, id, nil)
	return nil
}

// Persist writes the current collection.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	err := s.write(ctx, s.subs)
	metrics.StoreOperation(log.OpPersist, err)
	return err
}

// Renew advances every billing date that has fallen into the past since the
// last normalization. It starts from the persisted collection, so records
// written by another Store over the same backend survive the sweep. It
// writes only when something moved and returns the advanced ids.
func (s *Store) Renew(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	current, err := s.persistedLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		metrics.StoreOperation(log.OpRenew, err)
		s.logger.ErrorContext(ctx, "failed to read collection for renewal",
			log.FieldErrorType, log.ErrorTypePersistence,
			log.FieldError, err)
		return nil, err
	}
	next, advanced := schedule.NormalizeAll(current, s.clock.Today())
	if len(advanced) == 0 {
		s.subs = next
		metrics.ObserveSubscriptions(s.subs)
		s.mu.Unlock()
		metrics.StoreOperation(log.OpRenew, nil)
		return nil, nil
	}
	err = s.commitLocked(ctx, next)
	s.mu.Unlock()

	metrics.StoreOperation(log.OpRenew, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist renewals", log.FieldError, err)
		return nil, err
	}
	metrics.RenewalsAdvanced(len(advanced))

	s.logger.InfoContext(ctx, "billing dates advanced", log.FieldAdvanced, len(advanced))
	for _, sub := range next {
		if slices.Contains(advanced, sub.ID) {
			s.publish(ctx, EventRenewed, sub.ID, &sub)
		}
	}
	return advanced, nil
}

// persistedLocked re-reads the backend. A missing or malformed blob yields
// the in-memory collection; a read failure is core.ErrPersistence.
func (s *Store) persistedLocked(ctx context.Context) ([]core.Subscription, error) {
	raw, err := s.blobs.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return clone(s.subs), nil
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrPersistence, s.key, err)
	}
	subs, err := Decode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "persisted collection is malformed, renewing in-memory copy",
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypeMalformedData,
			log.FieldError, err)
		return clone(s.subs), nil
	}
	return subs, nil
}

func (s *Store) commitLocked(ctx context.Context, next []core.Subscription) error {
	if err := s.write(ctx, next); err != nil {
		return err
	}
	s.subs = next
	metrics.ObserveSubscriptions(s.subs)
	return nil
}

func (s *Store) write(ctx context.Context, subs []core.Subscription) error {
	raw, err := Encode(subs)
	if err != nil {
		metrics.PersistFailure()
		return fmt.Errorf("%w: encode: %w", core.ErrPersistence, err)
	}
	if err := s.blobs.Put(ctx, s.key, raw); err != nil {
		metrics.PersistFailure()
		return fmt.Errorf("%w: write %s: %w", core.ErrPersistence, s.key, err)
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.subs, func(sub core.Subscription) bool { return sub.ID == id })
}

func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

func (s *Store) publish(ctx context.Context, t EventType, id string, sub *core.Subscription) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, Event{Type: t, ID: id, Subscription: sub, At: time.Now().UTC()})
	metrics.EventPublished(string(t), err)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, string(t),
			log.FieldSubscriptionID, id,
			log.FieldError, err)
	}
}

func (s *Store) fields(sub core.Subscription) []any {
	return log.NewFields().
		WithSubscription(sub.ID, sub.Name, core.FormatCost(sub.Cost), string(sub.BillingCycle), sub.NextBilling.String()).
		ToSlice()
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", core.ErrNotFound, id)
}
