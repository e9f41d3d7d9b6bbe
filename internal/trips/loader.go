// Package trips loads the vessel-trip dataset drawn over the sensor map.
// The load is deferred until the process is idle and happens at most once.
package trips

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/cache"
	"github.com/couchcryptid/soundscape-data/internal/domain"
	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Resolution labels trip loads in logs, metrics, and notifications.
const Resolution = "trips"

const (
	globalKey     = "global"
	notifyTimeout = 5 * time.Second
)

// Loader serves the shipping trips dataset from a single global cache entry.
type Loader struct {
	store     domain.AssetStore
	scheduler Scheduler
	notifier  domain.LoadNotifier
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	memo      *cache.Memo[string, domain.ShippingTripsDataset]
}

// Option customizes a Loader.
type Option func(*Loader)

// WithClock sets the time source used for load timing and event stamps.
func WithClock(c clockwork.Clock) Option {
	return func(l *Loader) { l.clock = c }
}

// WithNotifier publishes a LoadEvent when the trips load completes.
func WithNotifier(n domain.LoadNotifier) Option {
	return func(l *Loader) { l.notifier = n }
}

// NewLoader creates a Loader. A nil scheduler runs the load immediately;
// logger and metrics may be nil.
func NewLoader(store domain.AssetStore, scheduler Scheduler, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Loader {
	if scheduler == nil {
		scheduler = ImmediateScheduler{}
	}
	l := &Loader{
		store:     store,
		scheduler: scheduler,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.metrics == nil {
		l.metrics = observability.NewMetricsForTesting()
	}
	if l.clock == nil {
		l.clock = clockwork.NewRealClock()
	}
	l.memo = cache.New(cache.Options[string, domain.ShippingTripsDataset]{
		Name:       Resolution,
		Empty:      domain.EmptyTripsDataset,
		Logger:     logger,
		Metrics:    metrics,
		Clock:      l.clock,
		OnComplete: l.complete,
	})
	return l
}

// Load returns the trips dataset, waiting for the deferred load if needed.
func (l *Loader) Load(ctx context.Context) domain.ShippingTripsDataset {
	return l.memo.GetOrLoad(ctx, globalKey, l.load)
}

// Preload schedules the deferred load without waiting for it.
func (l *Loader) Preload() {
	if l.memo.Start(globalKey, l.load) {
		l.logger.Debug("trips preload scheduled")
	}
}

// Loaded reports whether the trips load has completed, successfully or not.
func (l *Loader) Loaded() bool {
	_, ok := l.memo.Peek(globalKey)
	return ok
}

func (l *Loader) load(ctx context.Context) (domain.ShippingTripsDataset, error) {
	start := make(chan struct{})
	l.scheduler.Schedule(func() { close(start) })
	<-start

	raw, err := l.store.Fetch(ctx, domain.TripsAssetKey)
	if err != nil {
		return domain.ShippingTripsDataset{}, fmt.Errorf("fetch %s: %w", domain.TripsAssetKey, err)
	}
	recs, err := domain.DecodeTrips(raw)
	if err != nil {
		return domain.ShippingTripsDataset{}, err
	}
	return domain.TransformTrips(recs), nil
}

func (l *Loader) complete(_ string, res cache.Result[domain.ShippingTripsDataset], elapsed time.Duration) {
	ds := res.Value
	l.metrics.TripsAccepted.Add(float64(len(ds.Trips)))
	l.metrics.TripsDropped.Add(float64(ds.Dropped))
	if res.Ok() {
		l.logger.Info("trips loaded",
			"trips", len(ds.Trips),
			"dropped", ds.Dropped,
			"max_timestamp", ds.MaxTimestamp,
		)
	}

	if l.notifier == nil {
		return
	}
	event := domain.NewLoadEvent(Resolution, globalKey, len(ds.Trips), ds.Dropped, res.Err, elapsed, l.clock.Now())
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := l.notifier.NotifyLoaded(ctx, event); err != nil {
		l.metrics.NotificationsFailed.Inc()
		l.logger.Warn("publish load notification failed", "resolution", Resolution, "error", err)
	}
}
