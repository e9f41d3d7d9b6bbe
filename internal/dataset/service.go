// Package dataset serves month, day, and hour summaries per sensor. Each
// (resolution, partition) pair is fetched and parsed at most once for the
// lifetime of a Service; every later or concurrent caller shares that result.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/cache"
	"github.com/couchcryptid/soundscape-data/internal/domain"
	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultYear is the year DaySummary uses when no WithYear option is given.
const DefaultYear = 2020

const notifyTimeout = 5 * time.Second

// Service is the entry point for summary lookups. It never returns errors:
// missing data and failed loads both surface as empty results.
type Service struct {
	store    domain.AssetStore
	notifier domain.LoadNotifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	months *cache.Memo[domain.Partition, domain.MonthDataset]
	days   *cache.Memo[domain.Partition, domain.DayDataset]
	hours  *cache.Memo[domain.Partition, domain.HourDataset]

	ready     atomic.Bool
	readyOnce sync.Once
	warmDone  chan struct{}
}

// Option customizes a Service.
type Option func(*Service)

// WithClock sets the time source used for load timing and event stamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithNotifier publishes a LoadEvent after every completed load.
func WithNotifier(n domain.LoadNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New creates a Service reading assets from store. logger and metrics may be nil.
func New(store domain.AssetStore, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
		warmDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	// A nil logger or metrics set falls back to slog.Default and an
	// unregistered metrics set.
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}

	s.months = newMemo(s, domain.ResolutionMonth, domain.EmptyMonthDataset, monthSize)
	s.days = newMemo(s, domain.ResolutionDay, domain.EmptyDayDataset, daySize)
	s.hours = newMemo(s, domain.ResolutionHour, domain.EmptyHourDataset, hourSize)
	return s
}

// MonthSummary returns the month series of the sensor's partition.
func (s *Service) MonthSummary(ctx context.Context, sensorID string) []domain.MonthSummaryEntry {
	return s.monthDataset(ctx, domain.ResolvePartition(sensorID)).Entries
}

// DayOption customizes a DaySummary query.
type DayOption func(*dayQuery)

type dayQuery struct {
	year int
}

// WithYear selects the year of a DaySummary query.
func WithYear(year int) DayOption {
	return func(q *dayQuery) { q.year = year }
}

// DaySummary returns the day entries of one calendar month, January = 1.
// Months outside January..December yield an empty slice.
func (s *Service) DaySummary(ctx context.Context, sensorID string, month time.Month, opts ...DayOption) []domain.DaySummaryEntry {
	q := dayQuery{year: DefaultYear}
	for _, opt := range opts {
		opt(&q)
	}
	if month < time.January || month > time.December {
		return []domain.DaySummaryEntry{}
	}

	ds := s.dayDataset(ctx, domain.ResolvePartition(sensorID))
	if entries, ok := ds.ByMonth[domain.MonthKey(q.year, month)]; ok {
		return entries
	}
	return []domain.DaySummaryEntry{}
}

// DaySummaryByDate returns the entry for a YYYY-MM-DD day.
func (s *Service) DaySummaryByDate(ctx context.Context, sensorID, isoDay string) (domain.DaySummaryEntry, bool) {
	entry, ok := s.dayDataset(ctx, domain.ResolvePartition(sensorID)).ByDate[isoDay]
	return entry, ok
}

// HourSummary returns the hour entries of the UTC day containing date,
// ascending by timestamp.
func (s *Service) HourSummary(ctx context.Context, sensorID string, date time.Time) []domain.HourSummaryEntry {
	ds := s.hourDataset(ctx, domain.ResolvePartition(sensorID))
	if entries, ok := ds.ByDay[domain.ISODay(date)]; ok {
		return entries
	}
	return []domain.HourSummaryEntry{}
}

func (s *Service) monthDataset(ctx context.Context, p domain.Partition) domain.MonthDataset {
	return s.months.GetOrLoad(ctx, p, loadAsset(s, domain.ResolutionMonth, p, domain.BuildMonthDataset))
}

func (s *Service) dayDataset(ctx context.Context, p domain.Partition) domain.DayDataset {
	return s.days.GetOrLoad(ctx, p, loadAsset(s, domain.ResolutionDay, p, domain.BuildDayDataset))
}

func (s *Service) hourDataset(ctx context.Context, p domain.Partition) domain.HourDataset {
	return s.hours.GetOrLoad(ctx, p, loadAsset(s, domain.ResolutionHour, p, domain.BuildHourDataset))
}

// loadAsset fetches the partition's asset for a resolution and builds it.
func loadAsset[V any](s *Service, r domain.Resolution, p domain.Partition, build func([]byte) (V, error)) cache.LoadFunc[V] {
	return func(ctx context.Context) (V, error) {
		var zero V
		key, err := domain.AssetKey(p, r)
		if err != nil {
			return zero, err
		}
		raw, err := s.store.Fetch(ctx, key)
		if err != nil {
			return zero, fmt.Errorf("fetch %s: %w", key, err)
		}
		v, err := build(raw)
		if err != nil {
			return zero, fmt.Errorf("build %s: %w", key, err)
		}
		return v, nil
	}
}

// newMemo wires one resolution's cache to the service's logging, metrics,
// and notifications. size reports (entries, skipped rows) of a dataset.
func newMemo[V any](s *Service, r domain.Resolution, empty func() V, size func(V) (int, int)) *cache.Memo[domain.Partition, V] {
	return cache.New(cache.Options[domain.Partition, V]{
		Name:    string(r),
		Empty:   empty,
		Logger:  s.logger,
		Metrics: s.metrics,
		Clock:   s.clock,
		OnComplete: func(p domain.Partition, res cache.Result[V], elapsed time.Duration) {
			entries, skipped := size(res.Value)
			s.metrics.RowsSkipped.WithLabelValues(string(r)).Add(float64(skipped))
			s.notify(domain.NewLoadEvent(string(r), string(p), entries, skipped, res.Err, elapsed, s.clock.Now()))
		},
	})
}

func monthSize(ds domain.MonthDataset) (int, int) { return len(ds.Entries), ds.Skipped }
func daySize(ds domain.DayDataset) (int, int)     { return len(ds.Entries), ds.Skipped }
func hourSize(ds domain.HourDataset) (int, int)   { return len(ds.Entries), ds.Skipped }

func (s *Service) notify(event domain.LoadEvent) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyLoaded(ctx, event); err != nil {
		s.metrics.NotificationsFailed.Inc()
		s.logger.Warn("publish load notification failed",
			"resolution", event.Resolution,
			"partition", event.Partition,
			"error", err,
		)
	}
}
