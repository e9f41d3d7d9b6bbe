// Package cache memoizes dataset loads so each key is loaded at most once
// for the lifetime of a Memo, no matter how many callers ask concurrently.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Result is the internal outcome of one load. Callers of GetOrLoad never see
// Err; it is kept for inspection through Peek.
type Result[V any] struct {
	Value V
	Err   error
}

// Ok reports whether the load succeeded.
func (r Result[V]) Ok() bool { return r.Err == nil }

// LoadFunc produces the value for one key.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Options configures a Memo.
type Options[K comparable, V any] struct {
	// Name labels logs and metrics, e.g. "day".
	Name string
	// Empty builds the value served when a load fails.
	Empty func() V
	// OnComplete runs once per key after its load finishes and waiters are released.
	OnComplete func(key K, res Result[V], elapsed time.Duration)

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock
}

// Memo is a per-key, never-evicting cache of in-flight or completed loads.
// A failed load is stored as a resolved Empty value and is not retried.
type Memo[K comparable, V any] struct {
	opts  Options[K, V]
	mu    sync.Mutex
	calls map[K]*call[V]
}

type call[V any] struct {
	done   chan struct{}
	value  V // what every caller receives; Empty() on failure
	result Result[V]
}

// New creates an empty Memo.
func New[K comparable, V any](opts Options[K, V]) *Memo[K, V] {
	if opts.Empty == nil {
		opts.Empty = func() V {
			var zero V
			return zero
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Memo[K, V]{
		opts:  opts,
		calls: make(map[K]*call[V]),
	}
}

// GetOrLoad returns the value for key, starting load if no load for key has
// been started before. Concurrent callers share the same in-flight load.
// If ctx ends before the load completes the caller gets Empty(); the load
// itself keeps running and later callers receive its result.
func (m *Memo[K, V]) GetOrLoad(ctx context.Context, key K, load LoadFunc[V]) V {
	c, started := m.start(ctx, key, load)
	m.recordLookup(started)

	select {
	case <-c.done:
		return c.value
	default:
	}

	select {
	case <-c.done:
		return c.value
	case <-ctx.Done():
		return m.opts.Empty()
	}
}

// Start begins loading key in the background if it has not been started.
// It reports whether this call started the load.
func (m *Memo[K, V]) Start(key K, load LoadFunc[V]) bool {
	_, started := m.start(context.Background(), key, load)
	return started
}

// Peek returns the outcome of a completed load for key. It reports false
// while the load is pending or if it was never started.
func (m *Memo[K, V]) Peek(key K) (Result[V], bool) {
	m.mu.Lock()
	c, ok := m.calls[key]
	m.mu.Unlock()
	if !ok {
		return Result[V]{}, false
	}

	select {
	case <-c.done:
		return c.result, true
	default:
		return Result[V]{}, false
	}
}

// start inserts a pending call for key under the lock; the check and the
// insert are one critical section, so only one caller can win.
func (m *Memo[K, V]) start(ctx context.Context, key K, load LoadFunc[V]) (*call[V], bool) {
	m.mu.Lock()
	if c, ok := m.calls[key]; ok {
		m.mu.Unlock()
		return c, false
	}
	c := &call[V]{done: make(chan struct{})}
	m.calls[key] = c
	m.mu.Unlock()

	go m.run(context.WithoutCancel(ctx), key, c, load)
	return c, true
}

func (m *Memo[K, V]) run(ctx context.Context, key K, c *call[V], load LoadFunc[V]) {
	begin := m.opts.Clock.Now()
	res := invoke(ctx, load)
	elapsed := m.opts.Clock.Since(begin)

	c.result = res
	outcome := "success"
	if res.Err != nil {
		outcome = "failure"
		c.value = m.opts.Empty()
		m.opts.Logger.Error("dataset load failed, serving empty dataset",
			"resolution", m.opts.Name,
			"key", key,
			"error", res.Err,
		)
	} else {
		c.value = res.Value
		m.opts.Logger.Debug("dataset loaded",
			"resolution", m.opts.Name,
			"key", key,
			"duration", elapsed,
		)
	}

	if m.opts.Metrics != nil {
		m.opts.Metrics.DatasetLoads.WithLabelValues(m.opts.Name, outcome).Inc()
		m.opts.Metrics.DatasetLoadDuration.WithLabelValues(m.opts.Name).Observe(elapsed.Seconds())
	}

	close(c.done)

	if m.opts.OnComplete != nil {
		m.opts.OnComplete(key, res, elapsed)
	}
}

// invoke runs load, converting a panic into an error.
func invoke[V any](ctx context.Context, load LoadFunc[V]) (res Result[V]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[V]{Err: fmt.Errorf("load panicked: %v", r)}
		}
	}()
	v, err := load(ctx)
	return Result[V]{Value: v, Err: err}
}

func (m *Memo[K, V]) recordLookup(started bool) {
	if m.opts.Metrics == nil {
		return
	}
	result := "hit"
	if started {
		result = "miss"
	}
	m.opts.Metrics.CacheLookups.WithLabelValues(m.opts.Name, result).Inc()
}
