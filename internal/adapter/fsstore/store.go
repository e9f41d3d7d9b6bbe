// Package fsstore serves dataset assets from a directory tree.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/couchcryptid/soundscape-data/internal/domain"
	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Store implements domain.AssetStore over an fs.FS. Keys are slash-separated
// paths relative to the root, e.g. "mb01/day_level_summary.csv".
type Store struct {
	fsys    fs.FS
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the time source used for fetch timing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates a Store reading from fsys.
func New(fsys fs.FS, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{fsys: fsys, clock: clockwork.NewRealClock(), metrics: metrics}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDir creates a Store rooted at dir on the local disk.
func NewDir(dir string, metrics *observability.Metrics, opts ...Option) *Store {
	return New(os.DirFS(dir), metrics, opts...)
}

// Fetch reads the asset for key. A missing file maps to domain.ErrAssetNotFound.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.AssetFetchDuration.WithLabelValues("fs").Observe(s.clock.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(key) {
		return nil, fmt.Errorf("invalid asset key %q", key)
	}

	data, err := fs.ReadFile(s.fsys, key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrAssetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", key, err)
	}
	return data, nil
}
