package dataset

import (
	"context"
	"errors"

	"github.com/couchcryptid/soundscape-data/internal/cache"
	"github.com/couchcryptid/soundscape-data/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Warm loads every partition at every resolution concurrently, then marks the
// service ready. Load failures are contained per dataset and do not fail Warm;
// only ctx ending early does.
func (s *Service) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range domain.Partitions() {
		g.Go(func() error {
			s.monthDataset(gctx, p)
			return gctx.Err()
		})
		g.Go(func() error {
			s.dayDataset(gctx, p)
			return gctx.Err()
		})
		g.Go(func() error {
			s.hourDataset(gctx, p)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("dataset warm-up complete", "partitions", len(domain.Partitions()))
	s.markReady()
	return nil
}

// WarmDone is closed once Warm has completed.
func (s *Service) WarmDone() <-chan struct{} {
	return s.warmDone
}

// CheckReadiness returns nil once warm-up has completed.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("datasets are still warming up")
	}
	return nil
}

func (s *Service) markReady() {
	s.readyOnce.Do(func() {
		s.ready.Store(true)
		s.metrics.Ready.Set(1)
		close(s.warmDone)
	})
}

// LoadStatus describes one completed (resolution, partition) load.
type LoadStatus struct {
	Resolution domain.Resolution `json:"resolution"`
	Partition  domain.Partition  `json:"partition"`
	Loaded     bool              `json:"loaded"`
	Failed     bool              `json:"failed"`
	Error      string            `json:"error,omitempty"`
	Entries    int               `json:"entries"`
	Skipped    int               `json:"skipped"`
}

// Status reports the outcome of every (resolution, partition) pair. Pairs
// still loading or never requested have Loaded false.
func (s *Service) Status() []LoadStatus {
	var out []LoadStatus
	for _, p := range domain.Partitions() {
		out = append(out,
			statusOf(s.months, domain.ResolutionMonth, p, monthSize),
			statusOf(s.days, domain.ResolutionDay, p, daySize),
			statusOf(s.hours, domain.ResolutionHour, p, hourSize),
		)
	}
	return out
}

func statusOf[V any](m *cache.Memo[domain.Partition, V], r domain.Resolution, p domain.Partition, size func(V) (int, int)) LoadStatus {
	st := LoadStatus{Resolution: r, Partition: p}
	res, ok := m.Peek(p)
	if !ok {
		return st
	}
	st.Loaded = true
	if !res.Ok() {
		st.Failed = true
		st.Error = res.Err.Error()
		return st
	}
	st.Entries, st.Skipped = size(res.Value)
	return st
}
