package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LoadEvent records the completion of one dataset load. It is the payload of
// dataset-loaded notifications.
type LoadEvent struct {
	ID         string        `json:"id"`
	Resolution string        `json:"resolution"`
	Partition  string        `json:"partition"`
	Entries    int           `json:"entries"`
	Skipped    int           `json:"skipped"`
	Failed     bool          `json:"failed"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	LoadedAt   time.Time     `json:"loaded_at"`
}

// NewLoadEvent builds a LoadEvent with a fresh random ID.
func NewLoadEvent(resolution, partition string, entries, skipped int, loadErr error, elapsed time.Duration, at time.Time) LoadEvent {
	e := LoadEvent{
		ID:         uuid.NewString(),
		Resolution: resolution,
		Partition:  partition,
		Entries:    entries,
		Skipped:    skipped,
		Duration:   elapsed,
		LoadedAt:   at.UTC(),
	}
	if loadErr != nil {
		e.Failed = true
		e.Error = loadErr.Error()
	}
	return e
}

// Outcome is "success" or "failure".
func (e LoadEvent) Outcome() string {
	if e.Failed {
		return "failure"
	}
	return "success"
}

// LoadNotifier publishes dataset-loaded notifications.
type LoadNotifier interface {
	NotifyLoaded(ctx context.Context, event LoadEvent) error
}
