// Command validate performs offline integrity checks on a soundscape asset
// directory: the sensor registry, every summary CSV of every partition, and
// the shipping trips file. It loads each asset exactly as the service does and
// reports entry counts, skipped rows, and calendar coverage.
//
// Usage:
//
//	go run ./cmd/validate -asset-dir assets
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/adapter/fsstore"
	"github.com/couchcryptid/soundscape-data/internal/dataset"
	"github.com/couchcryptid/soundscape-data/internal/domain"
	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/couchcryptid/soundscape-data/internal/trips"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	assetDir := flag.String("asset-dir", "", "directory containing the soundscape assets")
	year := flag.Int("year", dataset.DefaultYear, "calendar year checked for day coverage")
	timeout := flag.Duration("timeout", time.Minute, "overall load timeout")
	flag.Parse()

	if *assetDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*assetDir, *year, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(assetDir string, year int, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger := observability.DiscardLogger()
	metrics := observability.NewMetricsForTesting()
	store := fsstore.NewDir(assetDir, metrics)
	svc := dataset.New(store, logger, metrics)
	loader := trips.NewLoader(store, nil, logger, metrics)

	fmt.Println("=== Soundscape Asset Integrity Validation ===")
	fmt.Println()

	registryPhase, registry := validateRegistry(ctx, store)

	if err := svc.Warm(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load summaries: %v\n", err)
		return 1
	}

	phases := []*phase{
		registryPhase,
		validateSummaryLoads(svc.Status()),
		validateCalendarCoverage(ctx, svc, registry, year),
		validateTrips(loader.Load(ctx)),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Printf("  %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Sensor Registry ──

func validateRegistry(ctx context.Context, store domain.AssetStore) (*phase, *domain.SensorRegistry) {
	p := &phase{name: "Phase 1: Sensor Registry (GeoJSON)"}

	raw, err := store.Fetch(ctx, domain.SensorsAssetKey)
	if err != nil {
		p.errorf("fetch %s: %v", domain.SensorsAssetKey, err)
		return p, nil
	}
	reg, err := domain.BuildSensorRegistry(raw)
	if err != nil {
		p.errorf("%v", err)
		return p, nil
	}

	sensors := reg.Sensors()
	if len(sensors) == 0 {
		p.errorf("registry has no sensors")
	}
	for _, s := range sensors {
		if s.Coordinates == [2]float64{} {
			p.errorf("%s (%s): coordinates missing", s.ID, s.Label)
		}
		if lon, lat := s.Coordinates[0], s.Coordinates[1]; lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			p.errorf("%s (%s): coordinates [%g, %g] out of range", s.ID, s.Label, lon, lat)
		}
		p.notef("%s %-24s partition %s", s.ID, s.Label, domain.ResolvePartition(s.ID))
	}
	return p, reg
}

// ── Phase 2: Summary Loads ──
// Every (resolution, partition) pair must load and contain entries.

func validateSummaryLoads(statuses []dataset.LoadStatus) *phase {
	p := &phase{name: "Phase 2: Summary Loads (CSV)"}
	for _, st := range statuses {
		switch {
		case !st.Loaded:
			p.errorf("%s/%s: not loaded", st.Partition, st.Resolution)
		case st.Failed:
			p.errorf("%s/%s: %s", st.Partition, st.Resolution, st.Error)
		case st.Entries == 0:
			p.errorf("%s/%s: no entries", st.Partition, st.Resolution)
		default:
			p.notef("%s/%-5s %6d entries, %d rows skipped", st.Partition, st.Resolution, st.Entries, st.Skipped)
		}
	}
	return p
}

// ── Phase 3: Calendar Coverage ──
// Checks month, day, and hour series of each sensor for consistency.

func validateCalendarCoverage(ctx context.Context, svc *dataset.Service, reg *domain.SensorRegistry, year int) *phase {
	p := &phase{name: "Phase 3: Calendar Coverage"}

	seen := map[domain.Partition]bool{}
	for _, s := range reg.Sensors() {
		part := domain.ResolvePartition(s.ID)
		if seen[part] {
			continue
		}
		seen[part] = true
		checkSensorCalendar(ctx, p, svc, s.ID, part, year)
	}
	return p
}

func checkSensorCalendar(ctx context.Context, p *phase, svc *dataset.Service, sensorID string, part domain.Partition, year int) {
	months := map[string]bool{}
	for _, e := range svc.MonthSummary(ctx, sensorID) {
		key := domain.MonthKey(e.Date.Year(), e.Date.Month())
		if months[key] {
			p.errorf("%s: duplicate month %s", part, e.ISODate)
		}
		months[key] = true
	}

	days, hoursChecked := 0, 0
	for m := time.January; m <= time.December; m++ {
		entries := svc.DaySummary(ctx, sensorID, m, dataset.WithYear(year))
		days += len(entries)
		if len(entries) > 0 && !months[domain.MonthKey(year, m)] {
			p.errorf("%s: %d-%02d has day entries but no month entry", part, year, int(m))
		}
		for _, d := range entries {
			if d.Date.Month() != m {
				p.errorf("%s: day %s bucketed under month %d", part, d.ISODay, int(m))
			}
			if _, ok := svc.DaySummaryByDate(ctx, sensorID, d.ISODay); !ok {
				p.errorf("%s: day %s missing from date index", part, d.ISODay)
			}
			hoursChecked += checkHours(p, part, d.ISODay, svc.HourSummary(ctx, sensorID, d.Date))
		}
	}
	p.notef("%s: %d months, %d days in %d, %d hours", part, len(months), days, year, hoursChecked)
}

func checkHours(p *phase, part domain.Partition, isoDay string, hours []domain.HourSummaryEntry) int {
	for i, h := range hours {
		if h.ISODay != isoDay {
			p.errorf("%s: hour %s listed under day %s", part, domain.ISOTimestamp(h.Date), isoDay)
		}
		if h.Hour < 0 || h.Hour > 23 {
			p.errorf("%s: hour %d out of range on %s", part, h.Hour, isoDay)
		}
		if i > 0 && h.Date.Before(hours[i-1].Date) {
			p.errorf("%s: hours out of order on %s", part, isoDay)
		}
	}
	return len(hours)
}

// ── Phase 4: Shipping Trips ──

func validateTrips(ds domain.ShippingTripsDataset) *phase {
	p := &phase{name: "Phase 4: Shipping Trips (JSON)"}

	if len(ds.Trips) == 0 {
		p.errorf("no trips accepted")
		return p
	}
	for i, t := range ds.Trips {
		if len(t.Path) < 2 || len(t.Path) != len(t.Timestamps) {
			p.errorf("trip %d: %d points, %d timestamps", i, len(t.Path), len(t.Timestamps))
			continue
		}
		if end := t.Timestamps[len(t.Timestamps)-1]; end > ds.MaxTimestamp {
			p.errorf("trip %d: ends at %g after max timestamp %g", i, end, ds.MaxTimestamp)
		}
	}
	p.notef("%d trips accepted, %d dropped, max timestamp %g", len(ds.Trips), ds.Dropped, ds.MaxTimestamp)
	return p
}
