// Command genmock writes a deterministic synthetic asset tree for local
// development and smoke tests: summary CSVs for every partition and
// resolution, the shipping trips file, and the sensor registry. Each
// generated asset is read back through the domain builders so the printed
// stats match what the service will load.
//
// Usage:
//
//	go run ./cmd/genmock -out assets -year 2020 -seed 7
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/domain"
)

// partitionDef describes how one partition's files are written. Header and
// time layout vary across partitions the way the real deployments do.
type partitionDef struct {
	partition  domain.Partition
	timeHeader string
	layout     string
	center     [2]float64 // [lon, lat]
	label      string
}

var partitions = []partitionDef{
	{partition: domain.PartitionMB01, timeHeader: "time", layout: time.RFC3339, center: [2]float64{-122.187, 36.713}, label: "MARS"},
	{partition: domain.PartitionMB02, timeHeader: "time ", layout: "2006-01-02 15:04:05", center: [2]float64{-121.928, 36.796}, label: "Soquel Canyon"},
	{partition: domain.PartitionMB03, timeHeader: "Time", layout: "1/2/2006 15:04", center: [2]float64{-122.412, 36.602}, label: "Sur Ridge"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the asset tree")
	year := flag.Int("year", 2020, "calendar year to generate")
	seed := flag.Uint64("seed", 7, "random seed")
	tripCount := flag.Int("trips", 40, "number of valid shipping trips")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewPCG(*seed, uint64(*year)))

	for _, def := range partitions {
		if err := writePartition(*out, def, *year, rng); err != nil {
			return fmt.Errorf("partition %s: %w", def.partition, err)
		}
	}

	tripsData, err := json.MarshalIndent(genTrips(*year, *tripCount, rng), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trips: %w", err)
	}
	if err := writeFile(filepath.Join(*out, domain.TripsAssetKey), tripsData); err != nil {
		return err
	}
	printTripStats(tripsData)

	sensorsData, err := json.MarshalIndent(genSensors(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sensors: %w", err)
	}
	if err := writeFile(filepath.Join(*out, domain.SensorsAssetKey), sensorsData); err != nil {
		return err
	}
	log.Printf("wrote asset tree: %s", *out)
	return nil
}

// ── Summary CSVs ──

func writePartition(out string, def partitionDef, year int, rng *rand.Rand) error {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var months, days, hours []time.Time
	for t := start; t.Before(end); t = t.AddDate(0, 1, 0) {
		months = append(months, t)
	}
	for t := start; t.Before(end); t = t.AddDate(0, 0, 1) {
		days = append(days, t)
	}
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		hours = append(hours, t)
	}

	files := []struct {
		res   domain.Resolution
		times []time.Time
		scale float64
	}{
		{domain.ResolutionMonth, months, 720},
		{domain.ResolutionDay, days, 24},
		{domain.ResolutionHour, hours, 1},
	}
	for _, f := range files {
		key, err := domain.AssetKey(def.partition, f.res)
		if err != nil {
			return err
		}
		data, err := summaryCSV(def, f.times, f.scale, rng)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(out, filepath.FromSlash(key)), data); err != nil {
			return err
		}
		printSummaryStats(def.partition, f.res, data)
	}
	return nil
}

func summaryCSV(def partitionDef, times []time.Time, scale float64, rng *rand.Rand) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(domain.MetricColumns)+1)
	header = append(header, def.timeHeader)
	for _, m := range domain.MetricColumns {
		header = append(header, string(m))
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i, t := range times {
		row := make([]string, 0, len(header))
		stamp := t.Format(def.layout)
		// One unparseable time per file so skipped-row handling is exercised.
		if i == len(times)/2 {
			stamp = "n/a"
		}
		row = append(row, stamp)
		for range domain.MetricColumns {
			row = append(row, genValue(scale, rng))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// genValue returns an empty cell, a zero, or a positive minute count.
func genValue(scale float64, rng *rand.Rand) string {
	switch r := rng.Float64(); {
	case r < 0.08:
		return ""
	case r < 0.35:
		return "0"
	default:
		v := rng.ExpFloat64() * 3 * scale
		return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	}
}

// ── Shipping trips ──

type tripRecord struct {
	Vendor     string       `json:"vendor"`
	Path       [][2]float64 `json:"path"`
	Timestamps []float64    `json:"timestamps"`
}

func genTrips(year, n int, rng *rand.Rand) []tripRecord {
	vendors := []string{"cargo", "tanker", "passenger", "fishing", "tug"}
	span := float64(time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Sub(
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)) / time.Second)

	trips := make([]tripRecord, 0, n+2)
	for i := range n {
		points := 2 + rng.IntN(30)
		lon, lat := -122.6+rng.Float64()*0.8, 36.5+rng.Float64()*0.5
		ts := rng.Float64() * span * 0.95
		trip := tripRecord{Vendor: vendors[i%len(vendors)]}
		for range points {
			trip.Path = append(trip.Path, [2]float64{round6(lon), round6(lat)})
			trip.Timestamps = append(trip.Timestamps, math.Round(ts))
			lon += (rng.Float64() - 0.5) * 0.02
			lat += (rng.Float64() - 0.5) * 0.02
			ts += 60 + rng.Float64()*600
		}
		trips = append(trips, trip)
	}

	// Two malformed records that validation must drop.
	trips = append(trips,
		tripRecord{Vendor: "broken", Path: [][2]float64{{-122, 36.7}}, Timestamps: []float64{1}},
		tripRecord{Vendor: "broken", Path: [][2]float64{{-122, 36.7}, {-122.1, 36.8}}, Timestamps: []float64{1, 2, 3}},
	)
	return trips
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// ── Sensor registry ──

type geoFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   map[string]any `json:"geometry"`
}

func genSensors() map[string]any {
	features := make([]geoFeature, 0, len(partitions))
	for _, def := range partitions {
		features = append(features, geoFeature{
			Type: "Feature",
			Properties: map[string]any{
				"label": def.label,
				"popup": fmt.Sprintf("<strong>%s</strong><br>partition %s", def.label, def.partition),
			},
			Geometry: map[string]any{
				"type":        "Point",
				"coordinates": def.center,
			},
		})
	}
	return map[string]any{"type": "FeatureCollection", "features": features}
}

// ── Output ──

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return os.WriteFile(path, data, 0o600)
}

func printSummaryStats(p domain.Partition, r domain.Resolution, data []byte) {
	var entries, skipped int
	var err error
	switch r {
	case domain.ResolutionMonth:
		var ds domain.MonthDataset
		ds, err = domain.BuildMonthDataset(data)
		entries, skipped = len(ds.Entries), ds.Skipped
	case domain.ResolutionDay:
		var ds domain.DayDataset
		ds, err = domain.BuildDayDataset(data)
		entries, skipped = len(ds.Entries), ds.Skipped
	case domain.ResolutionHour:
		var ds domain.HourDataset
		ds, err = domain.BuildHourDataset(data)
		entries, skipped = len(ds.Entries), ds.Skipped
	}
	if err != nil {
		log.Printf("%s/%s: read back failed: %v", p, r, err)
		return
	}
	log.Printf("%s/%s: %d entries, %d skipped", p, r, entries, skipped)
}

func printTripStats(data []byte) {
	recs, err := domain.DecodeTrips(data)
	if err != nil {
		log.Printf("trips: read back failed: %v", err)
		return
	}
	ds := domain.TransformTrips(recs)
	log.Printf("trips: %d accepted, %d dropped, max timestamp %g", len(ds.Trips), ds.Dropped, ds.MaxTimestamp)
}
