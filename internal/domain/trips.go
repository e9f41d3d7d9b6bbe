package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// ShippingTrip is a validated vessel track. Path and Timestamps have equal
// length of at least two.
type ShippingTrip struct {
	Path       [][2]float64 `json:"path"` // [lon, lat] points
	Timestamps []float64    `json:"timestamps"`
	Vendor     string       `json:"vendor,omitempty"`
}

// ShippingTripsDataset holds every accepted trip and the latest end timestamp.
type ShippingTripsDataset struct {
	Trips        []ShippingTrip `json:"trips"`
	MaxTimestamp float64        `json:"maxTimestamp"`
	Dropped      int            `json:"-"`
}

// EmptyTripsDataset returns a valid dataset with no trips.
func EmptyTripsDataset() ShippingTripsDataset {
	return ShippingTripsDataset{Trips: []ShippingTrip{}}
}

// RawShippingTrip is one undecoded record of the trips asset. Fields are
// left untyped so malformed records can be rejected individually.
type RawShippingTrip struct {
	Vendor     any `json:"vendor"`
	Path       any `json:"path"`
	Timestamps any `json:"timestamps"`
}

// DecodeTrips reads the trips asset. The top level must be a JSON array;
// elements that are not objects decode to empty records and are dropped later.
func DecodeTrips(raw []byte) ([]RawShippingTrip, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode trips: %w", err)
	}
	out := make([]RawShippingTrip, len(elems))
	for i, elem := range elems {
		var rec RawShippingTrip
		if err := json.Unmarshal(elem, &rec); err != nil {
			continue
		}
		out[i] = rec
	}
	return out, nil
}

// TransformTrips validates raw records and computes MaxTimestamp in the same
// pass. Invalid records are counted in Dropped.
func TransformTrips(raws []RawShippingTrip) ShippingTripsDataset {
	ds := ShippingTripsDataset{Trips: make([]ShippingTrip, 0, len(raws))}
	for _, raw := range raws {
		trip, ok := toTrip(raw)
		if !ok {
			ds.Dropped++
			continue
		}
		if end := trip.Timestamps[len(trip.Timestamps)-1]; end > ds.MaxTimestamp {
			ds.MaxTimestamp = end
		}
		ds.Trips = append(ds.Trips, trip)
	}
	return ds
}

func toTrip(raw RawShippingTrip) (ShippingTrip, bool) {
	points, ok := raw.Path.([]any)
	if !ok {
		return ShippingTrip{}, false
	}
	stamps, ok := raw.Timestamps.([]any)
	if !ok {
		return ShippingTrip{}, false
	}
	if len(points) < 2 || len(points) != len(stamps) {
		return ShippingTrip{}, false
	}

	trip := ShippingTrip{
		Path:       make([][2]float64, len(points)),
		Timestamps: make([]float64, len(stamps)),
	}
	for i, p := range points {
		coord, ok := toCoordinate(p)
		if !ok {
			return ShippingTrip{}, false
		}
		trip.Path[i] = coord
	}
	for i, s := range stamps {
		ts, ok := toFinite(s)
		if !ok {
			return ShippingTrip{}, false
		}
		trip.Timestamps[i] = ts
	}
	if vendor, ok := raw.Vendor.(string); ok {
		trip.Vendor = vendor
	}
	return trip, true
}

func toCoordinate(v any) ([2]float64, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return [2]float64{}, false
	}
	lon, ok := toFinite(pair[0])
	if !ok {
		return [2]float64{}, false
	}
	lat, ok := toFinite(pair[1])
	if !ok {
		return [2]float64{}, false
	}
	return [2]float64{lon, lat}, true
}

func toFinite(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
