package domain

import (
	"encoding/json"
	"fmt"
)

// SensorMetadata describes one hydrophone sensor for menus and the map.
type SensorMetadata struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Index       int        `json:"index"`
	Coordinates [2]float64 `json:"coordinates"` // [lon, lat]
	PopupHTML   *string    `json:"popupHtml"`
}

// SensorRegistry is the ordered, immutable list of known sensors.
type SensorRegistry struct {
	sensors []SensorMetadata
	byID    map[string]int
}

// GeoJSON feature collection as shipped in sensors.geo.json.
type featureCollection struct {
	Features []geoFeature `json:"features"`
}

type geoFeature struct {
	Properties *struct {
		Label *string `json:"label"`
		Popup *string `json:"popup"`
	} `json:"properties"`
	Geometry *struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// BuildSensorRegistry reads a GeoJSON feature collection into a registry.
// Sensor ids are assigned from feature order: "sensor-01", "sensor-02", ...
func BuildSensorRegistry(raw []byte) (*SensorRegistry, error) {
	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse sensor registry: %w", err)
	}

	reg := &SensorRegistry{
		sensors: make([]SensorMetadata, 0, len(fc.Features)),
		byID:    make(map[string]int, len(fc.Features)),
	}
	for i, f := range fc.Features {
		s := SensorMetadata{
			ID:    fmt.Sprintf("sensor-%02d", i+1),
			Label: fmt.Sprintf("Sensor %d", i+1),
			Index: i,
		}
		if f.Properties != nil {
			if f.Properties.Label != nil {
				s.Label = *f.Properties.Label
			}
			s.PopupHTML = f.Properties.Popup
		}
		if f.Geometry != nil && len(f.Geometry.Coordinates) >= 2 {
			s.Coordinates = [2]float64{f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]}
		}
		reg.byID[s.ID] = len(reg.sensors)
		reg.sensors = append(reg.sensors, s)
	}
	return reg, nil
}

// Sensors returns a copy of the registry in feature order.
func (r *SensorRegistry) Sensors() []SensorMetadata {
	if r == nil {
		return []SensorMetadata{}
	}
	out := make([]SensorMetadata, len(r.sensors))
	copy(out, r.sensors)
	return out
}

// Lookup returns the sensor with the given id.
func (r *SensorRegistry) Lookup(id string) (SensorMetadata, bool) {
	if r == nil {
		return SensorMetadata{}, false
	}
	i, ok := r.byID[id]
	if !ok {
		return SensorMetadata{}, false
	}
	return r.sensors[i], true
}
