package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrAssetNotFound is returned by an AssetStore when no asset exists for a key.
var ErrAssetNotFound = errors.New("asset not found")

// AssetStore fetches raw asset bytes by logical key.
type AssetStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Partition identifies the data-source folder of one sensor deployment.
type Partition string

const (
	PartitionMB01 Partition = "mb01"
	PartitionMB02 Partition = "mb02"
	PartitionMB03 Partition = "mb03"

	DefaultPartition = PartitionMB01
)

// Resolution is the temporal granularity of a summary dataset.
type Resolution string

const (
	ResolutionMonth Resolution = "month"
	ResolutionDay   Resolution = "day"
	ResolutionHour  Resolution = "hour"
)

// Resolutions lists the summary resolutions in coarse-to-fine order.
var Resolutions = [...]Resolution{ResolutionMonth, ResolutionDay, ResolutionHour}

const (
	TripsAssetKey   = "shipping_2020_expanded_trips.json"
	SensorsAssetKey = "sensors.geo.json"
)

var assetTable = map[Partition]map[Resolution]string{
	PartitionMB01: {
		ResolutionMonth: "mb01/month_level_summary.csv",
		ResolutionDay:   "mb01/day_level_summary.csv",
		ResolutionHour:  "mb01/hour_level_summary.csv",
	},
	PartitionMB02: {
		ResolutionMonth: "mb02/month_level_summary.csv",
		ResolutionDay:   "mb02/day_level_summary.csv",
		ResolutionHour:  "mb02/hour_level_summary.csv",
	},
	PartitionMB03: {
		ResolutionMonth: "mb03/month_level_summary.csv",
		ResolutionDay:   "mb03/day_level_summary.csv",
		ResolutionHour:  "mb03/hour_level_summary.csv",
	},
}

// AssetKey returns the store key of a partition's summary at a resolution.
func AssetKey(p Partition, r Resolution) (string, error) {
	key, ok := assetTable[p][r]
	if !ok {
		return "", fmt.Errorf("no asset for partition %q at resolution %q", p, r)
	}
	return key, nil
}

var sensorPartitions = map[string]Partition{
	"sensor-01": PartitionMB01,
	"sensor-02": PartitionMB02,
	"sensor-03": PartitionMB03,
}

// ResolvePartition maps a sensor id to its partition. Unknown and empty ids
// resolve to DefaultPartition.
func ResolvePartition(sensorID string) Partition {
	if p, ok := sensorPartitions[sensorID]; ok {
		return p
	}
	return DefaultPartition
}

// Partitions lists every known partition.
func Partitions() []Partition {
	return []Partition{PartitionMB01, PartitionMB02, PartitionMB03}
}
