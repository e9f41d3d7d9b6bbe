package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Values holds one nullable reading per metric key. A nil pointer means no data.
// Builders always populate every key in MetricColumns.
type Values map[MetricKey]*float64

// Get returns the value for key and whether it is present.
func (v Values) Get(key MetricKey) (float64, bool) {
	p := v[key]
	if p == nil {
		return 0, false
	}
	return *p, true
}

// MarshalJSON writes missing and non-finite readings as null; JSON has no
// representation for infinities.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	out := make(map[MetricKey]*float64, len(v))
	for k, p := range v {
		if p != nil && !math.IsInf(*p, 0) && !math.IsNaN(*p) {
			out[k] = p
		} else {
			out[k] = nil
		}
	}
	return json.Marshal(out)
}

// MonthSummaryEntry is one month bucket.
type MonthSummaryEntry struct {
	Date    time.Time `json:"date"`
	ISODate string    `json:"isoDate"`
	Values  Values    `json:"values"`
}

// DaySummaryEntry is one UTC calendar-day bucket.
type DaySummaryEntry struct {
	Date   time.Time `json:"date"`
	ISODay string    `json:"isoDay"`
	Values Values    `json:"values"`
}

// HourSummaryEntry is one UTC hour bucket.
type HourSummaryEntry struct {
	Date   time.Time `json:"date"`
	ISODay string    `json:"isoDay"`
	Hour   int       `json:"hour"`
	Values Values    `json:"values"`
}

// MonthDataset is the month-resolution series of one partition.
type MonthDataset struct {
	Entries []MonthSummaryEntry
	Skipped int // rows dropped for lacking a parseable time
}

// DayDataset indexes the day-resolution series of one partition.
// ByMonth and ByDate are derived from Entries at build time.
type DayDataset struct {
	Entries []DaySummaryEntry
	ByMonth map[string][]DaySummaryEntry
	ByDate  map[string]DaySummaryEntry
	Skipped int
}

// HourDataset indexes the hour-resolution series of one partition.
// Each ByDay bucket is sorted ascending by timestamp.
type HourDataset struct {
	Entries []HourSummaryEntry
	ByDay   map[string][]HourSummaryEntry
	Skipped int
}

// EmptyMonthDataset returns a valid dataset with no entries.
func EmptyMonthDataset() MonthDataset {
	return MonthDataset{Entries: []MonthSummaryEntry{}}
}

// EmptyDayDataset returns a valid dataset with no entries and empty indices.
func EmptyDayDataset() DayDataset {
	return DayDataset{
		Entries: []DaySummaryEntry{},
		ByMonth: map[string][]DaySummaryEntry{},
		ByDate:  map[string]DaySummaryEntry{},
	}
}

// EmptyHourDataset returns a valid dataset with no entries and an empty index.
func EmptyHourDataset() HourDataset {
	return HourDataset{
		Entries: []HourSummaryEntry{},
		ByDay:   map[string][]HourSummaryEntry{},
	}
}

const isoTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ISOTimestamp renders t in UTC with millisecond precision, e.g. "2020-02-01T00:00:00.000Z".
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format(isoTimestampLayout)
}

// ISODay renders the UTC calendar day of t as YYYY-MM-DD.
func ISODay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// MonthKey returns the ByMonth storage key for a calendar month. The month
// component is zero-based: MonthKey(2020, time.February) is "2020-01".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%02d", year, int(month)-1)
}
