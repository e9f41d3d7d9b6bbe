package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timeColumns lists the accepted spellings of the time column, in lookup order.
var timeColumns = [...]string{"time", "time ", "Time"}

// dateLayouts are tried in order by ParseDate. Layouts without a zone parse as UTC.
var dateLayouts = [...]string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006-01",
	"2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// ParseValue converts a metric cell to a nullable number. Empty cells, the
// literal "null" in any case, and non-numeric text all yield nil.
func ParseValue(raw string) *float64 {
	text := strings.TrimSpace(raw)
	if text == "" || strings.EqualFold(text, "null") {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ParseDate converts a time cell to a UTC timestamp. It reports false when
// the cell is empty or matches none of the accepted layouts.
func ParseDate(raw string) (time.Time, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// timeField resolves the time cell of a row, tolerating the column name
// variants seen in detector exports. The first column present wins.
func timeField(row map[string]string) (string, bool) {
	for _, col := range timeColumns {
		if v, ok := row[col]; ok {
			return v, true
		}
	}
	return "", false
}

// parseValues reads every metric column of a row. Absent columns are nil.
func parseValues(row map[string]string) Values {
	values := make(Values, len(MetricColumns))
	for _, key := range MetricColumns {
		values[key] = ParseValue(row[string(key)])
	}
	return values
}
