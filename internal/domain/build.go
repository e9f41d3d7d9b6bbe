package domain

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readRows parses delimiter-separated text with a header row into one map per
// data row, keyed by header name. Short rows leave trailing columns absent.
func readRows(raw []byte) ([]map[string]string, error) {
	raw = bytes.TrimPrefix(bytes.TrimSpace(raw), utf8BOM)
	if len(raw) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// BuildMonthDataset parses a month-level summary CSV into a flat series.
func BuildMonthDataset(raw []byte) (MonthDataset, error) {
	rows, err := readRows(raw)
	if err != nil {
		return MonthDataset{}, err
	}

	ds := MonthDataset{Entries: make([]MonthSummaryEntry, 0, len(rows))}
	for _, row := range rows {
		cell, _ := timeField(row)
		date, ok := ParseDate(cell)
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Entries = append(ds.Entries, MonthSummaryEntry{
			Date:    date,
			ISODate: ISOTimestamp(date),
			Values:  parseValues(row),
		})
	}
	return ds, nil
}

// BuildDayDataset parses a day-level summary CSV and indexes it by month and
// by calendar day. On duplicate days ByDate keeps the first row in source order.
func BuildDayDataset(raw []byte) (DayDataset, error) {
	rows, err := readRows(raw)
	if err != nil {
		return DayDataset{}, err
	}

	ds := EmptyDayDataset()
	ds.Entries = make([]DaySummaryEntry, 0, len(rows))
	for _, row := range rows {
		cell, _ := timeField(row)
		date, ok := ParseDate(cell)
		if !ok {
			ds.Skipped++
			continue
		}
		entry := DaySummaryEntry{
			Date:   date,
			ISODay: ISODay(date),
			Values: parseValues(row),
		}
		ds.Entries = append(ds.Entries, entry)

		monthKey := MonthKey(date.Year(), date.Month())
		ds.ByMonth[monthKey] = append(ds.ByMonth[monthKey], entry)
		if _, seen := ds.ByDate[entry.ISODay]; !seen {
			ds.ByDate[entry.ISODay] = entry
		}
	}
	return ds, nil
}

// BuildHourDataset parses an hour-level summary CSV and buckets it by UTC day.
// Source order is not assumed sorted; each bucket is sorted after the pass.
func BuildHourDataset(raw []byte) (HourDataset, error) {
	rows, err := readRows(raw)
	if err != nil {
		return HourDataset{}, err
	}

	ds := EmptyHourDataset()
	ds.Entries = make([]HourSummaryEntry, 0, len(rows))
	for _, row := range rows {
		cell, _ := timeField(row)
		date, ok := ParseDate(cell)
		if !ok {
			ds.Skipped++
			continue
		}
		entry := HourSummaryEntry{
			Date:   date,
			ISODay: ISODay(date),
			Hour:   date.Hour(),
			Values: parseValues(row),
		}
		ds.Entries = append(ds.Entries, entry)
		ds.ByDay[entry.ISODay] = append(ds.ByDay[entry.ISODay], entry)
	}

	for _, hours := range ds.ByDay {
		slices.SortStableFunc(hours, func(a, b HourSummaryEntry) int {
			return a.Date.Compare(b.Date)
		})
	}
	return ds, nil
}
