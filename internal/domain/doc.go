// Package domain models passive acoustic monitoring summaries recorded by
// fixed hydrophone sensors, plus the vessel tracks shown alongside them.
//
// # Data Source
//
// Each sensor deployment (a partition, e.g. "mb01") publishes three CSV
// summaries derived from its detector output:
//
//	mb01/month_level_summary.csv   one row per month
//	mb01/day_level_summary.csv     one row per UTC day
//	mb01/hour_level_summary.csv    one row per UTC hour
//
// Every file has a header row with a time column and zero or more of the nine
// metric columns listed in [MetricColumns]. Other columns are ignored.
//
// # Column Conventions
//
// Time column:
//
//	Exports are inconsistent about the name of the time column. Lookup tries
//	"time", "time " (trailing space) and "Time" in that order; see [timeField].
//	Values are RFC 3339 timestamps, ISO dates, or spreadsheet-style M/D/YYYY.
//	Zoneless values are read as UTC.
//
// Metric columns:
//
//	Detection counts or intensity values as decimal numbers.
//	Empty cells and the literal "null" (any case) mean no data.
//	"0" is a real measurement and stays distinct from no data.
//
// Rows whose time cannot be parsed are dropped without error; the detector
// exports are observational and gaps are expected.
//
// # Indexing
//
// Day datasets are bucketed by "{year}-{month}" where the month is zero-based
// and zero-padded ("2020-01" is February 2020), see [MonthKey]. Hour datasets
// are bucketed by UTC day and each bucket is sorted by timestamp.
//
// # Shipping Trips
//
// Vessel tracks come from a JSON array of {vendor, path, timestamps} records.
// Records whose path and timestamps do not line up are dropped, never
// repaired. See [TransformTrips].
package domain
