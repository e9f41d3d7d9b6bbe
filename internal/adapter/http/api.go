package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/dataset"
	"github.com/couchcryptid/soundscape-data/internal/domain"
)

// Datasets is the read side of the summary datasets.
type Datasets interface {
	MonthSummary(ctx context.Context, sensorID string) []domain.MonthSummaryEntry
	DaySummary(ctx context.Context, sensorID string, month time.Month, opts ...dataset.DayOption) []domain.DaySummaryEntry
	DaySummaryByDate(ctx context.Context, sensorID, isoDay string) (domain.DaySummaryEntry, bool)
	HourSummary(ctx context.Context, sensorID string, date time.Time) []domain.HourSummaryEntry
}

// Trips serves the shipping trips dataset.
type Trips interface {
	Load(ctx context.Context) domain.ShippingTripsDataset
}

// API serves the dashboard's JSON endpoints under /api/v1.
type API struct {
	datasets Datasets
	trips    Trips
	sensors  *domain.SensorRegistry
	logger   *slog.Logger
}

// NewAPI creates the API handlers.
func NewAPI(datasets Datasets, trips Trips, sensors *domain.SensorRegistry, logger *slog.Logger) *API {
	return &API{datasets: datasets, trips: trips, sensors: sensors, logger: logger}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/sensors", a.handleSensors)
	mux.HandleFunc("GET /api/v1/colors", a.handleColors)
	mux.HandleFunc("GET /api/v1/sensors/{id}/months", a.handleMonths)
	mux.HandleFunc("GET /api/v1/sensors/{id}/days", a.handleDays)
	mux.HandleFunc("GET /api/v1/sensors/{id}/days/{day}", a.handleDay)
	mux.HandleFunc("GET /api/v1/sensors/{id}/hours", a.handleHours)
	mux.HandleFunc("GET /api/v1/trips", a.handleTrips)
}

type colorsResponse struct {
	SoundTypes map[domain.MetricKey]string `json:"soundTypes"`
	Ship       [4]uint8                    `json:"ship"`
}

func (a *API) handleColors(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, colorsResponse{SoundTypes: domain.SoundTypeColors, Ship: domain.ShipColorRGBA})
}

func (a *API) handleSensors(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.sensors.Sensors())
}

func (a *API) handleMonths(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.datasets.MonthSummary(r.Context(), r.PathValue("id")))
}

func (a *API) handleDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		a.writeError(w, http.StatusBadRequest, "month must be an integer from 1 to 12")
		return
	}
	var opts []dataset.DayOption
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, "year must be an integer")
			return
		}
		opts = append(opts, dataset.WithYear(year))
	}
	a.writeJSON(w, http.StatusOK, a.datasets.DaySummary(r.Context(), r.PathValue("id"), time.Month(month), opts...))
}

func (a *API) handleDay(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.datasets.DaySummaryByDate(r.Context(), r.PathValue("id"), r.PathValue("day"))
	if !ok {
		a.writeError(w, http.StatusNotFound, "no summary for day")
		return
	}
	a.writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleHours(w http.ResponseWriter, r *http.Request) {
	date, ok := domain.ParseDate(r.URL.Query().Get("date"))
	if !ok {
		a.writeError(w, http.StatusBadRequest, "date must be a calendar date such as 2020-02-03")
		return
	}
	a.writeJSON(w, http.StatusOK, a.datasets.HourSummary(r.Context(), r.PathValue("id"), date))
}

func (a *API) handleTrips(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.trips.Load(r.Context()))
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes v before writing the status so an encoding failure can
// still be reported as a 500.
func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		a.logger.Error("encode response failed", "status", status, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}
