package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/airquality"
	"github.com/aqidash/aqidash/internal/api/middleware"
	"github.com/aqidash/aqidash/internal/api/models"
	"github.com/aqidash/aqidash/internal/api/response"
	"github.com/aqidash/aqidash/internal/dashboard"
)

// Client-facing error messages.
const (
	MsgCoordinatesRequired = "Latitude and longitude are required"
	MsgCoordinatesInvalid  = "Latitude and longitude must be numbers"
	MsgFetchFailed         = "Failed to fetch air quality data"
)

// DashboardReader produces the combined dashboard reading.
type DashboardReader interface {
	GetCombinedReading(ctx context.Context, coords airquality.Coordinates) (*dashboard.CombinedReading, error)
}

// DashboardHandler handles GET /api/air-quality.
type DashboardHandler struct {
	dashboard DashboardReader
	logger    zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(d DashboardReader, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: d, logger: logger}
}

// GetAirQuality handles GET /api/air-quality?lat=&lon=.
func (h *DashboardHandler) GetAirQuality(w http.ResponseWriter, r *http.Request) {
	coords, ok := parseCoordinates(w, r)
	if !ok {
		return
	}

	reading, err := h.dashboard.GetCombinedReading(r.Context(), coords)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("coords", coords.String()).
			Msg("combined reading failed")
		response.InternalError(w, r, MsgFetchFailed)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, models.NewCombinedReading(reading))
}

// parseCoordinates binds and validates lat/lon, writing a 400 on failure.
func parseCoordinates(w http.ResponseWriter, r *http.Request) (airquality.Coordinates, bool) {
	q := models.AirQualityQuery{
		Lat: r.URL.Query().Get("lat"),
		Lon: r.URL.Query().Get("lon"),
	}

	if fields, missing := validationErrors(q); fields != nil {
		detail := MsgCoordinatesInvalid
		if missing {
			detail = MsgCoordinatesRequired
		}
		response.BadRequest(w, r, detail, fields)
		return airquality.Coordinates{}, false
	}

	lat, latErr := strconv.ParseFloat(q.Lat, 64)
	lon, lonErr := strconv.ParseFloat(q.Lon, 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, MsgCoordinatesInvalid, nil)
		return airquality.Coordinates{}, false
	}

	return airquality.Coordinates{Lat: lat, Lon: lon}, true
}
