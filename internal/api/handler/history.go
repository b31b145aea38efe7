package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/api/middleware"
	"github.com/aqidash/aqidash/internal/api/models"
	"github.com/aqidash/aqidash/internal/api/response"
	"github.com/aqidash/aqidash/internal/history"
)

// HistoryLister lists recorded snapshots near a location.
type HistoryLister interface {
	List(ctx context.Context, lat, lon float64, limit int) ([]*history.Snapshot, error)
}

// HistoryHandler handles GET /api/history.
type HistoryHandler struct {
	history HistoryLister
	logger  zerolog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(h HistoryLister, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{history: h, logger: logger}
}

// ListHistory handles GET /api/history?lat=&lon=&limit=.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	q := models.HistoryQuery{
		Lat:   r.URL.Query().Get("lat"),
		Lon:   r.URL.Query().Get("lon"),
		Limit: r.URL.Query().Get("limit"),
	}

	if fields, missing := validationErrors(q); fields != nil {
		detail := "Invalid history query"
		if missing {
			detail = MsgCoordinatesRequired
		}
		response.BadRequest(w, r, detail, fields)
		return
	}

	lat, latErr := strconv.ParseFloat(q.Lat, 64)
	lon, lonErr := strconv.ParseFloat(q.Lon, 64)
	limit := 0
	var limitErr error
	if q.Limit != "" {
		limit, limitErr = strconv.Atoi(q.Limit)
	}
	if latErr != nil || lonErr != nil || limitErr != nil {
		response.BadRequest(w, r, "Invalid history query", nil)
		return
	}

	snaps, err := h.history.List(r.Context(), lat, lon, limit)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("list history failed")
		response.InternalError(w, r, "Failed to load history")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewHistoryResponse(lat, lon, snaps))
}
