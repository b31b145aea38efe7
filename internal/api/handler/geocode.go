package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/aqidash/aqidash/internal/api/models"
	"github.com/aqidash/aqidash/internal/api/response"
	"github.com/aqidash/aqidash/internal/geocode"
)

// MsgQueryTooShort is returned when a city search query is too short.
const MsgQueryTooShort = "Query must be at least 2 characters"

// Geocoder resolves coordinates to names and searches cities. Neither method
// fails; degraded lookups return the unknown label or an empty list.
type Geocoder interface {
	Search(ctx context.Context, query string) []geocode.City
	Reverse(ctx context.Context, lat, lon float64) string
}

// GeocodeHandler handles geocoding endpoints.
type GeocodeHandler struct {
	geocoder Geocoder
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(g Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: g}
}

// ReverseGeocode handles GET /api/geocode?lat=&lon=.
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	coords, ok := parseCoordinates(w, r)
	if !ok {
		return
	}

	city := h.geocoder.Reverse(r.Context(), coords.Lat, coords.Lon)
	response.JSON(w, r, http.StatusOK, models.GeocodeResponse{City: city})
}

// SearchCities handles GET /api/cities/search?q=. Surrounding whitespace is
// not part of the query.
func (h *GeocodeHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	q := models.CitySearchQuery{Q: strings.TrimSpace(r.URL.Query().Get("q"))}

	if fields, _ := validationErrors(q); fields != nil {
		response.BadRequest(w, r, MsgQueryTooShort, fields)
		return
	}

	cities := h.geocoder.Search(r.Context(), q.Q)
	response.JSON(w, r, http.StatusOK, models.NewCities(cities))
}
