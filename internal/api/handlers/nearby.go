package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"railpulse/internal/mapbox"

	"github.com/rs/zerolog"
)

var errCoordsRequired = errors.New("Latitude and Longitude are required")

type StationFinder interface {
	NearbyStations(ctx context.Context, lat, lng float64) ([]mapbox.Station, error)
}

type NearbyHandler struct {
	finder StationFinder
	logger zerolog.Logger
}

func NewNearbyHandler(finder StationFinder, logger zerolog.Logger) *NearbyHandler {
	return &NearbyHandler{finder: finder, logger: logger.With().Str("component", "nearby_handler").Logger()}
}

// POST /api/trains/main {"latitude": 21.15, "longitude": 79.09}
// Coordinates may arrive as numbers or numeric strings.
func (h *NearbyHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Latitude  any `json:"latitude"`
		Longitude any `json:"longitude"`
	}
	if err := DecodeBody(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}

	lat, err := coordinate(in.Latitude, "latitude")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	lng, err := coordinate(in.Longitude, "longitude")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		WriteError(w, http.StatusBadRequest, "invalid coordinates", nil)
		return
	}

	stations, err := h.finder.NearbyStations(r.Context(), lat, lng)
	if err != nil {
		h.logger.Error().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("nearby search failed")
		serverError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(stations),
		"stations": stations,
	})
}

func coordinate(v any, name string) (float64, error) {
	switch c := v.(type) {
	case nil:
		return 0, errCoordsRequired
	case float64:
		return c, nil
	case string:
		if strings.TrimSpace(c) == "" {
			return 0, errCoordsRequired
		}
		return parseFloat(strings.TrimSpace(c), name)
	default:
		return 0, errors.New("invalid " + name)
	}
}

// Helper to parse float from a request field
func parseFloat(s, name string) (float64, error) {
	if s == "" {
		return 0, errors.New(name + " is required")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return f, nil
}
