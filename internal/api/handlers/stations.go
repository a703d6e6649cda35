package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"railpulse/internal/db"

	"github.com/rs/zerolog"
)

type StationDirectory interface {
	LookupStation(ctx context.Context, name string) (*db.Station, error)
	SearchStations(ctx context.Context, prefix string, limit int) ([]db.Station, error)
}

type StationHandler struct {
	directory StationDirectory
	logger    zerolog.Logger
}

func NewStationHandler(directory StationDirectory, logger zerolog.Logger) *StationHandler {
	return &StationHandler{directory: directory, logger: logger.With().Str("component", "station_handler").Logger()}
}

// GET /api/stations/lookup?name={name}
func (h *StationHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		WriteError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	st, err := h.directory.LookupStation(r.Context(), name)
	if errors.Is(err, db.ErrStationNotFound) {
		WriteError(w, http.StatusNotFound, "station not found", nil)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("station lookup failed")
		WriteError(w, http.StatusInternalServerError, "Server Error", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "station": st})
}

// GET /api/stations/search?q={prefix}
func (h *StationHandler) Search(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		WriteError(w, http.StatusBadRequest, "q is required", nil)
		return
	}

	stations, err := h.directory.SearchStations(r.Context(), prefix, 10)
	if err != nil {
		h.logger.Error().Err(err).Str("prefix", prefix).Msg("station search failed")
		WriteError(w, http.StatusInternalServerError, "Server Error", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(stations), "stations": stations})
}
