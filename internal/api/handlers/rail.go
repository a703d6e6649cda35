package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"railpulse/internal/irctc"
	"railpulse/internal/redbus"
	"railpulse/internal/upstream"

	"github.com/rs/zerolog"
)

// RailFeed is the redbus side of the pass-through endpoints.
type RailFeed interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
	LiveStatusRaw(ctx context.Context, trainNo string) (json.RawMessage, error)
	PNRStatus(ctx context.Context, pnr string) (json.RawMessage, error)
	Schedule(ctx context.Context, trainNo string) (*redbus.Schedule, error)
}

type Compositions interface {
	TrainComposition(ctx context.Context, in irctc.TrainCompositionRequest) (json.RawMessage, error)
	CoachComposition(ctx context.Context, in irctc.CoachCompositionRequest) (json.RawMessage, error)
}

// RailHandler serves the pass-through endpoints: upstream answers are
// forwarded as-is under "data" or "results".
type RailHandler struct {
	feed   RailFeed
	charts Compositions
	logger zerolog.Logger
}

func NewRailHandler(feed RailFeed, charts Compositions, logger zerolog.Logger) *RailHandler {
	return &RailHandler{
		feed:   feed,
		charts: charts,
		logger: logger.With().Str("component", "rail_handler").Logger(),
	}
}

// GET /api/trains/train-search?search={query}
func (h *RailHandler) TrainSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("search"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Search query is required", nil)
		return
	}

	results, err := h.feed.Search(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("train search failed")
		serverError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

// GET /api/trains/live-status?trainNo={no}
func (h *RailHandler) LiveStatus(w http.ResponseWriter, r *http.Request) {
	trainNo := strings.TrimSpace(r.URL.Query().Get("trainNo"))
	if trainNo == "" {
		WriteError(w, http.StatusBadRequest, "trainNo is required", nil)
		return
	}

	data, err := h.feed.LiveStatusRaw(r.Context(), trainNo)
	if err != nil {
		h.logger.Error().Err(err).Str("train_no", trainNo).Msg("live status failed")
		serverError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// POST /api/trains/pnr-status {"pnr": "..."}
func (h *RailHandler) PNRStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PNR string `json:"pnr"`
	}
	if err := DecodeBody(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}
	pnr := strings.TrimSpace(in.PNR)
	if pnr == "" {
		WriteError(w, http.StatusBadRequest, "PNR number is required", nil)
		return
	}

	data, err := h.feed.PNRStatus(r.Context(), pnr)
	if err != nil {
		h.logger.Error().Err(err).Msg("pnr status failed")
		serverError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// POST /api/trains/train-composition
func (h *RailHandler) TrainComposition(w http.ResponseWriter, r *http.Request) {
	var in irctc.TrainCompositionRequest
	if err := DecodeBody(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}
	if !in.Complete() {
		WriteError(w, http.StatusBadRequest, "trainNo, jDate and boardingStation are required", nil)
		return
	}

	data, err := h.charts.TrainComposition(r.Context(), in)
	if err != nil {
		h.logger.Error().Err(err).Str("train_no", in.TrainNo).Msg("train composition failed")
		serverError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// POST /api/trains/train-composition-by-coach
func (h *RailHandler) CoachComposition(w http.ResponseWriter, r *http.Request) {
	var in irctc.CoachCompositionRequest
	if err := DecodeBody(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}
	if !in.Complete() {
		WriteError(w, http.StatusBadRequest, "Missing required fields", nil)
		return
	}

	data, err := h.charts.CoachComposition(r.Context(), in)
	if err != nil {
		h.logger.Error().Err(err).Str("train_no", in.TrainNo).Str("coach", in.Coach).Msg("coach composition failed")
		serverError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// GET /api/trains/schedule?trainNo={no}
// Upstream status codes are propagated; 503 when no answer came back at all.
func (h *RailHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	trainNo := strings.TrimSpace(r.URL.Query().Get("trainNo"))
	if trainNo == "" {
		WriteError(w, http.StatusBadRequest, "trainNo is required", nil)
		return
	}

	s, err := h.feed.Schedule(r.Context(), trainNo)
	if err != nil {
		var se *upstream.StatusError
		switch {
		case errors.Is(err, redbus.ErrNoStations):
			WriteError(w, http.StatusNotFound, "No station data found for this train", nil)
		case errors.As(err, &se):
			h.logger.Warn().Err(err).Str("train_no", trainNo).Msg("schedule upstream error")
			WriteError(w, se.StatusCode, "Failed to fetch train schedule", se.Details())
		case errors.Is(err, upstream.ErrUnavailable):
			h.logger.Warn().Err(err).Str("train_no", trainNo).Msg("schedule upstream unreachable")
			WriteError(w, http.StatusServiceUnavailable, "Service unavailable. Please try again later.", nil)
		default:
			h.logger.Error().Err(err).Str("train_no", trainNo).Msg("schedule failed")
			WriteError(w, http.StatusInternalServerError, "Server Error", err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"trainNo":       trainNo,
		"trainName":     s.TrainName,
		"totalStations": len(s.Stations),
		"stations":      s.Stations,
	})
}
