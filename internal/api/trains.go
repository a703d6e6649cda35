package api

import (
	"net/http"
	"strings"

	"railpulse/internal/api/handlers"
	"railpulse/internal/eta"
	"railpulse/internal/ist"
)

type routeRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
	Doj string `json:"doj"`
}

type upcomingResponse struct {
	Success             bool                `json:"success"`
	CurrentCivilInstant string              `json:"currentCivilInstant"`
	TotalUpcoming       int                 `json:"totalUpcoming"`
	Trains              []eta.UpcomingTrain `json:"trains"`
}

type nextTrain struct {
	TrainNumber      string           `json:"trainNumber"`
	TrainName        string           `json:"trainName"`
	Src              string           `json:"src"`
	ScheduledArrival string           `json:"scheduledArrival"`
	Live             eta.LiveEstimate `json:"live"`
}

type nextResponse struct {
	Success             bool       `json:"success"`
	CurrentCivilInstant string     `json:"currentCivilInstant,omitempty"`
	Message             string     `json:"message,omitempty"`
	Train               *nextTrain `json:"train,omitempty"`
}

// readRoute decodes and validates {src, dst, doj}. On failure the 400 has
// already been written.
func readRoute(w http.ResponseWriter, r *http.Request) (routeRequest, bool) {
	var in routeRequest
	if err := handlers.DecodeBody(r, &in); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return in, false
	}
	in.Src = strings.ToUpper(strings.TrimSpace(in.Src))
	in.Dst = strings.ToUpper(strings.TrimSpace(in.Dst))
	in.Doj = strings.TrimSpace(in.Doj)

	if in.Src == "" || in.Dst == "" || in.Doj == "" {
		handlers.WriteError(w, http.StatusBadRequest, "src, dst and doj are required", nil)
		return in, false
	}
	if _, err := ist.ParseDate(in.Doj); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid doj", err.Error())
		return in, false
	}
	return in, true
}

func (s *Server) candidates(w http.ResponseWriter, r *http.Request, in routeRequest) ([]eta.TrainCandidate, bool) {
	candidates, err := s.deps.Search.SearchBetween(r.Context(), in.Src, in.Dst, in.Doj)
	if err != nil {
		s.logger.Error().Err(err).Str("src", in.Src).Str("dst", in.Dst).Str("doj", in.Doj).Msg("train search failed")
		handlers.WriteError(w, http.StatusInternalServerError, "Server Error", handlers.ErrorDetails(err))
		return nil, false
	}
	return candidates, true
}

// POST /api/trains/upcoming {"src": "NGP", "dst": "BPL", "doj": "27-01-2026"}
func (s *Server) upcomingHandler(w http.ResponseWriter, r *http.Request) {
	in, ok := readRoute(w, r)
	if !ok {
		return
	}
	now := ist.Now(s.deps.Clock)

	candidates, ok := s.candidates(w, r, in)
	if !ok {
		return
	}

	trains := s.deps.Ranker.Upcoming(r.Context(), candidates, eta.Route{Src: in.Src, Dst: in.Dst}, now)
	handlers.WriteJSON(w, http.StatusOK, upcomingResponse{
		Success:             true,
		CurrentCivilInstant: ist.Stamp(now),
		TotalUpcoming:       len(trains),
		Trains:              trains,
	})
}

// POST /api/trains/next {"src": "NGP", "dst": "BPL", "doj": "27-01-2026"}
func (s *Server) nextHandler(w http.ResponseWriter, r *http.Request) {
	in, ok := readRoute(w, r)
	if !ok {
		return
	}
	now := ist.Now(s.deps.Clock)

	candidates, ok := s.candidates(w, r, in)
	if !ok {
		return
	}

	best := s.deps.Ranker.Next(r.Context(), candidates, eta.Route{Src: in.Src, Dst: in.Dst}, now)
	if best == nil {
		handlers.WriteJSON(w, http.StatusOK, nextResponse{Success: true, Message: "no upcoming trains found"})
		return
	}

	scheduled := best.Train.ArrivalTime
	if scheduled == "" {
		scheduled = best.Train.DepartureTime
	}
	handlers.WriteJSON(w, http.StatusOK, nextResponse{
		Success:             true,
		CurrentCivilInstant: ist.Stamp(now),
		Train: &nextTrain{
			TrainNumber:      best.Train.TrainNumber,
			TrainName:        best.Train.TrainName,
			Src:              in.Src,
			ScheduledArrival: scheduled,
			Live:             best.Live,
		},
	})
}
