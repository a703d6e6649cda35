package redbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"railpulse/internal/eta"
	"railpulse/internal/ist"
	"railpulse/internal/upstream"

	"github.com/imroc/req/v3"
)

const (
	searchPath  = "/railways/api/SolrTrainSearch"
	betweenPath = "/railways/api/getTrainsBetweenStations"
	ltsPath     = "/railways/api/getLtsDetails"
	pnrPath     = "/rails/api/getPnrToolKitData"
)

// ErrNoStations is returned by Schedule when the feed lists no usable stops.
var ErrNoStations = errors.New("no station data found for this train")

// Client talks to the redbus rail endpoints: station-pair search, free-text
// search, live status and PNR.
type Client struct {
	search *upstream.Client
	live   *upstream.Client
	pnr    *upstream.Client
}

// NewClient splits traffic per endpoint family so metrics tell them apart.
func NewClient(baseURL string, opts upstream.Options) *Client {
	return &Client{
		search: upstream.New("redbus_search", baseURL, opts),
		live:   upstream.New("redbus_live", baseURL, opts),
		pnr:    upstream.New("redbus_pnr", baseURL, opts),
	}
}

// SearchBetween lists trains serving src -> dst on doj.
func (c *Client) SearchBetween(ctx context.Context, src, dst, doj string) ([]eta.TrainCandidate, error) {
	day, err := ist.ParseDate(doj)
	if err != nil {
		return nil, err
	}

	var resp betweenResponse
	err = c.search.DoJSON(ctx, http.MethodGet, betweenPath, func(r *req.Request) {
		r.SetQueryParams(map[string]string{
			"src": strings.ToUpper(src),
			"dst": strings.ToUpper(dst),
			"doj": day.Format("20060102"),
		})
	}, &resp)
	if err != nil {
		return nil, err
	}

	candidates := make([]eta.TrainCandidate, 0, len(resp.TrainBtwnStnsList))
	for _, t := range resp.TrainBtwnStnsList {
		date := t.DepartureDate
		if date == "" {
			date = day.Format("02-01-2006")
		}
		candidates = append(candidates, eta.TrainCandidate{
			TrainNumber:   t.TrainNumber,
			TrainName:     t.TrainName,
			DepartureDate: date,
			DepartureTime: t.DepartureTime,
			ArrivalTime:   t.ArrivalTime,
		})
	}
	return candidates, nil
}

// Search is the free-text train search; the upstream "response" member is
// returned untouched.
func (c *Client) Search(ctx context.Context, query string) (json.RawMessage, error) {
	var resp struct {
		Response json.RawMessage `json:"response"`
	}
	err := c.search.DoJSON(ctx, http.MethodGet, searchPath, func(r *req.Request) {
		r.SetQueryParam("search", query)
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Response == nil {
		return json.RawMessage("null"), nil
	}
	return resp.Response, nil
}

// LiveStatusRaw returns the live status document as-is.
func (c *Client) LiveStatusRaw(ctx context.Context, trainNo string) (json.RawMessage, error) {
	body, err := c.live.Do(ctx, http.MethodGet, ltsPath, func(r *req.Request) {
		r.SetQueryParam("trainNo", trainNo)
	})
	if err != nil {
		return nil, err
	}
	return upstream.Raw(body)
}

func (c *Client) LiveStatus(ctx context.Context, trainNo string) (*LTSResponse, error) {
	var resp LTSResponse
	err := c.live.DoJSON(ctx, http.MethodGet, ltsPath, func(r *req.Request) {
		r.SetQueryParam("trainNo", trainNo)
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchProgress implements eta.ProgressFetcher; the live status endpoint is
// keyed by train number only.
func (c *Client) FetchProgress(ctx context.Context, q eta.ProgressQuery) (eta.Progress, error) {
	lts, err := c.LiveStatus(ctx, q.TrainNumber)
	if err != nil {
		return eta.Progress{}, fmt.Errorf("live status %s: %w", q.TrainNumber, err)
	}
	return lts.Progress(), nil
}

// Progress maps the feed onto estimator rows.
func (l *LTSResponse) Progress() eta.Progress {
	rows := make([]eta.StationProgress, 0, len(l.Stations))
	for _, s := range l.Stations {
		rows = append(rows, eta.StationProgress{
			StationCode: s.StationCode,
			StationName: s.StationName,
			HasDeparted: s.HasDeparted,
			HasArrived:  s.HasArrived,
			OriginDst:   s.OriginDst,
			AvgDelay:    s.AvgDelay,
		})
	}
	return eta.Progress{
		Stations:       rows,
		TotalLateMins:  l.TotalLateMins,
		CurrentStation: l.CurrentStationName,
	}
}

// Schedule reduces the live feed to the train's station list, dropping rows
// without both a name and a code.
func (c *Client) Schedule(ctx context.Context, trainNo string) (*Schedule, error) {
	lts, err := c.LiveStatus(ctx, trainNo)
	if err != nil {
		return nil, err
	}

	stops := []ScheduleStop{}
	for _, s := range lts.Stations {
		if s.StationName == "" || s.StationCode == "" {
			continue
		}
		stops = append(stops, ScheduleStop{StationName: s.StationName, StationCode: s.StationCode})
	}
	if len(lts.Stations) == 0 {
		return nil, ErrNoStations
	}
	return &Schedule{TrainNo: trainNo, TrainName: lts.TrainName, Stations: stops}, nil
}

// PNRStatus posts the PNR (no mobile number) and passes the answer through.
func (c *Client) PNRStatus(ctx context.Context, pnr string) (json.RawMessage, error) {
	body, err := c.pnr.Do(ctx, http.MethodPost, pnrPath, func(r *req.Request) {
		r.SetBodyJsonMarshal(map[string]string{"pnr": pnr})
	})
	if err != nil {
		return nil, err
	}
	return upstream.Raw(body)
}
