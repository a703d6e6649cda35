package mapbox

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"railpulse/internal/upstream"

	"github.com/imroc/req/v3"
)

const forwardPath = "/search/searchbox/v1/forward"

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Station is a railway point of interest near the rider.
type Station struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Location Location `json:"location"`
	Distance string   `json:"distance"`
}

type forwardResponse struct {
	Features []struct {
		Properties struct {
			FeatureType    string   `json:"feature_type"`
			Name           string   `json:"name"`
			FullAddress    string   `json:"full_address"`
			PlaceFormatted string   `json:"place_formatted"`
			Distance       *float64 `json:"distance"`
			Coordinates    Location `json:"coordinates"`
		} `json:"properties"`
	} `json:"features"`
}

type Client struct {
	http  *upstream.Client
	token string
	limit int
}

func NewClient(baseURL, token string, opts upstream.Options) *Client {
	return &Client{
		http:  upstream.New("mapbox", baseURL, opts),
		token: token,
		limit: 5,
	}
}

// NearbyStations searches "Railway" around (lat, lng) and keeps POI hits.
func (c *Client) NearbyStations(ctx context.Context, lat, lng float64) ([]Station, error) {
	var resp forwardResponse
	err := c.http.DoJSON(ctx, http.MethodGet, forwardPath, func(r *req.Request) {
		r.SetQueryParams(map[string]string{
			"q":            "Railway",
			"proximity":    fmt.Sprintf("%s,%s", formatCoord(lng), formatCoord(lat)), // lng,lat
			"limit":        strconv.Itoa(c.limit),
			"access_token": c.token,
		})
	}, &resp)
	if err != nil {
		return nil, err
	}

	stations := []Station{}
	for _, f := range resp.Features {
		p := f.Properties
		if p.FeatureType != "poi" {
			continue
		}
		address := p.FullAddress
		if address == "" {
			address = p.PlaceFormatted
		}
		distance := "Unknown"
		if p.Distance != nil && *p.Distance != 0 {
			distance = fmt.Sprintf("%.2f km", *p.Distance/1000)
		}
		stations = append(stations, Station{
			Name:     p.Name,
			Address:  address,
			Location: p.Coordinates,
			Distance: distance,
		})
	}
	return stations, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
