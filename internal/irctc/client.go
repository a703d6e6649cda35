package irctc

import (
	"context"
	"encoding/json"
	"net/http"

	"railpulse/internal/upstream"

	"github.com/imroc/req/v3"
)

const (
	trainCompositionPath = "/online-charts/api/trainComposition"
	coachCompositionPath = "/online-charts/api/coachComposition"
)

type TrainCompositionRequest struct {
	TrainNo         string `json:"trainNo"`
	JDate           string `json:"jDate"`
	BoardingStation string `json:"boardingStation"`
}

func (r TrainCompositionRequest) Complete() bool {
	return r.TrainNo != "" && r.JDate != "" && r.BoardingStation != ""
}

type CoachCompositionRequest struct {
	TrainNo            string `json:"trainNo"`
	BoardingStation    string `json:"boardingStation"`
	RemoteStation      string `json:"remoteStation"`
	TrainSourceStation string `json:"trainSourceStation"`
	JDate              string `json:"jDate"`
	Coach              string `json:"coach"`
	Cls                string `json:"cls"`
}

func (r CoachCompositionRequest) Complete() bool {
	return r.TrainNo != "" && r.BoardingStation != "" && r.RemoteStation != "" &&
		r.TrainSourceStation != "" && r.JDate != "" && r.Coach != "" && r.Cls != ""
}

// Client fetches reservation chart compositions.
type Client struct {
	http *upstream.Client
}

// NewClient sets the browser-like headers the charts endpoints insist on.
func NewClient(baseURL string, opts upstream.Options) *Client {
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0",
		"Referer":    "https://www.irctc.co.in/",
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	opts.Headers = headers
	return &Client{http: upstream.New("irctc", baseURL, opts)}
}

func (c *Client) TrainComposition(ctx context.Context, in TrainCompositionRequest) (json.RawMessage, error) {
	return c.post(ctx, trainCompositionPath, in)
}

func (c *Client) CoachComposition(ctx context.Context, in CoachCompositionRequest) (json.RawMessage, error) {
	return c.post(ctx, coachCompositionPath, in)
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := c.http.Do(ctx, http.MethodPost, path, func(r *req.Request) {
		r.SetBodyJsonMarshal(payload)
	})
	if err != nil {
		return nil, err
	}
	return upstream.Raw(body)
}
