// Package upstream is the shared HTTP plumbing behind every third-party rail
// API collaborator. Each collaborator gets its own req client; they share one
// rate limiter.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"railpulse/internal/metrics"

	"github.com/imroc/req/v3"
	"golang.org/x/time/rate"
)

// ErrUnavailable marks any failure to get a usable answer from upstream.
var ErrUnavailable = errors.New("upstream unavailable")

// StatusError is returned when upstream answered with a non-2xx status.
type StatusError struct {
	Collaborator string
	StatusCode   int
	Body         []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code %d", e.Collaborator, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUnavailable }

// Details is the upstream body, decoded when it is JSON.
func (e *StatusError) Details() any {
	var v any
	if err := json.Unmarshal(e.Body, &v); err == nil {
		return v
	}
	return string(e.Body)
}

type Options struct {
	Timeout  time.Duration
	ProxyURL string
	Headers  map[string]string
	Limiter  *rate.Limiter
	Metrics  *metrics.Collector
}

type Client struct {
	name    string
	http    *req.Client
	limiter *rate.Limiter
	metrics *metrics.Collector
}

func New(name, baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	// single persistent client per collaborator (cookies, headers, TLS fingerprint stay consistent)
	hc := req.C().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetCommonHeader("Accept", "application/json")
	if opts.ProxyURL != "" {
		hc.SetProxyURL(opts.ProxyURL)
	}
	for k, v := range opts.Headers {
		hc.SetCommonHeader(k, v)
	}

	return &Client{
		name:    name,
		http:    hc,
		limiter: opts.Limiter,
		metrics: opts.Metrics,
	}
}

func (c *Client) Name() string { return c.name }

// Do sends one request and returns the raw body of a 2xx answer. build may
// set query params, headers and body on the request.
func (c *Client) Do(ctx context.Context, method, path string, build func(r *req.Request)) ([]byte, error) {
	body, err := c.do(ctx, method, path, build)
	c.metrics.ObserveUpstream(c.name, err)
	return body, err
}

func (c *Client) do(ctx context.Context, method, path string, build func(r *req.Request)) ([]byte, error) {
	// Rate limiting
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", c.name, ErrUnavailable, err)
		}
	}

	r := c.http.R().SetContext(ctx)
	if build != nil {
		build(r)
	}

	resp, err := r.Send(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", c.name, ErrUnavailable, err)
	}

	body := resp.Bytes()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Collaborator: c.name, StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// DoJSON is Do followed by decoding the body into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, build func(r *req.Request), out any) error {
	body, err := c.Do(ctx, method, path, build)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %w", c.name, ErrUnavailable, err)
	}
	return nil
}

// Raw decodes body as arbitrary JSON so it can be passed through unchanged.
func Raw(body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUnavailable)
	}
	return json.RawMessage(body), nil
}

// NewLimiter builds the limiter shared by all collaborators; a non-positive
// rate disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
