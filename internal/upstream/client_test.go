package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"railpulse/internal/metrics"

	"github.com/imroc/req/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/thing", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"thing"}`))
	}))
	defer srv.Close()

	m := metrics.NewCollector()
	c := New("test", srv.URL, Options{Headers: map[string]string{"X-Test": "yes"}, Metrics: m})

	var out struct {
		Name string `json:"name"`
	}
	err := c.DoJSON(context.Background(), http.MethodGet, "/api/thing", func(r *req.Request) {
		r.SetQueryParam("id", "42")
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "thing", out.Name)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("test", "ok")))
}

func TestDoStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no such train"}`))
	}))
	defer srv.Close()

	m := metrics.NewCollector()
	c := New("test", srv.URL, Options{Metrics: m})

	_, err := c.Do(context.Background(), http.MethodGet, "/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, map[string]any{"error": "no such train"}, se.Details())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("test", "error")))
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New("test", url, Options{Timeout: time.Second})
	_, err := c.Do(context.Background(), http.MethodGet, "/", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestDoJSONRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	c := New("test", srv.URL, Options{})
	var out map[string]any
	err := c.DoJSON(context.Background(), http.MethodGet, "/", nil, &out)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	lim := NewLimiter(0.001, 1)
	require.NotNil(t, lim)
	c := New("test", srv.URL, Options{Limiter: lim})

	_, err := c.Do(context.Background(), http.MethodGet, "/", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Do(ctx, http.MethodGet, "/", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewLimiterDisabled(t *testing.T) {
	assert.Nil(t, NewLimiter(0, 10))
}

func TestRaw(t *testing.T) {
	raw, err := Raw([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	_, err = Raw([]byte("nope"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
