package wimt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"railpulse/internal/eta"
	"railpulse/internal/ist"
	"railpulse/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liveFixture = `{
  "running_status": "running",
  "train_name": "Maharashtra Express",
  "curStn": "WR",
  "delay": 17.6,
  "departed": true,
  "days_schedule": [
    {"station_code": "G",   "station_name": "Gondia Jn", "distance": 0,   "departed": true, "delay_in_departure": 5},
    {"station_code": "WR",  "station_name": "Wardha Jn", "distance": 210, "departed": true, "actual_arrival_tm": 1769500000, "delay_in_departure": 20},
    {"station_code": "NGP", "distance": 289},
    {"station_code": "BPL", "station_name": "Bhopal Jn", "distance": 640}
  ]
}`

func TestGenerateWIDIsDeterministic(t *testing.T) {
	a := generateWID(staticUID, appVersion, "q", "11040", "NGP", "BPL", "27-01-2026", "1")
	b := generateWID(staticUID, appVersion, "q", "11040", "NGP", "BPL", "27-01-2026", "1")
	c := generateWID(staticUID, appVersion, "r", "11040", "NGP", "BPL", "27-01-2026", "1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateHexID(t *testing.T) {
	id, err := generateHexID(16)
	require.NoError(t, err)
	assert.Len(t, id, 32)
}

func TestPadTrainNo(t *testing.T) {
	assert.Equal(t, "01234", padTrainNo("1234"))
	assert.Equal(t, "11040", padTrainNo("11040"))
	assert.Equal(t, "0123A", padTrainNo("0123A"))
}

func TestDecodeClassifies(t *testing.T) {
	_, err := Decode([]byte(`"Train is not running on this date"`))
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = Decode([]byte(`"oops"`))
	assert.ErrorIs(t, err, upstream.ErrUnavailable)

	static := `{"train_name":"Maharashtra Express","days_schedule":[` + strings.Repeat(`{"station_code":"X","distance":1},`, 10) + `{"station_code":"Y","distance":2}]}`
	_, err = Decode([]byte(static))
	assert.ErrorIs(t, err, ErrStaticResponse)

	status, err := Decode([]byte(liveFixture))
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status())
}

func TestProgressMapping(t *testing.T) {
	status, err := Decode([]byte(liveFixture))
	require.NoError(t, err)

	p := status.Progress()
	require.Len(t, p.Stations, 4)
	assert.Equal(t, "WR", p.CurrentStation)
	require.NotNil(t, p.TotalLateMins)
	assert.Equal(t, 18, *p.TotalLateMins)

	wr := p.Stations[1]
	assert.True(t, wr.HasDeparted)
	assert.True(t, wr.HasArrived)
	require.NotNil(t, wr.AvgDelay)
	assert.Equal(t, 20.0, *wr.AvgDelay)

	ngp := p.Stations[2]
	assert.Equal(t, "NGP", ngp.StationName)
	assert.False(t, ngp.HasDeparted)
	assert.False(t, ngp.HasArrived)
	assert.Nil(t, ngp.AvgDelay)
	assert.Equal(t, 289.0, *ngp.OriginDst)
	assert.Equal(t, 640.0, *p.Stations[3].OriginDst)

	// feeds straight into the estimator: 79km at max(40, 110-20) km/h
	now := time.Date(2026, 1, 27, 10, 0, 0, 0, ist.Location)
	est, reason := eta.Estimate(p, "NGP", now, eta.DelayAdjusted)
	require.Equal(t, eta.SkipNone, reason)
	assert.Equal(t, 79.0, est.RemainingDistanceKm)
	assert.Equal(t, 53, *est.EtaMinutes)
}

func TestFetchProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, liveStatusPath, r.URL.Path)
		assert.Equal(t, "01040", q.Get("train_no"))
		assert.Equal(t, "27-01-2026", q.Get("date"))
		assert.Equal(t, "NGP", q.Get("from"))
		assert.Equal(t, "BPL", q.Get("to"))
		assert.NotEmpty(t, q.Get("wid"))
		assert.Equal(t, "com.whereismytrain.android", r.Header.Get("X-Requested-With"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "Dalvik/"))
		_, _ = w.Write([]byte(liveFixture))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, upstream.Options{})
	p, err := c.FetchProgress(context.Background(), eta.ProgressQuery{
		TrainNumber:   "1040",
		Src:           "NGP",
		Dst:           "BPL",
		DepartureDate: "20260127",
	})
	require.NoError(t, err)
	assert.Len(t, p.Stations, 4)
}

func TestFetchProgressBadDate(t *testing.T) {
	c := NewAPIClient("http://127.0.0.1:1", upstream.Options{})
	_, err := c.FetchProgress(context.Background(), eta.ProgressQuery{TrainNumber: "11040", DepartureDate: "soon"})
	assert.ErrorIs(t, err, ist.ErrMalformedTimestamp)
}
