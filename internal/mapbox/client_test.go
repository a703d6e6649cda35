package mapbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"railpulse/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forwardFixture = `{"features":[
  {"properties":{"feature_type":"poi","name":"Nagpur Junction","full_address":"Station Rd, Nagpur","distance":1234,"coordinates":{"latitude":21.1522,"longitude":79.0882}}},
  {"properties":{"feature_type":"street","name":"Railway Colony Rd","coordinates":{"latitude":21.1,"longitude":79.1}}},
  {"properties":{"feature_type":"poi","name":"Ajni","place_formatted":"Ajni, Nagpur","coordinates":{"latitude":21.12,"longitude":79.07}}}
]}`

func TestNearbyStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, forwardPath, r.URL.Path)
		assert.Equal(t, "Railway", q.Get("q"))
		assert.Equal(t, "79.0882,21.1458", q.Get("proximity"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "tok", q.Get("access_token"))
		_, _ = w.Write([]byte(forwardFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", upstream.Options{})
	got, err := c.NearbyStations(context.Background(), 21.1458, 79.0882)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, Station{
		Name:     "Nagpur Junction",
		Address:  "Station Rd, Nagpur",
		Location: Location{Latitude: 21.1522, Longitude: 79.0882},
		Distance: "1.23 km",
	}, got[0])
	assert.Equal(t, "Ajni, Nagpur", got[1].Address)
	assert.Equal(t, "Unknown", got[1].Distance)
}

func TestNearbyStationsNoHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, "", upstream.Options{}).NearbyStations(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
