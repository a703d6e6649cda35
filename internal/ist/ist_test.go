package ist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNowIsIST(t *testing.T) {
	fixed := time.Date(2026, 1, 27, 2, 0, 0, 0, time.UTC)
	now := Now(func() time.Time { return fixed })

	assert.True(t, now.Equal(fixed))
	_, offset := now.Zone()
	assert.Equal(t, 19800, offset)
	assert.Equal(t, "07:30", now.Format("15:04"))
}

func TestNowDefaultsToWallClock(t *testing.T) {
	before := time.Now()
	now := Now(nil)
	assert.False(t, now.Before(before.Add(-time.Second)))
	assert.Equal(t, Location, now.Location())
}

func TestParseDeparture(t *testing.T) {
	want := time.Date(2026, 1, 27, 21, 5, 0, 0, Location)

	tests := []struct {
		name string
		date string
		time string
	}{
		{"day first dashed", "27-01-2026", "21:05"},
		{"day first slashed", "27/01/2026", "21:05"},
		{"iso", "2026-01-27", "21:05"},
		{"compact", "20260127", "21:05"},
		{"padded whitespace", " 20260127 ", " 21:05 "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDeparture(tc.date, tc.time)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %s", got)
		})
	}
}

func TestParseDepartureSingleDigitHour(t *testing.T) {
	got, err := ParseDeparture("20260127", "7:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", Clock(got))
}

func TestParseDepartureMalformed(t *testing.T) {
	tests := []struct {
		date string
		time string
	}{
		{"", "10:00"},
		{"2026-13-01", "10:00"},
		{"31-02-2026", "10:00"},
		{"tomorrow", "10:00"},
		{"20260127", ""},
		{"20260127", "25:00"},
		{"20260127", "10.30"},
	}
	for _, tc := range tests {
		t.Run(tc.date+"_"+tc.time, func(t *testing.T) {
			_, err := ParseDeparture(tc.date, tc.time)
			assert.ErrorIs(t, err, ErrMalformedTimestamp)
		})
	}
}

func TestIsUpcomingIsStrict(t *testing.T) {
	now := time.Date(2026, 1, 27, 10, 0, 0, 0, Location)

	assert.True(t, IsUpcoming(now.Add(time.Minute), now))
	assert.False(t, IsUpcoming(now, now))
	assert.False(t, IsUpcoming(now.Add(-time.Minute), now))
}

func TestUpcomingIndependentOfCallerZone(t *testing.T) {
	// 21:00 IST is 15:30 UTC; a caller reading 15:00 UTC must still see it as upcoming
	dep, err := ParseDeparture("27-01-2026", "21:00")
	require.NoError(t, err)

	nowUTC := time.Date(2026, 1, 27, 15, 0, 0, 0, time.UTC)
	assert.True(t, IsUpcoming(dep, Now(func() time.Time { return nowUTC })))

	laterUTC := time.Date(2026, 1, 27, 15, 30, 0, 0, time.UTC)
	assert.False(t, IsUpcoming(dep, Now(func() time.Time { return laterUTC })))
}

func TestClock(t *testing.T) {
	utc := time.Date(2026, 1, 27, 18, 45, 0, 0, time.UTC)
	assert.Equal(t, "00:15", Clock(utc))
}
