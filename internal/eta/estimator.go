package eta

import (
	"fmt"
	"math"
	"strings"
	"time"

	"railpulse/internal/ist"
)

// SpeedModel picks the heuristic that turns a feed snapshot into a running speed.
type SpeedModel int

const (
	// DelayAdjusted assumes max(40, 110 - delay) km/h and has no speed
	// when the frontier station carries no delay figure.
	DelayAdjusted SpeedModel = iota
	// FlatRate assumes 120 km/h, i.e. two kilometres per minute.
	FlatRate
)

const (
	baseSpeedKmph = 110.0
	minSpeedKmph  = 40.0
	flatSpeedKmph = 120.0
)

func (m SpeedModel) String() string {
	switch m {
	case DelayAdjusted:
		return "delay"
	case FlatRate:
		return "flat"
	default:
		return fmt.Sprintf("SpeedModel(%d)", int(m))
	}
}

// ParseSpeedModel maps a config value onto a model.
func ParseSpeedModel(s string) (SpeedModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "delay", "delay_adjusted":
		return DelayAdjusted, nil
	case "flat", "flat_rate":
		return FlatRate, nil
	}
	return 0, fmt.Errorf("unknown speed model %q", s)
}

func (m SpeedModel) speed(frontier StationProgress) *float64 {
	switch m {
	case FlatRate:
		v := flatSpeedKmph
		return &v
	default:
		if frontier.AvgDelay == nil {
			return nil
		}
		v := math.Max(minSpeedKmph, baseSpeedKmph-*frontier.AvgDelay)
		return &v
	}
}

// Estimate derives a train's running state towards targetCode from a feed
// snapshot taken at now. A reason other than SkipNone means the train has no
// usable estimate and should be skipped.
func Estimate(p Progress, targetCode string, now time.Time, model SpeedModel) (LiveEstimate, SkipReason) {
	rows := p.Stations
	if len(rows) == 0 {
		return LiveEstimate{}, SkipEmptyFeed
	}

	frontier, target := -1, -1
	for i, row := range rows {
		if row.OriginDst == nil {
			return LiveEstimate{}, SkipMalformedRow
		}
		if row.HasDeparted {
			frontier = i
		}
		if target < 0 && strings.EqualFold(row.StationCode, targetCode) {
			target = i
		}
	}
	if frontier < 0 {
		return LiveEstimate{}, SkipNotDeparted
	}
	if target < 0 {
		return LiveEstimate{}, SkipTargetMissing
	}
	if rows[target].HasArrived {
		return LiveEstimate{}, SkipAlreadyArrived
	}

	from, to := *rows[frontier].OriginDst, *rows[target].OriginDst

	stationsRemaining := 0
	for _, row := range rows {
		if d := *row.OriginDst; d > from && d <= to {
			stationsRemaining++
		}
	}

	est := LiveEstimate{
		CurrentStationName:  rows[frontier].StationName,
		RemainingDistanceKm: math.Max(to-from, 0),
		StationsRemaining:   stationsRemaining,
		AvgSpeedKmph:        model.speed(rows[frontier]),
	}
	if p.CurrentStation != "" {
		est.CurrentStationName = p.CurrentStation
	}
	if p.TotalLateMins != nil {
		est.DelayMins = *p.TotalLateMins
	}

	if est.AvgSpeedKmph != nil {
		hours := est.RemainingDistanceKm / *est.AvgSpeedKmph
		rounded := math.Round(hours*100) / 100
		minutes := int(math.Round(hours * 60))
		arrival := ist.Clock(now.Add(time.Duration(minutes) * time.Minute))

		est.EtaHours = &rounded
		est.EtaMinutes = &minutes
		est.ExpectedArrival = &arrival
	}
	return est, SkipNone
}
