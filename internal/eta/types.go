package eta

// TrainCandidate is a train serving a searched route on a searched date.
// Date and time are IST civil values without an embedded zone.
type TrainCandidate struct {
	TrainNumber   string `json:"trainNumber"`
	TrainName     string `json:"trainName"`
	DepartureDate string `json:"departureDate"`
	DepartureTime string `json:"departureTime"`
	// scheduled arrival at the searched source station, when the search feed carries it
	ArrivalTime string `json:"arrivalTime,omitempty"`
}

// StationProgress is one row of a train's live running feed. Rows are
// ordered by increasing OriginDst along the route.
type StationProgress struct {
	StationCode string   `json:"stationCode"`
	StationName string   `json:"stationName"`
	HasDeparted bool     `json:"hasDeparted"`
	HasArrived  bool     `json:"hasArrived"`
	OriginDst   *float64 `json:"originDst"` // km from origin
	AvgDelay    *float64 `json:"avgDelay"`  // minutes
}

// Progress is a read-only snapshot of a train's live feed.
type Progress struct {
	Stations       []StationProgress
	TotalLateMins  *int
	CurrentStation string
}

// LiveEstimate is the derived running state of one train towards one station.
// The ETA fields and ExpectedArrival are nil together whenever AvgSpeedKmph is nil.
type LiveEstimate struct {
	CurrentStationName  string   `json:"currentStationName"`
	RemainingDistanceKm float64  `json:"remainingDistanceKm"`
	StationsRemaining   int      `json:"stationsRemaining"`
	AvgSpeedKmph        *float64 `json:"avgSpeedKmph"`
	EtaMinutes          *int     `json:"etaMinutes"`
	EtaHours            *float64 `json:"etaHours"`
	ExpectedArrival     *string  `json:"expectedArrivalClockTime"`
	DelayMins           int      `json:"delayMins"`
}

// SkipReason explains why no estimate exists for a train. SkipNone means
// the estimate is valid.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipEmptyFeed      SkipReason = "empty_feed"
	SkipMalformedRow   SkipReason = "malformed_row"
	SkipNotDeparted    SkipReason = "not_departed"
	SkipTargetMissing  SkipReason = "target_missing"
	SkipAlreadyArrived SkipReason = "already_arrived"
)

// UpcomingTrain is one row of the bulk response.
type UpcomingTrain struct {
	TrainNumber   string       `json:"trainNumber"`
	TrainName     string       `json:"trainName"`
	DepartureTime string       `json:"departureTime"`
	Live          LiveEstimate `json:"live"`
}

// BestCandidate is the soonest-arriving upcoming train for a route.
type BestCandidate struct {
	Train TrainCandidate
	Live  LiveEstimate
}
