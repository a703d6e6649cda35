package redbus

// betweenResponse is the trains-between-stations payload.
type betweenResponse struct {
	TrainBtwnStnsList []betweenTrain `json:"trainBtwnStnsList"`
}

type betweenTrain struct {
	TrainNumber   string `json:"trainNumber"`
	TrainName     string `json:"trainName"`
	DepartureDate string `json:"departureDate"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
}

// LTSResponse is the live train status payload (getLtsDetails).
type LTSResponse struct {
	TrainNumber        string       `json:"trainNumber"`
	TrainName          string       `json:"trainName"`
	CurrentStationName string       `json:"currentStationName"`
	TotalLateMins      *int         `json:"totalLateMins"`
	Stations           []LTSStation `json:"stations"`
}

type LTSStation struct {
	StationCode string   `json:"stationCode"`
	StationName string   `json:"stationName"`
	HasDeparted bool     `json:"hasDeparted"`
	HasArrived  bool     `json:"hasArrived"`
	OriginDst   *float64 `json:"originDst"`
	AvgDelay    *float64 `json:"avgDelay"`
}

// ScheduleStop is one stop of a train's route as reported by the live feed.
type ScheduleStop struct {
	StationName string `json:"stationName"`
	StationCode string `json:"stationCode"`
}

type Schedule struct {
	TrainNo   string         `json:"trainNo"`
	TrainName string         `json:"trainName"`
	Stations  []ScheduleStop `json:"stations"`
}
