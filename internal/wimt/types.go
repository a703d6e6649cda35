package wimt

// LiveStatus is the subset of the whereismytrain live_status document the
// estimator needs.
type LiveStatus struct {
	Departed           bool          `json:"departed"`
	TrainName          string        `json:"train_name"`
	RunningStatus      string        `json:"running_status"`
	RunningStatusAlt   string        `json:"running status"`
	CurStn             string        `json:"curStn"`
	DepartedCurStn     bool          `json:"departedCurStn"`
	Delay              float64       `json:"delay"`
	SourceStation      string        `json:"source_station"`
	DestinationStation string        `json:"destination_station"`
	StartDate          string        `json:"start_date"`
	LastUpdateIsoDate  string        `json:"lastUpdateIsoDate"`
	DaysSchedule       []DaySchedule `json:"days_schedule"`
}

type DaySchedule struct {
	Sno               int     `json:"sno"`
	StationCode       string  `json:"station_code"`
	StationName       string  `json:"station_name"`
	Distance          float64 `json:"distance"`
	Stops             bool    `json:"stops"`
	SchArrivalTime    string  `json:"sch_arrival_time"`
	SchDepartureTime  string  `json:"sch_departure_time"`
	ActualArrivalTm   int64   `json:"actual_arrival_tm"`
	Departed          *bool   `json:"departed,omitempty"`
	CurStn            *bool   `json:"curStn,omitempty"`
	DelayInDeparture  int64   `json:"delay_in_departure,omitempty"`
	DelayInArrival    int64   `json:"delay_in_arrival,omitempty"`
	ActualDepartureTm int64   `json:"actual_departure_tm,omitempty"`
}

// Status prefers the underscored key; older payloads only carry the spaced one.
func (l *LiveStatus) Status() string {
	if l.RunningStatus != "" {
		return l.RunningStatus
	}
	return l.RunningStatusAlt
}
