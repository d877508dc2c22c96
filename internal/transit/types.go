package transit

type ArrivalStatus string

const (
	StatusArriving  ArrivalStatus = "Chegando"
	StatusEnRoute   ArrivalStatus = "A caminho"
	StatusScheduled ArrivalStatus = "Previsto"
)

// Valid reports whether s is one of the known statuses.
func (s ArrivalStatus) Valid() bool {
	switch s {
	case StatusArriving, StatusEnRoute, StatusScheduled:
		return true
	}
	return false
}

// Highlighted is true for statuses the stop list should call out.
func (s ArrivalStatus) Highlighted() bool { return s == StatusArriving }

type ArrivalRecord struct {
	Time   string        `json:"time"` // free text label, trimmed
	Status ArrivalStatus `json:"status"`
}

type BusStopID string

type BusStop struct {
	ID    BusStopID       `json:"id"`
	Name  string          `json:"name"`
	Times []ArrivalRecord `json:"times"` // textual order of the saved schedule
}

// Clone returns a copy of the stop that shares no memory with s.
func (s BusStop) Clone() BusStop {
	c := s
	c.Times = make([]ArrivalRecord, len(s.Times))
	copy(c.Times, s.Times)
	return c
}

type Route struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Name   string `json:"name"`
}

// RouteContext is the read-only route a stop session is opened for.
type RouteContext struct {
	RouteNumber string `json:"routeNumber"`
	RouteName   string `json:"routeName"`
}

func (r Route) Context() RouteContext {
	return RouteContext{RouteNumber: r.Number, RouteName: r.Name}
}
