package stops

import "busstops/internal/transit"

// Notifiers fans acknowledgments out to every non-nil notifier in order.
type Notifiers []Notifier

func (ns Notifiers) StopAdded(route transit.RouteContext, stop transit.BusStop) {
	for _, n := range ns {
		if n != nil {
			n.StopAdded(route, stop.Clone())
		}
	}
}

func (ns Notifiers) TimesSaved(route transit.RouteContext, stop transit.BusStop) {
	for _, n := range ns {
		if n != nil {
			n.TimesSaved(route, stop.Clone())
		}
	}
}
