package publisher

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"busstops/internal/transit"
)

// LogNotifier writes stop acknowledgments to the logger. It is used when no
// NATS server is configured.
type LogNotifier struct {
	Logger *zerolog.Logger // nil uses the global logger
}

func (n LogNotifier) logger() *zerolog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return &log.Logger
}

func (n LogNotifier) StopAdded(route transit.RouteContext, stop transit.BusStop) {
	n.logger().Info().
		Str("route", route.RouteNumber).
		Str("stop", string(stop.ID)).
		Str("name", stop.Name).
		Msg("stop added")
}

func (n LogNotifier) TimesSaved(route transit.RouteContext, stop transit.BusStop) {
	n.logger().Info().
		Str("route", route.RouteNumber).
		Str("stop", string(stop.ID)).
		Int("times", len(stop.Times)).
		Msg("times saved")
}
