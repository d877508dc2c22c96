package publisher

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"busstops/internal/transit"
)

const (
	EventStopAdded  = "added"
	EventTimesSaved = "saved"
)

type PublisherMetrics interface {
	PublishedInc()
	PublishErrInc()
	PublishObserve(d time.Duration)
	SetConnected(connected bool)
}

// conn is the subset of *nats.Conn the notifier uses.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
	Close()
}

// NATSNotifier publishes stop acknowledgments as JSON events on
// <prefix>.<route>.<event>.
type NATSNotifier struct {
	nc          conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
	now         func() time.Time
}

func NewNATSNotifier(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("busstops"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(false)
			}
			log.Warn().Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(true)
			}
			log.Info().Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(false)
			}
			log.Info().Msg("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.SetConnected(true)
	}
	return newNATSNotifier(nc, prefix, logSubjects, m), nil
}

func newNATSNotifier(nc conn, prefix string, logSubjects bool, m PublisherMetrics) *NATSNotifier {
	return &NATSNotifier{nc: nc, prefix: prefix, logSubjects: logSubjects, metrics: m, now: time.Now}
}

func (p *NATSNotifier) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

type StopEvent struct {
	Event       string          `json:"event"`
	RouteNumber string          `json:"routeNumber"`
	RouteName   string          `json:"routeName"`
	Stop        transit.BusStop `json:"stop"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (p *NATSNotifier) StopAdded(route transit.RouteContext, stop transit.BusStop) {
	p.publish(EventStopAdded, route, stop)
}

func (p *NATSNotifier) TimesSaved(route transit.RouteContext, stop transit.BusStop) {
	p.publish(EventTimesSaved, route, stop)
}

// Subject returns the subject an event for route is published on.
func (p *NATSNotifier) Subject(route transit.RouteContext, event string) string {
	return subjectToken(p.prefix) + "." + subjectToken(route.RouteNumber) + "." + event
}

func (p *NATSNotifier) publish(event string, route transit.RouteContext, stop transit.BusStop) {
	subject := p.Subject(route, event)
	b, err := json.Marshal(StopEvent{
		Event:       event,
		RouteNumber: route.RouteNumber,
		RouteName:   route.RouteName,
		Stop:        stop,
		Timestamp:   p.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("marshal stop event")
		return
	}
	if p.logSubjects {
		log.Debug().Str("subject", subject).Msg("nats publish")
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.PublishErrInc()
		} else {
			p.metrics.PublishedInc()
		}
	}
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Str("stop", string(stop.ID)).Msg("publish stop event")
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
