package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Collector struct {
	reg *prometheus.Registry

	StopsAdded    prometheus.Counter
	StopsRejected *prometheus.CounterVec // reason label: empty_name|unknown_stop
	TimesSaved    prometheus.Counter
	EditsBegun    prometheus.Counter
	EditsCanceled prometheus.Counter

	RouteSearches  prometheus.Counter
	ActiveSessions prometheus.Gauge

	EventsPublished  prometheus.Counter
	EventPublishErrs prometheus.Counter
	NATSConnected    prometheus.Gauge
	PublishDuration  prometheus.Histogram
	CatalogRoutes    prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		StopsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busstops_stops_added_total",
			Help: "Total stops added to a route session.",
		}),
		StopsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busstops_stop_operations_rejected_total",
			Help: "Stop operations rejected without a state change.",
		}, []string{"reason"}),
		TimesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busstops_times_saved_total",
			Help: "Total arrival time lists saved.",
		}),
		EditsBegun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busstops_edits_begun_total",
			Help: "Total times a stop entered edit mode.",
		}),
		EditsCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busstops_edits_cancelled_total",
			Help: "Total edits cancelled.",
		}),
		RouteSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busstops_route_searches_total",
			Help: "Total route searches.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busstops_active_sessions",
			Help: "1 while a route's stop screen is open.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busstops_events_published_total",
			Help: "Total stop events published to NATS.",
		}),
		EventPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busstops_event_publish_errors_total",
			Help: "Total stop event publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busstops_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busstops_publish_duration_seconds",
			Help:    "Duration to marshal and publish a stop event.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		CatalogRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busstops_catalog_routes",
			Help: "Number of routes in the loaded catalog.",
		}),
	}

	reg.MustRegister(
		c.StopsAdded, c.StopsRejected, c.TimesSaved, c.EditsBegun, c.EditsCanceled,
		c.RouteSearches, c.ActiveSessions,
		c.EventsPublished, c.EventPublishErrs, c.NATSConnected, c.PublishDuration,
		c.CatalogRoutes,
	)
	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}

// Stops adapts the collector to the stop manager's metrics hooks.
func (c *Collector) Stops() *StopMetrics { return &StopMetrics{c: c} }

type StopMetrics struct{ c *Collector }

func (s *StopMetrics) StopAddedInc()                 { s.c.StopsAdded.Inc() }
func (s *StopMetrics) StopRejectedInc(reason string) { s.c.StopsRejected.WithLabelValues(reason).Inc() }
func (s *StopMetrics) TimesSavedInc()                { s.c.TimesSaved.Inc() }
func (s *StopMetrics) EditBegunInc()                 { s.c.EditsBegun.Inc() }
func (s *StopMetrics) EditCancelledInc()             { s.c.EditsCanceled.Inc() }

// Publisher adapts the collector to the event publisher's metrics hooks.
func (c *Collector) Publisher() *PublisherMetrics { return &PublisherMetrics{c: c} }

type PublisherMetrics struct{ c *Collector }

func (p *PublisherMetrics) PublishedInc()                  { p.c.EventsPublished.Inc() }
func (p *PublisherMetrics) PublishErrInc()                 { p.c.EventPublishErrs.Inc() }
func (p *PublisherMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *PublisherMetrics) SetConnected(connected bool) {
	if connected {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}

// Console adapts the collector to the console's metrics hooks.
func (c *Collector) Console() *ConsoleMetrics { return &ConsoleMetrics{c: c} }

type ConsoleMetrics struct{ c *Collector }

func (m *ConsoleMetrics) RouteSearchInc() { m.c.RouteSearches.Inc() }
func (m *ConsoleMetrics) SessionOpened()  { m.c.ActiveSessions.Set(1) }
func (m *ConsoleMetrics) SessionClosed()  { m.c.ActiveSessions.Set(0) }
