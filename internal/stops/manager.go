package stops

import (
	"errors"
	"fmt"
	"strings"

	"busstops/internal/schedule"
	"busstops/internal/transit"
)

var (
	ErrEmptyName   = errors.New("stop name is empty")
	ErrUnknownStop = errors.New("unknown stop")
)

// Notifier receives the acknowledgments shown to the user after a
// successful add or save.
type Notifier interface {
	StopAdded(route transit.RouteContext, stop transit.BusStop)
	TimesSaved(route transit.RouteContext, stop transit.BusStop)
}

type Metrics interface {
	StopAddedInc()
	StopRejectedInc(reason string)
	TimesSavedInc()
	EditBegunInc()
	EditCancelledInc()
}

type EditState int

const (
	Idle EditState = iota
	Editing
)

func (s EditState) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Manager owns the stops of one route and the single stop being edited.
// A Manager lives for one stop session and is not safe for concurrent use.
type Manager struct {
	route    transit.RouteContext
	notifier Notifier
	metrics  Metrics

	stops   []transit.BusStop
	index   map[transit.BusStopID]int // id -> position in stops
	editing transit.BusStopID         // "" when idle
}

type Option func(*Manager)

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

func WithMetrics(mt Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// NewManager copies seed; ids in seed must be unique.
func NewManager(route transit.RouteContext, seed []transit.BusStop, opts ...Option) *Manager {
	m := &Manager{
		route: route,
		stops: make([]transit.BusStop, 0, len(seed)),
		index: make(map[transit.BusStopID]int, len(seed)),
	}
	for _, s := range seed {
		m.index[s.ID] = len(m.stops)
		m.stops = append(m.stops, s.Clone())
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewSession opens a manager over the fixed example stops.
func NewSession(route transit.RouteContext, opts ...Option) *Manager {
	return NewManager(route, SeedStops(), opts...)
}

// SeedStops returns the stops every session starts with.
func SeedStops() []transit.BusStop {
	return []transit.BusStop{
		{ID: "s1", Name: "Terminal Central", Times: schedule.Parse("08:15, 08:45, 09:30")},
		{ID: "s2", Name: "Rua Principal", Times: []transit.ArrivalRecord{}},
	}
}

func (m *Manager) Route() transit.RouteContext { return m.route }

func (m *Manager) Len() int { return len(m.stops) }

// Stops returns a copy of the collection in display order.
func (m *Manager) Stops() []transit.BusStop {
	out := make([]transit.BusStop, len(m.stops))
	for i, s := range m.stops {
		out[i] = s.Clone()
	}
	return out
}

func (m *Manager) Stop(id transit.BusStopID) (transit.BusStop, bool) {
	i, ok := m.index[id]
	if !ok {
		return transit.BusStop{}, false
	}
	return m.stops[i].Clone(), true
}

// Editing returns the stop currently in edit mode, if any.
func (m *Manager) Editing() (transit.BusStopID, bool) {
	return m.editing, m.editing != ""
}

func (m *Manager) State() EditState {
	if m.editing != "" {
		return Editing
	}
	return Idle
}

// AddStop appends a stop with no times and returns its id.
func (m *Manager) AddStop(name string) (transit.BusStopID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if m.metrics != nil {
			m.metrics.StopRejectedInc("empty_name")
		}
		return "", ErrEmptyName
	}
	id := m.nextID()
	stop := transit.BusStop{ID: id, Name: name, Times: []transit.ArrivalRecord{}}
	m.index[id] = len(m.stops)
	m.stops = append(m.stops, stop)
	if m.metrics != nil {
		m.metrics.StopAddedInc()
	}
	if m.notifier != nil {
		m.notifier.StopAdded(m.route, stop.Clone())
	}
	return id, nil
}

// nextID is "s" + (count+1). Stops are never deleted so this is fresh for
// the default seed; a caller supplied seed may already hold it.
func (m *Manager) nextID() transit.BusStopID {
	for n := len(m.stops) + 1; ; n++ {
		id := transit.BusStopID(fmt.Sprintf("s%d", n))
		if _, taken := m.index[id]; !taken {
			return id
		}
	}
}

// BeginEdit makes id the only stop in edit mode, replacing any previous one.
func (m *Manager) BeginEdit(id transit.BusStopID) error {
	if _, ok := m.index[id]; !ok {
		if m.metrics != nil {
			m.metrics.StopRejectedInc("unknown_stop")
		}
		return fmt.Errorf("begin edit %q: %w", id, ErrUnknownStop)
	}
	m.editing = id
	if m.metrics != nil {
		m.metrics.EditBegunInc()
	}
	return nil
}

// SaveTimes replaces every arrival record of the stop with the parsed raw
// schedule and leaves edit mode.
func (m *Manager) SaveTimes(id transit.BusStopID, raw string) error {
	i, ok := m.index[id]
	if !ok {
		if m.metrics != nil {
			m.metrics.StopRejectedInc("unknown_stop")
		}
		return fmt.Errorf("save times %q: %w", id, ErrUnknownStop)
	}
	m.stops[i].Times = schedule.Parse(raw)
	m.editing = ""
	if m.metrics != nil {
		m.metrics.TimesSavedInc()
	}
	if m.notifier != nil {
		m.notifier.TimesSaved(m.route, m.stops[i].Clone())
	}
	return nil
}

// CancelEdit leaves edit mode. Calling it while idle does nothing.
func (m *Manager) CancelEdit() {
	if m.editing == "" {
		return
	}
	m.editing = ""
	if m.metrics != nil {
		m.metrics.EditCancelledInc()
	}
}
