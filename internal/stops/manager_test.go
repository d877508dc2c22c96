package stops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busstops/internal/transit"
)

var testRoute = transit.RouteContext{RouteNumber: "431", RouteName: "Palhoça/Biguaçu"}

type recorder struct {
	added []transit.BusStop
	saved []transit.BusStop
}

func (r *recorder) StopAdded(_ transit.RouteContext, s transit.BusStop)  { r.added = append(r.added, s) }
func (r *recorder) TimesSaved(_ transit.RouteContext, s transit.BusStop) { r.saved = append(r.saved, s) }

type counters struct {
	added, saved, begun, cancelled int
	rejected                       map[string]int
}

func (c *counters) StopAddedInc() { c.added++ }
func (c *counters) StopRejectedInc(reason string) {
	if c.rejected == nil {
		c.rejected = map[string]int{}
	}
	c.rejected[reason]++
}
func (c *counters) TimesSavedInc()    { c.saved++ }
func (c *counters) EditBegunInc()     { c.begun++ }
func (c *counters) EditCancelledInc() { c.cancelled++ }

func TestNewSessionSeed(t *testing.T) {
	m := NewSession(testRoute)

	stops := m.Stops()
	require.Len(t, stops, 2)
	assert.Equal(t, transit.BusStopID("s1"), stops[0].ID)
	assert.Equal(t, "Terminal Central", stops[0].Name)
	require.Len(t, stops[0].Times, 3)
	assert.Equal(t, "08:15", stops[0].Times[0].Time)
	assert.Equal(t, transit.StatusScheduled, stops[0].Times[0].Status)
	assert.Equal(t, transit.BusStopID("s2"), stops[1].ID)
	assert.Empty(t, stops[1].Times)

	assert.Equal(t, Idle, m.State())
	assert.Equal(t, testRoute, m.Route())
}

func TestNewSessionIsFreshEachTime(t *testing.T) {
	a := NewSession(testRoute)
	_, err := a.AddStop("Nova Parada")
	require.NoError(t, err)
	require.NoError(t, a.SaveTimes("s1", "12:00"))

	b := NewSession(testRoute)
	assert.Equal(t, 2, b.Len())
	s1, _ := b.Stop("s1")
	assert.Len(t, s1.Times, 3)
}

func TestNewManagerCopiesSeed(t *testing.T) {
	seed := []transit.BusStop{{ID: "s1", Name: "A", Times: []transit.ArrivalRecord{{Time: "10:00", Status: transit.StatusScheduled}}}}
	m := NewManager(testRoute, seed)
	seed[0].Times[0].Time = "changed"
	seed[0].Name = "changed"

	s, ok := m.Stop("s1")
	require.True(t, ok)
	assert.Equal(t, "A", s.Name)
	assert.Equal(t, "10:00", s.Times[0].Time)
}

func TestAddStopAppendsWithFreshID(t *testing.T) {
	rec := &recorder{}
	m := NewSession(testRoute, WithNotifier(rec))
	require.NoError(t, m.BeginEdit("s2"))

	id, err := m.AddStop("  Nova Parada ")
	require.NoError(t, err)
	assert.Equal(t, transit.BusStopID("s3"), id)

	stops := m.Stops()
	require.Len(t, stops, 3)
	assert.Equal(t, transit.BusStop{ID: "s3", Name: "Nova Parada", Times: []transit.ArrivalRecord{}}, stops[2])

	require.Len(t, rec.added, 1)
	assert.Equal(t, "Nova Parada", rec.added[0].Name)

	// adding does not touch edit mode
	editing, ok := m.Editing()
	assert.True(t, ok)
	assert.Equal(t, transit.BusStopID("s2"), editing)
}

func TestAddStopRejectsBlank(t *testing.T) {
	rec := &recorder{}
	mt := &counters{}
	m := NewSession(testRoute, WithNotifier(rec), WithMetrics(mt))
	before := m.Stops()

	for _, name := range []string{"", "   ", "\t\n"} {
		id, err := m.AddStop(name)
		assert.ErrorIs(t, err, ErrEmptyName)
		assert.Empty(t, id)
	}
	assert.Equal(t, before, m.Stops())
	assert.Empty(t, rec.added)
	assert.Equal(t, 3, mt.rejected["empty_name"])
	assert.Zero(t, mt.added)
}

func TestAddStopSkipsTakenID(t *testing.T) {
	m := NewManager(testRoute, []transit.BusStop{{ID: "s2", Name: "Rua Principal"}})
	id, err := m.AddStop("Outra")
	require.NoError(t, err)
	assert.Equal(t, transit.BusStopID("s3"), id)
}

func TestSaveTimesOverwrites(t *testing.T) {
	rec := &recorder{}
	m := NewManager(testRoute, []transit.BusStop{
		{ID: "s1", Name: "Terminal Central", Times: []transit.ArrivalRecord{{Time: "10:00", Status: transit.StatusArriving}}},
		{ID: "s2", Name: "Rua Principal"},
	}, WithNotifier(rec))
	require.NoError(t, m.BeginEdit("s1"))

	require.NoError(t, m.SaveTimes("s1", "11:00, 11:30"))

	s1, _ := m.Stop("s1")
	assert.Equal(t, []transit.ArrivalRecord{
		{Time: "11:00", Status: transit.StatusScheduled},
		{Time: "11:30", Status: transit.StatusScheduled},
	}, s1.Times)
	assert.Equal(t, Idle, m.State())
	require.Len(t, rec.saved, 1)
	assert.Equal(t, s1, rec.saved[0])
}

func TestSaveTimesEmptyClearsTimes(t *testing.T) {
	m := NewSession(testRoute)
	require.NoError(t, m.SaveTimes("s1", ""))
	s1, _ := m.Stop("s1")
	assert.NotNil(t, s1.Times)
	assert.Empty(t, s1.Times)
}

func TestSaveTimesTrailingCommaKeepsEmptyRecord(t *testing.T) {
	m := NewSession(testRoute)
	require.NoError(t, m.SaveTimes("s2", "10:00,"))
	s2, _ := m.Stop("s2")
	require.Len(t, s2.Times, 2)
	assert.Equal(t, "", s2.Times[1].Time)
}

func TestSaveTimesLeavesEditModeForOtherStop(t *testing.T) {
	m := NewSession(testRoute)
	require.NoError(t, m.BeginEdit("s1"))
	require.NoError(t, m.SaveTimes("s2", "07:00"))
	assert.Equal(t, Idle, m.State())
}

func TestEditExclusivity(t *testing.T) {
	m := NewSession(testRoute)
	require.NoError(t, m.BeginEdit("s1"))
	require.NoError(t, m.BeginEdit("s2"))

	id, ok := m.Editing()
	assert.True(t, ok)
	assert.Equal(t, transit.BusStopID("s2"), id)
	assert.Equal(t, Editing, m.State())
}

func TestCancelEditIdempotent(t *testing.T) {
	mt := &counters{}
	m := NewSession(testRoute, WithMetrics(mt))

	m.CancelEdit()
	assert.Equal(t, Idle, m.State())

	require.NoError(t, m.BeginEdit("s1"))
	m.CancelEdit()
	m.CancelEdit()
	_, ok := m.Editing()
	assert.False(t, ok)
	assert.Equal(t, 1, mt.cancelled)
	assert.Equal(t, 1, mt.begun)
}

func TestUnknownStopIsRejectedWithoutStateChange(t *testing.T) {
	rec := &recorder{}
	mt := &counters{}
	m := NewSession(testRoute, WithNotifier(rec), WithMetrics(mt))
	require.NoError(t, m.BeginEdit("s1"))
	before := m.Stops()

	err := m.BeginEdit("s9")
	assert.ErrorIs(t, err, ErrUnknownStop)
	id, _ := m.Editing()
	assert.Equal(t, transit.BusStopID("s1"), id)

	err = m.SaveTimes("s9", "10:00")
	assert.ErrorIs(t, err, ErrUnknownStop)
	assert.Equal(t, Editing, m.State())
	assert.Equal(t, before, m.Stops())
	assert.Empty(t, rec.saved)
	assert.Equal(t, 2, mt.rejected["unknown_stop"])
}

func TestStopsReturnsCopy(t *testing.T) {
	m := NewSession(testRoute)
	stops := m.Stops()
	stops[0].Name = "x"
	stops[0].Times[0].Time = "x"

	s1, _ := m.Stop("s1")
	assert.Equal(t, "Terminal Central", s1.Name)
	assert.Equal(t, "08:15", s1.Times[0].Time)
}

func TestEditStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "editing", Editing.String())
}

func TestNotifiersFanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewSession(testRoute, WithNotifier(Notifiers{a, nil, b}))

	_, err := m.AddStop("Nova Parada")
	require.NoError(t, err)
	require.NoError(t, m.SaveTimes("s3", "10:00"))

	for _, r := range []*recorder{a, b} {
		assert.Len(t, r.added, 1)
		assert.Len(t, r.saved, 1)
	}
	a.saved[0].Times[0].Time = "x"
	assert.Equal(t, "10:00", b.saved[0].Times[0].Time)
}
