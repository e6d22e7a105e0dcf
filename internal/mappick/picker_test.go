package mappick

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainscout/internal/types"
)

// mockReverser maps coordinates to names, optionally blocking per point
// until released.
type mockReverser struct {
	mu    sync.Mutex
	names map[types.GeoPoint]string
	err   error
	gates map[types.GeoPoint]chan struct{}
}

func newMockReverser() *mockReverser {
	return &mockReverser{
		names: make(map[types.GeoPoint]string),
		gates: make(map[types.GeoPoint]chan struct{}),
	}
}

func (m *mockReverser) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	pt := types.GeoPoint{Lat: lat, Lon: lon}
	m.mu.Lock()
	gate := m.gates[pt]
	name := m.names[pt]
	err := m.err
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return name, err
}

func newTestPicker(t *testing.T, rev types.ReverseGeocoder) *Picker {
	t.Helper()
	p := NewPicker(rev, slog.New(slog.DiscardHandler))
	t.Cleanup(p.Close)
	return p
}

func waitEvent(t *testing.T, p *Picker) Event {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pick event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, p *Picker) {
	t.Helper()
	select {
	case ev := <-p.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPick_AppliesPointImmediatelyThenResolvesName(t *testing.T) {
	rev := newMockReverser()
	rev.names[types.GeoPoint{Lat: 6.37, Lon: 2.39}] = "Cotonou, Littoral, Benin"
	p := newTestPicker(t, rev)

	require.NoError(t, p.Pick(context.Background(), 6.37, 2.39))

	picked := waitEvent(t, p)
	assert.Equal(t, EventPicked, picked.Kind)
	assert.Equal(t, types.GeoPoint{Lat: 6.37, Lon: 2.39}, picked.Point)
	assert.Equal(t, "6.3700, 2.3900", picked.Label)

	labeled := waitEvent(t, p)
	assert.Equal(t, EventLabeled, labeled.Kind)
	assert.Equal(t, picked.Point, labeled.Point)
	assert.Equal(t, "Cotonou, Littoral, Benin", labeled.Label)
}

func TestPick_RejectsOutOfRangeCoordinates(t *testing.T) {
	p := newTestPicker(t, newMockReverser())

	err := p.Pick(context.Background(), 95.0, 2.39)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidLat, types.AsAppError(err).Code)

	err = p.Pick(context.Background(), 6.37, -185.0)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidLon, types.AsAppError(err).Code)

	assertNoEvent(t, p)
}

func TestPick_OverlappingPicksNeverCrossLabel(t *testing.T) {
	rev := newMockReverser()
	first := types.GeoPoint{Lat: 6.37, Lon: 2.39}
	second := types.GeoPoint{Lat: 6.5, Lon: 2.6}
	gate := make(chan struct{})
	rev.gates[first] = gate
	rev.names[first] = "Cotonou"
	rev.names[second] = "Porto-Novo"
	p := newTestPicker(t, rev)

	// First pick: reverse geocode stalls upstream.
	require.NoError(t, p.Pick(context.Background(), first.Lat, first.Lon))
	ev := waitEvent(t, p)
	assert.Equal(t, EventPicked, ev.Kind)

	// Second pick lands while the first lookup is still in flight.
	require.NoError(t, p.Pick(context.Background(), second.Lat, second.Lon))
	ev = waitEvent(t, p)
	assert.Equal(t, EventPicked, ev.Kind)
	assert.Equal(t, second, ev.Point)

	labeled := waitEvent(t, p)
	assert.Equal(t, EventLabeled, labeled.Kind)
	assert.Equal(t, second, labeled.Point)
	assert.Equal(t, "Porto-Novo", labeled.Label)

	// The first lookup finally resolves; its name must not apply.
	close(gate)
	assertNoEvent(t, p)
}

func TestResolve_FailureKeepsProvisionalLabel(t *testing.T) {
	rev := newMockReverser()
	rev.err = types.NewAppError(types.ErrCodeUpstreamTransport, "boom", nil)
	p := newTestPicker(t, rev)

	require.NoError(t, p.Pick(context.Background(), 6.37, 2.39))

	picked := waitEvent(t, p)
	assert.Equal(t, EventPicked, picked.Kind)

	// No labeled event follows a failed lookup.
	assertNoEvent(t, p)
}

func TestResolve_EmptyNameKeepsProvisionalLabel(t *testing.T) {
	rev := newMockReverser()
	p := newTestPicker(t, rev)

	require.NoError(t, p.Pick(context.Background(), 0.0001, 0.0001))

	picked := waitEvent(t, p)
	assert.Equal(t, EventPicked, picked.Kind)
	assertNoEvent(t, p)
}
