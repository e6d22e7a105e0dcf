package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainscout/internal/types"
)

func TestReconciler_StartsEmpty(t *testing.T) {
	r := NewLocationReconciler()
	state := r.State()
	assert.False(t, state.HasPoint())
	assert.Empty(t, state.Label)
}

func TestReconciler_MostRecentIntentWinsEntirely(t *testing.T) {
	r := NewLocationReconciler()

	r.SetFromSearch("Paris, France", types.GeoPoint{Lat: 48.8566, Lon: 2.3522})
	r.SetFromMapPick(types.GeoPoint{Lat: 6.37, Lon: 2.39}, "6.3700, 2.3900")

	state := r.State()
	require.True(t, state.HasPoint())
	assert.Equal(t, types.GeoPoint{Lat: 6.37, Lon: 2.39}, *state.Point)
	assert.Equal(t, "6.3700, 2.3900", state.Label)

	r.SetFromAlternative("Porto-Novo", types.GeoPoint{Lat: 6.5, Lon: 2.6})
	state = r.State()
	assert.Equal(t, types.GeoPoint{Lat: 6.5, Lon: 2.6}, *state.Point)
	assert.Equal(t, "Porto-Novo", state.Label)
}

func TestReconciler_ReverseLabelAppliesOnlyToCurrentPoint(t *testing.T) {
	r := NewLocationReconciler()
	first := types.GeoPoint{Lat: 6.37, Lon: 2.39}
	second := types.GeoPoint{Lat: 6.5, Lon: 2.6}

	r.SetFromMapPick(first, "6.3700, 2.3900")
	r.SetFromMapPick(second, "6.5000, 2.6000")

	// The first pick's resolution arrives late and must be discarded.
	assert.False(t, r.SetLabelFromReverseGeocode(first, "Cotonou"))
	assert.Equal(t, "6.5000, 2.6000", r.State().Label)

	// The current pick's resolution applies.
	assert.True(t, r.SetLabelFromReverseGeocode(second, "Porto-Novo"))
	assert.Equal(t, "Porto-Novo", r.State().Label)
	assert.Equal(t, second, *r.State().Point)
}

func TestReconciler_ReverseLabelIgnoredWhenEmpty(t *testing.T) {
	r := NewLocationReconciler()
	assert.False(t, r.SetLabelFromReverseGeocode(types.GeoPoint{Lat: 1, Lon: 1}, "Somewhere"))
	assert.False(t, r.State().HasPoint())
}
