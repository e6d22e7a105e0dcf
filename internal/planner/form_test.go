package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rainscout/internal/types"
)

func strPtr(s string) *string    { return &s }
func intPtr(i int) *int          { return &i }
func f64Ptr(f float64) *float64  { return &f }
func point(lat, lon float64) *types.GeoPoint {
	return &types.GeoPoint{Lat: lat, Lon: lon}
}

func TestComputable_TruthTable(t *testing.T) {
	valid := validParams()

	tests := []struct {
		name     string
		loc      types.LocationState
		params   types.QueryParameters
		inFlight bool
		want     bool
	}{
		{
			name:   "all conditions met",
			loc:    types.LocationState{Point: point(6.37, 2.39), Label: "Cotonou"},
			params: valid,
			want:   true,
		},
		{
			name:   "missing point",
			loc:    types.LocationState{Label: "typed but unresolved"},
			params: valid,
			want:   false,
		},
		{
			name:   "empty date",
			loc:    types.LocationState{Point: point(6.37, 2.39)},
			params: types.QueryParameters{StartHour: 14, EndHour: 18, ThresholdMm: 5},
			want:   false,
		},
		{
			name:   "start hour equals end hour",
			loc:    types.LocationState{Point: point(6.37, 2.39)},
			params: types.QueryParameters{DateISO: "2026-09-10", StartHour: 14, EndHour: 14, ThresholdMm: 5},
			want:   false,
		},
		{
			name:   "start hour after end hour",
			loc:    types.LocationState{Point: point(6.37, 2.39)},
			params: types.QueryParameters{DateISO: "2026-09-10", StartHour: 18, EndHour: 14, ThresholdMm: 5},
			want:   false,
		},
		{
			name:   "zero threshold",
			loc:    types.LocationState{Point: point(6.37, 2.39)},
			params: types.QueryParameters{DateISO: "2026-09-10", StartHour: 14, EndHour: 18, ThresholdMm: 0},
			want:   false,
		},
		{
			name:   "negative threshold",
			loc:    types.LocationState{Point: point(6.37, 2.39)},
			params: types.QueryParameters{DateISO: "2026-09-10", StartHour: 14, EndHour: 18, ThresholdMm: -1},
			want:   false,
		},
		{
			name:     "in flight",
			loc:      types.LocationState{Point: point(6.37, 2.39)},
			params:   valid,
			inFlight: true,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Computable(tt.loc, tt.params, tt.inFlight))
		})
	}
}

func TestParameterForm_ApplyMergesAndReportsChange(t *testing.T) {
	f := NewParameterForm()

	changed := f.Apply(ParameterPatch{DateISO: strPtr("2026-09-10"), ThresholdMm: f64Ptr(5)})
	assert.True(t, changed)

	changed = f.Apply(ParameterPatch{StartHour: intPtr(14), EndHour: intPtr(18)})
	assert.True(t, changed)

	got := f.Params()
	assert.Equal(t, "2026-09-10", got.DateISO)
	assert.Equal(t, 14, got.StartHour)
	assert.Equal(t, 18, got.EndHour)
	assert.Equal(t, 5.0, got.ThresholdMm)
}

func TestParameterForm_NoOpPatchReportsUnchanged(t *testing.T) {
	f := NewParameterForm()
	f.Apply(ParameterPatch{DateISO: strPtr("2026-09-10")})

	assert.False(t, f.Apply(ParameterPatch{}))
	assert.False(t, f.Apply(ParameterPatch{DateISO: strPtr("2026-09-10")}))
}
