package planner

import (
	"rainscout/internal/types"
)

// ParameterForm owns the user-editable query parameters. Edits are free at
// any time, including while a query is in flight; the coordinator snapshots
// values at request-issue time, so an edit can never alter an in-flight
// request.
type ParameterForm struct {
	params types.QueryParameters
}

// NewParameterForm creates a form with zero-valued parameters.
func NewParameterForm() *ParameterForm {
	return &ParameterForm{}
}

// Params returns the current parameter values.
func (f *ParameterForm) Params() types.QueryParameters {
	return f.params
}

// ParameterPatch carries a partial parameter edit; nil fields are untouched.
type ParameterPatch struct {
	DateISO     *string  `json:"date_iso"`
	StartHour   *int     `json:"start_hour" validate:"omitempty,min=0,max=23"`
	EndHour     *int     `json:"end_hour" validate:"omitempty,min=0,max=23"`
	ThresholdMm *float64 `json:"threshold_mm"`
}

// Apply merges a patch into the form and reports whether any field changed.
func (f *ParameterForm) Apply(patch ParameterPatch) bool {
	changed := false
	if patch.DateISO != nil && *patch.DateISO != f.params.DateISO {
		f.params.DateISO = *patch.DateISO
		changed = true
	}
	if patch.StartHour != nil && *patch.StartHour != f.params.StartHour {
		f.params.StartHour = *patch.StartHour
		changed = true
	}
	if patch.EndHour != nil && *patch.EndHour != f.params.EndHour {
		f.params.EndHour = *patch.EndHour
		changed = true
	}
	if patch.ThresholdMm != nil && *patch.ThresholdMm != f.params.ThresholdMm {
		f.params.ThresholdMm = *patch.ThresholdMm
		changed = true
	}
	return changed
}

// Computable is the pure predicate gating the primary risk query: a point is
// present, the parameters are individually valid, and no query is in flight.
// Boundary cases are strict: startHour == endHour and thresholdMm == 0 are
// both false.
func Computable(loc types.LocationState, params types.QueryParameters, inFlight bool) bool {
	return loc.HasPoint() && params.Valid() && !inFlight
}
