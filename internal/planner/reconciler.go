// Package planner is the convergence core of the service. Three asynchronous
// input channels (search selections, map picks with late-arriving labels,
// alternative-location selections) funnel into one authoritative location
// state; a validity predicate gates the primary risk query; a qualifying
// result unlocks the dependent alternative scan whose selections loop back
// into the location state.
//
// Components in this package are not individually goroutine-safe. A Session
// serializes all access through its event loop.
package planner

import (
	"rainscout/internal/types"
)

// LocationReconciler is the single writer of the session's LocationState.
// Each intent fully replaces the point (and label, where supplied); the most
// recent point-bearing intent wins entirely. It does no I/O and never blocks.
type LocationReconciler struct {
	state types.LocationState
}

// NewLocationReconciler creates a reconciler with an empty location.
func NewLocationReconciler() *LocationReconciler {
	return &LocationReconciler{}
}

// State returns the current authoritative location.
func (r *LocationReconciler) State() types.LocationState {
	return r.state
}

// SetFromSearch applies a committed search suggestion.
func (r *LocationReconciler) SetFromSearch(label string, pt types.GeoPoint) {
	p := pt
	r.state = types.LocationState{Point: &p, Label: label}
}

// SetFromMapPick applies a tapped map point with its provisional label. The
// resolved name, if any, follows via SetLabelFromReverseGeocode.
func (r *LocationReconciler) SetFromMapPick(pt types.GeoPoint, provisionalLabel string) {
	p := pt
	r.state = types.LocationState{Point: &p, Label: provisionalLabel}
}

// SetLabelFromReverseGeocode upgrades the label of a previously applied map
// pick. The label applies only while pt is still the authoritative point; a
// late resolution for a superseded pick is discarded. Reports whether the
// label was applied.
func (r *LocationReconciler) SetLabelFromReverseGeocode(pt types.GeoPoint, label string) bool {
	if r.state.Point == nil || *r.state.Point != pt {
		return false
	}
	r.state.Label = label
	return true
}

// SetFromAlternative applies a selected alternative-scan candidate, closing
// the loop from the scanner back into the location state.
func (r *LocationReconciler) SetFromAlternative(label string, pt types.GeoPoint) {
	p := pt
	r.state = types.LocationState{Point: &p, Label: label}
}
