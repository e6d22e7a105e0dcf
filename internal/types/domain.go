package types

import "sort"

// GeoPoint is an immutable geographic coordinate. Instances are replaced
// wholesale, never mutated field-by-field.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationState is the single authoritative location for a planning session.
// It is mutated only by the location reconciler, in response to exactly one
// of: a search selection, a map pick (plus its asynchronous reverse-geocode
// resolution), or an alternative-location selection.
//
// Label may be set before or independently of Point (a raw search string not
// yet resolved to coordinates), but a computable state requires both.
type LocationState struct {
	Point *GeoPoint `json:"point,omitempty"`
	Label string    `json:"label"`
}

// HasPoint reports whether the session has an authoritative coordinate.
func (l LocationState) HasPoint() bool {
	return l.Point != nil
}

// Suggestion is a single forward-geocoding candidate: a named point offered
// to the user while typing.
type Suggestion struct {
	Label string   `json:"label"`
	Point GeoPoint `json:"point"`
}

// QueryParameters holds the user-editable inputs of a risk query. Fields are
// edited freely at any time, including while a query is in flight; the
// coordinator snapshots values at request-issue time.
type QueryParameters struct {
	DateISO     string  `json:"date_iso"`
	StartHour   int     `json:"start_hour"`
	EndHour     int     `json:"end_hour"`
	ThresholdMm float64 `json:"threshold_mm"`
}

// Valid reports whether the parameters alone permit a risk query. The full
// computability predicate additionally requires a resolved point and no
// query in flight; see planner.Session.Computable.
func (p QueryParameters) Valid() bool {
	return p.DateISO != "" && p.StartHour < p.EndHour && p.ThresholdMm > 0
}

// RiskResult is the validated outcome of a successful risk query. It is
// produced only by the risk coordinator and replaced wholesale by each new
// successful fetch.
type RiskResult struct {
	ProbabilityPercent float64    `json:"probability_percent"`
	RiskLevel          RiskLevel  `json:"risk_level"`
	Message            string     `json:"message"`
	ThresholdMm        float64    `json:"threshold_mm"`
	Window             string     `json:"window"`
	Date               string     `json:"date"`
	Location           GeoPoint   `json:"location"`
	Source             RiskSource `json:"source"`
	Confidence         Confidence `json:"confidence"`
	DaysAhead          *int       `json:"days_ahead"`
}

// Sky derives the user-facing sky summary for this result's probability.
func (r *RiskResult) Sky() SkySummary {
	return SkySummaryFor(r.ProbabilityPercent)
}

// AlternativeCandidate is one nearby lower-risk location returned by the
// alternative scan.
type AlternativeCandidate struct {
	Point              GeoPoint `json:"point"`
	Label              string   `json:"label"`
	ProbabilityPercent float64  `json:"probability_percent"`
	DistanceKm         float64  `json:"distance_km"`
}

// OriginalLocation echoes the scanned location and its risk, as reported by
// the scan service.
type OriginalLocation struct {
	Point              GeoPoint `json:"point"`
	Label              string   `json:"label"`
	ProbabilityPercent float64  `json:"probability_percent"`
}

// AlternativeSet is the outcome of a completed alternative scan.
// HasBetterOptions=false is a valid, displayable success ("no improvement
// found"), distinct from a request failure.
type AlternativeSet struct {
	Original         OriginalLocation       `json:"original"`
	Candidates       []AlternativeCandidate `json:"candidates"`
	HasBetterOptions bool                   `json:"has_better_options"`
}

// SortCandidates orders the candidates by ascending probability. The scan
// service is assumed to pre-sort, but consumers sort defensively rather than
// trust server ordering.
func (a *AlternativeSet) SortCandidates() {
	sort.SliceStable(a.Candidates, func(i, j int) bool {
		return a.Candidates[i].ProbabilityPercent < a.Candidates[j].ProbabilityPercent
	})
}
