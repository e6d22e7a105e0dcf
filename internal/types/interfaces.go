package types

import (
	"context"
)

// ForwardGeocoder resolves free-text place names to ranked coordinate
// candidates. An empty result is a valid "no results" outcome, not an error.
type ForwardGeocoder interface {
	Search(ctx context.Context, query string) ([]Suggestion, error)
}

// ReverseGeocoder resolves coordinates to a display name. Implementations
// degrade gracefully: a failure or unresolvable point yields an empty string
// and an error, and callers leave the prior label standing.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// RiskFetcher issues the primary probability-of-rain query.
type RiskFetcher interface {
	FetchRisk(ctx context.Context, point GeoPoint, params QueryParameters) (*RiskResult, error)
}

// AreaScanner issues the secondary nearby-alternatives scan.
type AreaScanner interface {
	ScanArea(ctx context.Context, point GeoPoint, dateISO string, startHour, endHour int) (*AlternativeSet, error)
}
