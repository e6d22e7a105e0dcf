package types

// RiskLevel is the categorical bucket derived from a rain-probability
// percentage.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskElevated RiskLevel = "elevated"
	RiskHigh     RiskLevel = "high"
)

// ValidRiskLevel reports whether s is one of the defined risk buckets.
func ValidRiskLevel(s string) bool {
	switch RiskLevel(s) {
	case RiskLow, RiskModerate, RiskElevated, RiskHigh:
		return true
	}
	return false
}

// RiskSource identifies whether a probability comes from a live short-range
// weather model or from historical statistical patterns.
type RiskSource string

const (
	SourceForecast    RiskSource = "forecast"
	SourceClimatology RiskSource = "climatology"
)

// ValidRiskSource reports whether s is a defined probability source.
func ValidRiskSource(s string) bool {
	switch RiskSource(s) {
	case SourceForecast, SourceClimatology:
		return true
	}
	return false
}

// Confidence qualifies how much trust the risk service places in a result.
type Confidence string

const (
	ConfidenceHigh       Confidence = "high"
	ConfidenceMedium     Confidence = "medium"
	ConfidenceLow        Confidence = "low"
	ConfidenceHistorical Confidence = "historical"
)

// ValidConfidence reports whether s is a defined confidence bucket.
func ValidConfidence(s string) bool {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceHistorical:
		return true
	}
	return false
}

// QueryState is the lifecycle state of the primary risk query.
// Terminal states (Success, Failed) are re-entrant: a new explicit compute
// command may be issued from either.
type QueryState string

const (
	QueryIdle       QueryState = "idle"
	QueryValidating QueryState = "validating"
	QueryInFlight   QueryState = "in_flight"
	QuerySuccess    QueryState = "success"
	QueryFailed     QueryState = "failed"
)

// ScanState is the lifecycle state of the alternative-location scan.
type ScanState string

const (
	ScanIdle     ScanState = "idle"
	ScanInFlight ScanState = "in_flight"
	ScanSuccess  ScanState = "success"
	ScanFailed   ScanState = "failed"
)
