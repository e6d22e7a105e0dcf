package types

import "fmt"

// Validation constraint constants.
const (
	MinLat  = -90.0
	MaxLat  = 90.0
	MinLon  = -180.0
	MaxLon  = 180.0
	MinHour = 0
	MaxHour = 23
)

// ValidPoint reports whether the coordinates fall within valid geographic
// bounds.
func ValidPoint(lat, lon float64) bool {
	return lat >= MinLat && lat <= MaxLat && lon >= MinLon && lon <= MaxLon
}

// ValidateCoordinates returns a categorized validation error for out-of-range
// coordinates, or nil.
func ValidateCoordinates(lat, lon float64) *AppError {
	if lat < MinLat || lat > MaxLat {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %.4f outside [%.0f, %.0f]", lat, MinLat, MaxLat), nil)
	}
	if lon < MinLon || lon > MaxLon {
		return NewAppError(ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %.4f outside [%.0f, %.0f]", lon, MinLon, MaxLon), nil)
	}
	return nil
}

// ValidateQuery checks the full pre-flight predicate for a risk query:
// point present and in range, date non-empty, startHour < endHour, threshold
// strictly positive. It returns the first violation with a specific
// corrective message, matching the order the sidebar surfaces them.
func ValidateQuery(point *GeoPoint, params QueryParameters) *AppError {
	if point == nil {
		return NewAppError(ErrCodeValidationMissingPoint,
			"pick a location (search or map)", nil)
	}
	if err := ValidateCoordinates(point.Lat, point.Lon); err != nil {
		return err
	}
	if params.DateISO == "" {
		return NewAppError(ErrCodeValidationMissingDate, "choose a date", nil)
	}
	if params.StartHour >= params.EndHour {
		return NewAppError(ErrCodeValidationHourWindow,
			"start hour must be before end hour", nil)
	}
	if params.ThresholdMm <= 0 {
		return NewAppError(ErrCodeValidationThreshold,
			"threshold (mm) must be greater than zero", nil)
	}
	return nil
}
