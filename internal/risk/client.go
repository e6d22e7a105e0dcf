// Package risk implements the clients for the rain-risk assessment service:
// the primary point query and the alternative-location area scan.
//
// Payload validation is fail-closed. Every field of the risk response is
// checked for presence and, where enumerated, for a known value; anything
// that does not match the contract is rejected as a schema error rather than
// partially accepted.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rainscout/internal/config"
	"rainscout/internal/external"
	"rainscout/internal/observability"
	"rainscout/internal/types"
)

// Client talks to the risk-assessment service. It implements both
// types.RiskFetcher and types.AreaScanner.
type Client struct {
	http    *external.Client
	baseURL string
	scan    config.ScanConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a risk-service client. metrics may be nil.
func NewClient(cfg config.RiskConfig, scan config.ScanConfig, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http: external.NewClient(
			&http.Client{Timeout: cfg.Timeout},
			"risk",
			external.DefaultRetryPolicy(),
			"RainScout/1.0",
		),
		baseURL: cfg.BaseURL,
		scan:    scan,
		logger:  logger,
		metrics: metrics,
	}
}

// riskPayload mirrors the /risk wire format. All fields are pointers (or raw)
// so missing keys are distinguishable from zero values.
type riskPayload struct {
	ProbabilityPercent *float64        `json:"probability_percent"`
	RiskLevel          *string         `json:"risk_level"`
	Message            *string         `json:"message"`
	ThresholdMm        *float64        `json:"threshold_mm"`
	Window             *string         `json:"window"`
	Date               *string         `json:"date"`
	Location           *types.GeoPoint `json:"location"`
	Source             *string         `json:"source"`
	Confidence         *string         `json:"confidence"`
	DaysAhead          json.RawMessage `json:"days_ahead"`
}

// FetchRisk issues the primary risk query for one point and window.
func (c *Client) FetchRisk(ctx context.Context, point types.GeoPoint, params types.QueryParameters) (*types.RiskResult, error) {
	q := url.Values{
		"lat":  {strconv.FormatFloat(point.Lat, 'f', -1, 64)},
		"lon":  {strconv.FormatFloat(point.Lon, 'f', -1, 64)},
		"date": {params.DateISO},
		"h1":   {strconv.Itoa(params.StartHour)},
		"h2":   {strconv.Itoa(params.EndHour)},
		"mm":   {strconv.FormatFloat(params.ThresholdMm, 'f', -1, 64)},
	}

	body, err := c.get(ctx, "risk", c.baseURL+"/risk?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var raw riskPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, c.schemaError("risk", "undecodable payload", err)
	}

	result, vErr := validateRiskPayload(raw)
	if vErr != nil {
		c.logger.WarnContext(ctx, "risk payload rejected", "reason", vErr.Message)
		c.countFailure("risk", "schema")
		return nil, vErr
	}
	return result, nil
}

// validateRiskPayload enforces the full response contract: every field
// present, enums in range, days_ahead either a number or an explicit null.
func validateRiskPayload(raw riskPayload) (*types.RiskResult, *types.AppError) {
	missing := func(field string) *types.AppError {
		return types.NewAppError(types.ErrCodeUpstreamSchema,
			fmt.Sprintf("risk response missing field %q", field), nil)
	}

	switch {
	case raw.ProbabilityPercent == nil:
		return nil, missing("probability_percent")
	case raw.RiskLevel == nil:
		return nil, missing("risk_level")
	case raw.Message == nil:
		return nil, missing("message")
	case raw.ThresholdMm == nil:
		return nil, missing("threshold_mm")
	case raw.Window == nil:
		return nil, missing("window")
	case raw.Date == nil:
		return nil, missing("date")
	case raw.Location == nil:
		return nil, missing("location")
	case raw.Source == nil:
		return nil, missing("source")
	case raw.Confidence == nil:
		return nil, missing("confidence")
	case len(raw.DaysAhead) == 0:
		return nil, missing("days_ahead")
	}

	if !types.ValidRiskLevel(*raw.RiskLevel) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
			fmt.Sprintf("risk response has unknown risk_level %q", *raw.RiskLevel), nil)
	}
	if !types.ValidRiskSource(*raw.Source) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
			fmt.Sprintf("risk response has unknown source %q", *raw.Source), nil)
	}
	if !types.ValidConfidence(*raw.Confidence) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
			fmt.Sprintf("risk response has unknown confidence %q", *raw.Confidence), nil)
	}
	if *raw.ProbabilityPercent < 0 || *raw.ProbabilityPercent > 100 {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
			fmt.Sprintf("risk response probability_percent %v outside [0, 100]", *raw.ProbabilityPercent), nil)
	}
	if !types.ValidPoint(raw.Location.Lat, raw.Location.Lon) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
			fmt.Sprintf("risk response location (%v, %v) outside valid coordinate range",
				raw.Location.Lat, raw.Location.Lon), nil)
	}

	var daysAhead *int
	if string(raw.DaysAhead) != "null" {
		var n int
		if err := json.Unmarshal(raw.DaysAhead, &n); err != nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
				"risk response days_ahead is neither a number nor null", err)
		}
		daysAhead = &n
	}

	return &types.RiskResult{
		ProbabilityPercent: *raw.ProbabilityPercent,
		RiskLevel:          types.RiskLevel(*raw.RiskLevel),
		Message:            *raw.Message,
		ThresholdMm:        *raw.ThresholdMm,
		Window:             *raw.Window,
		Date:               *raw.Date,
		Location:           *raw.Location,
		Source:             types.RiskSource(*raw.Source),
		Confidence:         types.Confidence(*raw.Confidence),
		DaysAhead:          daysAhead,
	}, nil
}

// scanLocation mirrors one scanned point on the wire.
type scanLocation struct {
	Lat                *float64 `json:"lat"`
	Lon                *float64 `json:"lon"`
	Name               string   `json:"name"`
	ProbabilityPercent *float64 `json:"probability_percent"`
	DistanceKm         float64  `json:"distance_km"`
}

// scanPayload mirrors the /scan-area wire format.
type scanPayload struct {
	OriginalLocation *scanLocation  `json:"original_location"`
	GoodAlternatives []scanLocation `json:"good_alternatives"`
	HasBetterOptions *bool          `json:"has_better_options"`
}

// ScanArea queries nearby lower-risk locations for the given point, date,
// and hour window. Radius, point count, and risk ceiling come from the scan
// configuration, not the caller.
func (c *Client) ScanArea(ctx context.Context, point types.GeoPoint, dateISO string, startHour, endHour int) (*types.AlternativeSet, error) {
	q := url.Values{
		"lat":               {strconv.FormatFloat(point.Lat, 'f', -1, 64)},
		"lon":               {strconv.FormatFloat(point.Lon, 'f', -1, 64)},
		"date":              {dateISO},
		"h1":                {strconv.Itoa(startHour)},
		"h2":                {strconv.Itoa(endHour)},
		"radius_km":         {strconv.FormatFloat(c.scan.RadiusKm, 'f', -1, 64)},
		"num_points":        {strconv.Itoa(c.scan.NumPoints)},
		"max_risk":          {strconv.FormatFloat(c.scan.MaxRiskPercent, 'f', -1, 64)},
		"include_geocoding": {"true"},
	}

	body, err := c.get(ctx, "scan", c.baseURL+"/scan-area?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var raw scanPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, c.schemaError("scan", "undecodable payload", err)
	}

	set, vErr := validateScanPayload(raw)
	if vErr != nil {
		c.logger.WarnContext(ctx, "scan payload rejected", "reason", vErr.Message)
		c.countFailure("scan", "schema")
		return nil, vErr
	}
	return set, nil
}

func validateScanPayload(raw scanPayload) (*types.AlternativeSet, *types.AppError) {
	if raw.OriginalLocation == nil || raw.HasBetterOptions == nil || raw.GoodAlternatives == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
			"scan response missing a required field", nil)
	}
	orig := raw.OriginalLocation
	if orig.Lat == nil || orig.Lon == nil || orig.ProbabilityPercent == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
			"scan response original_location is incomplete", nil)
	}

	set := &types.AlternativeSet{
		Original: types.OriginalLocation{
			Point:              types.GeoPoint{Lat: *orig.Lat, Lon: *orig.Lon},
			Label:              orig.Name,
			ProbabilityPercent: *orig.ProbabilityPercent,
		},
		Candidates:       make([]types.AlternativeCandidate, 0, len(raw.GoodAlternatives)),
		HasBetterOptions: *raw.HasBetterOptions,
	}

	for i, alt := range raw.GoodAlternatives {
		if alt.Lat == nil || alt.Lon == nil || alt.ProbabilityPercent == nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamSchema,
				fmt.Sprintf("scan response alternative %d is incomplete", i), nil)
		}
		set.Candidates = append(set.Candidates, types.AlternativeCandidate{
			Point:              types.GeoPoint{Lat: *alt.Lat, Lon: *alt.Lon},
			Label:              alt.Name,
			ProbabilityPercent: *alt.ProbabilityPercent,
			DistanceKm:         alt.DistanceKm,
		})
	}

	return set, nil
}

// get performs one GET, rejects non-200 statuses and non-JSON content types,
// and returns the raw body for contract validation by the caller.
func (c *Client) get(ctx context.Context, service, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "building risk request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		kind := "transport"
		if types.AsAppError(err).Code == types.ErrCodeUpstreamRateLimited {
			kind = "rate_limited"
		}
		c.countFailure(service, kind)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countFailure(service, "transport")
		return nil, types.NewAppError(types.ErrCodeUpstreamTransport,
			"reading risk response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.countFailure(service, "transport")
		return nil, types.NewAppError(types.ErrCodeUpstreamTransport,
			fmt.Sprintf("risk service returned %d", resp.StatusCode), nil)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		c.countFailure(service, "transport")
		return nil, types.NewAppError(types.ErrCodeUpstreamTransport,
			fmt.Sprintf("risk service returned content type %q, expected JSON", mediaType), nil)
	}

	return body, nil
}

func (c *Client) schemaError(service, msg string, err error) *types.AppError {
	c.countFailure(service, "schema")
	return types.NewAppError(types.ErrCodeUpstreamSchema, "risk service "+msg, err)
}

func (c *Client) countFailure(service, kind string) {
	if c.metrics != nil {
		c.metrics.UpstreamFailures.WithLabelValues(service, kind).Inc()
	}
}
