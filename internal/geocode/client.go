// Package geocode implements the forward-suggestion and reverse-geocoding
// clients against a Nominatim-compatible service.
//
// Forward results carry lat/lon as numeric strings; both are parsed and
// range-checked before a candidate is surfaced, and unparseable entries are
// dropped rather than failing the whole lookup. An empty result set is a
// valid "no results" outcome, not an error.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rainscout/internal/config"
	"rainscout/internal/external"
	"rainscout/internal/observability"
	"rainscout/internal/types"
)

// Client talks to the geocoding service. It implements both
// types.ForwardGeocoder and types.ReverseGeocoder.
type Client struct {
	http        *external.Client
	baseURL     string
	locale      string
	resultLimit int
	reverseZoom int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewClient creates a geocoding client from configuration. metrics may be
// nil; instrumentation is then skipped.
func NewClient(cfg config.GeocoderConfig, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http: external.NewClient(
			&http.Client{Timeout: cfg.Timeout},
			"geocoder",
			external.DefaultRetryPolicy(),
			cfg.UserAgent,
		),
		baseURL:     cfg.BaseURL,
		locale:      cfg.Locale,
		resultLimit: cfg.ResultLimit,
		reverseZoom: cfg.ReverseZoom,
		logger:      logger,
		metrics:     metrics,
	}
}

// searchResult mirrors the forward-geocoding wire format. Coordinates arrive
// as numeric strings.
type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// reverseResult mirrors the reverse-geocoding wire format. The service
// signals an unresolvable point via the error field with a 200 status.
type reverseResult struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Search resolves a free-text query to ranked suggestion candidates.
func (c *Client) Search(ctx context.Context, query string) ([]types.Suggestion, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"q":              {query},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(c.resultLimit)},
	}

	var raw []searchResult
	if err := c.get(ctx, "forward", c.baseURL+"/search?"+params.Encode(), &raw); err != nil {
		return nil, err
	}

	suggestions := make([]types.Suggestion, 0, len(raw))
	for _, r := range raw {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil || !types.ValidPoint(lat, lon) {
			c.logger.WarnContext(ctx, "dropping suggestion with bad coordinates",
				"display_name", r.DisplayName, "lat", r.Lat, "lon", r.Lon)
			continue
		}
		suggestions = append(suggestions, types.Suggestion{
			Label: r.DisplayName,
			Point: types.GeoPoint{Lat: lat, Lon: lon},
		})
	}

	if c.metrics != nil {
		outcome := "success"
		if len(suggestions) == 0 {
			outcome = "empty"
		}
		c.metrics.GeocodeRequests.WithLabelValues("forward", outcome).Inc()
	}

	return suggestions, nil
}

// Reverse resolves coordinates to a display name. An unresolvable point
// yields ("", nil): the caller leaves whatever label it had standing.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":           {strconv.Itoa(c.reverseZoom)},
		"addressdetails": {"1"},
	}

	var raw reverseResult
	if err := c.get(ctx, "reverse", c.baseURL+"/reverse?"+params.Encode(), &raw); err != nil {
		return "", err
	}

	if raw.Error != "" || raw.DisplayName == "" {
		if c.metrics != nil {
			c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
		}
		return "", nil
	}

	if c.metrics != nil {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	}
	return raw.DisplayName, nil
}

// get issues one GET request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, method, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "building geocode request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.locale)

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues("geocoder").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.countFailure(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := types.NewAppError(types.ErrCodeUpstreamTransport,
			fmt.Sprintf("geocoder %s lookup returned %d", method, resp.StatusCode), nil)
		c.countFailure(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		err2 := types.NewAppError(types.ErrCodeUpstreamSchema,
			fmt.Sprintf("geocoder %s lookup returned undecodable payload", method), err)
		c.countFailure(err2)
		return err2
	}

	return nil
}

func (c *Client) countFailure(err error) {
	if c.metrics == nil {
		return
	}
	kind := "transport"
	switch types.AsAppError(err).Code {
	case types.ErrCodeUpstreamSchema:
		kind = "schema"
	case types.ErrCodeUpstreamRateLimited:
		kind = "rate_limited"
	}
	c.metrics.UpstreamFailures.WithLabelValues("geocoder", kind).Inc()
}
