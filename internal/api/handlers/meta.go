package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rainscout/internal/config"
	"rainscout/internal/core"
)

// ClientConfig is the client-bootstrap view of server configuration: the
// map defaults to render before any point is set, the search gating values,
// and the fixed scan parameters. Served read-only so UI constants stay in
// one place.
type ClientConfig struct {
	Map    MapDefaults    `json:"map"`
	Search SearchSettings `json:"search"`
	Scan   ScanSettings   `json:"scan"`
	Risk   RiskSettings   `json:"risk"`
}

// MapDefaults is the point and zoom a map surface shows when the session
// has no authoritative location yet.
type MapDefaults struct {
	DefaultLat  float64 `json:"default_lat"`
	DefaultLon  float64 `json:"default_lon"`
	DefaultZoom int     `json:"default_zoom"`
}

// SearchSettings mirrors the place-search gating so clients can disable
// their input affordances below the server's thresholds.
type SearchSettings struct {
	MinChars   int   `json:"min_chars"`
	DebounceMs int64 `json:"debounce_ms"`
}

// ScanSettings echoes the fixed alternative-scan parameters.
type ScanSettings struct {
	RadiusKm       float64 `json:"radius_km"`
	NumPoints      int     `json:"num_points"`
	MaxRiskPercent float64 `json:"max_risk_percent"`
}

// RiskSettings echoes the scan-eligibility trigger.
type RiskSettings struct {
	AltTriggerPercent float64 `json:"alt_trigger_percent"`
}

// MetaHandler serves deployment-level metadata endpoints.
type MetaHandler struct {
	cfg *config.Config
}

// NewMetaHandler creates a MetaHandler.
func NewMetaHandler(cfg *config.Config) *MetaHandler {
	return &MetaHandler{cfg: cfg}
}

// RegisterRoutes mounts the metadata routes on the provided chi.Router.
func (h *MetaHandler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.Config)
}

// Config returns the client-bootstrap configuration.
func (h *MetaHandler) Config(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: ClientConfig{
		Map: MapDefaults{
			DefaultLat:  h.cfg.Map.DefaultLat,
			DefaultLon:  h.cfg.Map.DefaultLon,
			DefaultZoom: h.cfg.Map.DefaultZoom,
		},
		Search: SearchSettings{
			MinChars:   h.cfg.Search.MinChars,
			DebounceMs: h.cfg.Search.Debounce.Milliseconds(),
		},
		Scan: ScanSettings{
			RadiusKm:       h.cfg.Scan.RadiusKm,
			NumPoints:      h.cfg.Scan.NumPoints,
			MaxRiskPercent: h.cfg.Scan.MaxRiskPercent,
		},
		Risk: RiskSettings{
			AltTriggerPercent: h.cfg.Risk.AltTriggerPercent,
		},
	}})
}
