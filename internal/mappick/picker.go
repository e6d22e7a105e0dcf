// Package mappick implements direct point selection on the map surface.
//
// A pick takes effect immediately with a provisional coordinate label; the
// human-readable name resolves asynchronously via reverse geocoding. Every
// pick mints a token, and a resolved name is applied only while its token is
// still the newest, so overlapping picks can never cross-label each other.
package mappick

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"rainscout/internal/types"
)

// EventKind discriminates the events the picker publishes.
type EventKind string

const (
	// EventPicked carries the immediately-applied point with its
	// provisional coordinate label.
	EventPicked EventKind = "picked"
	// EventLabeled upgrades the most recent pick with its resolved name.
	EventLabeled EventKind = "labeled"
)

// Event is one state change published by the picker.
type Event struct {
	Kind  EventKind
	Point types.GeoPoint
	Label string
}

// Picker is the map point-selection component.
type Picker struct {
	reverser types.ReverseGeocoder
	logger   *slog.Logger

	mu     sync.Mutex
	token  uint64 // newest pick generation; stale reverse lookups check against it
	closed bool

	events chan Event
}

// NewPicker creates a map picker.
func NewPicker(reverser types.ReverseGeocoder, logger *slog.Logger) *Picker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Picker{
		reverser: reverser,
		logger:   logger,
		events:   make(chan Event, 16),
	}
}

// Events returns the channel of picker state changes.
func (p *Picker) Events() <-chan Event {
	return p.events
}

// ProvisionalLabel formats a coordinate-only label shown until the reverse
// geocode resolves.
func ProvisionalLabel(pt types.GeoPoint) string {
	return fmt.Sprintf("%.4f, %.4f", pt.Lat, pt.Lon)
}

// Pick applies a tapped point. The point and a provisional label publish
// immediately; the resolved name follows asynchronously if this pick is
// still the newest when the lookup completes.
func (p *Picker) Pick(ctx context.Context, lat, lon float64) error {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return err
	}

	pt := types.GeoPoint{Lat: lat, Lon: lon}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return types.NewAppError(types.ErrCodeInternalUnexpected, "picker is closed", nil)
	}
	p.token++
	token := p.token
	p.publishLocked(Event{Kind: EventPicked, Point: pt, Label: ProvisionalLabel(pt)})
	p.mu.Unlock()

	go p.resolve(ctx, pt, token)
	return nil
}

// Close stops the picker and closes the event channel.
func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.events)
}

// resolve reverse-geocodes one pick and publishes the name if the pick is
// still current. Failures and empty names leave the provisional label
// standing; the point itself was already applied.
func (p *Picker) resolve(ctx context.Context, pt types.GeoPoint, token uint64) {
	name, err := p.reverser.Reverse(ctx, pt.Lat, pt.Lon)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || token != p.token {
		return
	}

	if err != nil {
		p.logger.WarnContext(ctx, "reverse geocode failed, keeping coordinate label",
			"lat", pt.Lat, "lon", pt.Lon, "error", err)
		return
	}
	if name == "" {
		return
	}

	p.publishLocked(Event{Kind: EventLabeled, Point: pt, Label: name})
}

func (p *Picker) publishLocked(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("map pick event buffer full, dropping event", "kind", ev.Kind)
	}
}
