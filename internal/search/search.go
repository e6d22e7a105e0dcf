// Package search implements the debounced place-search engine. Keystrokes
// arrive as input commands; the engine waits out a quiet period before
// issuing a forward-geocode lookup, and stamps every lookup with a sequence
// number so that only the newest request may publish results. Stale
// responses, however late they arrive, are discarded silently.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"rainscout/internal/types"
)

// EventKind discriminates the events the engine publishes.
type EventKind string

const (
	// EventSuggestions carries a fresh, non-stale suggestion list.
	EventSuggestions EventKind = "suggestions"
	// EventCleared signals the suggestion list was emptied, either because
	// the input dropped below the minimum length or a lookup failed.
	EventCleared EventKind = "cleared"
	// EventSelected signals the user committed to one suggestion.
	EventSelected EventKind = "selected"
)

// Event is one state change published by the engine.
type Event struct {
	Kind        EventKind
	Suggestions []types.Suggestion
	Selection   *types.Suggestion
}

// Engine is the debounced search component. All mutation goes through
// SetInput and Select; observers consume the Events channel.
type Engine struct {
	geocoder types.ForwardGeocoder
	clock    clockwork.Clock
	minChars int
	debounce time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	seq         uint64 // bumped on every input change; lookups publish only if still current
	timer       clockwork.Timer
	suggestions []types.Suggestion
	closed      bool

	events chan Event
}

// NewEngine creates a search engine. clock is injectable for tests; pass
// clockwork.NewRealClock() in production.
func NewEngine(geocoder types.ForwardGeocoder, clock clockwork.Clock, minChars int, debounce time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		geocoder: geocoder,
		clock:    clock,
		minChars: minChars,
		debounce: debounce,
		logger:   logger,
		events:   make(chan Event, 16),
	}
}

// Events returns the channel of engine state changes.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Suggestions returns a snapshot of the current suggestion list.
func (e *Engine) Suggestions() []types.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Suggestion, len(e.suggestions))
	copy(out, e.suggestions)
	return out
}

// SetInput processes one keystroke-level change of the search text.
//
// Below the minimum length the suggestion list clears immediately and any
// pending lookup is abandoned. At or above it, the debounce window restarts;
// the lookup fires only after the input has been quiet for the full window.
func (e *Engine) SetInput(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.seq++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	if len([]rune(trimmed)) < e.minChars {
		if len(e.suggestions) > 0 {
			e.suggestions = nil
			e.publishLocked(Event{Kind: EventCleared})
		}
		return
	}

	seq := e.seq
	e.timer = e.clock.AfterFunc(e.debounce, func() {
		go e.lookup(ctx, trimmed, seq)
	})
}

// Select commits one suggestion. The engine clears its list and publishes
// the selection for the location reconciler to consume.
func (e *Engine) Select(s types.Suggestion) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.seq++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.suggestions = nil

	sel := s
	e.publishLocked(Event{Kind: EventSelected, Selection: &sel})
}

// Close stops the engine and closes the event channel. No commands may be
// issued afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	close(e.events)
}

// lookup performs the forward geocode for one debounced query and publishes
// the result if, and only if, seq is still the newest input generation.
func (e *Engine) lookup(ctx context.Context, query string, seq uint64) {
	suggestions, err := e.geocoder.Search(ctx, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || seq != e.seq {
		return
	}

	if err != nil {
		// Lookup failures degrade to an empty list; typing continues.
		e.logger.WarnContext(ctx, "place search failed", "query", query, "error", err)
		e.suggestions = nil
		e.publishLocked(Event{Kind: EventCleared})
		return
	}

	e.suggestions = suggestions
	e.publishLocked(Event{Kind: EventSuggestions, Suggestions: suggestions})
}

// publishLocked emits an event without blocking the caller. The channel is
// buffered; a full buffer drops the event and logs, since every event is a
// full-state snapshot and a later one supersedes it.
func (e *Engine) publishLocked(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("search event buffer full, dropping event", "kind", ev.Kind)
	}
}
