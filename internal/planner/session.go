package planner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"rainscout/internal/config"
	"rainscout/internal/mappick"
	"rainscout/internal/observability"
	"rainscout/internal/search"
	"rainscout/internal/types"
)

// Deps bundles the external collaborators a session needs.
type Deps struct {
	Forward types.ForwardGeocoder
	Reverse types.ReverseGeocoder
	Risk    types.RiskFetcher
	Scanner types.AreaScanner
	Clock   clockwork.Clock
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Session wires the search engine, map picker, reconciler, form,
// coordinator, and scanner behind one event loop goroutine. Every command
// and every asynchronous completion executes on that goroutine, giving the
// cooperative single-threaded semantics the planning core relies on: no two
// state mutations ever interleave.
type Session struct {
	id      string
	logger  *slog.Logger
	metrics *observability.Metrics

	search      *search.Engine
	picker      *mappick.Picker
	reconciler  *LocationReconciler
	form        *ParameterForm
	coordinator *RiskQueryCoordinator
	scanner     *AlternativeScanner

	// ctx bounds background work the session spawns (debounced lookups,
	// reverse geocoding). Request contexts are unsuitable: the handler
	// returns before the work runs.
	ctx    context.Context
	cancel context.CancelFunc

	cmds      chan func()
	quit      chan struct{}
	closeOnce sync.Once
}

// Snapshot is a point-in-time view of the whole session state.
type Snapshot struct {
	ID           string                `json:"id"`
	Location     types.LocationState   `json:"location"`
	Suggestions  []types.Suggestion    `json:"suggestions"`
	Parameters   types.QueryParameters `json:"parameters"`
	Computable   bool                  `json:"computable"`
	QueryState   types.QueryState      `json:"query_state"`
	Result       *types.RiskResult     `json:"result,omitempty"`
	Sky          *types.SkySummary     `json:"sky,omitempty"`
	QueryError   *types.AppError       `json:"query_error,omitempty"`
	ScanEligible bool                  `json:"scan_eligible"`
	ScanState    types.ScanState       `json:"scan_state"`
	Alternatives *types.AlternativeSet `json:"alternatives,omitempty"`
	ScanError    *types.AppError       `json:"scan_error,omitempty"`
}

// NewSession creates a planning session and starts its event loop.
func NewSession(searchCfg config.SearchConfig, altTriggerPercent float64, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:         uuid.NewString(),
		logger:     logger,
		metrics:    deps.Metrics,
		ctx:        ctx,
		cancel:     cancel,
		reconciler: NewLocationReconciler(),
		form:       NewParameterForm(),
		cmds:       make(chan func(), 32),
		quit:       make(chan struct{}),
	}
	s.search = search.NewEngine(deps.Forward, clock, searchCfg.MinChars, searchCfg.Debounce, logger)
	s.picker = mappick.NewPicker(deps.Reverse, logger)
	s.coordinator = NewRiskQueryCoordinator(deps.Risk, altTriggerPercent, s.post, deps.Metrics, logger)
	s.scanner = NewAlternativeScanner(deps.Scanner, deps.Reverse, s.post, deps.Metrics, logger)

	if s.metrics != nil {
		s.metrics.SessionsActive.Inc()
	}
	go s.loop()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Close stops the event loop and the underlying components. Commands issued
// afterwards fail with an internal error.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.cancel()
		s.search.Close()
		s.picker.Close()
		if s.metrics != nil {
			s.metrics.SessionsActive.Dec()
		}
	})
}

// loop is the session's single mutation goroutine. It fans in explicit
// commands, asynchronous fetch completions (posted as commands), and the
// event streams of the search engine and map picker.
func (s *Session) loop() {
	searchEvents := s.search.Events()
	pickEvents := s.picker.Events()

	for {
		select {
		case <-s.quit:
			return
		case fn := <-s.cmds:
			fn()
		case ev, ok := <-searchEvents:
			if !ok {
				searchEvents = nil
				continue
			}
			s.applySearchEvent(ev)
		case ev, ok := <-pickEvents:
			if !ok {
				pickEvents = nil
				continue
			}
			s.applyPickEvent(ev)
		}
	}
}

// post enqueues a deferred mutation without waiting for it. Used by the
// coordinator and scanner to marshal fetch completions onto the loop.
func (s *Session) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.quit:
	}
}

// do runs fn on the loop and waits for it. Reports false if the session is
// closed.
func (s *Session) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(done) }:
	case <-s.quit:
		return false
	}
	select {
	case <-done:
		return true
	case <-s.quit:
		return false
	}
}

func errSessionClosed() *types.AppError {
	return types.NewAppError(types.ErrCodeInternalUnexpected, "session is closed", nil)
}

func (s *Session) applySearchEvent(ev search.Event) {
	if ev.Kind == search.EventSelected && ev.Selection != nil {
		s.reconciler.SetFromSearch(ev.Selection.Label, ev.Selection.Point)
		s.coordinator.Invalidate()
	}
}

func (s *Session) applyPickEvent(ev mappick.Event) {
	switch ev.Kind {
	case mappick.EventPicked:
		s.reconciler.SetFromMapPick(ev.Point, ev.Label)
		s.coordinator.Invalidate()
	case mappick.EventLabeled:
		s.reconciler.SetLabelFromReverseGeocode(ev.Point, ev.Label)
	}
}

// drainSearchUntilSelected applies queued search events up to and including
// the selection just committed, so its effect is visible before the
// triggering command returns. Later events stay queued for the loop.
func (s *Session) drainSearchUntilSelected() {
	for {
		select {
		case ev, ok := <-s.search.Events():
			if !ok {
				return
			}
			s.applySearchEvent(ev)
			if ev.Kind == search.EventSelected {
				return
			}
		default:
			return
		}
	}
}

// drainPicksUntilPicked applies queued pick events up to and including the
// pick of target. The pick's own label resolution, if already queued, stays
// for the loop so the command observes the provisional state.
func (s *Session) drainPicksUntilPicked(target types.GeoPoint) {
	for {
		select {
		case ev, ok := <-s.picker.Events():
			if !ok {
				return
			}
			s.applyPickEvent(ev)
			if ev.Kind == mappick.EventPicked && ev.Point == target {
				return
			}
		default:
			return
		}
	}
}

// SearchInput feeds one search text change. The engine is internally
// synchronized; suggestion updates surface via Snapshot. The debounced
// lookup fires after the caller has moved on, so it runs on the session
// context, not a request context.
func (s *Session) SearchInput(text string) error {
	select {
	case <-s.quit:
		return errSessionClosed()
	default:
	}
	s.search.SetInput(s.ctx, text)
	return nil
}

// SearchSelect commits a suggestion into the authoritative location.
func (s *Session) SearchSelect(sug types.Suggestion) (types.LocationState, error) {
	var state types.LocationState
	ok := s.do(func() {
		s.search.Select(sug)
		s.drainSearchUntilSelected()
		state = s.reconciler.State()
	})
	if !ok {
		return types.LocationState{}, errSessionClosed()
	}
	return state, nil
}

// MapPick applies a tapped point. The returned state carries the
// provisional coordinate label; the resolved name lands asynchronously on
// the session context, which outlives the request that tapped.
func (s *Session) MapPick(lat, lon float64) (types.LocationState, error) {
	var state types.LocationState
	var pickErr error
	ok := s.do(func() {
		pickErr = s.picker.Pick(s.ctx, lat, lon)
		if pickErr != nil {
			return
		}
		s.drainPicksUntilPicked(types.GeoPoint{Lat: lat, Lon: lon})
		state = s.reconciler.State()
	})
	if !ok {
		return types.LocationState{}, errSessionClosed()
	}
	if pickErr != nil {
		return types.LocationState{}, pickErr
	}
	return state, nil
}

// SetParameters merges a partial parameter edit. An effective edit after a
// terminal query state invalidates the displayed result; edits never touch
// an in-flight request, which was snapshotted at issue time.
func (s *Session) SetParameters(patch ParameterPatch) (types.QueryParameters, error) {
	var params types.QueryParameters
	ok := s.do(func() {
		if s.form.Apply(patch) {
			s.coordinator.Invalidate()
		}
		params = s.form.Params()
	})
	if !ok {
		return types.QueryParameters{}, errSessionClosed()
	}
	return params, nil
}

// Compute runs the primary risk query and waits for its terminal state.
// Validation failures and in-flight conflicts return without a network call.
func (s *Session) Compute(ctx context.Context) (*types.RiskResult, error) {
	done := make(chan struct{})
	var rejectErr *types.AppError
	ok := s.do(func() {
		loc := s.reconciler.State()
		rejectErr = s.coordinator.Compute(ctx, loc.Point, s.form.Params(), func() { close(done) })
	})
	if !ok {
		return nil, errSessionClosed()
	}
	if rejectErr != nil {
		return nil, rejectErr
	}

	select {
	case <-done:
	case <-s.quit:
		return nil, errSessionClosed()
	}

	var res *types.RiskResult
	var fetchErr *types.AppError
	if !s.do(func() {
		res = s.coordinator.Result()
		fetchErr = s.coordinator.LastError()
	}) {
		return nil, errSessionClosed()
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return res, nil
}

// Scan runs the alternative-location scan and waits for its terminal state.
func (s *Session) Scan(ctx context.Context, activity string) (*types.AlternativeSet, error) {
	done := make(chan struct{})
	var rejectErr *types.AppError
	ok := s.do(func() {
		loc := s.reconciler.State()
		params := s.form.Params()
		if err := types.ValidateQuery(loc.Point, params); err != nil {
			rejectErr = err
			return
		}
		rejectErr = s.scanner.Scan(ctx, *loc.Point, params.DateISO,
			params.StartHour, params.EndHour, activity, func() { close(done) })
	})
	if !ok {
		return nil, errSessionClosed()
	}
	if rejectErr != nil {
		return nil, rejectErr
	}

	select {
	case <-done:
	case <-s.quit:
		return nil, errSessionClosed()
	}

	var set *types.AlternativeSet
	var scanErr *types.AppError
	if !s.do(func() {
		set = s.scanner.Alternatives()
		scanErr = s.scanner.LastError()
	}) {
		return nil, errSessionClosed()
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return set, nil
}

// SelectAlternative commits the scanned candidate at index into the
// authoritative location, closing the loop back to the reconciler.
func (s *Session) SelectAlternative(index int) (types.LocationState, error) {
	var state types.LocationState
	var selErr *types.AppError
	ok := s.do(func() {
		cand, err := s.scanner.Select(index)
		if err != nil {
			selErr = err
			return
		}
		s.reconciler.SetFromAlternative(cand.Label, cand.Point)
		s.coordinator.Invalidate()
		state = s.reconciler.State()
	})
	if !ok {
		return types.LocationState{}, errSessionClosed()
	}
	if selErr != nil {
		return types.LocationState{}, selErr
	}
	return state, nil
}

// Snapshot returns a consistent view of the full session state.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	ok := s.do(func() {
		loc := s.reconciler.State()
		params := s.form.Params()
		var sky *types.SkySummary
		if res := s.coordinator.Result(); res != nil {
			sum := res.Sky()
			sky = &sum
		}
		snap = Snapshot{
			ID:           s.id,
			Location:     loc,
			Suggestions:  s.search.Suggestions(),
			Parameters:   params,
			Computable:   Computable(loc, params, s.coordinator.InFlight()),
			QueryState:   s.coordinator.State(),
			Result:       s.coordinator.Result(),
			Sky:          sky,
			QueryError:   s.coordinator.LastError(),
			ScanEligible: s.coordinator.ScanEligible(),
			ScanState:    s.scanner.State(),
			Alternatives: s.scanner.Alternatives(),
			ScanError:    s.scanner.LastError(),
		}
	})
	if !ok {
		return Snapshot{}, errSessionClosed()
	}
	return snap, nil
}
