package planner

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"rainscout/internal/mappick"
	"rainscout/internal/observability"
	"rainscout/internal/types"
)

// topAlternatives is how many candidates survive ranking.
const topAlternatives = 3

// reverseConcurrency bounds the parallel name lookups for unnamed candidates.
const reverseConcurrency = 3

// AlternativeScanner runs the secondary nearby-alternatives scan through the
// lifecycle Idle -> InFlight -> {Success, Failed}. A selection of a candidate
// loops back into the location reconciler via the session.
//
// As with the coordinator, deferred mutations go through exec.
type AlternativeScanner struct {
	scanner  types.AreaScanner
	reverser types.ReverseGeocoder
	exec     func(func())
	logger   *slog.Logger
	metrics  *observability.Metrics

	state   types.ScanState
	set     *types.AlternativeSet
	lastErr *types.AppError
}

// NewAlternativeScanner creates a scanner. reverser names candidates the
// remote left unnamed despite geocoding being requested; it may be nil to
// skip that step.
func NewAlternativeScanner(scanner types.AreaScanner, reverser types.ReverseGeocoder, exec func(func()), metrics *observability.Metrics, logger *slog.Logger) *AlternativeScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlternativeScanner{
		scanner:  scanner,
		reverser: reverser,
		exec:     exec,
		logger:   logger,
		metrics:  metrics,
		state:    types.ScanIdle,
	}
}

// State returns the current lifecycle state.
func (s *AlternativeScanner) State() types.ScanState { return s.state }

// Alternatives returns the stored scan outcome, nil unless the state is
// Success.
func (s *AlternativeScanner) Alternatives() *types.AlternativeSet { return s.set }

// LastError returns the categorized error of the most recent failure.
func (s *AlternativeScanner) LastError() *types.AppError { return s.lastErr }

// Scan issues one area scan. The activity label is required and validated
// before any network call; a blank one is rejected without a state change.
// An accepted scan returns nil and invokes onDone (via exec) once the
// terminal state is applied.
func (s *AlternativeScanner) Scan(ctx context.Context, point types.GeoPoint, dateISO string, startHour, endHour int, activity string, onDone func()) *types.AppError {
	if strings.TrimSpace(activity) == "" {
		return types.NewAppError(types.ErrCodeValidationActivityBlank,
			"enter or select an activity", nil)
	}
	if s.state == types.ScanInFlight {
		return types.NewAppError(types.ErrCodeConflictScanInFlight,
			"an alternative scan is already in flight", nil)
	}

	s.state = types.ScanInFlight
	s.set = nil
	s.lastErr = nil

	go func() {
		set, err := s.scanner.ScanArea(ctx, point, dateISO, startHour, endHour)
		if err == nil {
			s.rank(ctx, set)
		}
		s.exec(func() {
			s.complete(ctx, set, err)
			if onDone != nil {
				onDone()
			}
		})
	}()
	return nil
}

// Select commits the candidate at index, returning it for the session to
// feed into the location reconciler.
func (s *AlternativeScanner) Select(index int) (*types.AlternativeCandidate, *types.AppError) {
	if s.set == nil {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField,
			"no completed alternative scan to select from", nil)
	}
	if index < 0 || index >= len(s.set.Candidates) {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField,
			"alternative index out of range", nil)
	}
	c := s.set.Candidates[index]
	return &c, nil
}

// rank sorts defensively by ascending probability rather than trusting
// server ordering, keeps the top candidates, and names any the remote left
// unnamed.
func (s *AlternativeScanner) rank(ctx context.Context, set *types.AlternativeSet) {
	set.SortCandidates()
	if len(set.Candidates) > topAlternatives {
		set.Candidates = set.Candidates[:topAlternatives]
	}

	unnamed := false
	for i := range set.Candidates {
		if set.Candidates[i].Label == "" {
			set.Candidates[i].Label = mappick.ProvisionalLabel(set.Candidates[i].Point)
			unnamed = true
		}
	}
	if !unnamed || s.reverser == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reverseConcurrency)
	for i := range set.Candidates {
		c := &set.Candidates[i]
		if c.Label != mappick.ProvisionalLabel(c.Point) {
			continue
		}
		g.Go(func() error {
			name, err := s.reverser.Reverse(gctx, c.Point.Lat, c.Point.Lon)
			if err != nil {
				// Coordinate label stands; naming is best-effort.
				s.logger.WarnContext(gctx, "candidate naming failed",
					"lat", c.Point.Lat, "lon", c.Point.Lon, "error", err)
				return nil
			}
			if name != "" {
				c.Label = name
			}
			return nil
		})
	}
	g.Wait()
}

func (s *AlternativeScanner) complete(ctx context.Context, set *types.AlternativeSet, err error) {
	if err != nil {
		s.state = types.ScanFailed
		s.set = nil
		s.lastErr = types.AsAppError(err)
		s.logger.WarnContext(ctx, "alternative scan failed", "code", s.lastErr.Code, "error", err)
		s.countScan("upstream_failed")
		return
	}

	s.state = types.ScanSuccess
	s.set = set
	s.lastErr = nil
	if set.HasBetterOptions {
		s.countScan("better_options")
	} else {
		s.countScan("no_better_options")
	}
}

func (s *AlternativeScanner) countScan(outcome string) {
	if s.metrics != nil {
		s.metrics.AlternativeScans.WithLabelValues(outcome).Inc()
	}
}
