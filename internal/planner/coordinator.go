package planner

import (
	"context"
	"log/slog"

	"rainscout/internal/observability"
	"rainscout/internal/types"
)

// RiskQueryCoordinator orchestrates the primary risk query through the
// lifecycle Idle -> Validating -> InFlight -> {Success, Failed}. Terminal
// states are re-entrant: the next explicit Compute starts over. There is no
// mid-flight cancellation; a Compute while InFlight is rejected.
//
// State mutations from fetch completions are marshalled through exec, the
// session's serialization point, so the coordinator itself needs no lock.
type RiskQueryCoordinator struct {
	fetcher        types.RiskFetcher
	triggerPercent float64
	exec           func(func())
	logger         *slog.Logger
	metrics        *observability.Metrics

	state        types.QueryState
	result       *types.RiskResult
	lastErr      *types.AppError
	scanEligible bool
}

// NewRiskQueryCoordinator creates a coordinator. triggerPercent is the
// probability above which a success makes the alternative scan eligible.
// exec serializes deferred state mutations; tests may pass a synchronous
// func(f func()) { f() }.
func NewRiskQueryCoordinator(fetcher types.RiskFetcher, triggerPercent float64, exec func(func()), metrics *observability.Metrics, logger *slog.Logger) *RiskQueryCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskQueryCoordinator{
		fetcher:        fetcher,
		triggerPercent: triggerPercent,
		exec:           exec,
		logger:         logger,
		metrics:        metrics,
		state:          types.QueryIdle,
	}
}

// State returns the current lifecycle state.
func (c *RiskQueryCoordinator) State() types.QueryState { return c.state }

// Result returns the stored result, nil unless the state is Success.
func (c *RiskQueryCoordinator) Result() *types.RiskResult { return c.result }

// LastError returns the categorized error of the most recent failure, nil
// otherwise.
func (c *RiskQueryCoordinator) LastError() *types.AppError { return c.lastErr }

// ScanEligible reports whether the most recent success crossed the
// alternative-scan trigger threshold.
func (c *RiskQueryCoordinator) ScanEligible() bool { return c.scanEligible }

// InFlight reports whether a query is currently being validated or fetched.
func (c *RiskQueryCoordinator) InFlight() bool {
	return c.state == types.QueryValidating || c.state == types.QueryInFlight
}

// Compute runs the primary risk query for the snapshotted point and
// parameters. Validation failures and re-entrancy conflicts return
// immediately with no network call. An accepted query returns nil, issues
// exactly one fetch, and invokes onDone (via exec) once the terminal state
// is applied.
func (c *RiskQueryCoordinator) Compute(ctx context.Context, point *types.GeoPoint, params types.QueryParameters, onDone func()) *types.AppError {
	if c.state == types.QueryInFlight {
		return types.NewAppError(types.ErrCodeConflictQueryInFlight,
			"a risk query is already in flight", nil)
	}

	c.state = types.QueryValidating
	if err := types.ValidateQuery(point, params); err != nil {
		c.state = types.QueryFailed
		c.result = nil
		c.lastErr = err
		c.scanEligible = false
		c.countQuery("validation_failed")
		return err
	}

	// Snapshot at issue time; later edits cannot alter this request.
	pt := *point
	snapshot := params

	c.state = types.QueryInFlight
	c.result = nil
	c.lastErr = nil
	c.scanEligible = false

	go func() {
		res, err := c.fetcher.FetchRisk(ctx, pt, snapshot)
		c.exec(func() {
			c.complete(ctx, res, err)
			if onDone != nil {
				onDone()
			}
		})
	}()
	return nil
}

// Invalidate clears a displayed result after a location or parameter change
// that makes it stale, returning the coordinator to Idle. A no-op unless the
// state is a terminal one.
func (c *RiskQueryCoordinator) Invalidate() {
	if c.InFlight() {
		return
	}
	c.state = types.QueryIdle
	c.result = nil
	c.lastErr = nil
	c.scanEligible = false
}

func (c *RiskQueryCoordinator) complete(ctx context.Context, res *types.RiskResult, err error) {
	if err != nil {
		c.state = types.QueryFailed
		c.result = nil
		c.lastErr = types.AsAppError(err)
		c.scanEligible = false
		c.logger.WarnContext(ctx, "risk query failed", "code", c.lastErr.Code, "error", err)
		c.countQuery("upstream_failed")
		return
	}

	c.state = types.QuerySuccess
	c.result = res
	c.lastErr = nil
	c.scanEligible = res.ProbabilityPercent > c.triggerPercent
	c.countQuery("success")
}

func (c *RiskQueryCoordinator) countQuery(outcome string) {
	if c.metrics != nil {
		c.metrics.RiskQueries.WithLabelValues(outcome).Inc()
	}
}
