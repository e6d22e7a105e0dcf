package planner

import (
	"context"
	"sync"

	"rainscout/internal/types"
)

// mockRiskFetcher returns a canned result or error and records the requests
// it receives.
type mockRiskFetcher struct {
	mu     sync.Mutex
	result *types.RiskResult
	err    error
	calls  []fetchCall
	gate   chan struct{}
}

type fetchCall struct {
	point  types.GeoPoint
	params types.QueryParameters
}

func (m *mockRiskFetcher) FetchRisk(ctx context.Context, point types.GeoPoint, params types.QueryParameters) (*types.RiskResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, fetchCall{point: point, params: params})
	res, err, gate := m.result, m.err, m.gate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return res, err
}

func (m *mockRiskFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockRiskFetcher) lastCall() fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// mockAreaScanner returns a canned alternative set or error.
type mockAreaScanner struct {
	mu    sync.Mutex
	set   *types.AlternativeSet
	err   error
	calls int
}

func (m *mockAreaScanner) ScanArea(ctx context.Context, point types.GeoPoint, dateISO string, startHour, endHour int) (*types.AlternativeSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	// Deep-copy so rank mutations do not leak back into the fixture.
	cp := *m.set
	cp.Candidates = append([]types.AlternativeCandidate(nil), m.set.Candidates...)
	return &cp, nil
}

// mockForward returns canned suggestions for any query.
type mockForward struct {
	suggestions []types.Suggestion
	err         error
}

func (m *mockForward) Search(ctx context.Context, query string) ([]types.Suggestion, error) {
	return m.suggestions, m.err
}

// mockReverse returns canned names keyed by point.
type mockReverse struct {
	mu    sync.Mutex
	names map[types.GeoPoint]string
	err   error
}

func (m *mockReverse) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.names[types.GeoPoint{Lat: lat, Lon: lon}], nil
}

// syncExec runs deferred mutations inline; component unit tests have no
// event loop to marshal onto.
func syncExec(fn func()) { fn() }

func testRiskResult(probability float64) *types.RiskResult {
	days := 12
	return &types.RiskResult{
		ProbabilityPercent: probability,
		RiskLevel:          types.RiskHigh,
		Message:            "Heavy rain likely during your window.",
		ThresholdMm:        5,
		Window:             "14:00 - 18:00",
		Date:               "2026-09-10",
		Location:           types.GeoPoint{Lat: 6.37, Lon: 2.39},
		Source:             types.SourceForecast,
		Confidence:         types.ConfidenceHigh,
		DaysAhead:          &days,
	}
}

func validParams() types.QueryParameters {
	return types.QueryParameters{DateISO: "2026-09-10", StartHour: 14, EndHour: 18, ThresholdMm: 5}
}
