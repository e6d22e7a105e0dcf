package planner

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainscout/internal/types"
)

func testAlternativeSet() *types.AlternativeSet {
	return &types.AlternativeSet{
		Original: types.OriginalLocation{
			Point:              types.GeoPoint{Lat: 6.37, Lon: 2.39},
			Label:              "Cotonou",
			ProbabilityPercent: 72.3,
		},
		Candidates: []types.AlternativeCandidate{
			{Point: types.GeoPoint{Lat: 6.5, Lon: 2.6}, Label: "Porto-Novo", ProbabilityPercent: 25.1, DistanceKm: 28.4},
			{Point: types.GeoPoint{Lat: 6.4, Lon: 2.2}, Label: "Ouidah", ProbabilityPercent: 18.0, DistanceKm: 22.0},
			{Point: types.GeoPoint{Lat: 6.45, Lon: 2.35}, Label: "Abomey-Calavi", ProbabilityPercent: 33.0, DistanceKm: 12.0},
			{Point: types.GeoPoint{Lat: 6.6, Lon: 2.5}, Label: "Adjarra", ProbabilityPercent: 12.5, DistanceKm: 30.0},
		},
		HasBetterOptions: true,
	}
}

func newTestScanner(area types.AreaScanner, rev types.ReverseGeocoder) *AlternativeScanner {
	return NewAlternativeScanner(area, rev, syncExec, nil, slog.New(slog.DiscardHandler))
}

func scanAndWait(t *testing.T, s *AlternativeScanner, activity string) *types.AppError {
	t.Helper()
	done := make(chan struct{})
	err := s.Scan(context.Background(), types.GeoPoint{Lat: 6.37, Lon: 2.39},
		"2026-09-10", 14, 18, activity, func() { close(done) })
	if err != nil {
		return err
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scan")
	}
	return nil
}

func TestScan_BlankActivityRejectedWithoutRequest(t *testing.T) {
	area := &mockAreaScanner{set: testAlternativeSet()}
	s := newTestScanner(area, nil)

	for _, activity := range []string{"", "   ", "\t\n"} {
		err := s.Scan(context.Background(), types.GeoPoint{Lat: 6.37, Lon: 2.39},
			"2026-09-10", 14, 18, activity, nil)
		require.NotNil(t, err)
		assert.Equal(t, types.ErrCodeValidationActivityBlank, err.Code)
	}

	assert.Equal(t, types.ScanIdle, s.State())
	assert.Zero(t, area.calls)
}

func TestScan_SortsAscendingAndKeepsTopThree(t *testing.T) {
	area := &mockAreaScanner{set: testAlternativeSet()}
	s := newTestScanner(area, nil)

	require.Nil(t, scanAndWait(t, s, "Picnic"))

	require.Equal(t, types.ScanSuccess, s.State())
	set := s.Alternatives()
	require.NotNil(t, set)
	require.Len(t, set.Candidates, 3)
	assert.Equal(t, "Adjarra", set.Candidates[0].Label)
	assert.Equal(t, "Ouidah", set.Candidates[1].Label)
	assert.Equal(t, "Porto-Novo", set.Candidates[2].Label)
	assert.True(t, set.HasBetterOptions)
}

func TestScan_NamesUnnamedCandidates(t *testing.T) {
	set := testAlternativeSet()
	set.Candidates[1].Label = "" // Ouidah arrives unnamed
	area := &mockAreaScanner{set: set}
	rev := &mockReverse{names: map[types.GeoPoint]string{
		{Lat: 6.4, Lon: 2.2}: "Ouidah, Atlantique, Benin",
	}}
	s := newTestScanner(area, rev)

	require.Nil(t, scanAndWait(t, s, "Picnic"))

	got := s.Alternatives()
	require.Len(t, got.Candidates, 3)
	assert.Equal(t, "Ouidah, Atlantique, Benin", got.Candidates[1].Label)
}

func TestScan_UnnamedCandidateKeepsCoordinatesWhenNamingFails(t *testing.T) {
	set := testAlternativeSet()
	set.Candidates[1].Label = ""
	area := &mockAreaScanner{set: set}
	rev := &mockReverse{err: types.NewAppError(types.ErrCodeUpstreamTransport, "boom", nil)}
	s := newTestScanner(area, rev)

	require.Nil(t, scanAndWait(t, s, "Picnic"))

	got := s.Alternatives()
	require.Len(t, got.Candidates, 3)
	assert.Equal(t, "6.4000, 2.2000", got.Candidates[1].Label)
}

func TestScan_NoBetterOptionsIsSuccess(t *testing.T) {
	area := &mockAreaScanner{set: &types.AlternativeSet{
		Original: types.OriginalLocation{
			Point:              types.GeoPoint{Lat: 6.37, Lon: 2.39},
			Label:              "Cotonou",
			ProbabilityPercent: 72.3,
		},
		Candidates:       []types.AlternativeCandidate{},
		HasBetterOptions: false,
	}}
	s := newTestScanner(area, nil)

	require.Nil(t, scanAndWait(t, s, "Picnic"))

	assert.Equal(t, types.ScanSuccess, s.State())
	assert.Nil(t, s.LastError())
	require.NotNil(t, s.Alternatives())
	assert.False(t, s.Alternatives().HasBetterOptions)
}

func TestScan_UpstreamFailureClearsSet(t *testing.T) {
	area := &mockAreaScanner{err: types.NewAppError(types.ErrCodeUpstreamTransport, "boom", nil)}
	s := newTestScanner(area, nil)

	require.Nil(t, scanAndWait(t, s, "Picnic"))

	assert.Equal(t, types.ScanFailed, s.State())
	assert.Nil(t, s.Alternatives())
	require.NotNil(t, s.LastError())
	assert.Equal(t, types.ErrCodeUpstreamTransport, s.LastError().Code)
}

func TestSelect_ReturnsCandidateByRank(t *testing.T) {
	area := &mockAreaScanner{set: testAlternativeSet()}
	s := newTestScanner(area, nil)
	require.Nil(t, scanAndWait(t, s, "Picnic"))

	cand, err := s.Select(0)
	require.Nil(t, err)
	assert.Equal(t, "Adjarra", cand.Label)

	_, err = s.Select(3)
	require.NotNil(t, err)

	_, err = s.Select(-1)
	require.NotNil(t, err)
}

func TestSelect_WithoutCompletedScanFails(t *testing.T) {
	s := newTestScanner(&mockAreaScanner{set: testAlternativeSet()}, nil)
	_, err := s.Select(0)
	require.NotNil(t, err)
}
