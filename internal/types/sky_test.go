package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkySummaryFor_BucketBoundaries(t *testing.T) {
	tests := []struct {
		probability float64
		wantLabel   string
		wantIcon    SkyIcon
	}{
		{0, "Sunny", IconSun},
		{10, "Sunny", IconSun},
		{10.1, "Mostly sunny", IconCloudSun},
		{20, "Mostly sunny", IconCloudSun},
		{25, "Partly cloudy", IconCloudSun},
		{30, "Partly cloudy", IconCloudSun},
		{30.1, "Cloudy", IconCloud},
		{40, "Cloudy", IconCloud},
		{50, "Showers likely", IconCloudDrizzle},
		{60, "Showers likely", IconCloudDrizzle},
		{72.3, "Rain likely", IconCloudRain},
		{80, "Rain likely", IconCloudRain},
		{80.1, "Heavy rain or storms", IconCloudLightning},
		{100, "Heavy rain or storms", IconCloudLightning},
	}

	for _, tt := range tests {
		got := SkySummaryFor(tt.probability)
		assert.Equal(t, tt.wantLabel, got.Label, "probability %v", tt.probability)
		assert.Equal(t, tt.wantIcon, got.Icon, "probability %v", tt.probability)
		assert.NotEmpty(t, got.Subtitle, "probability %v", tt.probability)
		assert.NotEmpty(t, got.Advice, "probability %v", tt.probability)
	}
}

func TestSkySummaryFor_ClampsOutOfRangeInput(t *testing.T) {
	assert.Equal(t, "Sunny", SkySummaryFor(-5).Label)
	assert.Equal(t, "Heavy rain or storms", SkySummaryFor(150).Label)
}
