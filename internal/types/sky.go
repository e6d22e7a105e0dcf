package types

// SkyIcon names the pictogram a client should render for a sky summary.
type SkyIcon string

const (
	IconSun            SkyIcon = "Sun"
	IconCloudSun       SkyIcon = "CloudSun"
	IconCloud          SkyIcon = "Cloud"
	IconCloudDrizzle   SkyIcon = "CloudDrizzle"
	IconCloudRain      SkyIcon = "CloudRain"
	IconCloudLightning SkyIcon = "CloudLightning"
)

// SkySummary is the user-facing reading of a rain probability: a short
// condition label, a one-line qualifier, an icon hint, and planning advice.
// It is derived, never stored or fetched.
type SkySummary struct {
	Label    string  `json:"label"`
	Subtitle string  `json:"subtitle"`
	Icon     SkyIcon `json:"icon"`
	Advice   string  `json:"advice"`
}

// SkySummaryFor buckets a probability percentage into a sky summary.
// Out-of-range inputs are clamped to [0, 100] before bucketing.
func SkySummaryFor(probabilityPercent float64) SkySummary {
	p := probabilityPercent
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	switch {
	case p <= 10:
		return SkySummary{
			Label:    "Sunny",
			Subtitle: "Very low rain chance",
			Icon:     IconSun,
			Advice:   "Perfect conditions for outdoor activities.",
		}
	case p <= 20:
		return SkySummary{
			Label:    "Mostly sunny",
			Subtitle: "Low rain chance",
			Icon:     IconCloudSun,
			Advice:   "Proceed as planned; keep an umbrella nearby.",
		}
	case p <= 30:
		return SkySummary{
			Label:    "Partly cloudy",
			Subtitle: "Isolated showers possible",
			Icon:     IconCloudSun,
			Advice:   "Light rain possible; prepare light cover.",
		}
	case p <= 40:
		return SkySummary{
			Label:    "Cloudy",
			Subtitle: "Chance of showers",
			Icon:     IconCloud,
			Advice:   "Keep a tent or shelter close by.",
		}
	case p <= 60:
		return SkySummary{
			Label:    "Showers likely",
			Subtitle: "Moderate rain risk",
			Icon:     IconCloudDrizzle,
			Advice:   "Plan for backup; rain gear recommended.",
		}
	case p <= 80:
		return SkySummary{
			Label:    "Rain likely",
			Subtitle: "High disruption risk",
			Icon:     IconCloudRain,
			Advice:   "Consider rescheduling outdoor events.",
		}
	default:
		return SkySummary{
			Label:    "Heavy rain or storms",
			Subtitle: "Very high disruption risk",
			Icon:     IconCloudLightning,
			Advice:   "Move activities indoors; expect rainfall.",
		}
	}
}
