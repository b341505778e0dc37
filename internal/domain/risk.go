package domain

// RiskTier is an ordinal wildfire-risk label derived from the classifier's
// risk probability.
type RiskTier string

const (
	TierMinimal  RiskTier = "MINIMAL"
	TierLow      RiskTier = "LOW"
	TierModerate RiskTier = "MODERATE"
	TierHigh     RiskTier = "HIGH"
	TierExtreme  RiskTier = "EXTREME"
)

// RiskPrediction pairs a risk probability with its derived tier. Computed per
// request, never persisted.
type RiskPrediction struct {
	Probability float64
	Tier        RiskTier
}

// TierForProbability maps a probability in [0,1] onto a tier. The thresholds
// form a total, non-overlapping partition: 0.8 is EXTREME, 0.79999... is HIGH.
func TierForProbability(p float64) RiskTier {
	switch {
	case p >= 0.8:
		return TierExtreme
	case p >= 0.6:
		return TierHigh
	case p >= 0.4:
		return TierModerate
	case p >= 0.2:
		return TierLow
	default:
		return TierMinimal
	}
}

var tierDescriptions = map[RiskTier]string{
	TierExtreme:  "Extreme fire danger. Avoid all outdoor burning and activities that could spark fires.",
	TierHigh:     "High fire danger. Exercise extreme caution with any potential ignition sources.",
	TierModerate: "Moderate fire danger. Use caution with outdoor activities and burning.",
	TierLow:      "Low fire danger. Normal fire safety precautions apply.",
	TierMinimal:  "Minimal fire danger. Conditions are favorable for fire safety.",
}

// Description returns the human-readable guidance for the tier, with a
// catch-all for unrecognized values.
func (t RiskTier) Description() string {
	if d, ok := tierDescriptions[t]; ok {
		return d
	}
	return "Fire risk assessment unavailable."
}
