// Package triage holds the severity scoring and queue assignment rules.
// Scores order the waiting room only; nothing here is diagnostic.
package triage

// Level is the discrete severity classification of a visit.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Tier is the clinician tier a visit is routed to.
type Tier string

const (
	TierJunior Tier = "JUNIOR"
	TierSenior Tier = "SENIOR"
)

// Severity score thresholds. Boundary values belong to the upper bucket.
const (
	ThresholdHigh   = 0.7
	ThresholdMedium = 0.4
)

// Classify maps a severity score to a discrete level.
func Classify(score float64) Level {
	switch {
	case score >= ThresholdHigh:
		return LevelHigh
	case score >= ThresholdMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// TierPolicy is the routing table from severity level to clinician tier.
// MEDIUM routes to JUNIOR; only HIGH severity reaches SENIOR clinicians.
var TierPolicy = map[Level]Tier{
	LevelHigh:   TierSenior,
	LevelMedium: TierJunior,
	LevelLow:    TierJunior,
}

// AssignTier maps a severity level to a clinician tier via TierPolicy.
func AssignTier(level Level) Tier {
	return TierPolicy[level]
}

// ValidTier reports whether t names a known clinician tier.
func ValidTier(t Tier) bool {
	return t == TierJunior || t == TierSenior
}
