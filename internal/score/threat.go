// Package score holds the deterministic competitor scoring heuristics:
// capital-ratio threat classification and digital-presence scoring.
package score

import "github.com/stratevo/intel-cli/internal/model"

// Threat-ratio boundaries. Strict comparisons: a ratio of exactly 10 is
// medium and exactly 2 is low.
const (
	highThreatRatio   = 10.0
	mediumThreatRatio = 2.0
)

// DefaultOwnCapital is the fallback used when the tenant has no registered
// capital on file. It is a documented placeholder, not a business constant;
// config overrides it and product owners may want it tenant-specific.
const DefaultOwnCapital = 1_000_000

// ClassifyThreat maps the competitor-to-own capital ratio onto a threat
// level. An own capital of zero (or less) is treated as an effectively
// infinite ratio and classifies as high rather than dividing by zero.
func ClassifyThreat(competitorCapital, ownCapital float64) model.ThreatLevel {
	if ownCapital <= 0 {
		return model.ThreatHigh
	}

	ratio := competitorCapital / ownCapital
	switch {
	case ratio > highThreatRatio:
		return model.ThreatHigh
	case ratio > mediumThreatRatio:
		return model.ThreatMedium
	default:
		return model.ThreatLow
	}
}
