package score

// Digital-presence weights. The additive terms have no ordering dependency
// and sum to exactly 100 when every signal is present.
const (
	presenceBase     = 20
	websiteWeight    = 25
	linkedInWeight   = 25
	socialWeight     = 15
	newsWeight       = 10
	activeNewsWeight = 5
	presenceMax      = 100

	// DegradedPresence is the partial-failure default: when enrichment
	// lookups fail for a competitor, callers record this base score instead
	// of aborting the batch.
	DegradedPresence = 30
)

// DigitalPresence aggregates boolean and countable web signals into a
// 0-100 score. Pure and deterministic.
func DigitalPresence(hasWebsite, hasLinkedIn, hasSocial bool, newsCount int) int {
	score := presenceBase
	if hasWebsite {
		score += websiteWeight
	}
	if hasLinkedIn {
		score += linkedInWeight
	}
	if hasSocial {
		score += socialWeight
	}
	if newsCount > 0 {
		score += newsWeight
	}
	if newsCount > 2 {
		score += activeNewsWeight
	}

	if score > presenceMax {
		score = presenceMax
	}
	return score
}
