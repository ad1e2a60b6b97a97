// Package confidence estimates translation reliability from document shape
// and translation-memory coverage. The score is a heuristic in [0, 1], not a
// calibrated probability.
package confidence

const (
	baseScore = 0.8

	// Documents with many chunks have more seams, hence more error
	// opportunity.
	largeDocThreshold = 20
	largeDocPenalty   = 0.05

	// Weight applied to the TM coverage ratio.
	tmCoverageWeight = 0.15

	complexPairPenalty = 0.1
)

// complexTargets lists languages whose pairing with English is penalized,
// symmetric in both directions.
var complexTargets = map[string]bool{
	"zh": true,
	"ja": true,
	"ko": true,
	"ar": true,
}

// Score estimates translation confidence for a document split into
// segmentCount chunks of which tmMatchCount were served from translation
// memory. The result is clamped to [0, 1].
func Score(sourceLang, targetLang string, segmentCount, tmMatchCount int) float64 {
	score := baseScore

	if segmentCount > largeDocThreshold {
		score -= largeDocPenalty
	}

	if tmMatchCount > 0 && segmentCount > 0 {
		coverage := float64(tmMatchCount) / float64(segmentCount)
		score += coverage * tmCoverageWeight
	}

	if isComplexPair(sourceLang, targetLang) {
		score -= complexPairPenalty
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func isComplexPair(sourceLang, targetLang string) bool {
	if sourceLang == "en" && complexTargets[targetLang] {
		return true
	}
	if targetLang == "en" && complexTargets[sourceLang] {
		return true
	}
	return false
}
