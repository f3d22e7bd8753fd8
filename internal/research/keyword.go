// Package research turns crawled topics into scored keyword candidates
// using the search-ad keyword API and stored history.
package research

// Scoring weights. Freshness and intent have no per-keyword signal from
// the API, so they enter as fixed baseline components.
const (
	weightVolume      = 0.25
	weightCompetition = 0.20
	weightRelevance   = 0.30
	weightFreshness   = 0.15
	weightIntent      = 0.10

	freshnessBaseline = 100.0
	intentBaseline    = 80.0

	// Monthly searches at which the volume component saturates.
	volumeCeiling = 100000.0
)

// Score computes the composite keyword score on a 0..100 scale.
// competition and relevance are expected in [0, 1]. The score is
// non-decreasing in volume for fixed competition and relevance.
func Score(volume int, competition, relevance float64) float64 {
	volumeScore := float64(volume) / volumeCeiling * 100
	if volumeScore > 100 {
		volumeScore = 100
	}
	if volumeScore < 0 {
		volumeScore = 0
	}
	competition = clamp01(competition)
	relevance = clamp01(relevance)

	return volumeScore*weightVolume +
		(1-competition)*100*weightCompetition +
		relevance*100*weightRelevance +
		freshnessBaseline*weightFreshness +
		intentBaseline*weightIntent
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
