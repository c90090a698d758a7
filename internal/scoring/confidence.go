// Package scoring implements the confidence model and the per-lead intent
// score aggregation.
package scoring

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// KeywordDensity computes a confidence score from a keyword match count:
// base + min(matches*perMatch, cap), clamped to [0,1]. The (base, perMatch,
// cap) tuple is chosen per use-site by each collector.
func KeywordDensity(base, perMatch, max float64, matches int) float64 {
	bonus := float64(matches) * perMatch
	if bonus > max {
		bonus = max
	}
	return Clamp01(base + bonus)
}

// Factor is one named observation feeding a weighted average.
type Factor struct {
	Score  float64
	Weight float64
}

// WeightedAverage computes sum(score*weight)/sum(weight) over the factors,
// clamped to [0,1]. Returns 0 when the factors are empty or all weights are 0.
func WeightedAverage(factors map[string]Factor) float64 {
	var weightedSum, totalWeight float64
	for _, f := range factors {
		weightedSum += f.Score * f.Weight
		totalWeight += f.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return Clamp01(weightedSum / totalWeight)
}
