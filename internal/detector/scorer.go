package detector

import (
	"math"
	"sort"
)

const (
	// likelyThreshold alone is enough for a positive verdict.
	likelyThreshold = 0.60
	// vendorThreshold is enough when at least one vendor has a vote.
	vendorThreshold = 0.45
)

// score sums indicator weights into a confidence in [0, 1] and derives the
// verdict and the vendor ranking. The returned confidence is not rounded.
func score(indicators []*Indicator, votes []*VendorVote) (confidence float64, likelyWAF bool, ranked []*VendorVote) {
	for _, i := range indicators {
		confidence += i.Weight
	}
	confidence = math.Max(0, math.Min(confidence, 1))

	ranked = rankVotes(votes)

	likelyWAF = confidence+epsilon >= likelyThreshold ||
		(confidence+epsilon >= vendorThreshold && len(ranked) > 0)

	return confidence, likelyWAF, ranked
}

// rankVotes orders the nonzero votes by descending score, keeping registry
// order for equal scores.
func rankVotes(votes []*VendorVote) []*VendorVote {
	ranked := make([]*VendorVote, 0, len(votes))
	for _, v := range votes {
		if v.Score > 0 {
			ranked = append(ranked, v)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
