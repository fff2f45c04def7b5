package matching

import "sort"

// Rank orders recommendations by score descending, breaking ties by ascending
// candidate id, and keeps at most limit entries. The input slice is not modified.
func Rank(recs []RankedRecommendation, limit int) []RankedRecommendation {
	if limit <= 0 || len(recs) == 0 {
		return []RankedRecommendation{}
	}

	ranked := make([]RankedRecommendation, len(recs))
	copy(ranked, recs)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].CandidateID < ranked[j].CandidateID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
