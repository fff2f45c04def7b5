package handlers

import "github.com/temcen/fitpair/internal/matching"

// Response envelopes that carry engine types directly.

type RecommendationsResponse struct {
	Success         bool                            `json:"success"`
	Recommendations []matching.RankedRecommendation `json:"recommendations"`
	Total           int                             `json:"total"`
	CacheHit        bool                            `json:"cache_hit"`
}

type SearchResponse struct {
	Success  bool                            `json:"success"`
	Partners []matching.RankedRecommendation `json:"partners"`
	Total    int                             `json:"total"`
}

type InteractionResponse struct {
	Success       bool                       `json:"success"`
	InteractionID string                     `json:"interaction_id"`
	Interaction   matching.InteractionRecord `json:"interaction"`
}
