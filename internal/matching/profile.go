package matching

import "time"

// FitnessLevel is the self-reported training level of a user.
type FitnessLevel string

const (
	Beginner     FitnessLevel = "beginner"
	Intermediate FitnessLevel = "intermediate"
	Advanced     FitnessLevel = "advanced"
)

// FlexibleWorkoutTime marks a user who can train at any time of day.
const FlexibleWorkoutTime = "flexible"

// UserProfile is the snapshot of a user that the engine scores. Optional fields are
// pointers or empty strings; the engine never mutates a profile.
type UserProfile struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	Age                  *int                   `json:"age,omitempty"`
	FitnessLevel         FitnessLevel           `json:"fitness_level,omitempty"`
	Goals                []string               `json:"goals,omitempty"`
	PreferredWorkoutTime string                 `json:"preferred_workout_time,omitempty"`
	AvailabilitySchedule map[string]interface{} `json:"availability_schedule,omitempty"`
	Location             string                 `json:"location,omitempty"`
	Bio                  string                 `json:"bio,omitempty"`
	LastActive           *time.Time             `json:"last_active,omitempty"`
}

// InteractionKind enumerates the recorded user-to-user interactions.
type InteractionKind string

const (
	InteractionView              InteractionKind = "view"
	InteractionLike              InteractionKind = "like"
	InteractionMessage           InteractionKind = "message"
	InteractionWorkoutTogether   InteractionKind = "workout_together"
	InteractionBlock             InteractionKind = "block"
	InteractionAccepted          InteractionKind = "accepted"
	InteractionDeclined          InteractionKind = "declined"
	InteractionConnectionRequest InteractionKind = "connection_request"
)

// Valid reports whether k is one of the known interaction kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionView, InteractionLike, InteractionMessage, InteractionWorkoutTogether,
		InteractionBlock, InteractionAccepted, InteractionDeclined, InteractionConnectionRequest:
		return true
	}
	return false
}

// InteractionRecord is one append-only entry of the interaction history.
type InteractionRecord struct {
	ActorID   string          `json:"actor_id"`
	TargetID  string          `json:"target_id"`
	Kind      InteractionKind `json:"kind"`
	Weight    float64         `json:"weight"`
	Timestamp time.Time       `json:"timestamp"`
}

// Dimension names one compatibility axis.
type Dimension string

const (
	DimensionAge          Dimension = "age"
	DimensionFitnessLevel Dimension = "fitness_level"
	DimensionGoals        Dimension = "goals"
	DimensionSchedule     Dimension = "schedule"
	DimensionLocation     Dimension = "location"
)

// DimensionScores holds the 0-100 sub-score of every dimension for one pair of users.
type DimensionScores map[Dimension]float64

// CompatibilityResult is the composite outcome for one (requester, candidate) pair.
type CompatibilityResult struct {
	OverallScore    float64         `json:"overall_score"`
	DimensionScores DimensionScores `json:"detailed_scores"`
	MatchFactors    []string        `json:"match_factors"`
}

// RankedRecommendation is one entry of the list returned to callers.
type RankedRecommendation struct {
	CandidateID     string          `json:"user_id"`
	Name            string          `json:"name"`
	Age             *int            `json:"age"`
	Location        string          `json:"location"`
	FitnessLevel    FitnessLevel    `json:"fitness_level"`
	Goals           []string        `json:"goals"`
	Bio             string          `json:"bio"`
	Score           float64         `json:"compatibility_score"`
	MatchFactors    []string        `json:"match_factors"`
	DimensionScores DimensionScores `json:"detailed_scores"`
	LastActive      *time.Time      `json:"last_active"`
}

func newRankedRecommendation(candidate *UserProfile, score float64, result CompatibilityResult) RankedRecommendation {
	goals := candidate.Goals
	if goals == nil {
		goals = []string{}
	}
	return RankedRecommendation{
		CandidateID:     candidate.ID,
		Name:            candidate.Name,
		Age:             candidate.Age,
		Location:        candidate.Location,
		FitnessLevel:    candidate.FitnessLevel,
		Goals:           goals,
		Bio:             candidate.Bio,
		Score:           score,
		MatchFactors:    result.MatchFactors,
		DimensionScores: result.DimensionScores,
		LastActive:      candidate.LastActive,
	}
}
