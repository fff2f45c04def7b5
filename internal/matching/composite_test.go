package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullProfile(id string) *UserProfile {
	return &UserProfile{
		ID:                   id,
		Name:                 "Jordan",
		Age:                  intPtr(30),
		FitnessLevel:         Intermediate,
		Goals:                []string{"weight_loss", "strength"},
		PreferredWorkoutTime: "morning",
		Location:             "Austin TX",
	}
}

func TestCompositeScorer_ReferenceScenario(t *testing.T) {
	scorer := NewCompositeScorer(DefaultScoringConfig())

	requester := &UserProfile{ID: "u1", Age: intPtr(30), FitnessLevel: Intermediate, Goals: []string{"weight_loss"}}
	candidate := &UserProfile{ID: "u2", Age: intPtr(31), FitnessLevel: Intermediate, Goals: []string{"weight_loss"}}

	result := scorer.Score(requester, candidate)

	assert.Equal(t, 87.5, result.OverallScore)
	assert.Equal(t, 100.0, result.DimensionScores[DimensionAge])
	assert.Equal(t, 100.0, result.DimensionScores[DimensionFitnessLevel])
	assert.InDelta(t, 100.0, result.DimensionScores[DimensionGoals], 1e-9)
	assert.Equal(t, 50.0, result.DimensionScores[DimensionSchedule])
	assert.Equal(t, 50.0, result.DimensionScores[DimensionLocation])
	assert.Equal(t, []string{"similar age group", "compatible fitness levels", "shared fitness goals"}, result.MatchFactors)
}

func TestCompositeScorer_SelfScoreIsPerfect(t *testing.T) {
	scorer := NewCompositeScorer(DefaultScoringConfig())
	p := fullProfile("u1")

	result := scorer.Score(p, p)

	assert.Equal(t, 100.0, result.OverallScore)
	assert.Equal(t, []string{
		"similar age group",
		"compatible fitness levels",
		"shared fitness goals",
		"compatible schedules",
		"close location",
	}, result.MatchFactors)
}

func TestCompositeScorer_AllMissingIsNeutral(t *testing.T) {
	scorer := NewCompositeScorer(DefaultScoringConfig())

	result := scorer.Score(&UserProfile{ID: "a"}, &UserProfile{ID: "b"})

	assert.Equal(t, 50.0, result.OverallScore)
	assert.Empty(t, result.MatchFactors)
	require.Len(t, result.DimensionScores, 5)
	for dim, score := range result.DimensionScores {
		assert.Equal(t, NeutralScore, score, "dimension %s", dim)
	}
}

func TestCompositeScorer_SymmetricWithoutLocation(t *testing.T) {
	scorer := NewCompositeScorer(DefaultScoringConfig())

	a := &UserProfile{ID: "a", Age: intPtr(25), FitnessLevel: Beginner, Goals: []string{"endurance"}, PreferredWorkoutTime: "flexible"}
	b := &UserProfile{ID: "b", Age: intPtr(37), FitnessLevel: Advanced, Goals: []string{"endurance", "strength"}, PreferredWorkoutTime: "evening"}

	ab := scorer.Score(a, b)
	ba := scorer.Score(b, a)

	assert.Equal(t, ab.OverallScore, ba.OverallScore)
	assert.Equal(t, ab.DimensionScores, ba.DimensionScores)
}

func TestCompositeScorer_LocationIsDirectional(t *testing.T) {
	scorer := NewCompositeScorer(DefaultScoringConfig())

	a := &UserProfile{ID: "a", Location: "LA"}
	b := &UserProfile{ID: "b", Location: "Dallas"}

	assert.Equal(t, 75.0, scorer.Score(a, b).DimensionScores[DimensionLocation])
	assert.Equal(t, 30.0, scorer.Score(b, a).DimensionScores[DimensionLocation])
}

func TestCompositeScorer_AlternateWeights(t *testing.T) {
	cfg := DefaultScoringConfig().WithWeights(map[Dimension]float64{
		DimensionAge:          0,
		DimensionFitnessLevel: 0,
		DimensionGoals:        1,
		DimensionSchedule:     0,
		DimensionLocation:     0,
	})
	scorer := NewCompositeScorer(cfg)

	a := &UserProfile{ID: "a", Goals: []string{"weight_loss"}}
	b := &UserProfile{ID: "b", Goals: []string{"muscle_gain"}}

	assert.Equal(t, 0.0, scorer.Score(a, b).OverallScore)

	// The default config is untouched by WithWeights.
	assert.Equal(t, 0.30, DefaultScoringConfig().Weights[2].Weight)
}

func TestCompositeScorer_RoundsToOneDecimal(t *testing.T) {
	scorer := NewCompositeScorer(DefaultScoringConfig())

	a := &UserProfile{ID: "a", Goals: []string{"weight_loss"}}
	b := &UserProfile{ID: "b", Goals: []string{"weight_loss", "strength"}}

	// 0.30 * 70.71 + 0.70 * 50 = 56.21...
	assert.Equal(t, 56.2, scorer.Score(a, b).OverallScore)
}

func TestCompositeScorer_RoundsTiesToEven(t *testing.T) {
	scorer := NewCompositeScorer(DefaultScoringConfig())

	requester := &UserProfile{
		ID:                   "u1",
		Age:                  intPtr(30),
		FitnessLevel:         Intermediate,
		Goals:                []string{"weight_loss"},
		PreferredWorkoutTime: "morning",
		Location:             "New York",
	}
	candidate := &UserProfile{
		ID:                   "u2",
		Age:                  intPtr(34),
		FitnessLevel:         Advanced,
		Goals:                []string{"weight_loss", "muscle_gain", "endurance", "strength"},
		PreferredWorkoutTime: "flexible",
		Location:             "York City",
	}

	result := scorer.Score(requester, candidate)

	assert.Equal(t, 85.0, result.DimensionScores[DimensionAge])
	assert.Equal(t, 80.0, result.DimensionScores[DimensionFitnessLevel])
	assert.InDelta(t, 50.0, result.DimensionScores[DimensionGoals], 1e-9)
	assert.Equal(t, 85.0, result.DimensionScores[DimensionSchedule])
	assert.Equal(t, 75.0, result.DimensionScores[DimensionLocation])
	// weighted sum is exactly 72.25
	assert.Equal(t, 72.2, result.OverallScore)
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{72.25, 72.2},
		{72.75, 72.8},
		{87.5, 87.5},
		{67.54, 67.5},
		{67.56, 67.6},
		{0, 0},
		{100, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, roundScore(tt.in), "roundScore(%v)", tt.in)
	}
}
