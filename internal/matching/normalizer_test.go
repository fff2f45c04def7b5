package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureNormalizer_GoalVector(t *testing.T) {
	n := NewFeatureNormalizer(DefaultScoringConfig())

	assert.Equal(t, []float64{1, 0, 0, 0, 0}, n.GoalVector([]string{"weight_loss"}))
	assert.Equal(t, []float64{0, 1, 0, 1, 0}, n.GoalVector([]string{"Muscle Gain", "strength", "pilates"}))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, n.GoalVector(nil))
}

func TestFeatureNormalizer_FitnessOrdinal(t *testing.T) {
	n := NewFeatureNormalizer(DefaultScoringConfig())

	ordinal, ok := n.FitnessOrdinal(Beginner)
	assert.True(t, ok)
	assert.Equal(t, 1, ordinal)

	ordinal, ok = n.FitnessOrdinal(" Advanced ")
	assert.True(t, ok)
	assert.Equal(t, 3, ordinal)

	ordinal, ok = n.FitnessOrdinal("")
	assert.False(t, ok)
	assert.Equal(t, 2, ordinal)

	ordinal, ok = n.FitnessOrdinal("olympian")
	assert.False(t, ok)
	assert.Equal(t, 2, ordinal)
}

func TestFeatureNormalizer_CustomCategories(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.GoalCategories = []string{"flexibility", "mobility"}
	n := NewFeatureNormalizer(cfg)

	assert.Equal(t, []float64{1, 0}, n.GoalVector([]string{"Flexibility", "weight_loss"}))
}
