package matching

import (
	"strings"

	"golang.org/x/text/cases"
)

// neutralLevelOrdinal is returned for unknown or missing fitness levels.
const neutralLevelOrdinal = 2

// FeatureNormalizer turns raw profile fields into comparable representations.
type FeatureNormalizer struct {
	goalIndex map[string]int
	dims      int
	levels    map[FitnessLevel]int
}

// NewFeatureNormalizer builds a normalizer over the goal categories and level ordinals of cfg.
func NewFeatureNormalizer(cfg ScoringConfig) *FeatureNormalizer {
	cfg = cfg.clone()
	n := &FeatureNormalizer{
		goalIndex: make(map[string]int, len(cfg.GoalCategories)),
		dims:      len(cfg.GoalCategories),
		levels:    make(map[FitnessLevel]int, len(cfg.LevelOrdinals)),
	}
	for i, category := range cfg.GoalCategories {
		n.goalIndex[goalKey(category)] = i
	}
	for level, ordinal := range cfg.LevelOrdinals {
		n.levels[FitnessLevel(fold(string(level)))] = ordinal
	}
	return n
}

// GoalVector counts recognised goal tags per category. Unknown tags are skipped.
func (n *FeatureNormalizer) GoalVector(goals []string) []float64 {
	vec := make([]float64, n.dims)
	for _, goal := range goals {
		if i, ok := n.goalIndex[goalKey(goal)]; ok {
			vec[i]++
		}
	}
	return vec
}

// FitnessOrdinal maps a level to its ordinal. Unknown or empty levels return the
// neutral ordinal with ok=false so the caller decides how to score them.
func (n *FeatureNormalizer) FitnessOrdinal(level FitnessLevel) (ordinal int, ok bool) {
	if level == "" {
		return neutralLevelOrdinal, false
	}
	ordinal, ok = n.levels[FitnessLevel(fold(string(level)))]
	if !ok {
		return neutralLevelOrdinal, false
	}
	return ordinal, true
}

// goalKey folds case and replaces spaces with underscores: "Weight Loss" -> "weight_loss".
func goalKey(goal string) string {
	return strings.ReplaceAll(fold(goal), " ", "_")
}

// fold returns the trimmed, case-folded form of s. A Caser is stateful, so one is
// built per call.
func fold(s string) string {
	return foldCase(strings.TrimSpace(s))
}

// foldCase folds case and leaves whitespace untouched.
func foldCase(s string) string {
	return cases.Fold().String(s)
}
