package matching

import "math"

// CompositeScorer combines the dimension scores of a pair into one weighted score.
type CompositeScorer struct {
	scorers *DimensionScorers
	weights []DimensionWeight
	factors []MatchFactorRule
}

// NewCompositeScorer builds a composite scorer from cfg.
func NewCompositeScorer(cfg ScoringConfig) *CompositeScorer {
	cfg = cfg.clone()
	return &CompositeScorer{
		scorers: NewDimensionScorers(cfg),
		weights: cfg.Weights,
		factors: cfg.MatchFactors,
	}
}

// Score rates candidate against requester. Both profiles must be non-nil.
func (c *CompositeScorer) Score(requester, candidate *UserProfile) CompatibilityResult {
	scores := c.dimensionScores(requester, candidate)

	weighted, applied := 0.0, 0.0
	for _, w := range c.weights {
		score, ok := scores[w.Dimension]
		if !ok {
			continue
		}
		weighted += score * w.Weight
		applied += w.Weight
	}

	overall := 0.0
	if applied > 0 {
		overall = roundScore(clampScore(weighted / applied))
	}

	return CompatibilityResult{
		OverallScore:    overall,
		DimensionScores: scores,
		MatchFactors:    c.matchFactors(scores),
	}
}

func (c *CompositeScorer) dimensionScores(a, b *UserProfile) DimensionScores {
	scores := make(DimensionScores, len(c.weights))
	for _, w := range c.weights {
		switch w.Dimension {
		case DimensionAge:
			scores[w.Dimension] = c.scorers.Age(a.Age, b.Age)
		case DimensionFitnessLevel:
			scores[w.Dimension] = c.scorers.FitnessLevel(a.FitnessLevel, b.FitnessLevel)
		case DimensionGoals:
			scores[w.Dimension] = c.scorers.Goals(a.Goals, b.Goals)
		case DimensionSchedule:
			scores[w.Dimension] = c.scorers.Schedule(a.PreferredWorkoutTime, b.PreferredWorkoutTime,
				a.AvailabilitySchedule, b.AvailabilitySchedule)
		case DimensionLocation:
			scores[w.Dimension] = c.scorers.Location(a.Location, b.Location)
		}
	}
	return scores
}

func (c *CompositeScorer) matchFactors(scores DimensionScores) []string {
	factors := make([]string, 0, len(c.factors))
	for _, rule := range c.factors {
		if score, ok := scores[rule.Dimension]; ok && score >= rule.Threshold {
			factors = append(factors, rule.Phrase)
		}
	}
	return factors
}

// roundScore rounds to one decimal place, ties to even: 72.25 becomes 72.2.
func roundScore(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
