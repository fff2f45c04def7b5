package matching

import (
	"fmt"
	"math"
)

// DimensionWeight is the share of one dimension in the composite score.
type DimensionWeight struct {
	Dimension Dimension
	Weight    float64
}

// MatchFactorRule attaches Phrase to a result whose Dimension score reaches Threshold.
type MatchFactorRule struct {
	Dimension Dimension
	Threshold float64
	Phrase    string
}

// RecencyBand grants Bonus to candidates active within MaxDays whole days.
type RecencyBand struct {
	MaxDays int
	Bonus   float64
}

// ProximityFunc scores how close location "to" is to location "from" on a 0-100 scale.
// Both arguments are non-empty; missing locations never reach it.
type ProximityFunc func(from, to string) float64

// ScoringConfig carries every table the engine reads. Constructors copy it, so a
// config handed to a scorer cannot be changed underneath it.
type ScoringConfig struct {
	// Weights are applied in order; the order also drives match-factor output.
	Weights           []DimensionWeight
	MatchFactors      []MatchFactorRule
	GoalCategories    []string
	LevelOrdinals     map[FitnessLevel]int
	InteractionDeltas map[InteractionKind]float64
	// RecencyBands must be sorted by ascending MaxDays.
	RecencyBands []RecencyBand
	Proximity    ProximityFunc
}

// DefaultScoringConfig returns the reference weights and tables.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: []DimensionWeight{
			{Dimension: DimensionAge, Weight: 0.20},
			{Dimension: DimensionFitnessLevel, Weight: 0.25},
			{Dimension: DimensionGoals, Weight: 0.30},
			{Dimension: DimensionSchedule, Weight: 0.15},
			{Dimension: DimensionLocation, Weight: 0.10},
		},
		MatchFactors: []MatchFactorRule{
			{Dimension: DimensionAge, Threshold: 80, Phrase: "similar age group"},
			{Dimension: DimensionFitnessLevel, Threshold: 80, Phrase: "compatible fitness levels"},
			{Dimension: DimensionGoals, Threshold: 70, Phrase: "shared fitness goals"},
			{Dimension: DimensionSchedule, Threshold: 80, Phrase: "compatible schedules"},
			{Dimension: DimensionLocation, Threshold: 70, Phrase: "close location"},
		},
		GoalCategories: []string{"weight_loss", "muscle_gain", "endurance", "strength", "general_fitness"},
		LevelOrdinals: map[FitnessLevel]int{
			Beginner:     1,
			Intermediate: 2,
			Advanced:     3,
		},
		InteractionDeltas: map[InteractionKind]float64{
			InteractionLike:            5,
			InteractionMessage:         3,
			InteractionWorkoutTogether: 10,
			InteractionBlock:           -20,
			InteractionAccepted:        2,
			InteractionDeclined:        -1,
		},
		RecencyBands: []RecencyBand{
			{MaxDays: 1, Bonus: 5},
			{MaxDays: 7, Bonus: 2},
		},
		Proximity: SubstringProximity,
	}
}

// WithWeights returns a copy of c where every dimension present in overrides takes the
// new weight. Dimensions absent from c are ignored.
func (c ScoringConfig) WithWeights(overrides map[Dimension]float64) ScoringConfig {
	out := c.clone()
	for i, w := range out.Weights {
		if v, ok := overrides[w.Dimension]; ok {
			out.Weights[i].Weight = v
		}
	}
	return out
}

// Validate checks that the weights can produce a calibrated average.
func (c ScoringConfig) Validate() error {
	if len(c.Weights) == 0 {
		return fmt.Errorf("no dimension weights configured")
	}
	total := 0.0
	for _, w := range c.Weights {
		if w.Weight < 0 || math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return fmt.Errorf("invalid weight %v for dimension %s", w.Weight, w.Dimension)
		}
		total += w.Weight
	}
	if total == 0 {
		return fmt.Errorf("dimension weights sum to zero")
	}
	if len(c.GoalCategories) == 0 {
		return fmt.Errorf("no goal categories configured")
	}
	for i := 1; i < len(c.RecencyBands); i++ {
		if c.RecencyBands[i].MaxDays < c.RecencyBands[i-1].MaxDays {
			return fmt.Errorf("recency bands must be sorted by max days")
		}
	}
	return nil
}

func (c ScoringConfig) clone() ScoringConfig {
	out := ScoringConfig{
		Weights:        append([]DimensionWeight(nil), c.Weights...),
		MatchFactors:   append([]MatchFactorRule(nil), c.MatchFactors...),
		GoalCategories: append([]string(nil), c.GoalCategories...),
		RecencyBands:   append([]RecencyBand(nil), c.RecencyBands...),
		Proximity:      c.Proximity,
	}
	if c.LevelOrdinals != nil {
		out.LevelOrdinals = make(map[FitnessLevel]int, len(c.LevelOrdinals))
		for k, v := range c.LevelOrdinals {
			out.LevelOrdinals[k] = v
		}
	}
	if c.InteractionDeltas != nil {
		out.InteractionDeltas = make(map[InteractionKind]float64, len(c.InteractionDeltas))
		for k, v := range c.InteractionDeltas {
			out.InteractionDeltas[k] = v
		}
	}
	if out.Proximity == nil {
		out.Proximity = SubstringProximity
	}
	return out
}
