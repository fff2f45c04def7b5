package matching

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	// NeutralScore is returned by every dimension when either side lacks the input.
	NeutralScore = 50.0

	maxPlausibleAge = 120
)

// DimensionScorers computes the five per-dimension sub-scores.
type DimensionScorers struct {
	normalizer *FeatureNormalizer
	proximity  ProximityFunc
}

// NewDimensionScorers builds scorers over the tables of cfg.
func NewDimensionScorers(cfg ScoringConfig) *DimensionScorers {
	cfg = cfg.clone()
	return &DimensionScorers{
		normalizer: NewFeatureNormalizer(cfg),
		proximity:  cfg.Proximity,
	}
}

// Age scores the absolute age difference on a step scale.
func (s *DimensionScorers) Age(a, b *int) float64 {
	return AgeScore(a, b)
}

// FitnessLevel scores the ordinal distance between two levels.
func (s *DimensionScorers) FitnessLevel(a, b FitnessLevel) float64 {
	ordA, okA := s.normalizer.FitnessOrdinal(a)
	ordB, okB := s.normalizer.FitnessOrdinal(b)
	if !okA || !okB {
		return NeutralScore
	}

	switch diff := absInt(ordA - ordB); diff {
	case 0:
		return 100
	case 1:
		return 80
	default:
		return 60
	}
}

// Goals scores the cosine similarity of the two goal vectors.
func (s *DimensionScorers) Goals(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return NeutralScore
	}

	va := s.normalizer.GoalVector(a)
	vb := s.normalizer.GoalVector(b)

	normA := floats.Dot(va, va)
	normB := floats.Dot(vb, vb)
	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := floats.Dot(va, vb) / math.Sqrt(normA*normB)
	return clampScore(similarity * 100)
}

// Schedule compares preferred workout times. Availability schedules are accepted for
// future overlap analysis but do not influence the score yet.
func (s *DimensionScorers) Schedule(timeA, timeB string, _, _ map[string]interface{}) float64 {
	return ScheduleScore(timeA, timeB)
}

// Location delegates to the configured proximity function.
func (s *DimensionScorers) Location(from, to string) float64 {
	if from == "" || to == "" {
		return NeutralScore
	}
	return clampScore(s.proximity(from, to))
}

// AgeScore scores two ages: <=2 years apart 100, <=5 85, <=10 70, <=15 50, else 25.
// Ages outside 1..120 are treated as missing.
func AgeScore(a, b *int) float64 {
	if !plausibleAge(a) || !plausibleAge(b) {
		return NeutralScore
	}

	diff := absInt(*a - *b)
	switch {
	case diff <= 2:
		return 100
	case diff <= 5:
		return 85
	case diff <= 10:
		return 70
	case diff <= 15:
		return 50
	default:
		return 25
	}
}

// ScheduleScore returns 100 for the same preferred time, 85 when either side is
// flexible and 40 otherwise. Only case is folded: " morning" and "morning" differ.
func ScheduleScore(timeA, timeB string) float64 {
	if timeA == "" || timeB == "" {
		return NeutralScore
	}

	a, b := foldCase(timeA), foldCase(timeB)
	switch {
	case a == b:
		return 100
	case a == FlexibleWorkoutTime || b == FlexibleWorkoutTime:
		return 85
	default:
		return 40
	}
}

// SubstringProximity is the reference location rule: identical locations score 100,
// 75 when any word of "from" occurs inside "to", and 30 otherwise. It is directional:
// SubstringProximity(a, b) and SubstringProximity(b, a) may differ. Comparison folds
// case only, so a whitespace-only location has no words and scores 30.
func SubstringProximity(from, to string) float64 {
	f, t := foldCase(from), foldCase(to)
	if f == t {
		return 100
	}
	for _, word := range strings.Fields(f) {
		if strings.Contains(t, word) {
			return 75
		}
	}
	return 30
}

func plausibleAge(age *int) bool {
	return age != nil && *age > 0 && *age <= maxPlausibleAge
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
