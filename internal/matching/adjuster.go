package matching

import "time"

// InteractionAdjuster nudges a composite score using interaction history and recency.
type InteractionAdjuster struct {
	deltas map[InteractionKind]float64
	bands  []RecencyBand
}

// NewInteractionAdjuster builds an adjuster from the delta and recency tables of cfg.
func NewInteractionAdjuster(cfg ScoringConfig) *InteractionAdjuster {
	cfg = cfg.clone()
	return &InteractionAdjuster{
		deltas: cfg.InteractionDeltas,
		bands:  cfg.RecencyBands,
	}
}

// Adjust returns clamp(base + interaction deltas + recency bonus, 0, 100) rounded to
// one decimal. Records targeting someone other than candidateID are ignored.
func (a *InteractionAdjuster) Adjust(base float64, candidateID string, records []InteractionRecord, lastActive *time.Time, now time.Time) float64 {
	adjusted := base + a.InteractionDelta(candidateID, records) + a.RecencyBonus(lastActive, now)
	return roundScore(clampScore(adjusted))
}

// InteractionDelta sums the per-kind deltas of every record targeting candidateID.
// All matching records count, whatever their order or age.
func (a *InteractionAdjuster) InteractionDelta(candidateID string, records []InteractionRecord) float64 {
	total := 0.0
	for _, r := range records {
		if r.TargetID != candidateID {
			continue
		}
		total += a.deltas[r.Kind]
	}
	return total
}

// RecencyBonus grants the bonus of the first band covering the whole days elapsed
// since lastActive. Unknown activity earns nothing.
func (a *InteractionAdjuster) RecencyBonus(lastActive *time.Time, now time.Time) float64 {
	if lastActive == nil || lastActive.IsZero() {
		return 0
	}

	days := int(now.Sub(*lastActive) / (24 * time.Hour))
	for _, band := range a.bands {
		if days <= band.MaxDays {
			return band.Bonus
		}
	}
	return 0
}
