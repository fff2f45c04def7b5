package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInteractionAdjuster_Adjust(t *testing.T) {
	adjuster := NewInteractionAdjuster(DefaultScoringConfig())
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	record := func(kind InteractionKind, target string) InteractionRecord {
		return InteractionRecord{ActorID: "u1", TargetID: target, Kind: kind, Timestamp: now.Add(-time.Hour)}
	}

	tests := []struct {
		name       string
		base       float64
		records    []InteractionRecord
		lastActive *time.Time
		expected   float64
	}{
		{
			name:     "no history",
			base:     87.5,
			expected: 87.5,
		},
		{
			name:     "block",
			base:     87.5,
			records:  []InteractionRecord{record(InteractionBlock, "u2")},
			expected: 67.5,
		},
		{
			name:     "like and message",
			base:     60,
			records:  []InteractionRecord{record(InteractionLike, "u2"), record(InteractionMessage, "u2")},
			expected: 68,
		},
		{
			name:     "view carries no weight",
			base:     60,
			records:  []InteractionRecord{record(InteractionView, "u2"), record(InteractionConnectionRequest, "u2")},
			expected: 60,
		},
		{
			name:     "records for other candidates ignored",
			base:     60,
			records:  []InteractionRecord{record(InteractionWorkoutTogether, "u3")},
			expected: 60,
		},
		{
			name:     "clamped at 100",
			base:     95,
			records:  []InteractionRecord{record(InteractionWorkoutTogether, "u2"), record(InteractionLike, "u2")},
			expected: 100,
		},
		{
			name:     "clamped at 0",
			base:     10,
			records:  []InteractionRecord{record(InteractionBlock, "u2"), record(InteractionBlock, "u2")},
			expected: 0,
		},
		{
			name:       "active today",
			base:       50,
			lastActive: timePtr(now.Add(-12 * time.Hour)),
			expected:   55,
		},
		{
			name:       "active this week",
			base:       50,
			lastActive: timePtr(now.Add(-3 * 24 * time.Hour)),
			expected:   52,
		},
		{
			name:       "inactive",
			base:       50,
			lastActive: timePtr(now.Add(-20 * 24 * time.Hour)),
			expected:   50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adjuster.Adjust(tt.base, "u2", tt.records, tt.lastActive, now))
		})
	}
}

func TestInteractionAdjuster_RecencyBands(t *testing.T) {
	adjuster := NewInteractionAdjuster(DefaultScoringConfig())
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 5.0, adjuster.RecencyBonus(timePtr(now.Add(-47*time.Hour)), now))
	assert.Equal(t, 2.0, adjuster.RecencyBonus(timePtr(now.Add(-48*time.Hour)), now))
	assert.Equal(t, 2.0, adjuster.RecencyBonus(timePtr(now.Add(-7*24*time.Hour-time.Hour)), now))
	assert.Equal(t, 0.0, adjuster.RecencyBonus(timePtr(now.Add(-8*24*time.Hour)), now))
	assert.Equal(t, 0.0, adjuster.RecencyBonus(nil, now))
}

func timePtr(t time.Time) *time.Time { return &t }
