package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Run(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	requester := &UserProfile{ID: "u1", Age: intPtr(30), FitnessLevel: Intermediate, Goals: []string{"weight_loss"}}

	match := UserProfile{ID: "u2", Name: "Sam", Age: intPtr(31), FitnessLevel: Intermediate, Goals: []string{"weight_loss"}}
	blocked := UserProfile{ID: "u3", Name: "Alex", Age: intPtr(31), FitnessLevel: Intermediate, Goals: []string{"weight_loss"}}
	stranger := UserProfile{ID: "u4", Name: "Kim"}

	p := NewPipeline(DefaultScoringConfig(), WithWorkers(2))
	recs, err := p.Run(context.Background(), Request{
		Requester:  requester,
		Candidates: []UserProfile{stranger, blocked, match},
		Interactions: []InteractionRecord{
			{ActorID: "u1", TargetID: "u3", Kind: InteractionBlock, Timestamp: now},
			// Authored by someone else, so it must not affect u1's ranking.
			{ActorID: "u9", TargetID: "u2", Kind: InteractionBlock, Timestamp: now},
		},
		Limit: 10,
		Now:   now,
	})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "u2", recs[0].CandidateID)
	assert.Equal(t, 87.5, recs[0].Score)
	assert.Equal(t, "Sam", recs[0].Name)
	assert.Equal(t, []string{"similar age group", "compatible fitness levels", "shared fitness goals"}, recs[0].MatchFactors)

	assert.Equal(t, "u3", recs[1].CandidateID)
	assert.Equal(t, 67.5, recs[1].Score)

	assert.Equal(t, "u4", recs[2].CandidateID)
	assert.Equal(t, 50.0, recs[2].Score)
	assert.Equal(t, []string{}, recs[2].Goals)
}

func TestPipeline_RunAppliesRecencyBonus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)

	p := NewPipeline(DefaultScoringConfig())
	recs, err := p.Run(context.Background(), Request{
		Requester:  &UserProfile{ID: "u1"},
		Candidates: []UserProfile{{ID: "u2", LastActive: &recent}},
		Limit:      DefaultLimit,
		Now:        now,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 55.0, recs[0].Score)
}

func TestPipeline_RunTieBreakIsDeterministic(t *testing.T) {
	p := NewPipeline(DefaultScoringConfig(), WithWorkers(4))

	candidates := make([]UserProfile, 0, 20)
	for i := 19; i >= 0; i-- {
		candidates = append(candidates, UserProfile{ID: fmt.Sprintf("c%02d", i)})
	}

	for run := 0; run < 5; run++ {
		recs, err := p.Run(context.Background(), Request{
			Requester:  &UserProfile{ID: "u1"},
			Candidates: candidates,
			Limit:      3,
		})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "c00", recs[0].CandidateID)
		assert.Equal(t, "c01", recs[1].CandidateID)
		assert.Equal(t, "c02", recs[2].CandidateID)
	}
}

func TestPipeline_RunEdgeCases(t *testing.T) {
	p := NewPipeline(DefaultScoringConfig())
	ctx := context.Background()

	_, err := p.Run(ctx, Request{Candidates: []UserProfile{{ID: "u2"}}, Limit: 5})
	assert.ErrorIs(t, err, ErrNilRequester)

	recs, err := p.Run(ctx, Request{Requester: &UserProfile{ID: "u1"}, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = p.Run(ctx, Request{Requester: &UserProfile{ID: "u1"}, Candidates: []UserProfile{{ID: "u2"}}, Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = p.Run(ctx, Request{Requester: &UserProfile{ID: "u1"}, Candidates: []UserProfile{{ID: "u2"}, {ID: "u3"}}, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestPipeline_RunCancelled(t *testing.T) {
	p := NewPipeline(DefaultScoringConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Request{
		Requester:  &UserProfile{ID: "u1"},
		Candidates: []UserProfile{{ID: "u2"}, {ID: "u3"}},
		Limit:      5,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_ScoreAll(t *testing.T) {
	p := NewPipeline(DefaultScoringConfig())
	requester := &UserProfile{ID: "u1", Age: intPtr(30), FitnessLevel: Intermediate, Goals: []string{"weight_loss"}}
	recent := time.Now()

	recs, err := p.ScoreAll(context.Background(), requester, []UserProfile{
		{ID: "u3"},
		{ID: "u2", Age: intPtr(31), FitnessLevel: Intermediate, Goals: []string{"weight_loss"}, LastActive: &recent},
	}, 20)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Search results carry the plain composite score, without recency bonus.
	assert.Equal(t, "u2", recs[0].CandidateID)
	assert.Equal(t, 87.5, recs[0].Score)

	_, err = p.ScoreAll(context.Background(), nil, nil, 20)
	assert.ErrorIs(t, err, ErrNilRequester)
}

func TestPipeline_Score(t *testing.T) {
	p := NewPipeline(DefaultScoringConfig())

	_, err := p.Score(nil, &UserProfile{ID: "u2"})
	assert.ErrorIs(t, err, ErrNilRequester)

	result, err := p.Score(&UserProfile{ID: "u1"}, &UserProfile{ID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.OverallScore)
}
