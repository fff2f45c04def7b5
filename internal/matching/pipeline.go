package matching

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the number of recommendations returned when the caller does not ask
// for a specific amount.
const DefaultLimit = 10

// ErrNilRequester is returned when a pipeline run has no requesting user.
var ErrNilRequester = errors.New("matching: requester profile is required")

// Request is the in-memory input of one recommendation pass.
type Request struct {
	Requester    *UserProfile
	Candidates   []UserProfile
	Interactions []InteractionRecord
	Limit        int
	// Now anchors the recency bonus. The zero value means time.Now().
	Now time.Time
}

// Pipeline scores, adjusts and ranks candidates for one requester.
type Pipeline struct {
	scorer   *CompositeScorer
	adjuster *InteractionAdjuster
	workers  int
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

// WithWorkers bounds the number of candidates scored concurrently.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPipeline builds a pipeline over cfg.
func NewPipeline(cfg ScoringConfig, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		scorer:   NewCompositeScorer(cfg),
		adjuster: NewInteractionAdjuster(cfg),
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Score returns the composite compatibility of candidate for requester, without
// interaction adjustment.
func (p *Pipeline) Score(requester, candidate *UserProfile) (CompatibilityResult, error) {
	if requester == nil {
		return CompatibilityResult{}, ErrNilRequester
	}
	return p.scorer.Score(requester, candidate), nil
}

// Run produces the ranked recommendation list for req.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]RankedRecommendation, error) {
	if req.Requester == nil {
		return nil, ErrNilRequester
	}
	if req.Limit <= 0 || len(req.Candidates) == 0 {
		return []RankedRecommendation{}, nil
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	history := authoredBy(req.Requester.ID, req.Interactions)

	results := make([]RankedRecommendation, len(req.Candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range req.Candidates {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			candidate := &req.Candidates[i]
			result := p.scorer.Score(req.Requester, candidate)
			adjusted := p.adjuster.Adjust(result.OverallScore, candidate.ID, history, candidate.LastActive, now)
			results[i] = newRankedRecommendation(candidate, adjusted, result)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Rank(results, req.Limit), nil
}

// ScoreAll returns the composite scores of every candidate ranked without interaction
// adjustment. It is used by filtered search.
func (p *Pipeline) ScoreAll(ctx context.Context, requester *UserProfile, candidates []UserProfile, limit int) ([]RankedRecommendation, error) {
	if requester == nil {
		return nil, ErrNilRequester
	}
	if limit <= 0 || len(candidates) == 0 {
		return []RankedRecommendation{}, nil
	}

	results := make([]RankedRecommendation, len(candidates))
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate := &candidates[i]
		result := p.scorer.Score(requester, candidate)
		results[i] = newRankedRecommendation(candidate, result.OverallScore, result)
	}
	return Rank(results, limit), nil
}

func authoredBy(actorID string, records []InteractionRecord) []InteractionRecord {
	out := make([]InteractionRecord, 0, len(records))
	for _, r := range records {
		if r.ActorID == actorID {
			out = append(out, r)
		}
	}
	return out
}
