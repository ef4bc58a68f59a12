package stage

import (
	"context"

	"seoforge/internal/core"
	"seoforge/internal/similarity"
)

// Similarity is S7: the cannibalization guard, run concurrently with S6
// in the {S6, S7} parallel group. Run writes only to
// ec.ParallelResults.Similarity.
type Similarity struct {
	checker *similarity.Checker
}

func NewSimilarity(checker *similarity.Checker) *Similarity {
	return &Similarity{checker: checker}
}

func (s *Similarity) Name() string { return "S7" }

func (s *Similarity) Run(ctx context.Context, ec *core.ExecutionContext) error {
	if ec.ParallelResults == nil {
		ec.ParallelResults = &core.ParallelResults{}
	}
	report, err := s.checker.Check(ctx, ec.StructuredData)
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamTransient, err.Error(), true)
		return nil
	}
	ec.ParallelResults.Similarity = report
	return nil
}
