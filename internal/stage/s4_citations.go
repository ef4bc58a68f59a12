package stage

import (
	"context"

	"seoforge/internal/citations"
	"seoforge/internal/core"
)

// Citations is S4: validates, replaces, and renumbers the article's
// Sources, rewriting body markers to match.
type Citations struct {
	validator *citations.Validator
}

func NewCitations(llm core.LLMTool, urlChecker core.URLValidator, denyList []string, concurrency int) *Citations {
	return &Citations{validator: citations.NewValidator(llm, urlChecker, denyList, concurrency)}
}

// NewCitationsWithLegacyFallback is NewCitations plus a secondary text
// generator for replacement-URL discovery when the primary LLM's
// grounded-search call fails or its reply contains no URL.
func NewCitationsWithLegacyFallback(llm core.LLMTool, urlChecker core.URLValidator, denyList []string, concurrency int, legacy citations.LegacyGenerator) *Citations {
	return &Citations{validator: citations.NewValidator(llm, urlChecker, denyList, concurrency).WithLegacyFallback(legacy)}
}

func (s *Citations) Name() string { return "S4" }

func (s *Citations) Run(ctx context.Context, ec *core.ExecutionContext) error {
	citationMap, err := s.validator.Validate(ctx, ec.StructuredData, ec.GroundingURLs, ec.JobConfig.StrictCitations())
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamTransient, err.Error(), true)
		return err
	}
	ec.StructuredData.CitationMap = citationMap
	return nil
}
