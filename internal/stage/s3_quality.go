package stage

import (
	"context"
	"fmt"

	"seoforge/internal/core"
	"seoforge/internal/quality"
)

// QualityRefine is S3: always runs, owns all content-level fixing.
// Internally self-skipping when the detection phase finds no defects.
type QualityRefine struct {
	refiner *quality.Refiner
}

func NewQualityRefine(llm core.LLMTool, concurrency int) *QualityRefine {
	return &QualityRefine{refiner: quality.NewRefiner(llm, concurrency)}
}

func (s *QualityRefine) Name() string { return "S3" }

func (s *QualityRefine) Run(ctx context.Context, ec *core.ExecutionContext) error {
	report, err := s.refiner.Refine(ctx, ec.StructuredData, ec.JobConfig.Keyword)
	if err != nil {
		ec.AddError(s.Name(), core.ContentDefect, err.Error(), true)
		return err
	}
	for _, f := range ec.StructuredData.ContentFields() {
		if quality.DetectFieldDefects(f.Name, f.Get()).HasDefects() {
			ec.AddError(s.Name(), core.ContentDefect, "residual defects after repair", true)
			break
		}
	}
	if len(report.DirectAnswerDefects) > 0 {
		ec.AddError(s.Name(), core.ContentDefect, fmt.Sprintf("direct answer quality still out of range after repair: %v", report.DirectAnswerDefects), true)
	}
	if len(report.BareDomainCitations) > 0 {
		ec.AddError(s.Name(), core.ContentDefect, fmt.Sprintf("grounded-url completeness: bare-domain citations %v", report.BareDomainCitations), true)
	}
	return nil
}
