package stage

import (
	"context"
	"testing"

	"seoforge/internal/core"
	"seoforge/internal/similarity"
)

type fixedEmbedder struct {
	vector []float64
}

func (f fixedEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return f.vector, nil
}

func TestSimilarity_WiresCheckerAndPopulatesReport(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	ec.StructuredData = &core.ArticleDocument{
		Headline: "Widget Guide",
		Intro:    "one two three four five six seven eight nine ten",
	}

	corpus := []similarity.CorpusArticle{
		{
			ID:             "existing-article",
			TitleEmbedding: []float64{1, 0},
			BodyEmbedding:  []float64{1, 0},
			BodyShingles:   map[string]struct{}{"one two three four five": {}},
		},
	}

	checker := similarity.NewChecker(fixedEmbedder{vector: []float64{1, 0}}, corpus, similarity.Thresholds{
		Hybrid: 0.1, TitleCosine: 0.1, SectionJaccard: 0.1,
	})

	stage := NewSimilarity(checker)
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if ec.ParallelResults.Similarity == nil {
		t.Fatal("expected a populated similarity report")
	}
	if len(ec.ParallelResults.Similarity.Flags) == 0 {
		t.Error("expected at least one similarity flag given identical embeddings")
	}
}
