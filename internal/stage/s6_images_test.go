package stage

import (
	"context"
	"errors"
	"testing"

	"seoforge/internal/core"
)

type fakeImageTool struct {
	failRole string
}

func (f fakeImageTool) GenerateImage(_ context.Context, prompt string, aspectRatio string) (*core.GeneratedImage, error) {
	if f.failRole != "" && aspectRatio == f.failRole {
		return nil, errors.New("generation failed")
	}
	return &core.GeneratedImage{URL: "https://img/" + aspectRatio + ".png", AltText: prompt[:10]}, nil
}

func TestImages_GeneratesAllThreeRoles(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	ec.StructuredData = &core.ArticleDocument{Headline: "Widget Guide"}

	stage := NewImages(fakeImageTool{}, "16:9", "4:3", "1:1")
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	images := ec.ParallelResults.Images
	if images.Hero == nil || images.Mid == nil || images.Bottom == nil {
		t.Fatalf("expected all three image roles populated: %+v", images)
	}
}

func TestImages_DegradesGracefullyOnOneFailure(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	ec.StructuredData = &core.ArticleDocument{Headline: "Widget Guide"}

	stage := NewImages(fakeImageTool{failRole: "4:3"}, "16:9", "4:3", "1:1")
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run should not return an error on a single role failure: %v", err)
	}

	images := ec.ParallelResults.Images
	if images.Hero == nil || images.Bottom == nil {
		t.Error("expected the surviving roles to be populated")
	}
	if images.Mid != nil {
		t.Error("expected the failed role to be left nil")
	}
}
