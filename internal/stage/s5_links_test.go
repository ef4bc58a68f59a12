package stage

import (
	"context"
	"testing"

	"seoforge/internal/core"
)

func TestInternalLinks_MatchesByKeywordOverlap(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	ec.SitemapURLs = []core.SitemapURL{
		{URL: "/blog/widget-materials", Title: "Widget Materials Guide"},
		{URL: "/blog/gadget-pricing", Title: "Gadget Pricing Trends"},
	}
	ec.StructuredData = &core.ArticleDocument{
		Sections: []core.Section{
			{Title: "Widget Materials Explained", Content: "..."},
			{Title: "Shipping Timelines", Content: "..."},
		},
	}

	stage := NewInternalLinks()
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(ec.StructuredData.SectionInternalLinks) != 2 {
		t.Fatalf("expected one link slot per section, got %d", len(ec.StructuredData.SectionInternalLinks))
	}
	if len(ec.StructuredData.SectionInternalLinks[0]) != 1 {
		t.Errorf("expected section 1 to match the materials page, got %v", ec.StructuredData.SectionInternalLinks[0])
	}
	if len(ec.StructuredData.SectionInternalLinks[1]) != 0 {
		t.Errorf("expected section 2 to have no match, got %v", ec.StructuredData.SectionInternalLinks[1])
	}
}

func TestInternalLinks_NoSitemapIsNoop(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	ec.StructuredData = &core.ArticleDocument{Sections: []core.Section{{Title: "Intro"}}}

	stage := NewInternalLinks()
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ec.StructuredData.SectionInternalLinks != nil {
		t.Error("expected no-op when there are no sitemap URLs")
	}
}
