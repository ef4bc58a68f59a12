package stage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"seoforge/internal/core"
)

const sampleSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/blog/widget-guide</loc></url>
  <url><loc>https://example.com/about</loc></url>
</urlset>`

func TestDataFetch_ParsesSitemap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleSitemap))
	}))
	defer server.Close()

	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, &core.CompanyData{URL: server.URL})
	stage := NewDataFetch()
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(ec.SitemapURLs) != 2 {
		t.Fatalf("expected 2 sitemap URLs, got %d", len(ec.SitemapURLs))
	}
	if ec.SitemapURLs[0].Title != "Widget Guide" {
		t.Errorf("expected derived title 'Widget Guide', got %q", ec.SitemapURLs[0].Title)
	}
}

func TestDataFetch_MissingKeywordIsFatal(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{}, nil)
	stage := NewDataFetch()
	if err := stage.Run(context.Background(), ec); err == nil {
		t.Fatal("expected an error for a missing keyword")
	}
	if !ec.HasFatalError() {
		t.Error("expected a fatal InputInvalid error to be recorded")
	}
}

func TestDataFetch_NoCompanyURLIsNoop(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	stage := NewDataFetch()
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ec.SitemapURLs != nil {
		t.Error("expected no sitemap URLs without a company URL")
	}
}
