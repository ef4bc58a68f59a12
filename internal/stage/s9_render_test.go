package stage

import (
	"context"
	"strings"
	"testing"

	"seoforge/internal/core"
)

type fakeStorage struct {
	written map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{written: make(map[string][]byte)}
}

func (f *fakeStorage) Put(_ context.Context, path string, data []byte, _ string) (string, error) {
	f.written[path] = data
	return "file:///" + path, nil
}

func TestRenderAndStore_WritesArtifacts(t *testing.T) {
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets", Language: "en"}, nil)
	ec.JobID = "job-1"
	ec.StructuredData = &core.ArticleDocument{
		Headline:     "Widget Guide",
		DirectAnswer: "Widgets cost $10-$50.",
		Intro:        "Intro text.",
		Sections:     []core.Section{{Title: "Overview", Content: "<p>Body</p>"}},
		Sources:      []core.Citation{{Number: 1, Title: "Standards", URL: "https://example.com"}},
	}
	ec.ValidatedArticle = map[string]interface{}{"headline": "Widget Guide"}

	store := newFakeStorage()
	stage := NewRenderAndStore(store)
	if err := stage.Run(context.Background(), ec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if ec.StorageResult == nil {
		t.Fatal("expected a storage result")
	}
	if ec.StorageResult.IndexHTMLURI == "" || ec.StorageResult.ArticleJSONURI == "" || ec.StorageResult.SourcesJSONURI == "" {
		t.Errorf("expected all three artifact URIs to be populated: %+v", ec.StorageResult)
	}

	html := string(store.written["job-1/index.html"])
	if !strings.Contains(html, "Widget Guide") {
		t.Error("expected rendered HTML to include the headline")
	}
}
