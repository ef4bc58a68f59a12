package similarity

import (
	"path/filepath"
	"testing"
)

func TestLoadCorpus_MissingFileIsEmptyNotError(t *testing.T) {
	corpus, err := LoadCorpus(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corpus) != 0 {
		t.Errorf("expected empty corpus, got %d entries", len(corpus))
	}
}

func TestAppendToCorpus_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")

	article := CorpusArticle{
		ID:             "article-1",
		Title:          "Widget Guide",
		TitleEmbedding: []float64{1, 0},
		BodyEmbedding:  []float64{0, 1},
		BodyShingles:   toSet([]string{"a b c d e"}),
	}
	if err := AppendToCorpus(path, article); err != nil {
		t.Fatalf("AppendToCorpus: %v", err)
	}

	loaded, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 article, got %d", len(loaded))
	}
	if loaded[0].ID != "article-1" {
		t.Errorf("expected ID article-1, got %q", loaded[0].ID)
	}
	if _, ok := loaded[0].BodyShingles["a b c d e"]; !ok {
		t.Error("expected body shingle to round-trip")
	}
}
