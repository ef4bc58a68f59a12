package similarity

import (
	"encoding/json"
	"fmt"
	"os"
)

// corpusRecord is the on-disk JSON shape for one corpus entry. Shingle
// sets are persisted as plain slices since map[string]struct{} is not
// directly marshalable, and rebuilt into sets on load.
type corpusRecord struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	TitleEmbedding  []float64  `json:"title_embedding"`
	BodyEmbedding   []float64  `json:"body_embedding"`
	BodyShingles    []string   `json:"body_shingles"`
	SectionShingles [][]string `json:"section_shingles"`
}

// LoadCorpus reads a previously published article corpus from a JSON file
// at path, as referenced by config.SimilarityConfig.CorpusPath. A missing
// file is not an error; it yields an empty corpus, since a fresh
// deployment has nothing to compare against yet.
func LoadCorpus(path string) ([]CorpusArticle, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}

	var records []corpusRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing corpus file: %w", err)
	}

	corpus := make([]CorpusArticle, 0, len(records))
	for _, r := range records {
		article := CorpusArticle{
			ID:             r.ID,
			Title:          r.Title,
			TitleEmbedding: r.TitleEmbedding,
			BodyEmbedding:  r.BodyEmbedding,
			BodyShingles:   toSet(r.BodyShingles),
		}
		for _, s := range r.SectionShingles {
			article.SectionShingles = append(article.SectionShingles, toSet(s))
		}
		corpus = append(corpus, article)
	}
	return corpus, nil
}

// AppendToCorpus persists article's shingles and embeddings to the corpus file
// at path so future runs flag cannibalization against it, growing the
// corpus one published article at a time.
func AppendToCorpus(path string, article CorpusArticle) error {
	existing, err := LoadCorpus(path)
	if err != nil {
		return err
	}
	existing = append(existing, article)

	records := make([]corpusRecord, 0, len(existing))
	for _, a := range existing {
		rec := corpusRecord{
			ID:             a.ID,
			Title:          a.Title,
			TitleEmbedding: a.TitleEmbedding,
			BodyEmbedding:  a.BodyEmbedding,
			BodyShingles:   fromSet(a.BodyShingles),
		}
		for _, s := range a.SectionShingles {
			rec.SectionShingles = append(rec.SectionShingles, fromSet(s))
		}
		records = append(records, rec)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing corpus file: %w", err)
	}
	return nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, i := range items {
		set[i] = struct{}{}
	}
	return set
}

func fromSet(set map[string]struct{}) []string {
	items := make([]string, 0, len(set))
	for i := range set {
		items = append(items, i)
	}
	return items
}
