// Package similarity implements S7 SimilarityCheck: a shingle-overlap and
// semantic-embedding guard against cannibalizing a corpus of previously
// published articles. The check is advisory; it never rejects, only flags.
package similarity

import (
	"context"
	"fmt"
	"math"
	"strings"

	"seoforge/internal/core"
)

const (
	shingleSize    = 5
	jaccardWeight  = 0.4
	cosineWeight   = 0.6
)

// CorpusArticle is one previously published article loaded from the
// configured corpus for comparison.
type CorpusArticle struct {
	ID              string
	Title           string
	TitleEmbedding  []float64
	BodyEmbedding   []float64
	BodyShingles    map[string]struct{}
	SectionShingles []map[string]struct{}
}

// Thresholds configures S7's three flag triggers (spec §4.9).
type Thresholds struct {
	Hybrid         float64
	TitleCosine    float64
	SectionJaccard float64
}

// Checker runs S7 against a loaded corpus.
type Checker struct {
	embed      core.EmbeddingTool
	corpus     []CorpusArticle
	thresholds Thresholds
}

// NewChecker constructs a Checker over a pre-loaded corpus.
func NewChecker(embed core.EmbeddingTool, corpus []CorpusArticle, thresholds Thresholds) *Checker {
	return &Checker{embed: embed, corpus: corpus, thresholds: thresholds}
}

// Check computes the candidate's shingle set and embedding, compares
// against every corpus article, and returns the advisory report.
func (c *Checker) Check(ctx context.Context, doc *core.ArticleDocument) (*core.SimilarityReport, error) {
	bodyText := doc.PlainBodyText()
	bodyShingles := shingleSet(bodyText)

	titleEmbedding, err := c.embed.Embed(ctx, doc.Headline)
	if err != nil {
		return nil, fmt.Errorf("embed title: %w", err)
	}
	bodyEmbedding, err := c.embed.Embed(ctx, bodyText)
	if err != nil {
		return nil, fmt.Errorf("embed body: %w", err)
	}

	sectionShingles := make([]map[string]struct{}, len(doc.Sections))
	for i, s := range doc.Sections {
		sectionShingles[i] = shingleSet(core.StripHTML(s.Content))
	}

	report := &core.SimilarityReport{}

	for _, corpusArticle := range c.corpus {
		jaccardScore := jaccard(bodyShingles, corpusArticle.BodyShingles)
		cosineScore := cosine(bodyEmbedding, corpusArticle.BodyEmbedding)
		hybrid := jaccardWeight*jaccardScore + cosineWeight*cosineScore

		if hybrid >= c.thresholds.Hybrid {
			report.Flags = append(report.Flags, core.SimilarityFlag{
				CorpusArticleID: corpusArticle.ID,
				Reason:          "hybrid",
				Score:           hybrid,
			})
		}

		titleCosine := cosine(titleEmbedding, corpusArticle.TitleEmbedding)
		if titleCosine >= c.thresholds.TitleCosine {
			report.Flags = append(report.Flags, core.SimilarityFlag{
				CorpusArticleID: corpusArticle.ID,
				Reason:          "title_cosine",
				Score:           titleCosine,
			})
		}

		for _, candidateSection := range sectionShingles {
			for _, corpusSection := range corpusArticle.SectionShingles {
				sectionJaccard := jaccard(candidateSection, corpusSection)
				if sectionJaccard >= c.thresholds.SectionJaccard {
					report.Flags = append(report.Flags, core.SimilarityFlag{
						CorpusArticleID: corpusArticle.ID,
						Reason:          "section_jaccard",
						Score:           sectionJaccard,
					})
				}
			}
		}
	}

	return report, nil
}

// shingleSet builds the contiguous 5-token n-gram set over plain text
// (spec §4.9, GLOSSARY "Shingle").
func shingleSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{})
	if len(words) < shingleSize {
		if len(words) > 0 {
			set[strings.Join(words, " ")] = struct{}{}
		}
		return set
	}
	for i := 0; i+shingleSize <= len(words); i++ {
		set[strings.Join(words[i:i+shingleSize], " ")] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
