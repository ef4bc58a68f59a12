package stage

import (
	"context"
	"sort"
	"strings"

	"seoforge/internal/core"
)

// InternalLinks is S5: for each section, attaches 0-2 sitemap URLs whose
// titles semantically match the section topic via keyword overlap. It
// never mutates section content; the renderer attaches links as a
// "Related" aside.
type InternalLinks struct{}

func NewInternalLinks() *InternalLinks { return &InternalLinks{} }

func (s *InternalLinks) Name() string { return "S5" }

func (s *InternalLinks) Run(_ context.Context, ec *core.ExecutionContext) error {
	doc := ec.StructuredData
	if len(ec.SitemapURLs) == 0 || doc == nil {
		return nil
	}

	links := make([][]core.SitemapURL, len(doc.Sections))
	for i, section := range doc.Sections {
		links[i] = topMatches(section.Title, ec.SitemapURLs, 2)
	}
	doc.SectionInternalLinks = links
	return nil
}

type scoredURL struct {
	url   core.SitemapURL
	score float64
}

// topMatches returns up to n sitemap URLs whose titles have the highest
// keyword-overlap score against sectionTitle, excluding zero-overlap
// candidates entirely.
func topMatches(sectionTitle string, candidates []core.SitemapURL, n int) []core.SitemapURL {
	sectionTokens := tokenSet(sectionTitle)
	if len(sectionTokens) == 0 {
		return nil
	}

	var scored []scoredURL
	for _, c := range candidates {
		overlap := overlapScore(sectionTokens, tokenSet(c.Title))
		if overlap > 0 {
			scored = append(scored, scoredURL{url: c, score: overlap})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if len(scored) > n {
		scored = scored[:n]
	}

	out := make([]core.SitemapURL, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.url)
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?:;\"'()")
		if len(w) < 3 || stopWords[w] {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "your": true,
	"that": true, "this": true, "from": true, "how": true, "what": true,
	"are": true, "you": true, "can": true, "does": true,
}

func overlapScore(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a))
}
