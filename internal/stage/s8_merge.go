package stage

import (
	"context"
	"regexp"
	"strconv"

	"seoforge/internal/core"
)

// MergeAndLink is S8: merges the parallel group's results into the
// document, rewrites citation markers into anchor tags, and flattens the
// result into validated_article. Performs no content rewriting or
// cleanup; that remains S3's exclusive responsibility.
type MergeAndLink struct{}

func NewMergeAndLink() *MergeAndLink { return &MergeAndLink{} }

func (s *MergeAndLink) Name() string { return "S8" }

var citationMarkerPattern = regexp.MustCompile(`\[(\d+)\]`)

func (s *MergeAndLink) Run(_ context.Context, ec *core.ExecutionContext) error {
	doc := ec.StructuredData

	if ec.ParallelResults != nil {
		if ec.ParallelResults.Images != nil {
			doc.ImageHero = ec.ParallelResults.Images.Hero
			doc.ImageMid = ec.ParallelResults.Images.Mid
			doc.ImageBottom = ec.ParallelResults.Images.Bottom
		}
		if ec.ParallelResults.Similarity != nil {
			doc.SimilarityReport = ec.ParallelResults.Similarity
		}
	}

	titles := citationTitles(doc.Sources)
	for _, field := range doc.ContentFields() {
		field.Set(linkifyMarkers(field.Get(), doc.CitationMap, titles))
	}

	ec.ValidatedArticle = flatten(doc)
	return nil
}

// linkifyMarkers replaces every "[N]" body marker with an anchored citation
// link, using the source's title as link text (spec §3.3/§4.10/§6.3) and
// dropping markers with no surviving citation-map entry.
func linkifyMarkers(text string, citationMap, citationTitles map[string]string) string {
	return citationMarkerPattern.ReplaceAllStringFunc(text, func(match string) string {
		n := citationMarkerPattern.FindStringSubmatch(match)[1]
		url, ok := citationMap[n]
		if !ok {
			return ""
		}
		title := citationTitles[n]
		if title == "" {
			title = "[" + n + "]"
		}
		return `<a href="` + url + `" class="citation">` + title + `</a>`
	})
}

// citationTitles indexes a document's surviving Sources by their
// (post-renumber) marker number, for linkifyMarkers' anchor text lookup.
func citationTitles(sources []core.Citation) map[string]string {
	m := make(map[string]string, len(sources))
	for _, c := range sources {
		m[strconv.Itoa(c.Number)] = c.Title
	}
	return m
}

// flatten produces a single-level string->value map suitable for
// templating, per S8's contract.
func flatten(doc *core.ArticleDocument) map[string]interface{} {
	m := map[string]interface{}{
		"headline":             doc.Headline,
		"subtitle":             doc.Subtitle,
		"teaser":               doc.Teaser,
		"slug":                 doc.Slug,
		"meta_title":           doc.MetaTitle,
		"meta_description":     doc.MetaDescription,
		"direct_answer":        doc.DirectAnswer,
		"intro":                doc.Intro,
		"key_takeaways":        doc.KeyTakeaways,
		"toc_labels":           doc.TOCLabels,
		"word_count":           doc.WordCount,
		"reading_time_minutes": doc.ReadingTimeMinutes,
	}

	for i, section := range doc.Sections {
		prefix := "section_" + pad2(i+1)
		m[prefix+"_title"] = section.Title
		m[prefix+"_content"] = section.Content
	}
	for i, f := range doc.FAQs {
		m["faq_"+pad2(i+1)+"_question"] = f.Question
		m["faq_"+pad2(i+1)+"_answer"] = f.Answer
	}
	for i, p := range doc.PAAs {
		m["paa_"+pad2(i+1)+"_question"] = p.Question
		m["paa_"+pad2(i+1)+"_answer"] = p.Answer
	}

	return m
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
