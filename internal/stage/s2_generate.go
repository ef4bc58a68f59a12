package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"seoforge/internal/core"
)

// Generate is S2: a single structured LLM call, with grounded search and
// URL-context tools enabled, populating context.StructuredData and
// context.GroundingURLs.
type Generate struct {
	llm core.LLMTool
}

func NewGenerate(llm core.LLMTool) *Generate {
	return &Generate{llm: llm}
}

func (s *Generate) Name() string { return "S2" }

const maxGenerateSchemaRetries = 2

func (s *Generate) Run(ctx context.Context, ec *core.ExecutionContext) error {
	var lastErr error

	for attempt := 0; attempt <= maxGenerateSchemaRetries; attempt++ {
		result, err := s.llm.Generate(ctx, core.GenerateRequest{
			Prompt:         ec.Prompt,
			ResponseSchema: articleSchema(),
			GroundedSearch: true,
			URLContext:     true,
			Temperature:    0.4,
		})
		if err != nil {
			lastErr = err
			continue
		}

		doc, parseErr := parseArticleDocument(result.ParsedJSON)
		if parseErr != nil {
			lastErr = parseErr
			continue
		}

		finalizeDerivedFields(doc)

		ec.StructuredData = doc
		ec.GroundingURLs = result.GroundingTrace
		return nil
	}

	ec.AddError(s.Name(), core.UpstreamHard, fmt.Sprintf("schema mismatch after %d attempts: %v", maxGenerateSchemaRetries+1, lastErr), false)
	return fmt.Errorf("s2 generate: %w", lastErr)
}

// articleSchema describes the ArticleDocument shape the LLM must return.
func articleSchema() *core.Schema {
	str := &core.Schema{Type: core.SchemaString}
	strArray := &core.Schema{Type: core.SchemaArray, Items: str}

	section := &core.Schema{
		Type: core.SchemaObject,
		Properties: map[string]*core.Schema{
			"title":   str,
			"content": str,
		},
		Required: []string{"title", "content"},
	}
	qa := &core.Schema{
		Type: core.SchemaObject,
		Properties: map[string]*core.Schema{
			"question": str,
			"answer":   str,
		},
		Required: []string{"question", "answer"},
	}
	citation := &core.Schema{
		Type: core.SchemaObject,
		Properties: map[string]*core.Schema{
			"number": {Type: core.SchemaInteger},
			"title":  str,
			"url":    str,
		},
		Required: []string{"number", "title", "url"},
	}

	return &core.Schema{
		Type: core.SchemaObject,
		Properties: map[string]*core.Schema{
			"headline":         str,
			"subtitle":         str,
			"teaser":           str,
			"slug":             str,
			"meta_title":       str,
			"meta_description": str,
			"direct_answer":    str,
			"intro":            str,
			"sections":         {Type: core.SchemaArray, Items: section},
			"key_takeaways":    strArray,
			"faqs":             {Type: core.SchemaArray, Items: qa},
			"paas":             {Type: core.SchemaArray, Items: qa},
			"sources":          {Type: core.SchemaArray, Items: citation},
			"search_queries":   strArray,
		},
		Required: []string{"headline", "direct_answer", "intro", "sections", "sources"},
	}
}

type wireSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type wireQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type wireCitation struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

type wireArticle struct {
	Headline        string         `json:"headline"`
	Subtitle        string         `json:"subtitle"`
	Teaser          string         `json:"teaser"`
	Slug            string         `json:"slug"`
	MetaTitle       string         `json:"meta_title"`
	MetaDescription string         `json:"meta_description"`
	DirectAnswer    string         `json:"direct_answer"`
	Intro           string         `json:"intro"`
	Sections        []wireSection  `json:"sections"`
	KeyTakeaways    []string       `json:"key_takeaways"`
	FAQs            []wireQA       `json:"faqs"`
	PAAs            []wireQA       `json:"paas"`
	Sources         []wireCitation `json:"sources"`
	SearchQueries   []string       `json:"search_queries"`
}

func parseArticleDocument(data []byte) (*core.ArticleDocument, error) {
	var w wireArticle
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal article document: %w", err)
	}
	if w.Headline == "" || len(w.Sections) == 0 {
		return nil, fmt.Errorf("article document missing required fields")
	}

	doc := &core.ArticleDocument{
		Headline:        w.Headline,
		Subtitle:        w.Subtitle,
		Teaser:          w.Teaser,
		Slug:            w.Slug,
		MetaTitle:       w.MetaTitle,
		MetaDescription: w.MetaDescription,
		DirectAnswer:    w.DirectAnswer,
		Intro:           w.Intro,
		KeyTakeaways:    w.KeyTakeaways,
		SearchQueries:   w.SearchQueries,
	}

	for _, s := range w.Sections {
		doc.Sections = append(doc.Sections, core.Section{Title: s.Title, Content: s.Content})
	}
	for _, f := range w.FAQs {
		doc.FAQs = append(doc.FAQs, core.QAPair{Question: f.Question, Answer: f.Answer})
	}
	for _, p := range w.PAAs {
		doc.PAAs = append(doc.PAAs, core.QAPair{Question: p.Question, Answer: p.Answer})
	}
	for _, c := range w.Sources {
		doc.Sources = append(doc.Sources, core.Citation{Number: c.Number, Title: c.Title, URL: c.URL})
	}

	return doc, nil
}

// finalizeDerivedFields computes WordCount, ReadingTimeMinutes, and
// TOCLabels from the parsed document, per S2's contract.
func finalizeDerivedFields(doc *core.ArticleDocument) {
	wordCount := len(strings.Fields(doc.PlainBodyText()))
	doc.WordCount = wordCount
	doc.ReadingTimeMinutes = int(math.Ceil(float64(wordCount) / 225.0))

	for _, s := range doc.Sections {
		doc.TOCLabels = append(doc.TOCLabels, s.Title)
	}
}
