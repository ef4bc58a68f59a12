package stage

import (
	"context"
	"fmt"
	"strings"

	"seoforge/internal/core"
)

// PromptBuild is S1: a pure, deterministic function of the ExecutionContext
// that assembles the system instruction and task prompt S2 sends to the
// LLM collaborator.
type PromptBuild struct{}

func NewPromptBuild() *PromptBuild { return &PromptBuild{} }

func (s *PromptBuild) Name() string { return "S1" }

func (s *PromptBuild) Run(_ context.Context, ec *core.ExecutionContext) error {
	ec.Prompt = buildSystemInstruction(ec.CompanyData) + "\n\n---\n\n" + buildTaskPrompt(ec.JobConfig, ec.CompanyData)
	return nil
}

func buildSystemInstruction(company *core.CompanyData) string {
	var b strings.Builder
	b.WriteString("You are an expert SEO/AEO long-form content writer. Produce a structured article matching the ")
	b.WriteString("ArticleDocument schema exactly: Headline, Subtitle, Teaser, Slug, MetaTitle, MetaDescription, ")
	b.WriteString("DirectAnswer, Intro, Sections (each with Title and HTML Content), KeyTakeaways, FAQs, PAAs, Sources, ")
	b.WriteString("SearchQueries, TOCLabels.\n\n")
	b.WriteString("HTML rules: use only <p>, <h2>, <h3>, <ul>, <ol>, <li>, <strong>, <em>, <table> tags inside field ")
	b.WriteString("content. Every <p> must be closed. Never nest a <p> inside a heading.\n\n")
	b.WriteString("Citation rules: cite claims inline with academic-style markers like [1], [2], matching an entry ")
	b.WriteString("in Sources. Every Sources entry must be a specific page URL, never a bare domain.\n\n")
	b.WriteString("Tone and variety: vary section structure (narrative paragraphs, bulleted lists, a comparison table ")
	b.WriteString("in at least one section); address the reader directly; phrase at least two section titles as ")
	b.WriteString("questions.\n\n")
	b.WriteString("Brand protection: never mention or allude to any of the company's named competitors.\n")

	if company != nil {
		if company.SystemInstructions != "" {
			b.WriteString("\nCompany-supplied instructions: ")
			b.WriteString(company.SystemInstructions)
			b.WriteString("\n")
		}
		if len(company.Competitors) > 0 {
			b.WriteString("\nCompetitors to never mention by name: ")
			b.WriteString(strings.Join(company.Competitors, ", "))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func buildTaskPrompt(cfg core.JobConfig, company *core.CompanyData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target keyword: %s\n", cfg.Keyword)
	if cfg.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", cfg.Language)
	}
	if cfg.Country != "" {
		fmt.Fprintf(&b, "Target country: %s\n", cfg.Country)
	}
	if cfg.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", cfg.Tone)
	}

	wordMin, wordMax := cfg.WordCountMin, cfg.WordCountMax
	if wordMin == 0 {
		wordMin = 2500
	}
	if wordMax == 0 {
		wordMax = 4000
	}
	fmt.Fprintf(&b, "Target word count: %d-%d\n", wordMin, wordMax)

	if company != nil {
		fmt.Fprintf(&b, "\nCompany: %s", company.Name)
		if company.Industry != "" {
			fmt.Fprintf(&b, " (%s)", company.Industry)
		}
		b.WriteString("\n")
		if len(company.Products) > 0 {
			fmt.Fprintf(&b, "Products: %s\n", strings.Join(company.Products, ", "))
		}
		if company.Audience != "" {
			fmt.Fprintf(&b, "Audience: %s\n", company.Audience)
		}
		if len(company.PainPoints) > 0 {
			fmt.Fprintf(&b, "Audience pain points: %s\n", strings.Join(company.PainPoints, ", "))
		}
		if len(company.ValuePropositions) > 0 {
			fmt.Fprintf(&b, "Value propositions: %s\n", strings.Join(company.ValuePropositions, ", "))
		}
		if company.KnowledgeBase != "" {
			fmt.Fprintf(&b, "\nSupplemental context:\n%s\n", company.KnowledgeBase)
		}
	}

	if cfg.ExtraInstructions != "" {
		fmt.Fprintf(&b, "\nAdditional instructions: %s\n", cfg.ExtraInstructions)
	}

	return b.String()
}
