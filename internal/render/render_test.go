package render

import (
	"strings"
	"testing"

	"seoforge/internal/core"
)

func sampleInput() Input {
	return Input{
		Language:           "en",
		Headline:           "Widget Buying Guide",
		Teaser:             "Everything to know before buying a widget.",
		MetaTitle:          "Widget Buying Guide | SEOForge",
		MetaDescription:    "A complete guide to buying widgets.",
		DirectAnswer:       "<p>Widgets cost between $10 and $50.</p>",
		Intro:              "<p>Buying a widget is easier than it looks.</p>",
		ReadingTimeMinutes: 6,
		TOCLabels:          []string{"What is a widget?", "How to choose one"},
		Sections: []InputSection{
			{
				Title:   "What is a widget?",
				Content: "<p>A widget is a small useful device.</p>",
				RelatedLinks: []InputLink{
					{URL: "/blog/gadgets", Title: "Gadgets explained"},
				},
			},
			{
				Title:   "How to choose one",
				Content: "<p>Consider size, price, and material.</p>",
			},
		},
		KeyTakeaways: []string{"Widgets are cheap", "Material matters most"},
		FAQs: []InputQA{
			{Question: "How much does a widget cost?", Answer: "Typically $10 to $50."},
		},
		PAAs: []InputQA{
			{Question: "Are widgets durable?", Answer: "Most are rated for five years."},
		},
		Sources: []InputSource{
			{Number: 1, Title: "Widget Standards Body", URL: "https://example.com/standards"},
		},
	}
}

func TestRender_IncludesCoreStructure(t *testing.T) {
	html, err := Render(sampleInput())
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	for _, want := range []string{
		"<header>",
		`<nav class="toc">`,
		`id="toc_01"`,
		`id="toc_02"`,
		"<article>",
		`<aside class="section-related">`,
		`<section class="faq">`,
		"<details>",
		`<section class="paa">`,
		`<section class="sources">`,
		`<script type="application/ld+json">`,
		"Widget Buying Guide",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered document missing %q", want)
		}
	}
}

func TestRender_TOCAnchorsMatchSectionIDs(t *testing.T) {
	html, err := Render(sampleInput())
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(html, `href="#toc_01"`) {
		t.Error("expected first TOC entry to link to toc_01")
	}
	if !strings.Contains(html, `<section id="toc_01">`) {
		t.Error("expected first section to carry anchor id toc_01")
	}
}

func TestRender_JSONLDContainsArticleAndFAQPage(t *testing.T) {
	html, err := Render(sampleInput())
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(html, `"@type": "Article"`) {
		t.Error("expected Article node in JSON-LD graph")
	}
	if !strings.Contains(html, `"@type": "FAQPage"`) {
		t.Error("expected FAQPage node in JSON-LD graph when FAQs are present")
	}
	if !strings.Contains(html, `"@type": "BreadcrumbList"`) {
		t.Error("expected BreadcrumbList node in JSON-LD graph")
	}
}

func TestRender_OmitsFAQPageWhenNoFAQs(t *testing.T) {
	in := sampleInput()
	in.FAQs = nil
	html, err := Render(in)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(html, `"@type": "FAQPage"`) {
		t.Error("did not expect FAQPage node when no FAQs supplied")
	}
}

func TestRender_OmitsSourcesSectionWhenNoSourcesSurvive(t *testing.T) {
	in := sampleInput()
	in.Sources = nil
	html, err := Render(in)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(html, `<section class="sources">`) {
		t.Error("did not expect a sources section when all citations were broken with no replacements")
	}
}

func TestFromArticleDocument_MapsSectionsAndLinks(t *testing.T) {
	doc := &core.ArticleDocument{
		Headline: "Widget Buying Guide",
		Sections: []core.Section{
			{Title: "What is a widget?", Content: "<p>A small device.</p>"},
		},
		SectionInternalLinks: [][]core.SitemapURL{
			{{URL: "/blog/gadgets", Title: "Gadgets explained"}},
		},
		FAQs:    []core.QAPair{{Question: "Cost?", Answer: "$10-$50."}},
		Sources: []core.Citation{{Number: 1, Title: "Standards Body", URL: "https://example.com"}},
	}

	in := FromArticleDocument(doc, "en")

	if len(in.Sections) != 1 || len(in.Sections[0].RelatedLinks) != 1 {
		t.Fatalf("expected 1 section with 1 related link, got %+v", in.Sections)
	}
	if in.Sections[0].RelatedLinks[0].URL != "/blog/gadgets" {
		t.Errorf("unexpected related link: %+v", in.Sections[0].RelatedLinks[0])
	}
	if len(in.Sources) != 1 || in.Sources[0].Title != "Standards Body" {
		t.Errorf("unexpected sources: %+v", in.Sources)
	}

	html, err := Render(in)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(html, "Gadgets explained") {
		t.Error("expected rendered document to include the related link")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Widget Buying Guide!":  "widget-buying-guide",
		"  Leading Spaces":      "leading-spaces",
		"Multiple---Dashes":     "multiple-dashes",
		"":                      "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
