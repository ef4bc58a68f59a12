// Package render implements S9 RenderAndStore's deterministic rendering:
// the merged ArticleDocument -> semantic HTML5 document + schema.org
// JSON-LD. It is a pure function of its Input value, following the teacher's
// html/template-based rendering approach (internal/server/templates.go)
// generalized from a digest-page template set down to this domain's single
// article document.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"seoforge/internal/core"
)

var funcMap = template.FuncMap{
	"truncate": truncateString,
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

const documentTemplate = `<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<title>{{.MetaTitle}}</title>
<meta name="description" content="{{.MetaDescription}}">
</head>
<body>
<header>
<h1>{{.Headline}}</h1>
<p class="teaser">{{.Teaser}}</p>
<p class="reading-time">{{.ReadingTimeMinutes}} min read</p>
</header>
<nav class="toc">
{{range .TOCItems}}<a href="#{{.AnchorID}}">{{.Label}}</a>
{{end}}</nav>
<article>
<p class="direct-answer">{{.DirectAnswer}}</p>
<p class="intro">{{.Intro}}</p>
{{range .Sections}}<section id="{{.AnchorID}}">
<h2>{{.Title}}</h2>
{{.Content}}
{{if .RelatedLinks}}<aside class="section-related">
<ul>
{{range .RelatedLinks}}<li><a href="{{.URL}}">{{.Title}}</a></li>
{{end}}</ul>
</aside>{{end}}
</section>
{{end}}</article>
<section class="key-takeaways">
<ul>
{{range .KeyTakeaways}}<li>{{.}}</li>
{{end}}</ul>
</section>
<section class="faq">
{{range .FAQs}}<details>
<summary>{{.Question}}</summary>
<p>{{.Answer}}</p>
</details>
{{end}}</section>
<section class="paa">
{{range .PAAs}}<details>
<summary>{{.Question}}</summary>
<p>{{.Answer}}</p>
</details>
{{end}}</section>
{{if .Sources}}<section class="sources">
<ol>
{{range .Sources}}<li><a href="{{.URL}}">{{.Title}}</a></li>
{{end}}</ol>
</section>{{end}}
{{.JSONLDScript}}
</body>
</html>
`

// tocItem, sectionView, relatedLink are the template-facing view types;
// kept distinct from core types so the template has no dependency on
// package core's internal field layout.
type tocItem struct {
	AnchorID string
	Label    string
}

type relatedLink struct {
	URL   string
	Title string
}

type sectionView struct {
	AnchorID     string
	Title        string
	Content      template.HTML
	RelatedLinks []relatedLink
}

type qaView struct {
	Question string
	Answer   template.HTML
}

type sourceView struct {
	URL   string
	Title string
}

type documentView struct {
	Language           string
	MetaTitle          string
	MetaDescription    string
	Headline           string
	Teaser             string
	ReadingTimeMinutes int
	TOCItems           []tocItem
	DirectAnswer       template.HTML
	Intro              template.HTML
	Sections           []sectionView
	KeyTakeaways       []string
	FAQs               []qaView
	PAAs               []qaView
	Sources            []sourceView
	JSONLDScript       template.HTML
}

var doc = template.Must(template.New("document").Funcs(funcMap).Parse(documentTemplate))

// Input is the renderer's view of the post-S8 ArticleDocument, built by
// FromArticleDocument. Rendering is a pure function of Input.
type Input struct {
	Language           string
	Headline           string
	Subtitle           string
	Teaser             string
	MetaTitle          string
	MetaDescription    string
	DirectAnswer       string
	Intro              string
	TOCLabels          []string
	Sections           []InputSection
	KeyTakeaways       []string
	FAQs               []InputQA
	PAAs               []InputQA
	Sources            []InputSource
	ReadingTimeMinutes int
}

// InputSection is one rendered body section, with its internal links
// already attached by S5/S8.
type InputSection struct {
	Title        string
	Content      string // HTML, already finalized by S3/S4/S8
	RelatedLinks []InputLink
}

// InputLink is one internal-link candidate attached to a section.
type InputLink struct {
	URL   string
	Title string
}

// InputQA is one FAQ or PAA pair.
type InputQA struct {
	Question string
	Answer   string
}

// InputSource is one surviving citation.
type InputSource struct {
	Number int
	Title  string
	URL    string
}

// Render produces the final HTML5 document and the schema.org JSON-LD
// block for one article, per spec §4.11.
func Render(in Input) (string, error) {
	view := documentView{
		Language:           in.Language,
		MetaTitle:          in.MetaTitle,
		MetaDescription:    in.MetaDescription,
		Headline:           in.Headline,
		Teaser:             in.Teaser,
		ReadingTimeMinutes: in.ReadingTimeMinutes,
		DirectAnswer:       template.HTML(in.DirectAnswer),
		Intro:              template.HTML(in.Intro),
		KeyTakeaways:       in.KeyTakeaways,
	}

	for i, label := range in.TOCLabels {
		view.TOCItems = append(view.TOCItems, tocItem{AnchorID: tocAnchorID(i + 1), Label: label})
	}

	for i, s := range in.Sections {
		sv := sectionView{
			AnchorID: tocAnchorID(i + 1),
			Title:    s.Title,
			Content:  template.HTML(s.Content),
		}
		for _, l := range s.RelatedLinks {
			sv.RelatedLinks = append(sv.RelatedLinks, relatedLink{URL: l.URL, Title: l.Title})
		}
		view.Sections = append(view.Sections, sv)
	}

	for _, f := range in.FAQs {
		view.FAQs = append(view.FAQs, qaView{Question: f.Question, Answer: template.HTML(f.Answer)})
	}
	for _, p := range in.PAAs {
		view.PAAs = append(view.PAAs, qaView{Question: p.Question, Answer: template.HTML(p.Answer)})
	}
	for _, src := range in.Sources {
		view.Sources = append(view.Sources, sourceView{URL: src.URL, Title: src.Title})
	}

	view.JSONLDScript = template.HTML(buildJSONLD(in))

	var buf bytes.Buffer
	if err := doc.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return buf.String(), nil
}

// tocAnchorID produces the "toc_01".."toc_0N" anchor ID convention (spec
// §4.11).
func tocAnchorID(n int) string {
	return fmt.Sprintf("toc_%02d", n)
}

// FromArticleDocument reshapes a finalized core.ArticleDocument (post-S8
// merge) into the renderer's Input. It is a pure, side-effect-free
// projection; S9 calls it immediately before Render.
func FromArticleDocument(doc *core.ArticleDocument, language string) Input {
	in := Input{
		Language:           language,
		Headline:           doc.Headline,
		Subtitle:           doc.Subtitle,
		Teaser:             doc.Teaser,
		MetaTitle:          doc.MetaTitle,
		MetaDescription:    doc.MetaDescription,
		DirectAnswer:       doc.DirectAnswer,
		Intro:              doc.Intro,
		TOCLabels:          doc.TOCLabels,
		KeyTakeaways:       doc.KeyTakeaways,
		ReadingTimeMinutes: doc.ReadingTimeMinutes,
	}

	for i, s := range doc.Sections {
		sec := InputSection{Title: s.Title, Content: s.Content}
		if i < len(doc.SectionInternalLinks) {
			for _, l := range doc.SectionInternalLinks[i] {
				sec.RelatedLinks = append(sec.RelatedLinks, InputLink{URL: l.URL, Title: l.Title})
			}
		}
		in.Sections = append(in.Sections, sec)
	}

	for _, f := range doc.FAQs {
		in.FAQs = append(in.FAQs, InputQA{Question: f.Question, Answer: f.Answer})
	}
	for _, p := range doc.PAAs {
		in.PAAs = append(in.PAAs, InputQA{Question: p.Question, Answer: p.Answer})
	}
	for _, c := range doc.Sources {
		in.Sources = append(in.Sources, InputSource{Number: c.Number, Title: c.Title, URL: c.URL})
	}

	return in
}

// Slugify derives a URL-safe slug from a headline, used when S2 does not
// already populate ArticleDocument.Slug.
func Slugify(headline string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(headline) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
