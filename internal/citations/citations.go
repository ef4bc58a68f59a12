// Package citations implements S4 CitationsValidate: parsing the Sources
// field, validating URLs, discovering replacements for broken links, and
// rewriting in-body citation markers. Marker extraction/renumbering/
// rewriting is mechanical and regex-based by design (spec's AI-only
// transformation policy scopes prose rewriting only, not citation marker
// bookkeeping); parsing the Sources field itself and alternative discovery
// are delegated to the LLM.
package citations

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"seoforge/internal/core"
)

// markerPattern matches an academic-style inline citation marker, e.g. "[3]".
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// ParsedCitation is one entry parsed from the Sources field by the LLM.
type ParsedCitation struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// sourcesSchema describes the structured-parse contract for S4 Step 1.
var sourcesSchema = &core.Schema{
	Type: core.SchemaArray,
	Items: &core.Schema{
		Type:     core.SchemaObject,
		Required: []string{"number", "title", "url"},
		Properties: map[string]*core.Schema{
			"number": {Type: core.SchemaInteger},
			"title":  {Type: core.SchemaString},
			"url":    {Type: core.SchemaString},
		},
	},
}

// LegacyGenerator is a single-turn text generator used as a fallback
// replacement-URL proposer when the primary LLMTool's grounded-search call
// fails or its reply contains no URL. Satisfied by llm.LegacyClient.
type LegacyGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Validator runs S4 against an ArticleDocument.
type Validator struct {
	llm         core.LLMTool
	urlChecker  core.URLValidator
	denyList    []string
	concurrency int
	legacy      LegacyGenerator
}

// NewValidator constructs a Validator. concurrency bounds the number of
// simultaneous URL probes (spec §5: up to 16).
func NewValidator(llm core.LLMTool, urlChecker core.URLValidator, denyList []string, concurrency int) *Validator {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &Validator{llm: llm, urlChecker: urlChecker, denyList: denyList, concurrency: concurrency}
}

// WithLegacyFallback arms the validator with a secondary text generator,
// tried during replacement discovery when the primary LLMTool's response
// carries no extractable URL (e.g. a provider outage affecting only the
// newer structured-output API surface).
func (v *Validator) WithLegacyFallback(legacy LegacyGenerator) *Validator {
	v.legacy = legacy
	return v
}

type validatedCitation struct {
	ParsedCitation
	status      string // ok, transient_error, hard_error, disallowed, unverified, broken
	replacedURL string
}

// Validate executes the five steps of S4 against doc, mutating its Sources
// and body fields in place and returning the survivor citation map.
func (v *Validator) Validate(ctx context.Context, doc *core.ArticleDocument, groundingURLs []core.GroundingURL, strictCitations bool) (map[string]string, error) {
	parsed, err := v.parseSources(ctx, doc, groundingURLs)
	if err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	validated := v.probeAll(ctx, parsed)

	v.discoverReplacements(ctx, validated, groundingURLs)

	surviving, renumber := v.filter(validated, strictCitations)

	doc.Sources = make([]core.Citation, 0, len(surviving))
	citationMap := make(map[string]string, len(surviving))
	for _, c := range surviving {
		newNum := renumber[c.Number]
		url := c.URL
		if c.replacedURL != "" {
			url = c.replacedURL
		}
		doc.Sources = append(doc.Sources, core.Citation{Number: newNum, Title: c.Title, URL: url})
		citationMap[itoa(newNum)] = url
	}

	v.rewriteMarkers(doc, renumber)
	doc.CitationMap = citationMap

	return citationMap, nil
}

// parseSources asks the LLM to parse the Sources field into structured
// entries, armed with grounding_urls as an enhancement hint set (S4 Step 1).
// Parsing is AI-only; no regex is applied to the Sources text itself.
func (v *Validator) parseSources(ctx context.Context, doc *core.ArticleDocument, groundingURLs []core.GroundingURL) ([]ParsedCitation, error) {
	var sb strings.Builder
	for _, c := range doc.Sources {
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}

	var hints strings.Builder
	for _, g := range groundingURLs {
		hints.WriteString(fmt.Sprintf("- %s (%s)\n", g.Title, g.URL))
	}

	prompt := fmt.Sprintf(`Parse the following citation list into structured entries. Each entry has number, title, url.
If a URL is a bare domain (e.g. "https://example.com/" or "https://example.com"), and a more specific grounding URL below matches the same domain and a related title, prefer the grounding URL instead.

Sources:
%s

Grounding URLs discovered during generation:
%s`, sb.String(), hints.String())

	result, err := v.llm.Generate(ctx, core.GenerateRequest{
		Prompt:         prompt,
		ResponseSchema: sourcesSchema,
		Temperature:    0.1,
	})
	if err != nil {
		return nil, err
	}

	return unmarshalParsedCitations(result.ParsedJSON)
}

// probeAll validates every parsed citation's URL with bounded concurrency
// (spec §5: up to 16 concurrent probes), following the semaphore +
// WaitGroup + mutex-guarded-accumulator fan-out idiom used throughout this
// domain's concurrent aggregation code.
func (v *Validator) probeAll(ctx context.Context, parsed []ParsedCitation) []*validatedCitation {
	out := make([]*validatedCitation, len(parsed))
	sem := make(chan struct{}, v.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, p := range parsed {
		select {
		case <-ctx.Done():
			out[i] = &validatedCitation{ParsedCitation: p, status: "unverified"}
			continue
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p ParsedCitation) {
			defer wg.Done()
			defer func() { <-sem }()

			status := v.probeOne(ctx, p.URL)

			mu.Lock()
			out[i] = &validatedCitation{ParsedCitation: p, status: status}
			mu.Unlock()
		}(i, p)
	}

	wg.Wait()
	return out
}

func (v *Validator) probeOne(ctx context.Context, url string) string {
	for _, denied := range v.denyList {
		if denied != "" && strings.Contains(url, denied) {
			return "disallowed"
		}
	}

	result, err := v.urlChecker.Probe(ctx, url, 10)
	if err != nil || result == nil {
		return retryProbe(ctx, v, url)
	}

	switch result.Classification {
	case core.ProbeOK:
		return "ok"
	case core.ProbeTransient:
		return retryProbe(ctx, v, url)
	case core.ProbeHard:
		return "broken"
	case core.ProbeDisallowed:
		return "disallowed"
	default:
		return "unverified"
	}
}

// retryProbe retries a transient failure exactly once, per S4 Step 2.
func retryProbe(ctx context.Context, v *Validator, url string) string {
	result, err := v.urlChecker.Probe(ctx, url, 10)
	if err != nil || result == nil {
		return "unverified"
	}
	switch result.Classification {
	case core.ProbeOK:
		return "ok"
	case core.ProbeHard:
		return "broken"
	case core.ProbeDisallowed:
		return "disallowed"
	default:
		return "unverified"
	}
}

// discoverReplacements asks the LLM, armed with grounded search, for a
// replacement URL for each broken citation's title (S4 Step 3). If no URL
// is extractable from the response, falls back to the first matching
// grounding URL by title substring.
func (v *Validator) discoverReplacements(ctx context.Context, validated []*validatedCitation, groundingURLs []core.GroundingURL) {
	urlPattern := regexp.MustCompile(`https?://\S+`)

	for _, c := range validated {
		if c.status != "broken" {
			continue
		}

		prompt := fmt.Sprintf("Find a current, working URL for a source titled %q. Reply with only the URL.", c.Title)
		result, err := v.llm.Generate(ctx, core.GenerateRequest{
			Prompt:         prompt,
			GroundedSearch: true,
			Temperature:    0.1,
		})
		if err == nil && result != nil {
			if match := urlPattern.FindString(result.Text); match != "" {
				c.replacedURL = strings.TrimRight(match, ".,)")
				c.status = "ok"
				continue
			}
		}

		if v.legacy != nil {
			if text, err := v.legacy.GenerateText(ctx, prompt); err == nil {
				if match := urlPattern.FindString(text); match != "" {
					c.replacedURL = strings.TrimRight(match, ".,)")
					c.status = "ok"
					continue
				}
			}
		}

		for _, g := range groundingURLs {
			if titleMatches(g.Title, c.Title) {
				c.replacedURL = g.URL
				c.status = "ok"
				break
			}
		}
	}
}

func titleMatches(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// filter implements S4 Step 4: a citation survives iff ok, replaced, or
// unverified (soft-kept, unless strictCitations opts into the drop
// policy). Survivors are renumbered to a dense [1..N] sequence.
func (v *Validator) filter(validated []*validatedCitation, strictCitations bool) ([]*validatedCitation, map[int]int) {
	var surviving []*validatedCitation
	for _, c := range validated {
		switch c.status {
		case "ok":
			surviving = append(surviving, c)
		case "unverified":
			if !strictCitations {
				surviving = append(surviving, c)
			}
		case "broken", "disallowed":
			// dropped
		}
	}

	renumber := make(map[int]int, len(surviving))
	for i, c := range surviving {
		renumber[c.Number] = i + 1
	}
	return surviving, renumber
}

// rewriteMarkers implements S4 Step 5: applies the renumbering map to every
// body field's [k] markers, deleting markers for removed citations and
// normalizing surrounding whitespace.
func (v *Validator) rewriteMarkers(doc *core.ArticleDocument, renumber map[int]int) {
	for _, f := range doc.ContentFields() {
		f.Set(RewriteMarkers(f.Get(), renumber))
	}
}

// RewriteMarkers replaces every "[k]" marker in text according to
// renumber: present entries become the new number, absent entries are
// deleted along with one adjacent space.
func RewriteMarkers(text string, renumber map[int]int) string {
	spacedMarker := regexp.MustCompile(` ?\[(\d+)\]`)
	return spacedMarker.ReplaceAllStringFunc(text, func(m string) string {
		sub := spacedMarker.FindStringSubmatch(m)
		if len(sub) < 2 {
			return m
		}
		n := atoi(sub[1])
		if newN, ok := renumber[n]; ok {
			return strings.TrimSuffix(m, "["+sub[1]+"]") + fmt.Sprintf("[%d]", newN)
		}
		return ""
	})
}

// ExtractMarkerNumbers returns every distinct citation number referenced by
// a "[N]" marker in text, in first-seen order.
func ExtractMarkerNumbers(text string) []int {
	matches := markerPattern.FindAllStringSubmatch(text, -1)
	var nums []int
	seen := make(map[int]bool)
	for _, m := range matches {
		n := atoi(m[1])
		if !seen[n] {
			seen[n] = true
			nums = append(nums, n)
		}
	}
	return nums
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
