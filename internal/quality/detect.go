// Package quality implements S3 QualityRefine's detection phase: a
// deterministic, read-only scan of every content-carrying field for the
// eight defect categories in spec §4.5. Detection may use string scans;
// repair is the LLM's exclusive responsibility (see Remediate in repair.go).
package quality

import (
	"regexp"
	"strings"

	"seoforge/internal/core"
)

// DefectCategory names one of the eight detection categories.
type DefectCategory string

const (
	DefectTypography      DefectCategory = "typography"
	DefectStructure       DefectCategory = "structure"
	DefectRedundantList   DefectCategory = "redundant_summary_list"
	DefectFAQLeakage      DefectCategory = "faq_paa_leakage"
	DefectCitationCoverage DefectCategory = "citation_coverage"
	DefectConversational  DefectCategory = "conversational_markers"
	DefectDirectAnswer    DefectCategory = "direct_answer_quality"
	DefectGroundedURL     DefectCategory = "grounded_url_completeness"
)

// FieldReport is the defect report for one content field.
type FieldReport struct {
	FieldName string
	Defects   []DefectCategory
	Detail    string
}

// HasDefects reports whether any defect was found.
func (r FieldReport) HasDefects() bool { return len(r.Defects) > 0 }

var (
	emDashPattern     = regexp.MustCompile("—")
	enDashPattern     = regexp.MustCompile("–")
	openParaPattern   = regexp.MustCompile(`<p>`)
	closeParaPattern  = regexp.MustCompile(`</p>`)
	headingParaPattern = regexp.MustCompile(`<h[1-6][^>]*>\s*<p>`)
	listPattern       = regexp.MustCompile(`(?s)<(ul|ol)[^>]*>(.*?)</(?:ul|ol)>`)
	listItemPattern   = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
	citationMarkerRe  = regexp.MustCompile(`\[\d+\]`)
	questionSentence  = regexp.MustCompile(`(?i)^[^.?!]*\?\s*$`)
	directAddressWords = []string{"you", "your", "you're", "yours"}
)

// DetectFieldDefects runs the per-field detection categories (1-4:
// typography, structure, redundant summary list, FAQ/PAA leakage) against
// one content field's current text (spec §4.5 detection phase); categories
// 5-8 are article-wide and live in DetectArticleDefects.
func DetectFieldDefects(fieldName, text string) FieldReport {
	var defects []DefectCategory

	if emDashPattern.MatchString(text) || enDashPattern.MatchString(text) {
		defects = append(defects, DefectTypography)
	}

	if hasStructuralDefect(text) {
		defects = append(defects, DefectStructure)
	}

	if hasRedundantSummaryList(text) {
		defects = append(defects, DefectRedundantList)
	}

	if hasFAQLeakage(text) {
		defects = append(defects, DefectFAQLeakage)
	}

	return FieldReport{FieldName: fieldName, Defects: defects}
}

func hasStructuralDefect(text string) bool {
	opens := len(openParaPattern.FindAllString(text, -1))
	closes := len(closeParaPattern.FindAllString(text, -1))
	if opens != closes {
		return true
	}
	if headingParaPattern.MatchString(text) {
		return true
	}
	return false
}

// hasRedundantSummaryList flags a <ul>/<ol> immediately following a
// paragraph whose items overlap the paragraph's last 40 words above a 60%
// token-overlap threshold (spec §4.5 category 3).
func hasRedundantSummaryList(text string) bool {
	paraMatches := regexp.MustCompile(`(?s)<p>(.*?)</p>\s*`).FindAllStringSubmatchIndex(text, -1)
	for _, m := range paraMatches {
		paraEnd := m[1]
		paraText := text[m[2]:m[3]]
		rest := text[paraEnd:]
		rest = strings.TrimLeft(rest, " \n\t")
		if !strings.HasPrefix(rest, "<ul") && !strings.HasPrefix(rest, "<ol") {
			continue
		}
		listMatch := listPattern.FindStringSubmatch(rest)
		if listMatch == nil {
			continue
		}
		items := listItemPattern.FindAllStringSubmatch(listMatch[0], -1)
		if len(items) == 0 {
			continue
		}
		paraWords := lastNWords(core.StripHTML(paraText), 40)
		for _, item := range items {
			itemWords := tokenize(core.StripHTML(item[1]))
			if tokenOverlap(paraWords, itemWords) > 0.6 {
				return true
			}
		}
	}
	return false
}

// hasFAQLeakage flags section content containing a question sentence
// immediately followed by an answer paragraph, matching the separate-field
// FAQ/PAA pattern (spec §4.5 category 4).
func hasFAQLeakage(text string) bool {
	plain := core.StripHTML(text)
	sentences := regexp.MustCompile(`[^.?!]+[.?!]*`).FindAllString(plain, -1)
	for i := 0; i < len(sentences)-1; i++ {
		s := strings.TrimSpace(sentences[i])
		if strings.HasSuffix(s, "?") && len(strings.Fields(sentences[i+1])) > 5 {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func lastNWords(s string, n int) []string {
	words := tokenize(s)
	if len(words) <= n {
		return words
	}
	return words[len(words)-n:]
}

func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	overlap := 0
	for _, w := range b {
		if set[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(b))
}

// ArticleReport aggregates article-wide checks that don't belong to a
// single field: citation coverage, conversational markers, Direct_Answer
// quality, and grounded-URL completeness (spec §4.5 categories 5-8).
type ArticleReport struct {
	CitationCoveragePct     float64
	DirectAddressCount      int
	QuestionHeadingCount    int
	DirectAnswerDefects     []string
	BareDomainCitations     []int
}

// DetectArticleDefects runs the article-wide detection categories.
func DetectArticleDefects(doc *core.ArticleDocument, keyword string) ArticleReport {
	report := ArticleReport{}

	paragraphCount, withCitation := 0, 0
	for _, f := range doc.ContentFields() {
		paras := regexp.MustCompile(`(?s)<p>(.*?)</p>`).FindAllString(f.Get(), -1)
		for _, p := range paras {
			paragraphCount++
			if citationMarkerRe.MatchString(p) {
				withCitation++
			}
		}
	}
	if paragraphCount > 0 {
		report.CitationCoveragePct = float64(withCitation) / float64(paragraphCount)
	}

	allText := doc.Intro
	for _, s := range doc.Sections {
		allText += " " + s.Content
	}
	lower := strings.ToLower(core.StripHTML(allText))
	for _, tok := range strings.Fields(lower) {
		tok = strings.Trim(tok, ".,;:!?\"'()")
		for _, w := range directAddressWords {
			if tok == w {
				report.DirectAddressCount++
			}
		}
	}

	for _, s := range doc.Sections {
		if questionSentence.MatchString(strings.TrimSpace(s.Title)) || strings.HasSuffix(strings.TrimSpace(s.Title), "?") {
			report.QuestionHeadingCount++
		}
	}

	words := strings.Fields(core.StripHTML(doc.DirectAnswer))
	if len(words) < 40 || len(words) > 60 {
		report.DirectAnswerDefects = append(report.DirectAnswerDefects, "length_out_of_range")
	}
	if keyword != "" && !strings.Contains(strings.ToLower(doc.DirectAnswer), strings.ToLower(keyword)) {
		report.DirectAnswerDefects = append(report.DirectAnswerDefects, "missing_keyword")
	}
	if !citationMarkerRe.MatchString(doc.DirectAnswer) {
		report.DirectAnswerDefects = append(report.DirectAnswerDefects, "missing_citation")
	}

	for _, c := range doc.Sources {
		if isBareDomain(c.URL) {
			report.BareDomainCitations = append(report.BareDomainCitations, c.Number)
		}
	}

	return report
}

func isBareDomain(url string) bool {
	trimmed := strings.TrimSuffix(url, "/")
	for _, scheme := range []string{"https://", "http://"} {
		trimmed = strings.TrimPrefix(trimmed, scheme)
	}
	return !strings.Contains(trimmed, "/")
}

// MeetsTargets reports whether the article-wide checks meet spec §4.5's
// numeric targets (>=40% citation coverage, >=8 direct-address tokens,
// >=2 question-form section titles).
func (r ArticleReport) MeetsTargets() bool {
	return r.CitationCoveragePct >= 0.40 && r.DirectAddressCount >= 8 && r.QuestionHeadingCount >= 2
}
