package quality

import (
	"context"
	"strings"
	"testing"

	"seoforge/internal/core"
)

func TestDetectFieldDefects_Typography(t *testing.T) {
	r := DetectFieldDefects("section_01_content", "<p>This works well — mostly.</p>")
	if !containsDefect(r.Defects, DefectTypography) {
		t.Errorf("expected typography defect, got %v", r.Defects)
	}
}

func TestDetectFieldDefects_StructureMismatch(t *testing.T) {
	r := DetectFieldDefects("section_01_content", "<p>Unclosed paragraph.")
	if !containsDefect(r.Defects, DefectStructure) {
		t.Errorf("expected structure defect, got %v", r.Defects)
	}
}

func TestDetectFieldDefects_HeadingWrapsParagraph(t *testing.T) {
	r := DetectFieldDefects("section_01_content", "<h2><p>Heading text</p></h2>")
	if !containsDefect(r.Defects, DefectStructure) {
		t.Errorf("expected structure defect for heading-wraps-paragraph, got %v", r.Defects)
	}
}

func TestDetectFieldDefects_RedundantSummaryList(t *testing.T) {
	text := `<p>Our platform delivers faster onboarding, lower costs, and better support for every customer team.</p>
<ul><li>Faster onboarding</li><li>Lower costs</li><li>Better support for customer team</li></ul>`
	r := DetectFieldDefects("section_01_content", text)
	if !containsDefect(r.Defects, DefectRedundantList) {
		t.Errorf("expected redundant list defect, got %v", r.Defects)
	}
}

func TestDetectFieldDefects_Clean(t *testing.T) {
	text := "<p>This is a clean paragraph with no issues, citing a source [1].</p>"
	r := DetectFieldDefects("section_01_content", text)
	if r.HasDefects() {
		t.Errorf("expected no defects, got %v", r.Defects)
	}
}

func TestDetectArticleDefects_BareDomain(t *testing.T) {
	doc := &core.ArticleDocument{
		Sources: []core.Citation{{Number: 1, Title: "Acme", URL: "https://acme.test"}},
	}
	r := DetectArticleDefects(doc, "widgets")
	if len(r.BareDomainCitations) != 1 {
		t.Errorf("expected 1 bare domain citation, got %v", r.BareDomainCitations)
	}
}

func TestDetectArticleDefects_DirectAnswerLength(t *testing.T) {
	doc := &core.ArticleDocument{DirectAnswer: "Too short."}
	r := DetectArticleDefects(doc, "widgets")
	if !containsString(r.DirectAnswerDefects, "length_out_of_range") {
		t.Errorf("expected length_out_of_range defect, got %v", r.DirectAnswerDefects)
	}
	if !containsString(r.DirectAnswerDefects, "missing_keyword") {
		t.Errorf("expected missing_keyword defect, got %v", r.DirectAnswerDefects)
	}
	if !containsString(r.DirectAnswerDefects, "missing_citation") {
		t.Errorf("expected missing_citation defect, got %v", r.DirectAnswerDefects)
	}
}

type fakeRepairLLM struct {
	calls int
}

func (f *fakeRepairLLM) Generate(ctx context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
	f.calls++
	text := req.Prompt
	if idx := strings.Index(text, "Content:\n"); idx >= 0 {
		text = strings.TrimSpace(text[idx+len("Content:\n"):])
		if end := strings.Index(text, "\n\nReply"); end >= 0 {
			text = text[:end]
		}
	}
	repaired := strings.ReplaceAll(text, "—", ",")
	return &core.GenerateResult{Text: repaired}, nil
}

func TestRefine_RepairsDefectiveFields(t *testing.T) {
	llm := &fakeRepairLLM{}
	r := NewRefiner(llm, 4)

	doc := &core.ArticleDocument{
		Intro:        "<p>Intro text with a citation [1].</p>",
		DirectAnswer: strings.Repeat("word ", 45) + "widgets [1].",
		Sections: []core.Section{
			{Title: "Why does this matter?", Content: "<p>This works well — mostly, citing a source [1].</p>"},
		},
	}

	report, err := r.Refine(context.Background(), doc, "widgets")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if !containsString(report.FieldsRepaired, "section_01_content") {
		t.Errorf("expected section_01_content to be repaired, got %v", report.FieldsRepaired)
	}
	if strings.Contains(doc.Sections[0].Content, "—") {
		t.Errorf("expected em dash to be repaired away, got %q", doc.Sections[0].Content)
	}
}

type fakeDirectAnswerLLM struct {
	repairedAnswer string
	sawCategory    bool
}

func (f *fakeDirectAnswerLLM) Generate(ctx context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
	if strings.Contains(req.Prompt, string(DefectDirectAnswer)) {
		f.sawCategory = true
		return &core.GenerateResult{Text: f.repairedAnswer}, nil
	}
	return &core.GenerateResult{Text: req.Prompt}, nil
}

func TestRefine_RepairsOutOfRangeDirectAnswer(t *testing.T) {
	fixed := strings.Repeat("word ", 45) + "widgets [1]."
	llm := &fakeDirectAnswerLLM{repairedAnswer: fixed}
	r := NewRefiner(llm, 4)

	doc := &core.ArticleDocument{DirectAnswer: "Too short."}

	report, err := r.Refine(context.Background(), doc, "widgets")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if !llm.sawCategory {
		t.Fatal("expected repairFields to send a direct_answer_quality repair prompt")
	}
	if doc.DirectAnswer != fixed {
		t.Errorf("expected Direct_Answer to be repaired to %q, got %q", fixed, doc.DirectAnswer)
	}
	if containsString(report.DirectAnswerDefects, "length_out_of_range") {
		t.Errorf("expected no residual direct answer defects after repair, got %v", report.DirectAnswerDefects)
	}
}

func TestRefine_LogsResidualDirectAnswerDefectWhenRepairFails(t *testing.T) {
	llm := &fakeDirectAnswerLLM{repairedAnswer: "Still too short."}
	r := NewRefiner(llm, 4)

	doc := &core.ArticleDocument{DirectAnswer: "Too short."}

	report, err := r.Refine(context.Background(), doc, "widgets")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if !containsString(report.DirectAnswerDefects, "length_out_of_range") {
		t.Errorf("expected residual length_out_of_range defect to be reported, got %v", report.DirectAnswerDefects)
	}
}

func containsDefect(defects []DefectCategory, target DefectCategory) bool {
	for _, d := range defects {
		if d == target {
			return true
		}
	}
	return false
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}
