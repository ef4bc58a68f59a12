package quality

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"seoforge/internal/core"
)

// Refiner runs S3 QualityRefine: detection, LLM-only field repair, and an
// AEO optimization pass. Remediation never edits text directly; every
// change is produced by the LLM under an explicit no-new-facts contract.
type Refiner struct {
	llm         core.LLMTool
	concurrency int
}

// NewRefiner constructs a Refiner. concurrency bounds the number of
// simultaneous field-repair calls (spec §5: up to 8).
func NewRefiner(llm core.LLMTool, concurrency int) *Refiner {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Refiner{llm: llm, concurrency: concurrency}
}

// Refine runs the full S3 pipeline against doc and returns the aggregate
// QualityReport. doc is mutated in place.
func (r *Refiner) Refine(ctx context.Context, doc *core.ArticleDocument, keyword string) (*QualityReport, error) {
	fieldReports := r.detectFields(doc)

	// Direct_Answer quality (category 7) is detected article-wide, not
	// per-field, but it repairs the same way as any other field defect.
	markDirectAnswerDefect(fieldReports, DetectArticleDefects(doc, keyword))

	var toRepair []fieldWork
	for _, fr := range fieldReports {
		if fr.report.HasDefects() {
			toRepair = append(toRepair, fr)
		}
	}
	if len(toRepair) > 0 {
		if err := r.repairFields(ctx, toRepair); err != nil {
			return nil, fmt.Errorf("repair fields: %w", err)
		}
	}

	article := DetectArticleDefects(doc, keyword)
	if !article.MeetsTargets() {
		if err := r.optimizeAEO(ctx, doc, article); err != nil {
			return nil, fmt.Errorf("aeo optimization: %w", err)
		}
		article = DetectArticleDefects(doc, keyword)
	}

	return buildReport(fieldReports, article), nil
}

type fieldWork struct {
	field  core.NamedField
	report FieldReport
}

// markDirectAnswerDefect folds article-wide Direct_Answer defects (length,
// keyword, or citation out of range — spec §4.5 category 7) into that
// field's own FieldReport so they enter the same repair fan-out as every
// other category instead of being silently detected and dropped.
func markDirectAnswerDefect(fieldReports []fieldWork, article ArticleReport) {
	if len(article.DirectAnswerDefects) == 0 {
		return
	}
	for i := range fieldReports {
		if fieldReports[i].field.Name == "Direct_Answer" {
			fieldReports[i].report.Defects = append(fieldReports[i].report.Defects, DefectDirectAnswer)
			fieldReports[i].report.Detail = strings.Join(article.DirectAnswerDefects, ", ")
		}
	}
}

func (r *Refiner) detectFields(doc *core.ArticleDocument) []fieldWork {
	fields := doc.ContentFields()
	work := make([]fieldWork, len(fields))
	for i, f := range fields {
		work[i] = fieldWork{field: f, report: DetectFieldDefects(f.Name, f.Get())}
	}
	return work
}

// repairFields fans out one LLM repair call per defective field, bounded to
// r.concurrency simultaneous calls, mirroring the semaphore + WaitGroup +
// mutex-guarded-accumulator idiom used by the citation validator's URL
// probing.
func (r *Refiner) repairFields(ctx context.Context, toRepair []fieldWork) error {
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, w := range toRepair {
		select {
		case <-ctx.Done():
			mu.Lock()
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
			continue
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(w fieldWork) {
			defer wg.Done()
			defer func() { <-sem }()

			repaired, err := r.repairOne(ctx, w.field.Get(), w.report.Defects)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			w.field.Set(repaired)
		}(w)
	}

	wg.Wait()
	return firstErr
}

func (r *Refiner) repairOne(ctx context.Context, text string, defects []DefectCategory) (string, error) {
	names := make([]string, len(defects))
	for i, d := range defects {
		names[i] = string(d)
	}

	prompt := fmt.Sprintf(`Repair the following HTML content fragment. It has these defects: %s.

Rules:
- Do not introduce new facts, claims, or citations.
- Preserve every existing "[N]" citation marker exactly; do not renumber or remove them.
- Preserve valid HTML tags that are not part of a listed defect.
- Replace em dashes (—) and en dashes (–) with a comma, colon, or period as grammar requires.
- A heading tag must never directly wrap a <p> tag.
- Do not duplicate a preceding paragraph's content as a bulleted or numbered list.
- Do not restate FAQ/PAA question-and-answer pairs inside body content.

Content:
%s

Reply with only the repaired fragment.`, strings.Join(names, ", "), text)

	result, err := r.llm.Generate(ctx, core.GenerateRequest{
		Prompt:      prompt,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

// optimizeAEO runs a second, smaller pass over every section when the
// article-wide conversational-marker or question-heading target is missed;
// sections are not checked one by one. It may rewrite
// headings into question form and insert conversational phrasing, but must
// not alter any claim.
func (r *Refiner) optimizeAEO(ctx context.Context, doc *core.ArticleDocument, article ArticleReport) error {
	if len(doc.Sections) == 0 {
		return nil
	}

	needQuestionHeadings := article.QuestionHeadingCount < 2
	needConversational := article.DirectAddressCount < 8

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := range doc.Sections {
		i := i
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			section := &doc.Sections[i]
			title, content, err := r.optimizeOneSection(ctx, section.Title, section.Content, needQuestionHeadings, needConversational)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			section.Title = title
			section.Content = content
		}()
	}

	wg.Wait()
	return firstErr
}

func (r *Refiner) optimizeOneSection(ctx context.Context, title, content string, needQuestionHeadings, needConversational bool) (string, string, error) {
	if !needQuestionHeadings && !needConversational {
		return title, content, nil
	}

	var asks []string
	if needQuestionHeadings {
		asks = append(asks, "rephrase the heading as a natural question the reader would ask, if it isn't already")
	}
	if needConversational {
		asks = append(asks, `add direct-address phrasing ("you", "your") where natural`)
	}

	prompt := fmt.Sprintf(`Given this section heading and HTML content, %s. Do not change any fact, number, or claim, and do not alter citation markers.

Heading: %s

Content:
%s

Reply as two parts separated by a line containing only "---": the heading, then "---", then the content.`, strings.Join(asks, "; also "), title, content)

	result, err := r.llm.Generate(ctx, core.GenerateRequest{Prompt: prompt, Temperature: 0.3})
	if err != nil {
		return title, content, err
	}

	parts := strings.SplitN(result.Text, "---", 2)
	if len(parts) != 2 {
		return title, content, nil
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// QualityReport is the supplemented aggregate quality audit output.
type QualityReport struct {
	FieldsRepaired       []string
	DefectsByCategory    map[DefectCategory]int
	CitationCoveragePct  float64
	DirectAddressCount   int
	QuestionHeadingCount int
	DirectAnswerDefects  []string
	BareDomainCitations  []int
	Grade                string
}

func buildReport(fieldReports []fieldWork, article ArticleReport) *QualityReport {
	report := &QualityReport{DefectsByCategory: make(map[DefectCategory]int)}

	for _, fr := range fieldReports {
		if fr.report.HasDefects() {
			report.FieldsRepaired = append(report.FieldsRepaired, fr.field.Name)
			for _, d := range fr.report.Defects {
				report.DefectsByCategory[d]++
			}
		}
	}

	report.CitationCoveragePct = article.CitationCoveragePct
	report.DirectAddressCount = article.DirectAddressCount
	report.QuestionHeadingCount = article.QuestionHeadingCount
	report.DirectAnswerDefects = article.DirectAnswerDefects
	report.BareDomainCitations = article.BareDomainCitations
	report.Grade = grade(article, len(report.DefectsByCategory))

	return report
}

func grade(article ArticleReport, distinctDefectCategories int) string {
	score := 0
	if article.CitationCoveragePct >= 0.40 {
		score++
	}
	if article.DirectAddressCount >= 8 {
		score++
	}
	if article.QuestionHeadingCount >= 2 {
		score++
	}
	if len(article.DirectAnswerDefects) == 0 {
		score++
	}

	switch {
	case score == 4 && distinctDefectCategories == 0:
		return "A"
	case score >= 3:
		return "B"
	case score >= 2:
		return "C"
	default:
		return "D"
	}
}
