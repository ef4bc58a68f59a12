// Package core defines the shared data model that flows through every
// pipeline stage: the execution context, the article document, and the
// collaborator contracts stages depend on.
package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewJobID generates a unique identifier for a pipeline run.
func NewJobID() string {
	return uuid.NewString()
}

// JobConfig carries the operator-supplied parameters for a single run.
type JobConfig struct {
	Keyword           string            // target SEO/AEO keyword
	Language          string            // e.g. "en"
	Country           string            // target country code, e.g. "US"
	Tone              string            // e.g. "professional", "conversational"
	ExtraInstructions string            // free-form article-level instructions
	WordCountMin      int               // default 2500
	WordCountMax      int               // default 4000
	Features          map[string]bool   // feature flags (e.g. "strict_citations")
}

// StrictCitations reports whether the unverified-citation keep-soft policy
// has been overridden to drop instead of keep.
func (j JobConfig) StrictCitations() bool {
	return j.Features["strict_citations"]
}

// CompanyData describes the business the article is written on behalf of.
// May be nil on the ExecutionContext when no company profile was supplied.
type CompanyData struct {
	Name              string
	URL               string
	Industry          string
	Products          []string
	Audience           string
	PainPoints        []string
	ValuePropositions []string
	Competitors       []string // names to never mention, per S1 brand protection
	SystemInstructions string  // company-supplied system prompt fragment
	KnowledgeBase      string  // free-form supplemental context
}

// SitemapURL is a published page discovered during S0, consumed by S5 for
// internal-link matching.
type SitemapURL struct {
	URL   string
	Title string
}

// GroundingURL is a page the LLM's search tool surfaced during S2, retained
// as evidence for S3's URL-enhancement pass and S4's alternative discovery.
type GroundingURL struct {
	URL   string
	Title string
}

// StageError records a failure observed during a stage's execution. Errors
// are appended to ExecutionContext.Errors and never cause a panic; only
// InputInvalid, an S2 UpstreamHard, or an unexpected exception abort a run
// (see ErrorKind).
type StageError struct {
	Stage       string
	Kind        ErrorKind
	Message     string
	Recoverable bool
	At          time.Time
}

// ErrorKind is the failure taxonomy shared by every stage.
type ErrorKind string

const (
	// InputInvalid is a bad job configuration. Fatal, surfaced from S0.
	InputInvalid ErrorKind = "input_invalid"
	// UpstreamTransient covers LLM/HTTP 5xx and timeouts. Retried with backoff.
	UpstreamTransient ErrorKind = "upstream_transient"
	// UpstreamHard covers schema mismatch after max retries or LLM refusal.
	// Fatal if raised from S2; recoverable-degraded elsewhere.
	UpstreamHard ErrorKind = "upstream_hard"
	// ContentDefect is an invariant violation still present after S3.
	// Non-fatal but logged; S8/S9 proceed.
	ContentDefect ErrorKind = "content_defect"
	// CitationUnresolvable is a broken URL with no replacement. Handled
	// locally by removing the citation; never propagated upward.
	CitationUnresolvable ErrorKind = "citation_unresolvable"
	// Cancelled is a non-error terminal state.
	Cancelled ErrorKind = "cancelled"
)

// Fatal reports whether this error kind, on its own, must abort the run.
// The caller (workflow.Engine) additionally treats S2 UpstreamHard as fatal
// even though UpstreamHard is not unconditionally fatal here.
func (k ErrorKind) Fatal() bool {
	return k == InputInvalid
}

// ParallelResults is the opaque map filled by the {S6, S7} parallel group.
type ParallelResults struct {
	Images     *ImageSet
	Similarity *SimilarityReport
}

// ImageSet holds the three role-tagged images S6 produces. A nil pointer
// field means that role's generation failed and rendering should degrade
// gracefully (no image tag emitted).
type ImageSet struct {
	Hero   *GeneratedImage
	Mid    *GeneratedImage
	Bottom *GeneratedImage
}

// GeneratedImage is one role's output from the image-generation collaborator.
type GeneratedImage struct {
	URL     string
	AltText string
}

// SimilarityReport is S7's advisory cannibalization-guard output.
type SimilarityReport struct {
	Flags          []SimilarityFlag
	NearestCluster string // optional supplemented nearest-cluster label
}

// SimilarityFlag names one corpus article that trips a similarity threshold.
type SimilarityFlag struct {
	CorpusArticleID string
	Reason          string // "hybrid", "title_cosine", "section_jaccard"
	Score           float64
}

// ExecutionContext is the single mutable record threaded through every
// stage. It is exclusively owned by the workflow engine; stages receive a
// pointer and write only through the fields their contract declares.
type ExecutionContext struct {
	JobID        string
	JobConfig    JobConfig
	CompanyData  *CompanyData
	SitemapURLs  []SitemapURL
	GroundingURLs []GroundingURL

	Prompt string // produced by S1

	StructuredData *ArticleDocument // created in S2, mutated through S5

	ParallelResults *ParallelResults // filled by S6/S7

	ValidatedArticle map[string]interface{} // flat map produced by S8

	StorageResult *StorageResult

	Errors []StageError

	StartedAt time.Time
}

// NewExecutionContext creates a context ready for S0.
func NewExecutionContext(cfg JobConfig, company *CompanyData) *ExecutionContext {
	return &ExecutionContext{
		JobID:       NewJobID(),
		JobConfig:   cfg,
		CompanyData: company,
		StartedAt:   time.Now(),
	}
}

// AddError appends a stage failure without aborting the run. Callers decide
// separately whether the kind is fatal.
func (ec *ExecutionContext) AddError(stage string, kind ErrorKind, message string, recoverable bool) {
	ec.Errors = append(ec.Errors, StageError{
		Stage:       stage,
		Kind:        kind,
		Message:     message,
		Recoverable: recoverable,
		At:          time.Now(),
	})
}

// HasFatalError reports whether any recorded error is fatal on its own, or
// was explicitly raised as an S2 UpstreamHard (the one context-dependent
// fatal case beyond ErrorKind.Fatal).
func (ec *ExecutionContext) HasFatalError() bool {
	for _, e := range ec.Errors {
		if e.Kind.Fatal() {
			return true
		}
		if e.Stage == "S2" && e.Kind == UpstreamHard {
			return true
		}
	}
	return false
}

// StorageResult captures the artifact URIs returned by S9's storage write.
type StorageResult struct {
	IndexHTMLURI  string
	ArticleJSONURI string
	SourcesJSONURI string
	ImageURIs      map[string]string // role -> uri
}

// Section is one body section of the ArticleDocument, numbered 01..09.
type Section struct {
	Title   string
	Content string // HTML
}

// QAPair is one FAQ or PAA entry.
type QAPair struct {
	Question string
	Answer   string
}

// Citation is one parsed entry of the Sources field: "[N]: Title – URL".
type Citation struct {
	Number int
	Title  string
	URL    string
}

// String renders the canonical "[N]: Title – URL" form.
func (c Citation) String() string {
	return "[" + itoa(c.Number) + "]: " + c.Title + " – " + c.URL
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		return "-" + string(b)
	}
	return string(b)
}

// ArticleDocument is the ~40-field flat record created by S2 and mutated
// through S5. Dynamic section/FAQ/PAA counts are represented as typed
// slices with stable accessor methods rather than reflection over
// arbitrary attribute names, per the "typed record with optional slots"
// design note.
type ArticleDocument struct {
	// Identity
	Headline string
	Subtitle string
	Teaser   string
	Slug     string

	// SEO
	MetaTitle       string
	MetaDescription string

	// Lead
	DirectAnswer string // 40-60 words, contains keyword + one citation
	Intro        string

	// Body: section_01..section_09
	Sections []Section

	// Takeaways: key_takeaway_01..03
	KeyTakeaways []string

	// Q&A
	FAQs []QAPair
	PAAs []QAPair

	// Citations
	Sources []Citation

	// Aux
	SearchQueries []string
	TOCLabels     []string
	Tables        [][]string

	ImageHero   *GeneratedImage
	ImageMid    *GeneratedImage
	ImageBottom *GeneratedImage

	CitationMap          map[string]string // set by S4/S8: "N" -> url
	SectionInternalLinks [][]SitemapURL    // set by S5, indexed by section

	WordCount          int
	ReadingTimeMinutes int

	SimilarityReport *SimilarityReport // merged in S8
}

// Section returns the section at 1-based index n, or nil if out of range.
func (a *ArticleDocument) Section(n int) *Section {
	if n < 1 || n > len(a.Sections) {
		return nil
	}
	return &a.Sections[n-1]
}

// FAQ returns the FAQ pair at 1-based index n, or nil if out of range.
func (a *ArticleDocument) FAQ(n int) *QAPair {
	if n < 1 || n > len(a.FAQs) {
		return nil
	}
	return &a.FAQs[n-1]
}

// PAA returns the PAA pair at 1-based index n, or nil if out of range.
func (a *ArticleDocument) PAA(n int) *QAPair {
	if n < 1 || n > len(a.PAAs) {
		return nil
	}
	return &a.PAAs[n-1]
}

// ContentFields returns every content-carrying field as a NamedField (name
// plus Get/Set closures), so S3's detection and repair phases can iterate
// without reflection. The closures capture the document; calling Set
// mutates the document in place.
func (a *ArticleDocument) ContentFields() []NamedField {
	fields := []NamedField{
		{Name: "Intro", Get: func() string { return a.Intro }, Set: func(s string) { a.Intro = s }},
		{Name: "Direct_Answer", Get: func() string { return a.DirectAnswer }, Set: func(s string) { a.DirectAnswer = s }},
	}
	for i := range a.Sections {
		i := i
		fields = append(fields, NamedField{
			Name: sectionFieldName(i + 1),
			Get:  func() string { return a.Sections[i].Content },
			Set:  func(s string) { a.Sections[i].Content = s },
		})
	}
	for i := range a.FAQs {
		i := i
		fields = append(fields, NamedField{
			Name: faqFieldName(i + 1),
			Get:  func() string { return a.FAQs[i].Answer },
			Set:  func(s string) { a.FAQs[i].Answer = s },
		})
	}
	for i := range a.PAAs {
		i := i
		fields = append(fields, NamedField{
			Name: paaFieldName(i + 1),
			Get:  func() string { return a.PAAs[i].Answer },
			Set:  func(s string) { a.PAAs[i].Answer = s },
		})
	}
	return fields
}

func sectionFieldName(n int) string { return "section_" + pad2(n) + "_content" }
func faqFieldName(n int) string     { return "faq_" + pad2(n) + "_answer" }
func paaFieldName(n int) string     { return "paa_" + pad2(n) + "_answer" }

func pad2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

// NamedField is one addressable content slot of an ArticleDocument.
type NamedField struct {
	Name string
	Get  func() string
	Set  func(string)
}

// PlainBodyText concatenates the Intro and every section's content,
// stripped of HTML tags, for word-count and shingle computation. Direct
// answer, FAQ and PAA answers are not included.
func (a *ArticleDocument) PlainBodyText() string {
	var b strings.Builder
	b.WriteString(StripHTML(a.Intro))
	for _, s := range a.Sections {
		b.WriteString(" ")
		b.WriteString(StripHTML(s.Content))
	}
	return b.String()
}

// StripHTML removes tags with a conservative linear scan; used only for
// word-count/shingle derivation, never for content transformation (that
// remains S3's exclusive, AI-only responsibility).
func StripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
