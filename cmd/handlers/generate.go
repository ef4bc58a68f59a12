package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"seoforge/internal/config"
	"seoforge/internal/core"
	"seoforge/internal/similarity"
	"seoforge/internal/workflow"
)

// NewGenerateCmd builds the `seoforge generate` command: the single entry
// point that runs the S0-S9 pipeline for one keyword and reports the
// resulting artifacts.
func NewGenerateCmd() *cobra.Command {
	var (
		keyword           string
		language          string
		country           string
		tone              string
		wordCountMin      int
		wordCountMax      int
		extraInstructions string
		companyName       string
		companyURL        string
		strictCitations   bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates one long-form article for a target keyword",
		Example: `  seoforge generate --keyword "best standing desks" --company-url https://acme.example.com
  seoforge generate --keyword "best standing desks" --strict-citations --word-count-min 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), generateFlags{
				keyword:           keyword,
				language:          language,
				country:           country,
				tone:              tone,
				wordCountMin:      wordCountMin,
				wordCountMax:      wordCountMax,
				extraInstructions: extraInstructions,
				companyName:       companyName,
				companyURL:        companyURL,
				strictCitations:   strictCitations,
			})
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "target SEO/AEO keyword (required)")
	cmd.Flags().StringVar(&language, "language", "en", "article language")
	cmd.Flags().StringVar(&country, "country", "US", "target country code")
	cmd.Flags().StringVar(&tone, "tone", "professional", "article tone")
	cmd.Flags().IntVar(&wordCountMin, "word-count-min", 2500, "minimum target word count")
	cmd.Flags().IntVar(&wordCountMax, "word-count-max", 4000, "maximum target word count")
	cmd.Flags().StringVar(&extraInstructions, "extra-instructions", "", "free-form article-level instructions")
	cmd.Flags().StringVar(&companyName, "company-name", "", "company name for brand protection and context")
	cmd.Flags().StringVar(&companyURL, "company-url", "", "company site URL, used for sitemap discovery and internal links")
	cmd.Flags().BoolVar(&strictCitations, "strict-citations", false, "drop unverified citations instead of keeping them flagged")
	cmd.MarkFlagRequired("keyword")

	return cmd
}

type generateFlags struct {
	keyword           string
	language          string
	country           string
	tone              string
	wordCountMin      int
	wordCountMax      int
	extraInstructions string
	companyName       string
	companyURL        string
	strictCitations   bool
}

func runGenerate(ctx context.Context, f generateFlags) error {
	cfg := config.Get()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	jobConfig := core.JobConfig{
		Keyword:           f.keyword,
		Language:          f.language,
		Country:           f.country,
		Tone:              f.tone,
		ExtraInstructions: f.extraInstructions,
		WordCountMin:      f.wordCountMin,
		WordCountMax:      f.wordCountMax,
		Features:          map[string]bool{"strict_citations": f.strictCitations},
	}

	var company *core.CompanyData
	if f.companyName != "" || f.companyURL != "" {
		company = &core.CompanyData{Name: f.companyName, URL: f.companyURL}
	}

	ec := core.NewExecutionContext(jobConfig, company)

	result := engine.Run(ctx, ec)

	for _, t := range result.Timings {
		outcome := "ok"
		if t.Err != nil {
			outcome = t.Err.Error()
		}
		fmt.Printf("%-3s %-8s attempts=%d %s\n", t.Stage, t.Duration.Round(time.Millisecond), t.Attempts, outcome)
	}

	fmt.Printf("status:   %s\n", result.Status)

	switch result.Status {
	case workflow.StatusCancelled:
		return fmt.Errorf("run %s cancelled", ec.JobID)
	case workflow.StatusFailed:
		return fmt.Errorf("run %s failed", ec.JobID)
	}

	if ec.StorageResult != nil {
		fmt.Printf("article:  %s\n", ec.StorageResult.IndexHTMLURI)
		fmt.Printf("data:     %s\n", ec.StorageResult.ArticleJSONURI)
		fmt.Printf("sources:  %s\n", ec.StorageResult.SourcesJSONURI)
	}

	if cfg.Similarity.CorpusPath != "" && ec.StructuredData != nil {
		_ = similarity.AppendToCorpus(cfg.Similarity.CorpusPath, similarity.CorpusArticle{
			ID:    ec.JobID,
			Title: ec.StructuredData.Headline,
		})
	}

	return nil
}
