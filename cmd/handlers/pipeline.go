package handlers

import (
	"context"
	"fmt"
	"time"

	"seoforge/internal/config"
	"seoforge/internal/images"
	"seoforge/internal/llm"
	"seoforge/internal/logger"
	"seoforge/internal/similarity"
	"seoforge/internal/stage"
	"seoforge/internal/storage"
	"seoforge/internal/urlcheck"
	"seoforge/internal/workflow"
)

// buildEngine wires every collaborator package into the S0-S9 stage
// sequence, shared by both the generate and watch commands.
func buildEngine(cfg *config.Config) (*workflow.Engine, error) {
	llmClient, err := llm.NewClient(cfg.AI.Gemini.Model, cfg.RateLimit.RequestsPerMinute)
	if err != nil {
		return nil, fmt.Errorf("constructing LLM client: %w", err)
	}

	imageTimeout, err := time.ParseDuration(cfg.AI.Images.Timeout)
	if err != nil {
		imageTimeout = 60 * time.Second
	}
	imageClient := images.NewClient(cfg.AI.Images.APIKey, cfg.AI.Images.Model, cfg.AI.Images.BaseURL, imageTimeout)
	urlValidator := urlcheck.NewValidator(cfg.URLCheck.PerHostConcurrency)

	corpus, err := similarity.LoadCorpus(cfg.Similarity.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("loading similarity corpus: %w", err)
	}
	similarityChecker := similarity.NewChecker(llmClient, corpus, similarity.Thresholds{
		Hybrid:         cfg.Similarity.HybridThreshold,
		TitleCosine:    cfg.Similarity.TitleCosineThreshold,
		SectionJaccard: cfg.Similarity.SectionJaccardThreshold,
	})

	store := storage.NewLocalStore(cfg.Storage.Root)

	citationsStage := stage.NewCitations(llmClient, urlValidator, cfg.URLCheck.DenyList, cfg.Workflow.S4Concurrency)
	if legacyClient, err := llm.NewLegacyClient(context.Background(), cfg.AI.Gemini.Model); err == nil {
		citationsStage = stage.NewCitationsWithLegacyFallback(llmClient, urlValidator, cfg.URLCheck.DenyList, cfg.Workflow.S4Concurrency, legacyClient)
	} else {
		logger.Warn("citations: legacy fallback client unavailable, continuing without it", "error", err.Error())
	}

	engine := workflow.NewEngine(cfg.Workflow,
		stage.NewDataFetch(),
		stage.NewPromptBuild(),
		stage.NewGenerate(llmClient),
		stage.NewQualityRefine(llmClient, cfg.Workflow.S3Concurrency),
		citationsStage,
		stage.NewInternalLinks(),
		&workflow.ParallelGroup{Stages: []workflow.ParallelStage{
			stage.NewImages(imageClient, cfg.Images.HeroAspectRatio, cfg.Images.MidAspectRatio, cfg.Images.BottomAspectRatio),
			stage.NewSimilarity(similarityChecker),
		}},
		stage.NewMergeAndLink(),
		stage.NewRenderAndStore(store),
	)

	return engine, nil
}
