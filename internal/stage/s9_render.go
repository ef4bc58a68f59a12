package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"seoforge/internal/core"
	"seoforge/internal/render"
)

// RenderAndStore is S9: the pure projection of the merged ArticleDocument
// (the content S8 also flattens into validated_article) to html_document +
// schema_jsonld, followed by a write through the storage collaborator.
type RenderAndStore struct {
	storage core.Storage
}

func NewRenderAndStore(storage core.Storage) *RenderAndStore {
	return &RenderAndStore{storage: storage}
}

func (s *RenderAndStore) Name() string { return "S9" }

func (s *RenderAndStore) Run(ctx context.Context, ec *core.ExecutionContext) error {
	language := ec.JobConfig.Language
	if language == "" {
		language = "en"
	}

	in := render.FromArticleDocument(ec.StructuredData, language)
	html, err := render.Render(in)
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamHard, err.Error(), false)
		return fmt.Errorf("s9 render: %w", err)
	}

	articleJSON, err := json.Marshal(ec.ValidatedArticle)
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamHard, err.Error(), false)
		return fmt.Errorf("s9 marshal validated article: %w", err)
	}

	sourcesJSON, err := json.Marshal(ec.StructuredData.Sources)
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamHard, err.Error(), false)
		return fmt.Errorf("s9 marshal sources: %w", err)
	}

	indexURI, err := s.storage.Put(ctx, fmt.Sprintf("%s/index.html", ec.JobID), []byte(html), "text/html; charset=utf-8")
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamTransient, err.Error(), true)
		return fmt.Errorf("s9 store index.html: %w", err)
	}

	articleURI, err := s.storage.Put(ctx, fmt.Sprintf("%s/article.json", ec.JobID), articleJSON, "application/json")
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamTransient, err.Error(), true)
		return fmt.Errorf("s9 store article.json: %w", err)
	}

	sourcesURI, err := s.storage.Put(ctx, fmt.Sprintf("%s/sources.json", ec.JobID), sourcesJSON, "application/json")
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamTransient, err.Error(), true)
		return fmt.Errorf("s9 store sources.json: %w", err)
	}

	imageURIs := map[string]string{}
	for role, img := range map[string]*core.GeneratedImage{
		"hero": ec.StructuredData.ImageHero, "mid": ec.StructuredData.ImageMid, "bottom": ec.StructuredData.ImageBottom,
	} {
		if img != nil {
			imageURIs[role] = img.URL
		}
	}

	ec.StorageResult = &core.StorageResult{
		IndexHTMLURI:   indexURI,
		ArticleJSONURI: articleURI,
		SourcesJSONURI: sourcesURI,
		ImageURIs:      imageURIs,
	}
	return nil
}
