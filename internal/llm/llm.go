// Package llm adapts google.golang.org/genai into the core.LLMTool and
// core.EmbeddingTool collaborator contracts used by every generation and
// repair stage.
package llm

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"seoforge/internal/core"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-2.5-pro"
	// DefaultEmbeddingModel is used for S7's semantic-embedding check.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the output dimension for embeddings
	// (Matryoshka truncation of gemini-embedding-001), matching the fixed-
	// dimension, unit-normalized contract of §6.1.
	DefaultEmbeddingDimensions = int32(768)
)

// Client wraps a genai.Client and implements core.LLMTool and
// core.EmbeddingTool.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
	limiter   *rate.Limiter
}

// NewClient creates an LLM client. The API key is resolved, in order, from
// the GEMINI_API_KEY / GOOGLE_GEMINI_API_KEY / GOOGLE_AI_API_KEY
// environment variables, then from viper's "ai.gemini.api_key" key.
// requestsPerMinute shapes every Generate/Embed call through a token-bucket
// limiter shared across the whole client (spec §5's global rate limiter);
// a value <= 0 disables limiting.
func NewClient(modelName string, requestsPerMinute int) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("ai.gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required: set GEMINI_API_KEY or ai.gemini.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)
	}

	return &Client{apiKey: apiKey, modelName: modelName, gClient: gClient, limiter: limiter}, nil
}

// wait blocks until the rate limiter admits one more call, or returns early
// if ctx is cancelled or no limiter is configured.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Generate implements core.LLMTool. A single call may request a structured
// response schema and/or the grounded-search and url-context tools; the
// grounding trace (if the model used search) is extracted from the
// response candidates' grounding metadata.
func (c *Client) Generate(ctx context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: req.Prompt}},
		Role:  "user",
	}}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenaiSchema(req.ResponseSchema)
	}

	var tools []*genai.Tool
	if req.GroundedSearch {
		tools = append(tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if req.URLContext {
		tools = append(tools, &genai.Tool{URLContext: &genai.URLContext{}})
	}
	if len(tools) > 0 {
		cfg.Tools = tools
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	result := &core.GenerateResult{Text: text}
	if req.ResponseSchema != nil {
		result.ParsedJSON = []byte(text)
	}
	result.GroundingTrace = extractGroundingTrace(resp)

	return result, nil
}

// extractGroundingTrace pulls {url, title} pairs out of the first
// candidate's grounding metadata, preserving the order the model returned
// them in, per the "ordered list, insertion order preserved" design note.
func extractGroundingTrace(resp *genai.GenerateContentResponse) []core.GroundingURL {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.GroundingMetadata == nil {
		return nil
	}
	var trace []core.GroundingURL
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		trace = append(trace, core.GroundingURL{
			URL:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}
	return trace
}

// toGenaiSchema translates the provider-agnostic core.Schema into the
// genai SDK's native schema type.
func toGenaiSchema(s *core.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	gs := &genai.Schema{Required: s.Required}
	switch s.Type {
	case core.SchemaObject:
		gs.Type = genai.TypeObject
	case core.SchemaArray:
		gs.Type = genai.TypeArray
	case core.SchemaString:
		gs.Type = genai.TypeString
	case core.SchemaNumber:
		gs.Type = genai.TypeNumber
	case core.SchemaInteger:
		gs.Type = genai.TypeInteger
	case core.SchemaBoolean:
		gs.Type = genai.TypeBoolean
	}
	if len(s.Enum) > 0 {
		gs.Enum = s.Enum
	}
	if s.Items != nil {
		gs.Items = toGenaiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		gs.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			gs.Properties[k] = toGenaiSchema(v)
		}
	}
	return gs
}

// Embed implements core.EmbeddingTool using gemini-embedding-001 with
// Matryoshka truncation to a fixed 768 dimensions.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
		Role:  "user",
	}}

	dims := DefaultEmbeddingDimensions
	cfg := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	resp, err := c.gClient.Models.EmbedContent(ctx, DefaultEmbeddingModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embedding values returned from API")
	}

	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return normalize(out), nil
}

// normalize L2-normalizes a vector so downstream cosine-similarity math can
// assume unit length, per the embedding tool's "unit-normalized" contract.
func normalize(v []float64) []float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
