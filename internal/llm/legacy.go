package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

// LegacyClient wraps the older google/generative-ai-go SDK. It backs S4's
// alternative-citation-discovery path as a fallback text generator when the
// primary genai.Client's grounded-search call fails or returns no URL
// (e.g. a provider outage affecting only the newer API surface), grounded on the
// teacher's internal/research.go use of the same SDK for query generation.
type LegacyClient struct {
	model *genai.GenerativeModel
	raw   *genai.Client
}

// NewLegacyClient creates a LegacyClient using the same API key resolution
// order as the primary Client.
func NewLegacyClient(ctx context.Context, modelName string) (*LegacyClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_AI_API_KEY")
	}
	if apiKey == "" {
		apiKey = viper.GetString("ai.gemini.api_key")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required for legacy client")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create legacy genai client: %w", err)
	}

	return &LegacyClient{model: client.GenerativeModel(modelName), raw: client}, nil
}

// GenerateText issues a single-turn generation call, used as S4's fallback
// alternative-URL proposer when the primary grounded-search call fails or
// returns no URL.
func (lc *LegacyClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := lc.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("legacy generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from legacy model")
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", fmt.Errorf("no text content in legacy response")
	}
	return out, nil
}

// Close releases the underlying connection.
func (lc *LegacyClient) Close() error {
	return lc.raw.Close()
}
