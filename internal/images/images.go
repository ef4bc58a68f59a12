// Package images adapts a REST image-generation API into the
// core.ImageTool collaborator contract for S6 Images. Three images (hero,
// mid, bottom) are requested per article with prompts derived from the
// Headline and each image's role.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"seoforge/internal/core"
)

// DefaultBaseURL is the OpenAI image-generation API base.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client generates images via a DALL-E/gpt-image-style REST API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client. model and baseURL fall back to
// "gpt-image-1" and DefaultBaseURL when empty.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	if model == "" {
		model = "gpt-image-1"
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generateResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// GenerateImage implements core.ImageTool. aspectRatio is one of
// "16:9", "4:3", "1:1" (spec §4.8/§5's three image roles).
func (c *Client) GenerateImage(ctx context.Context, prompt string, aspectRatio string) (*core.GeneratedImage, error) {
	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
		Size:   sizeForAspectRatio(aspectRatio),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal image response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("image API returned no results")
	}

	return &core.GeneratedImage{
		URL:     parsed.Data[0].URL,
		AltText: altTextFor(prompt),
	}, nil
}

// sizeForAspectRatio maps the three role aspect ratios to the API's
// supported output sizes.
func sizeForAspectRatio(aspectRatio string) string {
	switch aspectRatio {
	case "16:9":
		return "1792x1024"
	case "4:3":
		return "1536x1024"
	case "1:1":
		return "1024x1024"
	default:
		return "1024x1024"
	}
}

// altTextFor derives deterministic alt text from the generation prompt,
// since the image API itself returns no accessibility text.
func altTextFor(prompt string) string {
	if len(prompt) <= 125 {
		return prompt
	}
	return prompt[:122] + "..."
}
