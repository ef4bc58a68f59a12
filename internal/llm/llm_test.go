package llm

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"seoforge/internal/core"
)

func TestNewClient_NoAPIKey(t *testing.T) {
	originalKey := os.Getenv("GEMINI_API_KEY")
	_ = os.Unsetenv("GEMINI_API_KEY")
	_ = os.Unsetenv("GOOGLE_GEMINI_API_KEY")
	_ = os.Unsetenv("GOOGLE_AI_API_KEY")
	viper.Set("ai.gemini.api_key", "")
	defer func() {
		if originalKey != "" {
			_ = os.Setenv("GEMINI_API_KEY", originalKey)
		}
	}()

	_, err := NewClient("", 0)
	if err == nil {
		t.Fatal("expected error when no API key is available")
	}
	if !strings.Contains(err.Error(), "gemini API key is required") {
		t.Errorf("expected API key error, got: %v", err)
	}
}

func TestNewClient_Success(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	client, err := NewClient("", 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.apiKey == "" {
		t.Error("client API key should not be empty")
	}
	if client.modelName == "" {
		t.Error("client model name should not be empty")
	}
}

func TestToGenaiSchema(t *testing.T) {
	s := &core.Schema{
		Type:     core.SchemaObject,
		Required: []string{"headline"},
		Properties: map[string]*core.Schema{
			"headline": {Type: core.SchemaString},
			"sections": {Type: core.SchemaArray, Items: &core.Schema{Type: core.SchemaString}},
		},
	}
	gs := toGenaiSchema(s)
	if len(gs.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(gs.Properties))
	}
	if gs.Properties["sections"].Items == nil {
		t.Error("expected nested Items schema for sections")
	}
}

func TestClient_Wait_NoLimiterIsNoop(t *testing.T) {
	c := &Client{}
	if err := c.wait(context.Background()); err != nil {
		t.Errorf("expected no error with unset limiter, got %v", err)
	}
}

func TestClient_Wait_RespectsCancelledContext(t *testing.T) {
	c := &Client{limiter: rate.NewLimiter(rate.Limit(1), 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.wait(ctx); err == nil {
		t.Error("expected error when context is already cancelled")
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}
	client, err := NewClient("", 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Generate(ctx, core.GenerateRequest{Prompt: "test"})
	if err == nil {
		t.Error("expected error when context is already cancelled")
	}
}
