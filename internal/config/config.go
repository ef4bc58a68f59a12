// Package config loads the process configuration from a YAML file,
// environment overrides, and an optional .env file, following the same
// viper + godotenv loading idiom used throughout this domain's predecessor
// tooling.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level process configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	AI         AIConfig         `mapstructure:"ai"`
	Workflow   WorkflowConfig   `mapstructure:"workflow"`
	URLCheck   URLCheckConfig   `mapstructure:"url_check"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Images     ImagesConfig     `mapstructure:"images"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// AIConfig holds the generative and embedding model settings.
type AIConfig struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
	Images OpenAIConfig `mapstructure:"images"`
}

// GeminiConfig configures the LLM/embedding collaborator.
type GeminiConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	Timeout        string  `mapstructure:"timeout"`
	MaxTokens      int32   `mapstructure:"max_tokens"`
	Temperature    float32 `mapstructure:"temperature"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
}

// OpenAIConfig configures the image-generation collaborator.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// WorkflowConfig carries the per-stage timeout, retry, and concurrency
// numbers from the concurrency model (spec §5).
type WorkflowConfig struct {
	StageTimeouts   map[string]time.Duration `mapstructure:"stage_timeouts"`
	StageMaxRetries map[string]int           `mapstructure:"stage_max_retries"`
	BackoffBase     time.Duration            `mapstructure:"backoff_base"`
	BackoffCap      time.Duration            `mapstructure:"backoff_cap"`
	S3Concurrency   int                      `mapstructure:"s3_concurrency"`
	S4Concurrency   int                      `mapstructure:"s4_concurrency"`
	S6Concurrency   int                      `mapstructure:"s6_concurrency"`
}

// URLCheckConfig configures S4's URL validator collaborator.
type URLCheckConfig struct {
	TimeoutSeconds     int      `mapstructure:"timeout_seconds"`
	PerHostConcurrency int      `mapstructure:"per_host_concurrency"`
	DenyList           []string `mapstructure:"deny_list"`
}

// StorageConfig configures S9's storage collaborator.
type StorageConfig struct {
	Root string `mapstructure:"root"`
}

// ImagesConfig configures S6's per-role aspect ratios; the prompts
// themselves are built in code by images.BuildPrompt.
type ImagesConfig struct {
	HeroAspectRatio   string `mapstructure:"hero_aspect_ratio"`
	MidAspectRatio    string `mapstructure:"mid_aspect_ratio"`
	BottomAspectRatio string `mapstructure:"bottom_aspect_ratio"`
}

// SimilarityConfig configures S7's corpus check.
type SimilarityConfig struct {
	CorpusPath              string  `mapstructure:"corpus_path"`
	HybridThreshold         float64 `mapstructure:"hybrid_threshold"`
	TitleCosineThreshold    float64 `mapstructure:"title_cosine_threshold"`
	SectionJaccardThreshold float64 `mapstructure:"section_jaccard_threshold"`
}

// RateLimitConfig shapes the global LLM call rate (spec §5: 60 req/min).
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

var current *Config

// Load reads configuration from configFile (or "./.seoforge.yaml" if empty),
// applying environment overrides and an optional .env file, mirroring the
// teacher's viper+godotenv loading idiom.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load(".env") // optional; absence is not an error

	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".seoforge")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	current = cfg
	return cfg, nil
}

// Get returns the most recently Loaded config, or defaults if Load was
// never called.
func Get() *Config {
	if current == nil {
		cfg, _ := Load("")
		return cfg
	}
	return current
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".seoforge-cache")

	viper.SetDefault("ai.gemini.model", "gemini-2.5-pro")
	viper.SetDefault("ai.gemini.timeout", "120s")
	viper.SetDefault("ai.gemini.max_tokens", 16384)
	viper.SetDefault("ai.gemini.temperature", 0.4)
	viper.SetDefault("ai.gemini.embedding_model", "text-embedding-004")
	viper.SetDefault("ai.images.model", "gpt-image-1")
	viper.SetDefault("ai.images.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.images.timeout", "60s")

	viper.SetDefault("workflow.backoff_base", "1s")
	viper.SetDefault("workflow.backoff_cap", "30s")
	viper.SetDefault("workflow.s3_concurrency", 8)
	viper.SetDefault("workflow.s4_concurrency", 16)
	viper.SetDefault("workflow.s6_concurrency", 3)
	viper.SetDefault("workflow.stage_timeouts", map[string]string{
		"S0": "30s", "S1": "30s", "S2": "120s", "S3": "180s",
		"S4": "90s", "S5": "30s", "S6": "60s", "S7": "30s",
		"S8": "30s", "S9": "30s",
	})
	viper.SetDefault("workflow.stage_max_retries", map[string]int{
		"S0": 2, "S1": 1, "S2": 2, "S3": 2,
		"S4": 2, "S5": 1, "S6": 2, "S7": 1,
		"S8": 1, "S9": 1,
	})

	viper.SetDefault("url_check.timeout_seconds", 10)
	viper.SetDefault("url_check.per_host_concurrency", 4)

	viper.SetDefault("storage.root", "output")

	viper.SetDefault("images.hero_aspect_ratio", "16:9")
	viper.SetDefault("images.mid_aspect_ratio", "4:3")
	viper.SetDefault("images.bottom_aspect_ratio", "1:1")

	viper.SetDefault("similarity.hybrid_threshold", 0.75)
	viper.SetDefault("similarity.title_cosine_threshold", 0.8)
	viper.SetDefault("similarity.section_jaccard_threshold", 0.5)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_minute", 60)
}
