package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which backend to use.
	// Values: "openrouter", "openai", "anthropic", "gemini", "mock"
	Provider string `yaml:"provider"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout is the hard deadline for a single attempt. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`

	// ModelTimeouts overrides Timeout for slower backing models,
	// keyed by model ID.
	ModelTimeouts map[string]time.Duration `yaml:"model_timeouts"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
	Referer string `yaml:"referer"`  // Sent as HTTP-Referer.
	Title   string `yaml:"title"`    // Sent as X-Title.
}

// RetryConfig configures the attempt budget and the backoff between
// attempts.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per call. Default: 2.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is doubled per attempt. Default: 1s.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxJitter bounds the random delay added to every wait. Default: 1s.
	MaxJitter time.Duration `yaml:"max_jitter"`
}

const defaultOpenRouterModel = "tngtech/deepseek-r1t2-chimera:free"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "openrouter",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model:   defaultOpenRouterModel,
			Referer: "https://github.com/universal-lern-buddy",
			Title:   "Universal Lern-Buddy",
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   1 * time.Second,
			MaxJitter:   1 * time.Second,
		},
		Timeout: 30 * time.Second,
		ModelTimeouts: map[string]time.Duration{
			defaultOpenRouterModel: 60 * time.Second,
			"claude-sonnet":        60 * time.Second,
			"gemini-pro":           60 * time.Second,
		},
	}
}

// ApplyEnv overrides fields from LERNBUDDY_* environment variables and
// the providers' conventional key variables.
func (c *Config) ApplyEnv() {
	if p := os.Getenv("LERNBUDDY_LLM_PROVIDER"); p != "" {
		c.Provider = p
	}

	c.Anthropic.APIKey = firstEnv(c.Anthropic.APIKey, "LERNBUDDY_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	if m := os.Getenv("LERNBUDDY_ANTHROPIC_MODEL"); m != "" {
		c.Anthropic.Model = m
	}

	c.OpenAI.APIKey = firstEnv(c.OpenAI.APIKey, "LERNBUDDY_OPENAI_API_KEY", "OPENAI_API_KEY")
	if m := os.Getenv("LERNBUDDY_OPENAI_MODEL"); m != "" {
		c.OpenAI.Model = m
	}
	if u := os.Getenv("LERNBUDDY_OPENAI_BASE_URL"); u != "" {
		c.OpenAI.BaseURL = u
	}

	c.Gemini.APIKey = firstEnv(c.Gemini.APIKey, "LERNBUDDY_GEMINI_API_KEY", "GEMINI_API_KEY")
	if m := os.Getenv("LERNBUDDY_GEMINI_MODEL"); m != "" {
		c.Gemini.Model = m
	}

	c.OpenRouter.APIKey = firstEnv(c.OpenRouter.APIKey, "LERNBUDDY_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	if m := os.Getenv("LERNBUDDY_OPENROUTER_MODEL"); m != "" {
		c.OpenRouter.Model = m
	}

	if v := os.Getenv("LERNBUDDY_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("LERNBUDDY_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retry.MaxAttempts = n
		}
	}
}

// firstEnv returns the value of the first set variable, or current when
// none is set.
func firstEnv(current string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return current
}

// DiscoverConfig probes standard API key env vars in priority order
// (OpenRouter → Gemini → OpenAI → Anthropic) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// TimeoutFor returns the per-attempt deadline for model.
func (c Config) TimeoutFor(model string) time.Duration {
	if d, ok := c.ModelTimeouts[model]; ok && d > 0 {
		return d
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 30 * time.Second
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
