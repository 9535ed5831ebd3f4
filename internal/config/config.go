// Package config loads the service configuration: defaults, then an
// optional YAML file, then LERNBUDDY_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/lernbuddy/internal/generation"
	"github.com/abhisek/lernbuddy/internal/llm"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/testsession"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	LLM      llm.Config     `yaml:"llm"`
	Engine   EngineConfig   `yaml:"engine"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	// Path is the SQLite file. Empty selects the per-user data directory.
	Path string `yaml:"path"`
}

type LogConfig struct {
	// Mode is "dev" (console, debug) or "prod" (JSON, info).
	Mode string `yaml:"mode"`
}

// EngineConfig tunes test sessions, generation and profile analysis.
type EngineConfig struct {
	DefaultQuestions   int           `yaml:"default_questions"`
	MaxQuestions       int           `yaml:"max_questions"`
	SecondsPerQuestion int           `yaml:"seconds_per_question"`
	ImmediateFeedback  bool          `yaml:"immediate_feedback"`
	FeedbackTimeout    time.Duration `yaml:"feedback_timeout"`
	MaxTokens          int           `yaml:"max_tokens"`
	Temperature        float64       `yaml:"temperature"`

	// ProfileHistoryLimit is how many recent study sessions feed a
	// profile analysis.
	ProfileHistoryLimit int `yaml:"profile_history_limit"`

	// HistoryPageSize is the default length of a test history listing.
	HistoryPageSize int `yaml:"history_page_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	gen := generation.DefaultConfig()
	sess := testsession.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Log: LogConfig{Mode: "prod"},
		LLM: llm.DefaultConfig(),
		Engine: EngineConfig{
			DefaultQuestions:    sess.DefaultQuestions,
			MaxQuestions:        sess.MaxQuestions,
			SecondsPerQuestion:  sess.SecondsPerQuestion,
			FeedbackTimeout:     gen.FeedbackTimeout,
			MaxTokens:           gen.MaxTokens,
			Temperature:         gen.Temperature,
			ProfileHistoryLimit: profile.DefaultHistoryLimit,
			HistoryPageSize:     sess.HistoryLimit,
		},
	}
}

// Load reads the configuration. path may be empty, in which case
// LERNBUDDY_CONFIG names the file; without either only defaults and the
// environment apply. A named file that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("LERNBUDDY_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LERNBUDDY_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LERNBUDDY_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LERNBUDDY_LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := os.Getenv("LERNBUDDY_IMMEDIATE_FEEDBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Engine.ImmediateFeedback = b
		}
	}
	if v := os.Getenv("LERNBUDDY_MAX_QUESTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.MaxQuestions = n
		}
	}
	if v := os.Getenv("LERNBUDDY_FEEDBACK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Engine.FeedbackTimeout = d
		}
	}
	c.LLM.ApplyEnv()
}

// Validate checks ranges and enumerations. Provider credentials are not
// checked here: without them the engine serves fallback content.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Log.Mode {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("log.mode must be dev or prod, got %q", c.Log.Mode))
	}
	switch c.LLM.Provider {
	case "openrouter", "openai", "anthropic", "gemini", "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("llm.retry.max_attempts must be at least 1, got %d", c.LLM.Retry.MaxAttempts))
	}
	e := c.Engine
	if e.MaxQuestions < 1 {
		errs = append(errs, fmt.Errorf("engine.max_questions must be positive, got %d", e.MaxQuestions))
	}
	if e.DefaultQuestions < 1 || e.DefaultQuestions > e.MaxQuestions {
		errs = append(errs, fmt.Errorf("engine.default_questions must be in [1, %d], got %d", e.MaxQuestions, e.DefaultQuestions))
	}
	if e.SecondsPerQuestion < 1 {
		errs = append(errs, fmt.Errorf("engine.seconds_per_question must be positive, got %d", e.SecondsPerQuestion))
	}
	if e.Temperature < 0 || e.Temperature > 1 {
		errs = append(errs, fmt.Errorf("engine.temperature must be in [0, 1], got %v", e.Temperature))
	}
	if e.ProfileHistoryLimit < profile.MinSessions {
		errs = append(errs, fmt.Errorf("engine.profile_history_limit must be at least %d, got %d", profile.MinSessions, e.ProfileHistoryLimit))
	}
	return errors.Join(errs...)
}

// Sessions returns the orchestrator settings.
func (c *Config) Sessions() testsession.Config {
	return testsession.Config{
		DefaultQuestions:   c.Engine.DefaultQuestions,
		MaxQuestions:       c.Engine.MaxQuestions,
		SecondsPerQuestion: c.Engine.SecondsPerQuestion,
		ImmediateFeedback:  c.Engine.ImmediateFeedback,
		HistoryLimit:       c.Engine.HistoryPageSize,
	}
}

// Generation returns the generation settings.
func (c *Config) Generation() generation.Config {
	return generation.Config{
		MaxTokens:       c.Engine.MaxTokens,
		Temperature:     c.Engine.Temperature,
		FeedbackTimeout: c.Engine.FeedbackTimeout,
	}
}
