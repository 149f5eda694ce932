package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/plugins/googlegenai"
	"github.com/casualjim/genkit/plugins/openai"
)

// Config is read from the environment, after .env has been loaded.
type Config struct {
	Env            string `env:"GENKIT_ENV" envDefault:"dev"`
	ReflectionHost string `env:"GENKIT_REFLECTION_HOST"`
	ReflectionPort int    `env:"GENKIT_REFLECTION_PORT" envDefault:"3100"`
	LogLevel       string `env:"GENKIT_LOG_LEVEL" envDefault:"info"`
	DefaultModel   string `env:"GENKIT_DEFAULT_MODEL"`
	GoogleAPIKey   string `env:"GOOGLE_API_KEY"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid GENKIT_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// plugins returns the plugins whose credentials are configured.
func (c Config) plugins() []genkit.Plugin {
	var plugins []genkit.Plugin
	if key := firstNonEmpty(c.GoogleAPIKey, c.GeminiAPIKey); key != "" {
		plugins = append(plugins, &googlegenai.GoogleGenAI{APIKey: key})
	}
	if c.OpenAIAPIKey != "" {
		plugins = append(plugins, &openai.OpenAI{APIKey: c.OpenAIAPIKey})
	}
	return plugins
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
