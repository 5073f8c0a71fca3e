// Package config loads agentforge settings from defaults, the workspace
// config file and AGENTFORGE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/agentforge/pkg/ai"
	"github.com/felixgeelhaar/agentforge/pkg/storage"
)

const EnvPrefix = "AGENTFORGE_"

type Config struct {
	Log       LogConfig       `koanf:"log" yaml:"log"`
	AI        AIConfig        `koanf:"ai" yaml:"ai"`
	Telemetry TelemetryConfig `koanf:"telemetry" yaml:"telemetry"`
	Watch     WatchConfig     `koanf:"watch" yaml:"watch"`
	Batch     BatchConfig     `koanf:"batch" yaml:"batch"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"` // text, json
}

// AIConfig selects the provider used by fill, tests and sandbox.
type AIConfig struct {
	Provider     string `koanf:"provider" yaml:"provider"` // ollama, anthropic, openai, mock
	Model        string `koanf:"model" yaml:"model"`
	BaseURL      string `koanf:"base_url" yaml:"base_url,omitempty"`
	APIKey       string `koanf:"api_key" yaml:"api_key,omitempty"`
	MaxRetries   int    `koanf:"max_retries" yaml:"max_retries"`
	RetryDelayMs int    `koanf:"retry_delay_ms" yaml:"retry_delay_ms"`
	TimeoutSec   int    `koanf:"timeout_sec" yaml:"timeout_sec"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled" yaml:"enabled"`
	Exporter     string `koanf:"exporter" yaml:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint" yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure bool   `koanf:"otlp_insecure" yaml:"otlp_insecure,omitempty"`
}

type WatchConfig struct {
	DebounceMs int `koanf:"debounce_ms" yaml:"debounce_ms"`
}

type BatchConfig struct {
	Parallel int `koanf:"parallel" yaml:"parallel"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Log: LogConfig{Level: "warn", Format: "text"},
		AI: AIConfig{
			Provider:     "ollama",
			Model:        "llama3",
			MaxRetries:   3,
			RetryDelayMs: 1000,
			TimeoutSec:   60,
		},
		Telemetry: TelemetryConfig{Enabled: false, Exporter: "stdout"},
		Watch:     WatchConfig{DebounceMs: 300},
		Batch:     BatchConfig{Parallel: 4},
	}
}

// Path is the config file of the workspace rooted at root.
func Path(root string) string {
	return filepath.Join(root, storage.WorkspaceDir, storage.ConfigFile)
}

// Load reads the config. A missing file at path is not an error; an empty
// path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	d := Defaults()
	defaults := map[string]any{
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
		"ai.provider":             d.AI.Provider,
		"ai.model":                d.AI.Model,
		"ai.base_url":             d.AI.BaseURL,
		"ai.api_key":              d.AI.APIKey,
		"ai.max_retries":          d.AI.MaxRetries,
		"ai.retry_delay_ms":       d.AI.RetryDelayMs,
		"ai.timeout_sec":          d.AI.TimeoutSec,
		"telemetry.enabled":       d.Telemetry.Enabled,
		"telemetry.exporter":      d.Telemetry.Exporter,
		"telemetry.otlp_endpoint": d.Telemetry.OTLPEndpoint,
		"telemetry.otlp_insecure": d.Telemetry.OTLPInsecure,
		"watch.debounce_ms":       d.Watch.DebounceMs,
		"batch.parallel":          d.Batch.Parallel,
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	// AGENTFORGE_AI_MAX_RETRIES -> ai.max_retries
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg as YAML. API keys are never written.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	out := *cfg
	out.AI.APIKey = ""

	data, err := yamlv3.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ProviderSettings converts the ai section into provider factory settings.
func (c *Config) ProviderSettings() ai.Settings {
	res := ai.DefaultResilienceConfig()
	if c.AI.MaxRetries > 0 {
		res.MaxRetries = c.AI.MaxRetries
	}
	if c.AI.RetryDelayMs > 0 {
		res.RetryDelay = time.Duration(c.AI.RetryDelayMs) * time.Millisecond
	}
	if c.AI.TimeoutSec > 0 {
		res.Timeout = time.Duration(c.AI.TimeoutSec) * time.Second
	}
	return ai.Settings{
		Provider:   c.AI.Provider,
		Model:      c.AI.Model,
		BaseURL:    c.AI.BaseURL,
		APIKey:     c.AI.APIKey,
		Resilience: res,
	}
}

// DebounceInterval is the watch debounce as a duration.
func (c *Config) DebounceInterval() time.Duration {
	if c.Watch.DebounceMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}
