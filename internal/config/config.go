// Package config provides configuration types and defaults for prism.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/tracing"
)

// DocumentsConfig holds the three source document file paths.
type DocumentsConfig struct {
	// TokensPath is the raw token document (required for most commands).
	TokensPath string `mapstructure:"tokens"`

	// BrandPath is the brand/theme document.
	BrandPath string `mapstructure:"brand"`

	// MappingPath is the component mapping document (optional).
	MappingPath string `mapstructure:"mapping"`
}

// PreviewConfig holds optimistic-preview behavior.
type PreviewConfig struct {
	// Window is the quiescence window before a pending preview value commits
	// to the override store.
	Window time.Duration `mapstructure:"window"`
}

// WatchConfig holds document-watching behavior.
type WatchConfig struct {
	// Debounce coalesces rapid document writes into one reload.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config holds all configuration options for prism.
type Config struct {
	Documents     DocumentsConfig `mapstructure:"documents"`
	OverridesPath string          `mapstructure:"overrides_path"`
	Preview       PreviewConfig   `mapstructure:"preview"`
	Watch         WatchConfig     `mapstructure:"watch"`

	// StrictReferences makes brace-delimited strings that fail to parse an
	// error instead of silently degrading to literals.
	StrictReferences bool `mapstructure:"strict_references"`

	Tracing tracing.Config `mapstructure:"tracing"`
}

// DefaultOverridesPath returns ~/.config/prism/overrides.json, or empty
// string if the home dir is unavailable.
func DefaultOverridesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "prism", "overrides.json")
}

// DefaultTracesFilePath returns ~/.config/prism/traces/traces.jsonl, or
// empty string if the home dir is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "prism", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Documents: DocumentsConfig{
			TokensPath:  "tokens.json",
			BrandPath:   "brand.json",
			MappingPath: "",
		},
		OverridesPath: DefaultOverridesPath(),
		Preview: PreviewConfig{
			Window: 120 * time.Millisecond,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		StrictReferences: false,
		Tracing:          tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors. Empty values use defaults.
func Validate(cfg Config) error {
	if cfg.Preview.Window < 0 {
		return fmt.Errorf("preview.window must not be negative, got %v", cfg.Preview.Window)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" {
		switch tc.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tc.Enabled {
		if tc.Exporter == "file" && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DocumentPaths returns the configured paths keyed by the document kind name,
// omitting unset paths. Kind names match internal/document.
func (c Config) DocumentPaths() map[string]string {
	paths := make(map[string]string, 3)
	if c.Documents.TokensPath != "" {
		paths["tokens"] = c.Documents.TokensPath
	}
	if c.Documents.BrandPath != "" {
		paths["brand"] = c.Documents.BrandPath
	}
	if c.Documents.MappingPath != "" {
		paths["mapping"] = c.Documents.MappingPath
	}
	return paths
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Prism Configuration

# Source documents
documents:
  tokens: tokens.json    # Raw token document (literals)
  brand: brand.json      # Brand/theme document (references + elevations)
  # mapping: components.json  # Component mapping document (optional)

# Where user overrides persist (flat token -> literal JSON map)
# overrides_path: ~/.config/prism/overrides.json

# Optimistic preview
preview:
  window: 120ms    # Quiescence window before a preview value commits

# Document watching (prism watch)
watch:
  debounce: 250ms  # Coalesce rapid document writes into one reload

# Treat malformed brace-delimited references as errors instead of literals
# strict_references: false

# Tracing of resolution passes
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/prism/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
