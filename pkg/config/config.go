// Package config loads and validates the sync tool's runtime configuration
// from a JSON or YAML file with environment variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the user's home directory when no explicit
// config path is given.
const DefaultFileName = ".mpt-objects-inventory-config.json"

// EnvPrefix namespaces the environment overrides, e.g. OBJSYNC_FIGMA_TOKEN.
const EnvPrefix = "OBJSYNC_"

// Config carries everything the pipeline needs to run. Zero values fall back
// to defaults where a default makes sense; credentials never default.
type Config struct {
	FigmaToken   string `json:"figma_token" yaml:"figma_token"`
	FigmaBaseURL string `json:"figma_base_url,omitempty" yaml:"figma_base_url,omitempty"`

	ConfluenceBaseURL string `json:"confluence_base_url" yaml:"confluence_base_url"`
	ConfluenceEmail   string `json:"confluence_email" yaml:"confluence_email"`
	ConfluenceToken   string `json:"confluence_token" yaml:"confluence_token"`

	SpaceKey     string `json:"space_key,omitempty" yaml:"space_key,omitempty"`
	ParentPageID string `json:"parent_page_id,omitempty" yaml:"parent_page_id,omitempty"`

	PlaceholderFrameURL string `json:"placeholder_frame_url,omitempty" yaml:"placeholder_frame_url,omitempty"`

	SchemaDir  string `json:"schema_dir,omitempty" yaml:"schema_dir,omitempty"`
	StagingDir string `json:"staging_dir,omitempty" yaml:"staging_dir,omitempty"`

	Concurrency  int     `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	MaxRetries   int     `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	RequestsPerS float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`

	ThemeVariant string `json:"theme_variant,omitempty" yaml:"theme_variant,omitempty"`
	BackupPages  bool   `json:"backup_pages,omitempty" yaml:"backup_pages,omitempty"`
}

// ValidationError reports required settings that are missing. It is fatal:
// the run never starts with an incomplete configuration.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "config: missing required settings: " + strings.Join(e.Missing, ", ")
}

// DefaultPath returns the conventional config location in the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, DefaultFileName), nil
}

// Load reads the config file at path, or the default location when path is
// empty, then applies environment overrides and defaults. A missing default
// file is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// fall through to env and defaults
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	override := func(target *string, key string) {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok && value != "" {
			*target = value
		}
	}
	override(&c.FigmaToken, "FIGMA_TOKEN")
	override(&c.FigmaBaseURL, "FIGMA_BASE_URL")
	override(&c.ConfluenceBaseURL, "CONFLUENCE_BASE_URL")
	override(&c.ConfluenceEmail, "CONFLUENCE_EMAIL")
	override(&c.ConfluenceToken, "CONFLUENCE_TOKEN")
	override(&c.SpaceKey, "SPACE_KEY")
	override(&c.ParentPageID, "PARENT_PAGE_ID")
	override(&c.PlaceholderFrameURL, "PLACEHOLDER_FRAME_URL")
	override(&c.SchemaDir, "SCHEMA_DIR")
	override(&c.StagingDir, "STAGING_DIR")
	override(&c.ThemeVariant, "THEME_VARIANT")

	if value, ok := os.LookupEnv(EnvPrefix + "CONCURRENCY"); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			c.Concurrency = n
		}
	}
	if value, ok := os.LookupEnv(EnvPrefix + "MAX_RETRIES"); ok {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			c.MaxRetries = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.SchemaDir == "" {
		c.SchemaDir = "."
	}
	if c.StagingDir == "" {
		c.StagingDir = "build"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RequestsPerS <= 0 {
		c.RequestsPerS = 5
	}
}

// Validate checks that every setting the sync pipeline depends on is present.
// Rendering locally needs only the Figma side; pass publish=false for that.
func (c Config) Validate(publish bool) error {
	var missing []string
	if c.FigmaToken == "" {
		missing = append(missing, "figma_token")
	}
	if publish {
		if c.ConfluenceBaseURL == "" {
			missing = append(missing, "confluence_base_url")
		}
		if c.ConfluenceEmail == "" {
			missing = append(missing, "confluence_email")
		}
		if c.ConfluenceToken == "" {
			missing = append(missing, "confluence_token")
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
