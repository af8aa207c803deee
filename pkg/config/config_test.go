package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"figma_token": "figd_secret",
		"confluence_base_url": "https://example.atlassian.net/wiki",
		"confluence_email": "docs@example.com",
		"confluence_token": "atl_secret",
		"space_key": "MPT",
		"concurrency": 8
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.FigmaToken != "figd_secret" {
		t.Fatalf("unexpected figma token %q", cfg.FigmaToken)
	}
	if cfg.SpaceKey != "MPT" {
		t.Fatalf("unexpected space key %q", cfg.SpaceKey)
	}
	if cfg.Concurrency != 8 {
		t.Fatalf("unexpected concurrency %d", cfg.Concurrency)
	}
	// Defaults fill the gaps.
	if cfg.StagingDir != "build" || cfg.SchemaDir != "." || cfg.MaxRetries != 3 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
figma_token: figd_secret
confluence_base_url: https://example.atlassian.net/wiki
staging_dir: out
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FigmaToken != "figd_secret" {
		t.Fatalf("unexpected figma token %q", cfg.FigmaToken)
	}
	if cfg.StagingDir != "out" {
		t.Fatalf("unexpected staging dir %q", cfg.StagingDir)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.json", `{"figma_token": "from-file"}`)

	t.Setenv("OBJSYNC_FIGMA_TOKEN", "from-env")
	t.Setenv("OBJSYNC_SPACE_KEY", "ENV")
	t.Setenv("OBJSYNC_CONCURRENCY", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FigmaToken != "from-env" {
		t.Fatalf("env override not applied, got %q", cfg.FigmaToken)
	}
	if cfg.SpaceKey != "ENV" {
		t.Fatalf("env override not applied, got %q", cfg.SpaceKey)
	}
	if cfg.Concurrency != 2 {
		t.Fatalf("env override not applied, got %d", cfg.Concurrency)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{FigmaToken: "figd_secret"}

	if err := cfg.Validate(false); err != nil {
		t.Fatalf("render-only validation should pass: %v", err)
	}

	err := cfg.Validate(true)
	if err == nil {
		t.Fatal("expected validation failure without confluence credentials")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Missing) != 3 {
		t.Fatalf("unexpected missing list %v", verr.Missing)
	}

	cfg = Config{}
	err = cfg.Validate(false)
	if err == nil {
		t.Fatal("expected validation failure without figma token")
	}
}
