package storage

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeName identifies the built-in palette.
const DefaultThemeName = "inventory"

// DefaultManifest returns the built-in palette. Role columns get the pastel
// highlight colours the documentation space has always used; the muted
// variant tones them down for printing.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"surface":         "#ffffff",
			"role.vendor":     "#eaf4ff",
			"role.operations": "#fff4f0",
			"role.client":     "#edfff7",
		},
		Variants: map[string]theme.Variant{
			"muted": {
				Tokens: map[string]string{
					"role.vendor":     "#f2f5f8",
					"role.operations": "#f8f4f2",
					"role.client":     "#f2f8f5",
				},
			},
		},
	}
}

// ResolveTheme merges a named variant over the base manifest and derives the
// renderer configuration. An unknown or empty variant name resolves to the
// base palette.
func ResolveTheme(manifest *theme.Manifest, variantName string) *theme.RendererConfig {
	if manifest == nil {
		manifest = DefaultManifest()
	}

	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	partials := make(map[string]string, len(manifest.Templates))
	for key, value := range manifest.Templates {
		partials[key] = value
	}

	assetFiles := make(map[string]string, len(manifest.Assets.Files))
	for key, value := range manifest.Assets.Files {
		assetFiles[key] = value
	}

	resolvedVariant := ""
	if variant, ok := manifest.Variants[variantName]; ok {
		resolvedVariant = variantName
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
		for key, value := range variant.Templates {
			partials[key] = value
		}
		for key, value := range variant.Assets.Files {
			assetFiles[key] = value
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.ReplaceAll(key, ".", "-")] = value
	}

	prefix := strings.TrimSuffix(manifest.Assets.Prefix, "/")
	return &theme.RendererConfig{
		Theme:    manifest.Name,
		Variant:  resolvedVariant,
		Tokens:   tokens,
		CSSVars:  cssVars,
		Partials: partials,
		AssetURL: func(key string) string {
			file, ok := assetFiles[key]
			if !ok {
				return ""
			}
			if prefix == "" {
				return file
			}
			return prefix + "/" + file
		},
	}
}
