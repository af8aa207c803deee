package render

import (
	theme "github.com/goliatone/go-theme"
)

// RenderOptions carries per-request rendering knobs. The zero value renders
// with the renderer's defaults.
type RenderOptions struct {
	// ThemeName selects a registered palette theme. Empty picks the
	// renderer's default.
	ThemeName string

	// ThemeVariant selects a variant within the chosen theme.
	ThemeVariant string

	// Theme is the resolved renderer configuration for ThemeName and
	// ThemeVariant. When nil, renderers fall back to their built-in palette.
	Theme *theme.RendererConfig
}
