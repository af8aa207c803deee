// Package storage renders page models into Confluence storage-format XHTML:
// a state diagram up top, then one three-column role table per view section,
// with staged diagrams embedded as attachment references.
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	theme "github.com/goliatone/go-theme"

	"github.com/Devgaze/mpt-objects-inventory/pkg/page"
	"github.com/Devgaze/mpt-objects-inventory/pkg/render"
	rendertemplate "github.com/Devgaze/mpt-objects-inventory/pkg/render/template"
	gotemplate "github.com/Devgaze/mpt-objects-inventory/pkg/render/template/gotemplate"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	manifest         *theme.Manifest
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithManifest overrides the built-in palette manifest.
func WithManifest(manifest *theme.Manifest) Option {
	return func(cfg *config) {
		if manifest != nil {
			cfg.manifest = manifest
		}
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
	manifest  *theme.Manifest
}

// New constructs the storage renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), manifest: DefaultManifest()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("storage renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, manifest: cfg.manifest}, nil
}

func (r *Renderer) Name() string {
	return "storage"
}

func (r *Renderer) ContentType() string {
	return "application/vnd.atlassian.confluence.storage+xhtml"
}

func (r *Renderer) Render(ctx context.Context, model page.Model, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("storage renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := options.Theme
	if cfg == nil {
		cfg = ResolveTheme(r.manifest, options.ThemeVariant)
	}

	result, err := r.templates.RenderTemplate("templates/object-page.tmpl", buildContext(model, cfg))
	if err != nil {
		return nil, fmt.Errorf("storage renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func buildContext(model page.Model, cfg *theme.RendererConfig) map[string]any {
	surface := cfg.Tokens["surface"]

	cell := func(c page.Cell) map[string]any {
		colour := surface
		if c.Role != "" {
			if v, ok := cfg.Tokens["role."+c.Role]; ok {
				colour = v
			}
		}
		return map[string]any{
			"role":      c.Role,
			"filename":  c.Filename,
			"frame_url": c.FrameURL,
			"staged":    c.Staged,
			"colour":    colour,
		}
	}

	sections := make([]any, 0, len(model.Sections))
	for _, section := range model.Sections {
		cells := make([]any, 0, len(section.Cells))
		for _, c := range section.Cells {
			cells = append(cells, cell(c))
		}
		sections = append(sections, map[string]any{
			"key":     section.Key,
			"heading": section.Heading,
			"cells":   cells,
		})
	}

	updated := ""
	if !model.UpdatedAt.IsZero() {
		updated = model.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC")
	}

	return map[string]any{
		"object":      model.Object,
		"title":       model.Title,
		"description": model.Description,
		"diagram":     cell(model.Diagram),
		"sections":    sections,
		"surface":     surface,
		"updated":     updated,
	}
}
