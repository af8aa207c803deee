package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Devgaze/mpt-objects-inventory/pkg/page"
	"github.com/Devgaze/mpt-objects-inventory/pkg/render"
	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/staging"
)

func testDescriptor() schema.Descriptor {
	desc := schema.Descriptor{
		Name:        "billing-account",
		Description: "Tracks <b>billing</b> state.",
		Views:       map[schema.ViewPath]string{},
	}
	for _, view := range schema.SupportedViewPaths() {
		desc.Views[view] = "https://www.figma.com/design/abc123/File?node-id=1-" + view.Slug()
	}
	return desc
}

func testModel(t *testing.T, staged ...schema.ViewPath) page.Model {
	t.Helper()

	desc := testDescriptor()
	artifacts := make([]staging.Artifact, 0, len(staged))
	for _, view := range staged {
		artifacts = append(artifacts, staging.Artifact{Name: desc.ImageFileName(view)})
	}

	model, err := page.Build(desc, artifacts, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return model
}

func TestRendererIdentity(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if got := renderer.Name(); got != "storage" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := renderer.ContentType(); !strings.Contains(got, "storage") {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestRenderEmbedsStagedAttachments(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	model := testModel(t,
		schema.ViewStateDiagram,
		schema.ViewDesktopGridVendor,
	)

	output, err := renderer.Render(context.Background(), model, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(output)

	if !strings.Contains(body, `ri:filename="billing-account-state-diagram.png"`) {
		t.Fatalf("state diagram attachment missing:\n%s", body)
	}
	if !strings.Contains(body, `ri:filename="billing-account-desktop-grid-view-vendor.png"`) {
		t.Fatalf("staged cell attachment missing:\n%s", body)
	}
	if !strings.Contains(body, "Not available") {
		t.Fatalf("expected unstaged cells to be flagged:\n%s", body)
	}
	if strings.Contains(body, `ri:filename="billing-account-mobile-list-view-client.png"`) {
		t.Fatalf("unstaged cell must not embed an attachment:\n%s", body)
	}
}

func TestRenderSectionHeadingsAndPalette(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output, err := renderer.Render(context.Background(), testModel(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(output)

	for _, heading := range []string{
		"Desktop · Grid view",
		"Desktop · Details view",
		"Desktop · Infocard view",
		"Mobile · List view",
		"Mobile · Details view",
	} {
		if !strings.Contains(body, heading) {
			t.Fatalf("missing section heading %q", heading)
		}
	}

	if !strings.Contains(body, "#eaf4ff") {
		t.Fatalf("vendor highlight colour missing")
	}
	if !strings.Contains(body, "#fff4f0") {
		t.Fatalf("operations highlight colour missing")
	}
	if !strings.Contains(body, "#edfff7") {
		t.Fatalf("client highlight colour missing")
	}
	if !strings.Contains(body, ">Vendor<") || !strings.Contains(body, ">Operations<") || !strings.Contains(body, ">Client<") {
		t.Fatalf("role column headings missing:\n%s", body)
	}

	// One role table per section, pulled in through the include.
	if got := strings.Count(body, "<table"); got != 5 {
		t.Fatalf("expected 5 role tables, got %d:\n%s", got, body)
	}
}

func TestRenderSanitizedDescriptionAndTimestamp(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output, err := renderer.Render(context.Background(), testModel(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(output)

	if !strings.Contains(body, "Tracks <b>billing</b> state.") {
		t.Fatalf("description missing or escaped:\n%s", body)
	}
	if !strings.Contains(body, "Last updated 2026-03-14 09:30 UTC") {
		t.Fatalf("timestamp missing:\n%s", body)
	}
}

func TestRenderThemeVariantOverridesPalette(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output, err := renderer.Render(context.Background(), testModel(t), render.RenderOptions{
		ThemeVariant: "muted",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(output)

	if strings.Contains(body, "#eaf4ff") {
		t.Fatalf("base vendor colour should be overridden by variant")
	}
	if !strings.Contains(body, "#f2f5f8") {
		t.Fatalf("variant vendor colour missing")
	}
}

func TestRenderCancelledContext(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := renderer.Render(ctx, testModel(t), render.RenderOptions{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestResolveThemeUnknownVariantFallsBack(t *testing.T) {
	cfg := ResolveTheme(nil, "no-such-variant")
	if cfg.Variant != "" {
		t.Fatalf("unknown variant should resolve empty, got %q", cfg.Variant)
	}
	if cfg.Tokens["role.vendor"] != "#eaf4ff" {
		t.Fatalf("base tokens missing, got %q", cfg.Tokens["role.vendor"])
	}
	if cfg.CSSVars["--role-vendor"] != "#eaf4ff" {
		t.Fatalf("css vars not derived, got %q", cfg.CSSVars["--role-vendor"])
	}
}
