package loader

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	pkgschema "github.com/Devgaze/mpt-objects-inventory/pkg/schema"
)

const figmaURL = "https://www.figma.com/design/rHxTpbi2gpbZ4dmV/Object-Diagrams?node-id=101-202"

func validSchemaJSON(name string) string {
	role := fmt.Sprintf(`{"vendor": %q, "operations": %q, "client": %q}`, figmaURL, figmaURL, figmaURL)
	return fmt.Sprintf(`{
  "name": %q,
  "description": "A platform object.",
  "confluence-page": "https://example.atlassian.net/wiki/spaces/MPT/pages/123456/Object",
  "state-diagram": %q,
  "desktop": {"grid-view": %s, "details-view": %s, "infocard-view": %s},
  "mobile": {"list-view": %s, "details-view": %s}
}`, name, figmaURL, role, role, role, role, role)
}

func TestLoadCountsValidAndMalformedFiles(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"subscription.json": {Data: []byte(validSchemaJSON("subscription"))},
		"order.json":        {Data: []byte(validSchemaJSON("order"))},
		"broken.json":       {Data: []byte(`{"name": "broken"`)},
		"missing-views.json": {Data: []byte(`{
  "name": "missing-views",
  "state-diagram": null,
  "desktop": {"grid-view": {"vendor": null, "operations": null, "client": null}},
  "mobile": {}
}`)},
		"notes.txt": {Data: []byte("ignored")},
	}

	ldr := New(pkgschema.NewLoaderOptions(pkgschema.WithFileSystem(files)))
	inv, err := ldr.Load(context.Background(), pkgschema.SourceFromFS("."))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := len(inv.Descriptors); got != 2 {
		t.Fatalf("expected 2 descriptors, got %d: %+v", got, inv.Descriptors)
	}
	if got := len(inv.Errors); got != 2 {
		t.Fatalf("expected 2 parse errors, got %d: %+v", got, inv.Errors)
	}

	// Lexical filename order, not declaration order.
	names := []string{inv.Descriptors[0].Name, inv.Descriptors[1].Name}
	if diff := cmp.Diff([]string{"order", "subscription"}, names); diff != "" {
		t.Fatalf("descriptor order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPopulatesDescriptorFields(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"subscription.json": {Data: []byte(validSchemaJSON("subscription"))},
	}

	ldr := New(pkgschema.NewLoaderOptions(pkgschema.WithFileSystem(files)))
	inv, err := ldr.Load(context.Background(), pkgschema.SourceFromFS("."))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(inv.Descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(inv.Descriptors))
	}

	desc := inv.Descriptors[0]
	if desc.Name != "subscription" {
		t.Errorf("name: want subscription, got %q", desc.Name)
	}
	if desc.PageID != "123456" {
		t.Errorf("page id: want 123456, got %q", desc.PageID)
	}
	if desc.SourceFile != "subscription.json" {
		t.Errorf("source file: want subscription.json, got %q", desc.SourceFile)
	}
	if got := len(desc.Views); got != len(pkgschema.SupportedViewPaths()) {
		t.Fatalf("expected %d views, got %d", len(pkgschema.SupportedViewPaths()), got)
	}
	if url, ok := desc.View(pkgschema.ViewDesktopGridVendor); !ok || url != figmaURL {
		t.Errorf("desktop grid vendor view: got %q ok=%v", url, ok)
	}
}

func TestLoadTreatsNullViewAsOmitted(t *testing.T) {
	t.Parallel()

	doc := strings.Replace(
		validSchemaJSON("subscription"),
		fmt.Sprintf(`"state-diagram": %q`, figmaURL),
		`"state-diagram": null`,
		1,
	)
	files := fstest.MapFS{"subscription.json": {Data: []byte(doc)}}

	ldr := New(pkgschema.NewLoaderOptions(pkgschema.WithFileSystem(files)))
	inv, err := ldr.Load(context.Background(), pkgschema.SourceFromFS("."))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(inv.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %+v", inv.Errors)
	}

	if url, ok := inv.Descriptors[0].View(pkgschema.ViewStateDiagram); ok {
		t.Fatalf("expected state-diagram to be omitted, got %q", url)
	}
}

func TestLoadRejectsDuplicateObjectNames(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"a-subscription.json": {Data: []byte(validSchemaJSON("subscription"))},
		"b-subscription.json": {Data: []byte(validSchemaJSON("subscription"))},
	}

	ldr := New(pkgschema.NewLoaderOptions(pkgschema.WithFileSystem(files)))
	inv, err := ldr.Load(context.Background(), pkgschema.SourceFromFS("."))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(inv.Descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(inv.Descriptors))
	}
	if len(inv.Errors) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(inv.Errors))
	}
	if inv.Errors[0].File != "b-subscription.json" {
		t.Fatalf("expected duplicate recorded against second file, got %s", inv.Errors[0].File)
	}
}

func TestLoadValidatesDocumentShape(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"subscription.json": {Data: []byte(validSchemaJSON("Subscription"))}}

	ldr := New(pkgschema.NewLoaderOptions(pkgschema.WithFileSystem(files)))
	inv, err := ldr.Load(context.Background(), pkgschema.SourceFromFS("."))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Uppercase names violate the embedded object schema pattern.
	if len(inv.Errors) != 1 {
		t.Fatalf("expected validation error, got %+v", inv.Errors)
	}
	if len(inv.Descriptors) != 0 {
		t.Fatalf("expected no descriptors, got %d", len(inv.Descriptors))
	}
}

func TestLoadParsesYAMLSchemas(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"order.yaml": {Data: []byte(`name: order
state-diagram: ` + figmaURL + `
desktop:
  grid-view: &role
    vendor: ` + figmaURL + `
    operations: ` + figmaURL + `
    client: ` + figmaURL + `
  details-view: *role
  infocard-view: *role
mobile:
  list-view: *role
  details-view: *role
`)},
	}

	ldr := New(pkgschema.NewLoaderOptions(pkgschema.WithFileSystem(files)))
	inv, err := ldr.Load(context.Background(), pkgschema.SourceFromFS("."))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(inv.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %+v", inv.Errors)
	}
	if len(inv.Descriptors) != 1 || inv.Descriptors[0].Name != "order" {
		t.Fatalf("unexpected descriptors: %+v", inv.Descriptors)
	}
}

func TestLoadEmptyDirectoryYieldsEmptyInventory(t *testing.T) {
	t.Parallel()

	ldr := New(pkgschema.NewLoaderOptions(pkgschema.WithFileSystem(fstest.MapFS{})))
	inv, err := ldr.Load(context.Background(), pkgschema.SourceFromFS("."))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(inv.Descriptors) != 0 || len(inv.Errors) != 0 {
		t.Fatalf("expected empty inventory, got %+v", inv)
	}
}
