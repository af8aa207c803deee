// Package page builds the renderable model of one object's documentation
// page from its descriptor and staged diagrams. Building is pure: no network,
// no filesystem beyond the artifact list already in hand.
package page

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Devgaze/mpt-objects-inventory/pkg/confluence"
	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/staging"
)

// Cell is one diagram slot in a section table: the attachment filename the
// page embeds and the source frame link shown alongside.
type Cell struct {
	Role     string
	Filename string
	FrameURL string
	Staged   bool
}

// Section is a three-column role table (vendor / operations / client) for one
// view of the object.
type Section struct {
	Key     string
	Heading string
	Cells   []Cell
}

// Model is the top-level representation the storage renderer consumes.
type Model struct {
	Object      string
	Title       string
	Description string
	Diagram     Cell
	Sections    []Section
	UpdatedAt   time.Time
}

type sectionSpec struct {
	heading string
	views   [3]schema.ViewPath
}

var sectionSpecs = []struct {
	key  string
	spec sectionSpec
}{
	{"desktop-grid", sectionSpec{"Desktop · Grid view", [3]schema.ViewPath{
		schema.ViewDesktopGridVendor, schema.ViewDesktopGridOperations, schema.ViewDesktopGridClient}}},
	{"desktop-details", sectionSpec{"Desktop · Details view", [3]schema.ViewPath{
		schema.ViewDesktopDetailsVendor, schema.ViewDesktopDetailsOperations, schema.ViewDesktopDetailsClient}}},
	{"desktop-infocard", sectionSpec{"Desktop · Infocard view", [3]schema.ViewPath{
		schema.ViewDesktopInfocardVendor, schema.ViewDesktopInfocardOperations, schema.ViewDesktopInfocardClient}}},
	{"mobile-list", sectionSpec{"Mobile · List view", [3]schema.ViewPath{
		schema.ViewMobileListVendor, schema.ViewMobileListOperations, schema.ViewMobileListClient}}},
	{"mobile-details", sectionSpec{"Mobile · Details view", [3]schema.ViewPath{
		schema.ViewMobileDetailsVendor, schema.ViewMobileDetailsOperations, schema.ViewMobileDetailsClient}}},
}

var roles = [3]string{"vendor", "operations", "client"}

var (
	descriptionPolicyOnce sync.Once
	descriptionPolicy     *bluemonday.Policy
)

// sanitizeDescription strips anything beyond basic formatting markup from the
// schema-provided description before it lands in the page body.
func sanitizeDescription(raw string) string {
	descriptionPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("p", "b", "i", "em", "strong", "code", "ul", "ol", "li", "br")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowStandardURLs()
		policy.AllowElements("a")
		descriptionPolicy = policy
	})
	return strings.TrimSpace(descriptionPolicy.Sanitize(raw))
}

// Build assembles the page model. Cells are emitted for every supported view
// regardless of staging state; Staged reports whether the diagram was
// actually fetched this run so renderers can flag gaps instead of embedding
// broken attachment references.
func Build(desc schema.Descriptor, artifacts []staging.Artifact, now time.Time) (Model, error) {
	if desc.Name == "" {
		return Model{}, errors.New("page: descriptor has no name")
	}

	staged := make(map[string]bool, len(artifacts))
	for _, artifact := range artifacts {
		staged[artifact.Name] = true
	}

	cell := func(view schema.ViewPath, role string) Cell {
		filename := desc.ImageFileName(view)
		frameURL, _ := desc.View(view)
		return Cell{
			Role:     role,
			Filename: filename,
			FrameURL: frameURL,
			Staged:   staged[filename],
		}
	}

	model := Model{
		Object:      desc.Name,
		Title:       confluence.PageTitle(desc.Name),
		Description: sanitizeDescription(desc.Description),
		Diagram:     cell(schema.ViewStateDiagram, ""),
		UpdatedAt:   now,
	}

	for _, entry := range sectionSpecs {
		section := Section{Key: entry.key, Heading: entry.spec.heading}
		for i, view := range entry.spec.views {
			section.Cells = append(section.Cells, cell(view, roles[i]))
		}
		model.Sections = append(model.Sections, section)
	}

	return model, nil
}
