package schema

import (
	"fmt"
	"strings"
)

// ViewPath addresses a single design frame inside an object schema using
// dotted keys, e.g. "desktop.grid-view.vendor". The set of recognised paths is
// fixed; every schema must declare each of them, though a declaration may be
// null, in which case the loader records an empty reference and the fetcher
// substitutes the configured placeholder frame.
type ViewPath string

const (
	ViewStateDiagram ViewPath = "state-diagram"

	ViewDesktopGridVendor     ViewPath = "desktop.grid-view.vendor"
	ViewDesktopGridOperations ViewPath = "desktop.grid-view.operations"
	ViewDesktopGridClient     ViewPath = "desktop.grid-view.client"

	ViewDesktopDetailsVendor     ViewPath = "desktop.details-view.vendor"
	ViewDesktopDetailsOperations ViewPath = "desktop.details-view.operations"
	ViewDesktopDetailsClient     ViewPath = "desktop.details-view.client"

	ViewDesktopInfocardVendor     ViewPath = "desktop.infocard-view.vendor"
	ViewDesktopInfocardOperations ViewPath = "desktop.infocard-view.operations"
	ViewDesktopInfocardClient     ViewPath = "desktop.infocard-view.client"

	ViewMobileListVendor     ViewPath = "mobile.list-view.vendor"
	ViewMobileListOperations ViewPath = "mobile.list-view.operations"
	ViewMobileListClient     ViewPath = "mobile.list-view.client"

	ViewMobileDetailsVendor     ViewPath = "mobile.details-view.vendor"
	ViewMobileDetailsOperations ViewPath = "mobile.details-view.operations"
	ViewMobileDetailsClient     ViewPath = "mobile.details-view.client"
)

// SupportedViewPaths returns every recognised view path in canonical order.
// The order is stable so fetch logs and staged artifact listings line up
// between runs.
func SupportedViewPaths() []ViewPath {
	return []ViewPath{
		ViewDesktopGridVendor,
		ViewDesktopGridOperations,
		ViewDesktopGridClient,
		ViewDesktopDetailsVendor,
		ViewDesktopDetailsOperations,
		ViewDesktopDetailsClient,
		ViewDesktopInfocardVendor,
		ViewDesktopInfocardOperations,
		ViewDesktopInfocardClient,
		ViewStateDiagram,
		ViewMobileListVendor,
		ViewMobileListOperations,
		ViewMobileListClient,
		ViewMobileDetailsVendor,
		ViewMobileDetailsOperations,
		ViewMobileDetailsClient,
	}
}

// Segments splits the path into its dotted components.
func (p ViewPath) Segments() []string {
	return strings.Split(string(p), ".")
}

// Slug converts the dotted path into the hyphenated form used for staged
// artifact and attachment filenames.
func (p ViewPath) Slug() string {
	return strings.ReplaceAll(string(p), ".", "-")
}

// Descriptor is the in-memory representation of one platform object schema
// plus its sync bookkeeping. Descriptors are immutable during a run except for
// PageID, which the publisher records after creating a page for an object that
// had none.
type Descriptor struct {
	// Name uniquely identifies the object. Declared in the schema; falls back
	// to the filename stem when absent.
	Name string

	// Description is optional prose shown on the generated page. It may carry
	// limited HTML markup; renderers are expected to sanitise it.
	Description string

	// PageURL is the declared documentation page for this object, when one
	// already exists.
	PageURL string

	// PageID is the remote page identifier parsed from PageURL, or assigned by
	// the publisher after a create.
	PageID string

	// Views maps every supported view path to its design-tool frame URL. An
	// empty value means the schema omitted the reference.
	Views map[ViewPath]string

	// SourceFile records which schema file produced this descriptor.
	SourceFile string
}

// View returns the frame URL declared for the given path. The second return
// is false when the schema omitted the reference.
func (d Descriptor) View(path ViewPath) (string, bool) {
	url, ok := d.Views[path]
	if !ok || url == "" {
		return "", false
	}
	return url, true
}

// ImageFileName returns the artifact filename used for the given view, e.g.
// "subscription-desktop-grid-view-vendor.png". Attachment names on the remote
// page use the same scheme so re-syncs replace rather than accumulate.
func (d Descriptor) ImageFileName(path ViewPath) string {
	return d.Name + "-" + path.Slug() + ".png"
}

// ParseError records a schema file the loader could not turn into a
// descriptor. Parse errors never abort a load; they travel alongside the
// descriptors so callers can report them.
type ParseError struct {
	File string
	Err  error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("schema: parse %s: %v", e.File, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// Inventory is the result of loading a schema directory: descriptors in
// lexical filename order plus any per-file parse errors.
type Inventory struct {
	Descriptors []Descriptor
	Errors      []ParseError
}

// PageIDFromURL extracts the numeric page identifier from a documentation
// platform page URL of the form ".../pages/{id}/Title". It returns an empty
// string when the URL does not carry a page segment.
func PageIDFromURL(pageURL string) string {
	_, rest, ok := strings.Cut(pageURL, "/pages/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}
