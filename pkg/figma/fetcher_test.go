package figma

import (
	"context"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/staging"
)

const placeholderURL = "https://www.figma.com/design/abc/Placeholder?node-id=1-1"

type fakeExporter struct {
	calls   []string
	failFor string
}

func (f *fakeExporter) ExportPNG(_ context.Context, frameURL string) ([]byte, error) {
	f.calls = append(f.calls, frameURL)
	if f.failFor != "" && strings.Contains(frameURL, f.failFor) {
		return nil, ErrDiagramUnavailable
	}
	return []byte("png:" + frameURL), nil
}

func fullDescriptor(name string) schema.Descriptor {
	views := make(map[schema.ViewPath]string)
	for _, view := range schema.SupportedViewPaths() {
		views[view] = "https://www.figma.com/design/abc/Diagrams?node-id=10-" + view.Slug()
	}
	return schema.Descriptor{Name: name, Views: views}
}

func newWorkspace(t *testing.T) *staging.Workspace {
	t.Helper()
	ws, err := staging.NewWorkspace(staging.WithFilesystem(memfs.New()))
	require.NoError(t, err)
	return ws
}

func TestFetchStagesEveryView(t *testing.T) {
	t.Parallel()

	exporter := &fakeExporter{}
	fetcher, err := NewFetcher(exporter)
	require.NoError(t, err)

	ws := newWorkspace(t)
	artifacts, err := fetcher.Fetch(context.Background(), fullDescriptor("subscription"), ws)
	require.NoError(t, err)

	require.Len(t, artifacts, len(schema.SupportedViewPaths()))
	assert.Equal(t, "subscription-desktop-grid-view-vendor.png", artifacts[0].Name)

	for _, artifact := range artifacts {
		data, err := ws.Read(artifact)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestFetchSubstitutesPlaceholderForOmittedViews(t *testing.T) {
	t.Parallel()

	desc := fullDescriptor("order")
	desc.Views[schema.ViewStateDiagram] = ""

	exporter := &fakeExporter{}
	fetcher, err := NewFetcher(exporter, WithPlaceholderFrame(placeholderURL))
	require.NoError(t, err)

	artifacts, err := fetcher.Fetch(context.Background(), desc, newWorkspace(t))
	require.NoError(t, err)
	require.Len(t, artifacts, len(schema.SupportedViewPaths()))

	assert.Contains(t, exporter.calls, placeholderURL)
}

func TestFetchSkipsOmittedViewsWithoutPlaceholder(t *testing.T) {
	t.Parallel()

	desc := fullDescriptor("order")
	desc.Views[schema.ViewStateDiagram] = ""

	fetcher, err := NewFetcher(&fakeExporter{})
	require.NoError(t, err)

	artifacts, err := fetcher.Fetch(context.Background(), desc, newWorkspace(t))
	require.NoError(t, err)
	assert.Len(t, artifacts, len(schema.SupportedViewPaths())-1)
}

func TestFetchFailureCleansUpStagedArtifacts(t *testing.T) {
	t.Parallel()

	exporter := &fakeExporter{failFor: "state-diagram"}
	fetcher, err := NewFetcher(exporter)
	require.NoError(t, err)

	ws := newWorkspace(t)
	_, err = fetcher.Fetch(context.Background(), fullDescriptor("subscription"), ws)
	require.ErrorIs(t, err, ErrDiagramUnavailable)

	// Everything staged before the failure is removed again.
	desc := fullDescriptor("subscription")
	for _, view := range schema.SupportedViewPaths() {
		art := staging.Artifact{Path: ws.Root() + "/" + desc.ImageFileName(view)}
		_, readErr := ws.Read(art)
		assert.Error(t, readErr, "artifact for %s should not remain staged", view)
	}
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher, err := NewFetcher(&fakeExporter{})
	require.NoError(t, err)

	_, err = fetcher.Fetch(ctx, fullDescriptor("subscription"), newWorkspace(t))
	require.ErrorIs(t, err, context.Canceled)
}
