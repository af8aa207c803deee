// Package figma talks to the design-tool API: it resolves schema frame URLs
// into rendered PNG exports. Only the two operations the sync pipeline needs
// are implemented: node export and image download.
package figma

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Devgaze/mpt-objects-inventory/internal/figmaurl"
	"github.com/Devgaze/mpt-objects-inventory/pkg/httpclient"
)

// DefaultBaseURL is the public design-tool API endpoint.
const DefaultBaseURL = "https://api.figma.com"

// ErrDiagramUnavailable marks a frame that could not be exported: the node
// does not exist, the file is not readable with the configured token, or the
// export kept failing after retries. It is recoverable per object; the sync
// run continues with the remaining objects.
var ErrDiagramUnavailable = errors.New("figma: diagram unavailable")

// Options configures the client.
type Options struct {
	// Token authenticates against the API. Required.
	Token string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// Scale is the export scale factor. Default 2 for crisper diagrams.
	Scale int

	// Format is the export image format. Default "png".
	Format string

	// Timeout, retry, and rate knobs forwarded to the underlying HTTP client.
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RateLimit      float64

	// Transport allows stubbing the network in tests.
	Transport http.RoundTripper
}

// Client implements frame export against the design-tool API.
type Client struct {
	http   *httpclient.Client
	scale  int
	format string
}

// NewClient constructs a Client from options.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("figma: api token is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 2
	}
	format := opts.Format
	if format == "" {
		format = "png"
	}

	httpc, err := httpclient.New(httpclient.Options{
		BaseURL:        baseURL,
		Auth:           httpclient.HeaderToken{Header: "X-Figma-Token", Token: opts.Token},
		Timeout:        opts.Timeout,
		MaxRetries:     opts.MaxRetries,
		RetryBaseDelay: opts.RetryBaseDelay,
		RateLimit:      opts.RateLimit,
		Transport:      opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("figma: %w", err)
	}

	return &Client{http: httpc, scale: scale, format: format}, nil
}

// imagesResponse mirrors the export endpoint payload. The response keys node
// ids with colons even when the request used hyphens.
type imagesResponse struct {
	Err    string            `json:"err"`
	Images map[string]string `json:"images"`
}

// ExportPNG renders the frame referenced by a share URL and returns the image
// bytes. Frames the API cannot resolve yield ErrDiagramUnavailable.
func (c *Client) ExportPNG(ctx context.Context, frameURL string) ([]byte, error) {
	fileKey, err := figmaurl.FileKey(frameURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramUnavailable, err)
	}
	nodeID, err := figmaurl.NodeID(frameURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramUnavailable, err)
	}

	query := url.Values{
		"ids":    {nodeID},
		"format": {c.format},
		"scale":  {strconv.Itoa(c.scale)},
	}

	var result imagesResponse
	if err := c.http.GetJSON(ctx, "/v1/images/"+fileKey, query, &result); err != nil {
		return nil, exportError(err)
	}
	if result.Err != "" {
		return nil, fmt.Errorf("%w: export failed: %s", ErrDiagramUnavailable, result.Err)
	}

	imageURL := result.Images[figmaurl.CanonicalNodeID(nodeID)]
	if imageURL == "" {
		return nil, fmt.Errorf("%w: node %s not found in file %s", ErrDiagramUnavailable, nodeID, fileKey)
	}

	resp, err := c.http.Do(ctx, &httpclient.Request{
		Method:      http.MethodGet,
		AbsoluteURL: imageURL,
	})
	if err != nil {
		return nil, exportError(err)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("%w: empty image payload for node %s", ErrDiagramUnavailable, nodeID)
	}
	return resp.Body, nil
}

// exportError folds API failures into the per-object error kind while keeping
// the underlying cause visible. Cancellation passes through untouched so the
// orchestrator can tell an aborted run from a failed object.
func exportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: access denied, token may be expired or lack file access: %v", ErrDiagramUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrDiagramUnavailable, err)
}
