// Package confluence talks to the documentation-platform REST API: page
// lookup, create, update, and the attachment replace dance the sync pipeline
// relies on for idempotent image uploads.
package confluence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/Devgaze/mpt-objects-inventory/pkg/httpclient"
)

// Options configures the client.
type Options struct {
	// BaseURL is the wiki root, e.g. "https://example.atlassian.net/wiki".
	// Required.
	BaseURL string

	// Email and APIToken authenticate via basic auth, the cloud API
	// convention. Both required.
	Email    string
	APIToken string

	// Timeout, retry, and rate knobs forwarded to the underlying HTTP client.
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RateLimit      float64

	// Transport allows stubbing the network in tests.
	Transport http.RoundTripper
}

// Client implements the page and attachment operations.
type Client struct {
	http *httpclient.Client
}

// NewClient constructs a Client from options.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("confluence: base url is required")
	}
	if opts.Email == "" || opts.APIToken == "" {
		return nil, errors.New("confluence: email and api token are required")
	}

	httpc, err := httpclient.New(httpclient.Options{
		BaseURL:        opts.BaseURL,
		Auth:           httpclient.BasicAuth{Username: opts.Email, Password: opts.APIToken},
		Timeout:        opts.Timeout,
		MaxRetries:     opts.MaxRetries,
		RetryBaseDelay: opts.RetryBaseDelay,
		RateLimit:      opts.RateLimit,
		Transport:      opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("confluence: %w", err)
	}
	return &Client{http: httpc}, nil
}

// Page is the slice of remote page state the pipeline needs.
type Page struct {
	ID      string
	Title   string
	Version int
	Body    string
}

type pageResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

func (r pageResponse) toPage() Page {
	return Page{
		ID:      r.ID,
		Title:   r.Title,
		Version: r.Version.Number,
		Body:    r.Body.Storage.Value,
	}
}

// GetPage fetches a page with its storage body and version.
func (c *Client) GetPage(ctx context.Context, pageID string) (Page, error) {
	var result pageResponse
	query := url.Values{"expand": {"body.storage,version"}}
	if err := c.http.GetJSON(ctx, "/rest/api/content/"+pageID, query, &result); err != nil {
		return Page{}, fmt.Errorf("confluence: get page %s: %w", pageID, err)
	}
	return result.toPage(), nil
}

// CreatePage creates a page in the given space, optionally under a parent,
// and returns the assigned page state.
func (c *Client) CreatePage(ctx context.Context, spaceKey, parentID, title string, body string) (Page, error) {
	if spaceKey == "" {
		return Page{}, errors.New("confluence: space key is required to create pages")
	}

	payload := map[string]any{
		"type":  "page",
		"title": title,
		"space": map[string]string{"key": spaceKey},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          body,
				"representation": "storage",
			},
		},
	}
	if parentID != "" {
		payload["ancestors"] = []map[string]string{{"id": parentID}}
	}

	resp, err := c.http.PostJSON(ctx, "/rest/api/content", payload)
	if err != nil {
		return Page{}, fmt.Errorf("confluence: create page %q: %w", title, err)
	}

	var result pageResponse
	if err := resp.JSON(&result); err != nil {
		return Page{}, fmt.Errorf("confluence: decode created page: %w", err)
	}
	return result.toPage(), nil
}

// UpdatePage replaces the page body, bumping the version number. Title and
// current version come from a prior GetPage so concurrent editors surface as
// version conflicts rather than silent overwrites.
func (c *Client) UpdatePage(ctx context.Context, pageID, title, body string, currentVersion int) error {
	payload := map[string]any{
		"id":    pageID,
		"type":  "page",
		"title": title,
		"body": map[string]any{
			"storage": map[string]string{
				"value":          body,
				"representation": "storage",
			},
		},
		"version": map[string]int{"number": currentVersion + 1},
	}

	if _, err := c.http.PutJSON(ctx, "/rest/api/content/"+pageID, payload); err != nil {
		return fmt.Errorf("confluence: update page %s: %w", pageID, err)
	}
	return nil
}

type attachmentListResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// FindAttachment returns the id of the attachment with the given filename on
// a page, or an empty string when none exists.
func (c *Client) FindAttachment(ctx context.Context, pageID, filename string) (string, error) {
	query := url.Values{
		"filename": {filename},
		"expand":   {"version"},
	}
	var result attachmentListResponse
	err := c.http.GetJSON(ctx, "/rest/api/content/"+pageID+"/child/attachment", query, &result)
	if err != nil {
		return "", fmt.Errorf("confluence: find attachment %s on page %s: %w", filename, pageID, err)
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

// DeleteAttachment removes an attachment in the given status. Replacing an
// attachment requires deleting both the "current" and "trashed" revisions,
// otherwise the re-upload collides with the trashed copy.
func (c *Client) DeleteAttachment(ctx context.Context, attachmentID, status string) error {
	query := url.Values{"status": {status}}
	if _, err := c.http.Delete(ctx, "/rest/api/content/"+attachmentID, query); err != nil {
		return fmt.Errorf("confluence: delete attachment %s (%s): %w", attachmentID, status, err)
	}
	return nil
}

// UploadAttachment attaches an image to a page via multipart upload.
func (c *Client) UploadAttachment(ctx context.Context, pageID, filename string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("confluence: build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("confluence: build upload: %w", err)
	}
	if err := writer.WriteField("minorEdit", "true"); err != nil {
		return fmt.Errorf("confluence: build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("confluence: build upload: %w", err)
	}

	req := &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/rest/api/content/" + pageID + "/child/attachment",
		Body:   buf.Bytes(),
		Headers: map[string]string{
			"Content-Type":      writer.FormDataContentType(),
			"X-Atlassian-Token": "no-check",
		},
	}
	if _, err := c.http.Do(ctx, req); err != nil {
		return fmt.Errorf("confluence: upload attachment %s to page %s: %w", filename, pageID, err)
	}
	return nil
}
