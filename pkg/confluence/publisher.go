package confluence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Devgaze/mpt-objects-inventory/pkg/httpclient"
	"github.com/Devgaze/mpt-objects-inventory/pkg/schema"
	"github.com/Devgaze/mpt-objects-inventory/pkg/staging"
)

// PublishError marks a documentation-platform rejection. It fails the object
// being published, never the whole run.
type PublishError struct {
	Object     string
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("confluence: publish %s: status %d: %v", e.Object, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("confluence: publish %s: %v", e.Object, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// API is the capability surface the publisher needs from the platform client.
type API interface {
	GetPage(ctx context.Context, pageID string) (Page, error)
	CreatePage(ctx context.Context, spaceKey, parentID, title, body string) (Page, error)
	UpdatePage(ctx context.Context, pageID, title, body string, currentVersion int) error
	FindAttachment(ctx context.Context, pageID, filename string) (string, error)
	DeleteAttachment(ctx context.Context, attachmentID, status string) error
	UploadAttachment(ctx context.Context, pageID, filename string, data []byte) error
}

var _ API = (*Client)(nil)

// PublisherOption customises publisher construction.
type PublisherOption func(*Publisher)

// WithSpace sets the space key and optional parent page used when creating
// pages for objects that have none yet. Without a space key, such objects
// fail to publish instead of silently landing somewhere surprising.
func WithSpace(spaceKey, parentPageID string) PublisherOption {
	return func(p *Publisher) {
		p.spaceKey = spaceKey
		p.parentID = parentPageID
	}
}

// WithBackups makes the publisher save the current remote page body into the
// staging workspace before overwriting it.
func WithBackups() PublisherOption {
	return func(p *Publisher) {
		p.backup = true
	}
}

// WithLogger injects a logger.
func WithLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Publisher upserts one object's page and attachments. Re-running a sync on
// an unchanged object converges: the second run finds the recorded page and
// issues an update, and attachments replace their previous versions by
// filename.
type Publisher struct {
	api      API
	spaceKey string
	parentID string
	backup   bool
	logger   *zap.Logger
}

// NewPublisher constructs a Publisher around an API implementation.
func NewPublisher(api API, options ...PublisherOption) (*Publisher, error) {
	if api == nil {
		return nil, errors.New("confluence: api is required")
	}
	p := &Publisher{
		api:    api,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p, nil
}

// Publish pushes the rendered body and staged diagrams to the object's page.
// When the descriptor has no page id, a page is created and the new id is
// recorded back onto the descriptor. Any remote rejection surfaces as a
// PublishError for this object only.
func (p *Publisher) Publish(ctx context.Context, desc *schema.Descriptor, artifacts []staging.Artifact, body []byte, ws *staging.Workspace) error {
	if desc == nil {
		return errors.New("confluence: descriptor is required")
	}

	if desc.PageID == "" {
		page, err := p.api.CreatePage(ctx, p.spaceKey, p.parentID, PageTitle(desc.Name), string(body))
		if err != nil {
			return p.wrap(desc.Name, err)
		}
		desc.PageID = page.ID
		p.logger.Info("created page",
			zap.String("object", desc.Name),
			zap.String("page_id", page.ID))
	}

	for _, artifact := range artifacts {
		if err := p.replaceAttachment(ctx, desc.PageID, artifact, ws); err != nil {
			return p.wrap(desc.Name, err)
		}
	}

	current, err := p.api.GetPage(ctx, desc.PageID)
	if err != nil {
		return p.wrap(desc.Name, err)
	}

	if p.backup && ws != nil && current.Body != "" {
		name := "current-page-" + desc.PageID + ".html"
		if _, err := ws.Stage(name, []byte(current.Body)); err != nil {
			p.logger.Warn("page backup failed", zap.String("object", desc.Name), zap.Error(err))
		}
	}

	if err := p.api.UpdatePage(ctx, desc.PageID, current.Title, string(body), current.Version); err != nil {
		return p.wrap(desc.Name, err)
	}

	p.logger.Info("published page",
		zap.String("object", desc.Name),
		zap.String("page_id", desc.PageID),
		zap.Int("attachments", len(artifacts)),
		zap.Int("version", current.Version+1))
	return nil
}

// replaceAttachment uploads one staged diagram, deleting any previous
// attachment with the same filename first so the page never accumulates
// stale image versions.
func (p *Publisher) replaceAttachment(ctx context.Context, pageID string, artifact staging.Artifact, ws *staging.Workspace) error {
	data, err := ws.Read(artifact)
	if err != nil {
		return err
	}

	existing, err := p.api.FindAttachment(ctx, pageID, artifact.Name)
	if err != nil {
		return err
	}
	if existing != "" {
		p.logger.Debug("replacing attachment",
			zap.String("attachment_id", existing),
			zap.String("filename", artifact.Name))
		if err := p.api.DeleteAttachment(ctx, existing, "current"); err != nil {
			return err
		}
		if err := p.api.DeleteAttachment(ctx, existing, "trashed"); err != nil {
			return err
		}
	}

	return p.api.UploadAttachment(ctx, pageID, artifact.Name, data)
}

func (p *Publisher) wrap(object string, err error) error {
	var publishErr *PublishError
	if errors.As(err, &publishErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return &PublishError{Object: object, StatusCode: httpErr.StatusCode, Err: err}
	}
	return &PublishError{Object: object, Err: err}
}

// PageTitle derives the documentation page title from an object name:
// "billing-account" becomes "Billing Account".
func PageTitle(objectName string) string {
	words := strings.Split(objectName, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
