// Package staging manages the local scratch space where fetched diagram
// images live between export and publish. Every run gets its own directory so
// concurrent object pipelines never collide, and the whole tree is disposable.
package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
)

// Artifact is one staged file: a byte payload written to a unique path plus
// its content fingerprint.
type Artifact struct {
	// Name is the artifact filename, e.g. "subscription-state-diagram.png".
	Name string

	// Path is the run-relative staging path.
	Path string

	// Size is the payload length in bytes.
	Size int64

	// SHA256 is the hex-encoded content fingerprint.
	SHA256 string
}

// Option customises workspace construction.
type Option func(*config)

type config struct {
	fs      billy.Filesystem
	baseDir string
}

// WithFilesystem injects a billy filesystem. memfs is handy in tests.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(cfg *config) {
		cfg.fs = fs
	}
}

// WithBaseDir overrides the directory under which run workspaces are created.
// Defaults to "build", matching the historical staging folder.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		if dir != "" {
			cfg.baseDir = dir
		}
	}
}

// Workspace is a run-scoped staging directory. Safe for concurrent Stage
// calls as long as artifact names are distinct, which descriptor-prefixed
// filenames guarantee.
type Workspace struct {
	fs   billy.Filesystem
	root string
}

// NewWorkspace creates a fresh run directory beneath the base dir.
func NewWorkspace(options ...Option) (*Workspace, error) {
	cfg := config{baseDir: "build"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.fs == nil {
		cfg.fs = osfs.New(".")
	}

	root := path.Join(cfg.baseDir, "run-"+uuid.NewString())
	if err := cfg.fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create workspace %s: %w", root, err)
	}

	return &Workspace{fs: cfg.fs, root: root}, nil
}

// Root returns the run directory path relative to the workspace filesystem.
func (w *Workspace) Root() string {
	return w.root
}

// Stage writes the payload under the run directory and returns the resulting
// artifact with its fingerprint.
func (w *Workspace) Stage(name string, data []byte) (Artifact, error) {
	if name == "" {
		return Artifact{}, errors.New("staging: artifact name is required")
	}
	if len(data) == 0 {
		return Artifact{}, fmt.Errorf("staging: artifact %s has no payload", name)
	}

	target := path.Join(w.root, name)
	if err := util.WriteFile(w.fs, target, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("staging: write %s: %w", target, err)
	}

	sum := sha256.Sum256(data)
	return Artifact{
		Name:   name,
		Path:   target,
		Size:   int64(len(data)),
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}

// Read loads a staged artifact's payload back from disk.
func (w *Workspace) Read(a Artifact) ([]byte, error) {
	data, err := util.ReadFile(w.fs, a.Path)
	if err != nil {
		return nil, fmt.Errorf("staging: read %s: %w", a.Path, err)
	}
	return data, nil
}

// Remove deletes individual staged artifacts. Missing files are ignored so
// per-object cleanup stays idempotent.
func (w *Workspace) Remove(artifacts ...Artifact) error {
	var errs []error
	for _, a := range artifacts {
		if err := w.fs.Remove(a.Path); err != nil {
			if _, statErr := w.fs.Stat(a.Path); statErr != nil {
				continue // already gone
			}
			errs = append(errs, fmt.Errorf("staging: remove %s: %w", a.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Cleanup removes the entire run directory.
func (w *Workspace) Cleanup() error {
	if err := util.RemoveAll(w.fs, w.root); err != nil {
		return fmt.Errorf("staging: cleanup %s: %w", w.root, err)
	}
	return nil
}
