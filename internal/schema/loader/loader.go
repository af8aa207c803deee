package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	pkgschema "github.com/Devgaze/mpt-objects-inventory/pkg/schema"
)

// Loader implements pkgschema.Loader for directory and fs.FS sources.
// Construction helpers live in the top-level objsync package.
type Loader struct {
	fs       fs.FS
	validate bool
}

var _ pkgschema.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options pkgschema.LoaderOptions) pkgschema.Loader {
	return &Loader{
		fs:       options.FileSystem,
		validate: options.Validate,
	}
}

// Load scans the source directory for schema files and parses each into a
// descriptor. Files that cannot be parsed or validated are recorded as
// ParseErrors; only directory-level failures abort the load. Descriptors are
// returned in lexical filename order so repeated runs process objects the
// same way.
func (l *Loader) Load(ctx context.Context, src pkgschema.Source) (pkgschema.Inventory, error) {
	if src == nil {
		return pkgschema.Inventory{}, errors.New("schema loader: source is nil")
	}

	fsys, root, err := l.resolve(src)
	if err != nil {
		return pkgschema.Inventory{}, err
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return pkgschema.Inventory{}, fmt.Errorf("schema loader: read %s: %w", src.Location(), err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isSchemaFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var inv pkgschema.Inventory
	seen := make(map[string]string, len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return pkgschema.Inventory{}, err
		}

		full := path.Join(root, name)
		data, err := fs.ReadFile(fsys, full)
		if err != nil {
			inv.Errors = append(inv.Errors, pkgschema.ParseError{File: name, Err: err})
			continue
		}

		desc, err := l.parse(name, data)
		if err != nil {
			inv.Errors = append(inv.Errors, pkgschema.ParseError{File: name, Err: err})
			continue
		}

		if prev, dup := seen[desc.Name]; dup {
			inv.Errors = append(inv.Errors, pkgschema.ParseError{
				File: name,
				Err:  fmt.Errorf("object %q already declared by %s", desc.Name, prev),
			})
			continue
		}
		seen[desc.Name] = name

		inv.Descriptors = append(inv.Descriptors, desc)
	}

	return inv, nil
}

func (l *Loader) resolve(src pkgschema.Source) (fs.FS, string, error) {
	switch src.Kind() {
	case pkgschema.SourceKindDir:
		if l.fs != nil {
			return l.fs, toFSPath(src.Location()), nil
		}
		abs, err := filepath.Abs(src.Location())
		if err != nil {
			return nil, "", fmt.Errorf("schema loader: resolve %s: %w", src.Location(), err)
		}
		return os.DirFS(abs), ".", nil
	case pkgschema.SourceKindFS:
		if l.fs == nil {
			return nil, "", errors.New("schema loader: fs source requires a configured filesystem")
		}
		return l.fs, toFSPath(src.Location()), nil
	default:
		return nil, "", fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
}

func (l *Loader) parse(file string, data []byte) (pkgschema.Descriptor, error) {
	doc, err := decodeDocument(file, data)
	if err != nil {
		return pkgschema.Descriptor{}, err
	}

	if l.validate {
		if err := validateDocument(doc); err != nil {
			return pkgschema.Descriptor{}, err
		}
	}

	name, _ := stringField(doc, "name")
	if name == "" {
		name = strings.TrimSuffix(file, filepath.Ext(file))
	}

	desc := pkgschema.Descriptor{
		Name:       name,
		SourceFile: file,
		Views:      make(map[pkgschema.ViewPath]string, len(pkgschema.SupportedViewPaths())),
	}
	desc.Description, _ = stringField(doc, "description")
	desc.PageURL, _ = stringField(doc, "confluence-page")
	desc.PageID = pkgschema.PageIDFromURL(desc.PageURL)

	for _, view := range pkgschema.SupportedViewPaths() {
		value, ok := lookupPath(doc, view.Segments())
		if !ok {
			return pkgschema.Descriptor{}, fmt.Errorf("reference not found for path %s", view)
		}
		url, _ := value.(string)
		desc.Views[view] = url
	}

	return desc, nil
}

// decodeDocument parses the raw file as JSON or YAML depending on extension.
func decodeDocument(file string, data []byte) (map[string]any, error) {
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	if doc == nil {
		return nil, errors.New("document is empty")
	}
	return doc, nil
}

// lookupPath walks nested maps following the segment chain. The boolean is
// false when an intermediate key is missing; a present key with a null value
// returns (nil, true) so callers can distinguish "omitted view" from
// "malformed schema".
func lookupPath(doc map[string]any, segments []string) (any, bool) {
	var current any = doc
	for _, key := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringField(doc map[string]any, key string) (string, bool) {
	value, ok := doc[key]
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return strings.TrimSpace(s), ok
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// toFSPath normalises an OS-style location into an io/fs path.
func toFSPath(location string) string {
	clean := path.Clean(filepath.ToSlash(location))
	if clean == "" || clean == "/" {
		return "."
	}
	return strings.TrimPrefix(clean, "/")
}
