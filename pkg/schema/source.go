package schema

import "path/filepath"

// Source identifies where a collection of object schema files lives so the
// loader can operate on directories or fs.FS trees without leaking
// implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindDir SourceKind = "dir"
	SourceKindFS  SourceKind = "fs"
)

// dirSource identifies an on-disk schema directory.
type dirSource struct {
	path string
}

func (s dirSource) Location() string {
	return s.path
}

func (s dirSource) Kind() SourceKind {
	return SourceKindDir
}

// SourceFromDir returns a Source pointing to a schema directory on disk.
func SourceFromDir(path string) Source {
	return dirSource{path: filepath.Clean(path)}
}

// fsSource references a directory within an fs.FS supplied through
// LoaderOptions. Useful for tests and embedded fixtures.
type fsSource struct {
	name string
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() SourceKind {
	return SourceKindFS
}

// SourceFromFS returns a Source identifying a directory inside an fs.FS. Pass
// "." to load from the filesystem root.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}
