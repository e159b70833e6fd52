package opc

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Kind classifies a package entry by what the comparison pipeline should
// do with it.
type Kind int

const (
	// KindXML is a regular XML part (worksheets, styles, shared strings).
	KindXML Kind = iota

	// KindRels is a relationship descriptor (_rels/*.rels). Relationship
	// parts are XML too, but rule sets address them separately because
	// their element order is never semantic.
	KindRels

	// KindBinary is a non-XML asset (images, thumbnails, VBA blobs).
	// Binary entries are compared by raw byte equality.
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindXML:
		return "xml"
	case KindRels:
		return "rels"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is one named file inside a package.
//
// Bytes are not read until Data is called. Paths use forward slashes and
// are unique within a package (enforced at open time).
type Entry struct {
	// Path is the entry name inside the container, e.g. "xl/worksheets/sheet1.xml".
	Path string

	// Kind is the declared content kind, derived from the path.
	Kind Kind

	file *zip.File
}

// Data reads and returns the entry's raw bytes.
func (e *Entry) Data() ([]byte, error) {
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", e.Path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", e.Path, err)
	}
	return data, nil
}

// Package is an opened spreadsheet container.
//
// A Package holds a read handle on the underlying file until Close is
// called. Entries are listed in deterministic (sorted) path order
// regardless of the order the producer wrote them.
type Package struct {
	// Path is the filesystem path the package was opened from.
	Path string

	reader  *zip.ReadCloser
	entries []*Entry
	byPath  map[string]*Entry
}

// Open opens the package at path.
//
// Failure modes:
//   - missing file: error wrapping ErrNotFound
//   - unreadable or zero-entry container: error wrapping ErrCorruptArchive
//   - duplicate entry paths: error wrapping ErrCorruptArchive
//
// The caller owns the returned Package and must Close it.
func Open(pkgPath string) (*Package, error) {
	if _, err := os.Stat(pkgPath); err != nil {
		if os.IsNotExist(err) {
			return nil, &OpenError{Path: pkgPath, Err: ErrNotFound}
		}
		return nil, &OpenError{Path: pkgPath, Err: err}
	}

	reader, err := zip.OpenReader(pkgPath)
	if err != nil {
		// zip.OpenReader conflates all read failures; the file exists at
		// this point, so anything here is a malformed container.
		return nil, &OpenError{Path: pkgPath, Err: fmt.Errorf("%w: %v", ErrCorruptArchive, err)}
	}

	pkg := &Package{
		Path:   pkgPath,
		reader: reader,
		byPath: make(map[string]*Entry, len(reader.File)),
	}

	for _, f := range reader.File {
		name := path.Clean(f.Name)
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			continue // directory markers carry no content
		}
		if _, dup := pkg.byPath[name]; dup {
			reader.Close()
			return nil, &OpenError{
				Path: pkgPath,
				Err:  fmt.Errorf("%w: duplicate entry %q", ErrCorruptArchive, name),
			}
		}
		entry := &Entry{Path: name, Kind: classify(name), file: f}
		pkg.byPath[name] = entry
		pkg.entries = append(pkg.entries, entry)
	}

	if len(pkg.entries) == 0 {
		reader.Close()
		return nil, &OpenError{Path: pkgPath, Err: fmt.Errorf("%w: no entries", ErrCorruptArchive)}
	}

	sort.Slice(pkg.entries, func(i, j int) bool {
		return pkg.entries[i].Path < pkg.entries[j].Path
	})

	return pkg, nil
}

// Close releases the underlying file handle.
// Safe to call more than once.
func (p *Package) Close() error {
	if p.reader == nil {
		return nil
	}
	err := p.reader.Close()
	p.reader = nil
	return err
}

// Entries returns all entries in sorted path order.
func (p *Package) Entries() []*Entry {
	return p.entries
}

// Entry returns the entry at path, or nil if the package has none.
func (p *Package) Entry(path string) *Entry {
	return p.byPath[path]
}

// Paths returns all entry paths in sorted order.
func (p *Package) Paths() []string {
	paths := make([]string, len(p.entries))
	for i, e := range p.entries {
		paths[i] = e.Path
	}
	return paths
}

// classify derives the content kind from an entry path.
//
// Anything ending in .xml or .rels is parsed as XML; everything else is an
// opaque binary asset. The .vml drawing format is legacy but still XML.
func classify(name string) Kind {
	switch {
	case strings.HasSuffix(name, ".rels"):
		return KindRels
	case strings.HasSuffix(name, ".xml"), strings.HasSuffix(name, ".vml"):
		return KindXML
	default:
		return KindBinary
	}
}
