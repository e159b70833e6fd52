package opc

import (
	"errors"
	"fmt"
)

// Sentinel errors for package-open failures.
//
// ErrNotFound and ErrCorruptArchive are deliberately distinct: a missing
// file is a harness wiring problem (wrong path, generator never ran), while
// a corrupt archive is a defect in the producer. Callers triage them
// differently, so they must never collapse into one error.
var (
	// ErrNotFound indicates the package file does not exist.
	ErrNotFound = errors.New("package file not found")

	// ErrCorruptArchive indicates the file exists but is not a readable
	// zip container. A zero-entry container is also reported as corrupt:
	// a spreadsheet package always carries at least [Content_Types].xml.
	ErrCorruptArchive = errors.New("corrupt package archive")
)

// OpenError wraps a package-open failure with the offending path.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open package %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a missing-file open failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCorrupt reports whether err is a corrupt-archive open failure.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptArchive)
}
