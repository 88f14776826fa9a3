package copier

import (
	"errors"
	"fmt"
	"os"
)

// Kind classifies why a copy failed.
type Kind int

const (
	// KindIO is any failure that is not classified more precisely.
	KindIO Kind = iota
	// KindSourceNotFound means the source tree (or an entry in it) is missing.
	KindSourceNotFound
	// KindPermissionDenied means a read or write was refused by the OS.
	KindPermissionDenied
	// KindDestinationUnwritable means the destination cannot be created,
	// cleared or written.
	KindDestinationUnwritable
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSourceNotFound:
		return "source not found"
	case KindPermissionDenied:
		return "permission denied"
	case KindDestinationUnwritable:
		return "destination unwritable"
	default:
		return "i/o error"
	}
}

// Error is returned by every failing Copier operation. Whatever was copied
// before the failure stays on disk.
type Error struct {
	Kind Kind   // Failure class
	Path string // Path the failure refers to
	Err  error  // Underlying error
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("copy failed (%s): %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("copy failed (%s): %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a copier Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var copyErr *Error
	if errors.As(err, &copyErr) {
		return copyErr.Kind == kind
	}
	return false
}

// classifyRead maps an error raised while reading the source tree.
func classifyRead(path string, err error) *Error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &Error{Kind: KindSourceNotFound, Path: path, Err: err}
	case errors.Is(err, os.ErrPermission):
		return &Error{Kind: KindPermissionDenied, Path: path, Err: err}
	default:
		return &Error{Kind: KindIO, Path: path, Err: err}
	}
}

// classifyWrite maps an error raised while writing the destination tree.
func classifyWrite(path string, err error) *Error {
	if errors.Is(err, os.ErrPermission) {
		return &Error{Kind: KindPermissionDenied, Path: path, Err: err}
	}
	return &Error{Kind: KindDestinationUnwritable, Path: path, Err: err}
}
