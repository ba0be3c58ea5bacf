package discovery

import (
	"fmt"
)

// ErrorKind classifies a discovery failure
type ErrorKind int

const (
	// KindDirectoryNotFound means the discovery path does not exist
	KindDirectoryNotFound ErrorKind = iota
	// KindNoProceduresFound means scanning produced no valid collections
	KindNoProceduresFound
	// KindInvalidExport means an export resembled a collection but failed
	// structural validation
	KindInvalidExport
	// KindFileLoadError means a matched file could not be loaded
	KindFileLoadError
	// KindPermissionDenied means a path could not be read
	KindPermissionDenied
	// KindInvalidFileType means the discovery path is not a directory
	KindInvalidFileType
)

// String returns the string representation of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindDirectoryNotFound:
		return "directory_not_found"
	case KindNoProceduresFound:
		return "no_procedures_found"
	case KindInvalidExport:
		return "invalid_export"
	case KindFileLoadError:
		return "file_load_error"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidFileType:
		return "invalid_file_type"
	default:
		return "unknown"
	}
}

// Error is a typed discovery failure carrying the offending path and an
// actionable fix hint.
type Error struct {
	Kind   ErrorKind
	File   string
	Export string
	Hint   string
	Err    error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("discovery failed (%s)", e.Kind)
	if e.File != "" {
		msg += ": " + e.File
	}
	if e.Export != "" {
		msg += fmt.Sprintf(" export %q", e.Export)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " — " + e.Hint
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

func directoryNotFound(path string, err error) *Error {
	return &Error{
		Kind: KindDirectoryNotFound,
		File: path,
		Hint: "check the procedures directory path in your configuration",
		Err:  err,
	}
}

func invalidFileType(path string) *Error {
	return &Error{
		Kind: KindInvalidFileType,
		File: path,
		Hint: "discovery expects a directory, not a file",
	}
}

func permissionDenied(path string, err error) *Error {
	return &Error{
		Kind: KindPermissionDenied,
		File: path,
		Hint: "fix the file permissions so the process can read it",
		Err:  err,
	}
}

func fileLoadError(path string, err error) *Error {
	return &Error{
		Kind: KindFileLoadError,
		File: path,
		Hint: "fix the file so it parses, or exclude it from discovery",
		Err:  err,
	}
}

func invalidExport(path, export string, err error) *Error {
	return &Error{
		Kind:   KindInvalidExport,
		File:   path,
		Export: export,
		Hint:   "fix the collection definition, or set OnInvalidExport to warn to skip it",
		Err:    err,
	}
}

func noFilesScanned(path string) *Error {
	return &Error{
		Kind: KindNoProceduresFound,
		File: path,
		Hint: "no files matched; check the extension and exclude filters",
	}
}

func noValidCollections(path string) *Error {
	return &Error{
		Kind: KindNoProceduresFound,
		File: path,
		Hint: "files were scanned but none exported a valid collection",
	}
}
