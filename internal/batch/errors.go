package batch

import (
	"errors"
	"fmt"
)

// Sentinel errors for batch processing.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrFileExists indicates an output file is already present.
	ErrFileExists = errors.New("file already exists")

	// ErrMissingCertificate indicates a bundle's sibling .crt file is absent.
	ErrMissingCertificate = errors.New("missing certificate file")
)

// Kind identifies the request type that failed.
type Kind string

const (
	KindCertificate Kind = "certificate"
	KindBundle      Kind = "bundle"
)

// RequestError reports the request that aborted a run.
// It supports errors.Is() and errors.As() through the underlying error.
type RequestError struct {
	Kind Kind   // Request type
	Name string // Common name or friendly name
	Path string // File involved, if any
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s '%s' (%s): %v", e.Kind, e.Name, e.Path, e.Err)
	}
	return fmt.Sprintf("%s '%s': %v", e.Kind, e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RequestError) Unwrap() error { return e.Err }
