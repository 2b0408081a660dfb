package template

import (
	"errors"
	"fmt"
)

// Sentinel errors for template loading.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrConfig indicates a template file is unreadable or not valid YAML.
	ErrConfig = errors.New("invalid YAML file")

	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation failed")
)

// ConfigError reports a template file that could not be loaded.
// It supports errors.Is(err, ErrConfig) and exposes the cause.
type ConfigError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%v '%s': %v", ErrConfig, e.Path, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrConfig, e.Err)
}

// Unwrap returns ErrConfig and the cause.
func (e *ConfigError) Unwrap() []error { return []error{ErrConfig, e.Err} }

// ValidationError represents a specific validation failure within a request.
type ValidationError struct {
	Source  string // Template path or bundle argument
	Index   int    // Position of the request in its template, -1 when not applicable
	Field   string // Field that failed validation
	Message string // Description of the validation failure
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var where string
	switch {
	case e.Source != "" && e.Index >= 0:
		where = fmt.Sprintf("%s[%d]: ", e.Source, e.Index)
	case e.Index >= 0:
		where = fmt.Sprintf("request %d: ", e.Index)
	case e.Source != "":
		where = e.Source + ": "
	}
	if e.Field != "" {
		return fmt.Sprintf("%s%s: %s", where, e.Field, e.Message)
	}
	return where + e.Message
}

// Unwrap returns ErrValidation for errors.Is support.
func (e *ValidationError) Unwrap() error { return ErrValidation }
