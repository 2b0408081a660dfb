package x509util

import (
	"errors"
	"fmt"
)

// EncodingError reports a distinguished name attribute that cannot be
// represented in its ASN.1 string type.
// It supports errors.Is(err, ErrEncoding).
type EncodingError struct {
	Attribute string // Short name: C, ST, L, O, CN
	Value     string // Offending value
	Reason    string
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid %s attribute %q: %s", e.Attribute, e.Value, e.Reason)
}

// Unwrap returns ErrEncoding for errors.Is support.
func (e *EncodingError) Unwrap() error { return ErrEncoding }

// Sentinel errors for X.509 building operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrEncoding indicates a name attribute is not representable.
	ErrEncoding = errors.New("name attribute encoding failed")

	// ErrExtension indicates an extension could not be derived or encoded.
	ErrExtension = errors.New("invalid extension")

	// ErrSigning indicates the signing primitive rejected the key or template.
	ErrSigning = errors.New("signing failed")

	// ErrSerialNumber indicates a serial number could not be generated.
	ErrSerialNumber = errors.New("serial number generation failed")
)

// ErrValidity indicates a validity window that cannot be issued.
var ErrValidity = errors.New("invalid validity period")
