package bundle

import "errors"

// Sentinel errors for PKCS#12 bundling.
var (
	// ErrBundle indicates the archive could not be produced or read back.
	ErrBundle = errors.New("PKCS#12 bundling failed")

	// ErrKeyMismatch indicates the private key does not belong to the certificate.
	ErrKeyMismatch = errors.New("private key does not match certificate")
)
