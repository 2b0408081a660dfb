package template

import (
	"fmt"
	"path/filepath"
	"strings"
)

// KeyFileExt is the extension of private key files.
const KeyFileExt = ".key"

// BundleRequest names a key file to package with its sibling certificate.
type BundleRequest struct {
	PrivateKeyFile string
}

// NewBundleRequest validates path and returns the request for it.
func NewBundleRequest(path string) (BundleRequest, error) {
	if filepath.Ext(path) != KeyFileExt || strings.TrimSuffix(filepath.Base(path), KeyFileExt) == "" {
		return BundleRequest{}, &ValidationError{
			Index:   -1,
			Message: fmt.Sprintf("Expected a .key file: '%s'", path),
		}
	}
	return BundleRequest{PrivateKeyFile: path}, nil
}

// NewBundleRequests validates each path in order.
func NewBundleRequests(paths ...string) ([]BundleRequest, error) {
	reqs := make([]BundleRequest, 0, len(paths))
	for _, path := range paths {
		req, err := NewBundleRequest(path)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (r BundleRequest) stem() string {
	return strings.TrimSuffix(r.PrivateKeyFile, KeyFileExt)
}

// CertificateFile is the sibling certificate: <stem>.crt.
func (r BundleRequest) CertificateFile() string {
	return r.stem() + ".crt"
}

// ArchiveFile is the PKCS#12 output: <stem>.p12.
func (r BundleRequest) ArchiveFile() string {
	return r.stem() + ".p12"
}

// FriendlyName is the key file's base name without extension.
func (r BundleRequest) FriendlyName() string {
	return filepath.Base(r.stem())
}
