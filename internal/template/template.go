// Package template loads certificate requests from YAML templates and
// derives bundle requests from key file paths.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/remiblancher/mkcert/internal/x509util"
)

// CertificateRequest is one entry of a template file.
type CertificateRequest struct {
	CommonName          string `yaml:"common_name"`
	Organization        string `yaml:"organization"`
	Locality            string `yaml:"locality"`
	State               string `yaml:"state"`
	Country             string `yaml:"country"`
	KeySizeBits         uint   `yaml:"key_size_bits"`
	SelfSigned          bool   `yaml:"self_signed"`
	DaysUntilExpiration *uint  `yaml:"days_until_expiration,omitempty"`
}

// Subject returns the request's distinguished name attributes.
func (r CertificateRequest) Subject() x509util.Subject {
	return x509util.Subject{
		Country:      r.Country,
		State:        r.State,
		Locality:     r.Locality,
		Organization: r.Organization,
		CommonName:   r.CommonName,
	}
}

// ValidityDays returns the requested validity, or defaultDays when the
// template does not set one.
func (r CertificateRequest) ValidityDays(defaultDays uint) uint {
	if r.DaysUntilExpiration != nil {
		return *r.DaysUntilExpiration
	}
	return defaultDays
}

// Validate checks the fields the template layer owns. Name attribute
// encoding is checked when the name is built.
func (r CertificateRequest) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"common_name", r.CommonName},
		{"organization", r.Organization},
		{"locality", r.Locality},
		{"state", r.State},
		{"country", r.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Index: -1, Field: f.field, Message: "is required"}
		}
	}
	if r.KeySizeBits == 0 {
		return &ValidationError{Index: -1, Field: "key_size_bits", Message: "is required"}
	}
	if r.DaysUntilExpiration != nil && *r.DaysUntilExpiration == 0 {
		return &ValidationError{Index: -1, Field: "days_until_expiration", Message: "must be at least 1"}
	}
	return nil
}

// ParseCertificates decodes a template: a YAML sequence of certificate
// requests. Unknown keys are rejected. An empty document yields no requests.
func ParseCertificates(data []byte) ([]CertificateRequest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var reqs []CertificateRequest
	if err := dec.Decode(&reqs); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Err: err}
	}

	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Index = i
			}
			return nil, err
		}
	}
	return reqs, nil
}

// LoadFile reads and parses one template file.
func LoadFile(path string) ([]CertificateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	reqs, err := ParseCertificates(data)
	if err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Source = path
		}
		return nil, err
	}
	return reqs, nil
}

// LoadFiles loads each template in order and concatenates the requests.
func LoadFiles(paths ...string) ([]CertificateRequest, error) {
	var all []CertificateRequest
	for _, path := range paths {
		reqs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, reqs...)
	}
	return all, nil
}

// MarshalCertificates encodes requests in template format.
func MarshalCertificates(reqs []CertificateRequest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(reqs); err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	return buf.Bytes(), nil
}
