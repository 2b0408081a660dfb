package x509util

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
)

// CSRRequest holds the parameters for creating a CSR.
type CSRRequest struct {
	Subject Subject
	Key     crypto.Signer

	// SubjectAltName requests a SAN holding the common name.
	SubjectAltName bool

	// Rand is the signature entropy source. Defaults to crypto/rand.
	Rand io.Reader
}

// IssuedCSR is a signed PKCS#10 request together with its DER encoding.
type IssuedCSR struct {
	Request *x509.CertificateRequest
	DER     []byte
}

// PEM returns the request as a PEM "CERTIFICATE REQUEST" block.
func (c *IssuedCSR) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: PEMTypeCertificateRequest, Bytes: c.DER})
}

// CreateCSR builds a CSR signed by req.Key.
//
// The request carries the subject name and, when asked for, a SAN
// extension request. It never carries key identifiers or Basic
// Constraints. The self-signature is verified before returning.
func CreateCSR(req CSRRequest) (*IssuedCSR, error) {
	if req.Key == nil {
		return nil, fmt.Errorf("%w: no signing key", ErrSigning)
	}
	random := req.Rand
	if random == nil {
		random = rand.Reader
	}

	name, err := BuildName(req.Subject)
	if err != nil {
		return nil, err
	}

	exts, err := BuildExtensions(ExtensionContext{
		CommonName:       req.Subject.CommonName,
		SubjectPublicKey: req.Key.Public(),
	}, CSRPolicy(req.SubjectAltName))
	if err != nil {
		return nil, err
	}

	template := &x509.CertificateRequest{
		RawSubject:         name.Raw(),
		SignatureAlgorithm: x509.SHA256WithRSA,
		ExtraExtensions:    exts,
	}

	der, err := x509.CreateCertificateRequest(random, template, req.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	csr, err := x509.ParseCertificateRequest(der)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse created CSR: %v", ErrSigning, err)
	}
	if err := csr.CheckSignature(); err != nil {
		return nil, fmt.Errorf("%w: CSR signature check failed: %v", ErrSigning, err)
	}

	return &IssuedCSR{Request: csr, DER: der}, nil
}
