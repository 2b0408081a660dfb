package x509util

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"time"
)

// PEM block types written by mkcert.
const (
	PEMTypeCertificate        = "CERTIFICATE"
	PEMTypeCertificateRequest = "CERTIFICATE REQUEST"
)

// IssueRequest holds the parameters for a self-signed certificate.
type IssueRequest struct {
	Subject      Subject
	Key          crypto.Signer
	ValidityDays uint

	// Now returns the issuance time. Defaults to time.Now.
	Now func() time.Time

	// Rand is the entropy source for the serial number and signature.
	// Defaults to crypto/rand.
	Rand io.Reader
}

// Issued is a signed certificate together with its DER encoding.
type Issued struct {
	Certificate *x509.Certificate
	DER         []byte
}

// PEM returns the certificate as a PEM "CERTIFICATE" block.
func (i *Issued) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: PEMTypeCertificate, Bytes: i.DER})
}

// IssueSelfSigned builds and signs a self-signed CA certificate for req.
//
// The subject is encoded by BuildName, the extensions by BuildExtensions
// with SelfSignedPolicy. Issuer and subject are the same encoded name.
// The returned certificate is re-parsed from the signed DER.
func IssueSelfSigned(req IssueRequest) (*Issued, error) {
	if req.Key == nil {
		return nil, fmt.Errorf("%w: no signing key", ErrSigning)
	}
	if req.ValidityDays == 0 {
		return nil, fmt.Errorf("%w: validity must be at least one day", ErrValidity)
	}
	random := req.Rand
	if random == nil {
		random = rand.Reader
	}

	name, err := BuildName(req.Subject)
	if err != nil {
		return nil, err
	}

	serial, err := NewSerialNumberWithRand(random)
	if err != nil {
		return nil, err
	}

	notBefore, notAfter := ValidityWindow(req.now(), req.ValidityDays)

	exts, err := BuildExtensions(ExtensionContext{
		CommonName:       req.Subject.CommonName,
		SubjectPublicKey: req.Key.Public(),
	}, SelfSignedPolicy)
	if err != nil {
		return nil, err
	}

	// IsCA, SubjectKeyId and AuthorityKeyId stay unset: the extensions are
	// supplied explicitly so crypto/x509 does not derive its own.
	template := &x509.Certificate{
		SerialNumber:       serial,
		RawSubject:         name.Raw(),
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		SignatureAlgorithm: x509.SHA256WithRSA,
		ExtraExtensions:    exts,
	}

	der, err := x509.CreateCertificate(random, template, template, req.Key.Public(), req.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse created certificate: %v", ErrSigning, err)
	}

	return &Issued{Certificate: cert, DER: der}, nil
}

// ValidityWindow returns [now, now + days] with now truncated to the
// second, the resolution of the encoded time.
func ValidityWindow(now time.Time, days uint) (notBefore, notAfter time.Time) {
	notBefore = now.UTC().Truncate(time.Second)
	notAfter = notBefore.Add(time.Duration(days) * 24 * time.Hour)
	return notBefore, notAfter
}

func (r IssueRequest) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
