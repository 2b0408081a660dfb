// Package bundle packages a private key and its certificate into a
// passphrase-protected PKCS#12 archive.
package bundle

import (
	"crypto"
	"crypto/x509"
	"fmt"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// DefaultIterations is the PBKDF2 iteration count of the archive.
const DefaultIterations = 2048

// Input is what goes into one archive.
type Input struct {
	// FriendlyName is bound to the key and certificate bags.
	FriendlyName string
	Key          crypto.Signer
	Certificate  *x509.Certificate
	Passphrase   []byte
}

// Contents is what Verify read back from an archive.
type Contents struct {
	FriendlyName string
	Key          crypto.PrivateKey
	Certificate  *x509.Certificate
	CACerts      []*x509.Certificate
}

// Bundler encodes PKCS#12 archives with PBES2 (PBKDF2-HMAC-SHA-256,
// AES-256-CBC) and an HMAC-SHA-256 MAC.
type Bundler struct {
	iterations int
}

// NewBundler creates a Bundler. A non-positive iteration count selects
// DefaultIterations.
func NewBundler(iterations int) *Bundler {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Bundler{iterations: iterations}
}

// Iterations returns the KDF iteration count used for new archives.
func (b *Bundler) Iterations() int {
	return b.iterations
}

// Bundle produces the DER archive holding in.Key and in.Certificate.
// The key must be the certificate's key; a mismatch fails before
// anything is encoded.
func (b *Bundler) Bundle(in Input) ([]byte, error) {
	if in.Key == nil || in.Certificate == nil {
		return nil, fmt.Errorf("%w: %s: key and certificate are required", ErrBundle, in.FriendlyName)
	}
	if len(in.Passphrase) == 0 {
		return nil, fmt.Errorf("%w: %s: passphrase must not be empty", ErrBundle, in.FriendlyName)
	}
	if err := CheckKeyMatch(in.Key, in.Certificate); err != nil {
		return nil, fmt.Errorf("%s: %w", in.FriendlyName, err)
	}

	der, err := encoder{iterations: b.iterations}.encode(in.Key, in.Certificate, in.FriendlyName, in.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBundle, in.FriendlyName, err)
	}
	return der, nil
}

// Verify decodes archive with passphrase and checks the key matches the
// leaf certificate.
func (b *Bundler) Verify(archive, passphrase []byte) (*Contents, error) {
	key, cert, caCerts, err := pkcs12.DecodeChain(archive, string(passphrase))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBundle, err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrBundle, key)
	}
	if err := CheckKeyMatch(signer, cert); err != nil {
		return nil, err
	}

	return &Contents{
		FriendlyName: friendlyName(archive, passphrase),
		Key:          key,
		Certificate:  cert,
		CACerts:      caCerts,
	}, nil
}

// friendlyName returns the first friendlyName bag attribute, or "" when
// the archive carries none or has more bags than ToPEM reads.
func friendlyName(archive, passphrase []byte) string {
	blocks, err := pkcs12.ToPEM(archive, string(passphrase))
	if err != nil {
		return ""
	}
	for _, block := range blocks {
		if name := block.Headers["friendlyName"]; name != "" {
			return name
		}
	}
	return ""
}

// CheckKeyMatch reports ErrKeyMismatch unless key is the private half of
// cert's public key.
func CheckKeyMatch(key crypto.Signer, cert *x509.Certificate) error {
	pub, ok := key.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(cert.PublicKey) {
		return ErrKeyMismatch
	}
	return nil
}
