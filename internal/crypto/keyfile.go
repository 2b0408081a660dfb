package crypto

import (
	"crypto"
	"crypto/rsa"
	"encoding/pem"
	"fmt"

	"github.com/youmark/pkcs8"
)

// PEMTypeEncryptedPrivateKey is the PEM block type of an encrypted PKCS#8 key.
const PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"

// DefaultKDFIterations is the PBKDF2 iteration count for key files.
const DefaultKDFIterations = 10000

const kdfSaltSize = 16

// KeyFileOptions controls how key files are encrypted.
type KeyFileOptions struct {
	// Iterations is the PBKDF2 iteration count. Zero means DefaultKDFIterations.
	Iterations int
}

func (o KeyFileOptions) pkcs8Opts() *pkcs8.Opts {
	iterations := o.Iterations
	if iterations <= 0 {
		iterations = DefaultKDFIterations
	}
	return &pkcs8.Opts{
		Cipher: pkcs8.AES256CBC,
		KDFOpts: pkcs8.PBKDF2Opts{
			SaltSize:       kdfSaltSize,
			IterationCount: iterations,
			HMACHash:       crypto.SHA256,
		},
	}
}

// EncryptPrivateKeyPEM encodes key as a PEM "ENCRYPTED PRIVATE KEY" block:
// PKCS#8 PBES2 with PBKDF2-HMAC-SHA-256 and AES-256-CBC.
// An empty passphrase is rejected, so a key is never written in the clear.
func EncryptPrivateKeyPEM(key *rsa.PrivateKey, passphrase []byte, opts KeyFileOptions) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no key", ErrKeyEncryption)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: passphrase must not be empty", ErrKeyEncryption)
	}

	der, err := pkcs8.MarshalPrivateKey(key, passphrase, opts.pkcs8Opts())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyEncryption, err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: PEMTypeEncryptedPrivateKey, Bytes: der}), nil
}

// DecryptPrivateKeyPEM parses an encrypted key file produced by
// EncryptPrivateKeyPEM. Every failure, including a malformed file,
// is reported as ErrWrongPassphrase.
func DecryptPrivateKeyPEM(data, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrWrongPassphrase)
	}
	if block.Type != PEMTypeEncryptedPrivateKey {
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrWrongPassphrase, block.Type)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrWrongPassphrase)
	}

	key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
	}
	return key, nil
}
