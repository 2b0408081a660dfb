// Package crypto generates RSA key pairs and reads and writes the
// passphrase-protected PKCS#8 key files issued alongside certificates.
package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
)

// RSA modulus bounds accepted by GenerateRSAKeyPair.
const (
	MinRSAKeySize = 1024
	MaxRSAKeySize = 16384
)

// KeyPair holds an RSA private key and its size.
type KeyPair struct {
	PrivateKey *rsa.PrivateKey
	Bits       int
}

// Public returns the public half of the pair.
func (kp *KeyPair) Public() crypto.PublicKey {
	return &kp.PrivateKey.PublicKey
}

// Signer returns the private key as a crypto.Signer.
func (kp *KeyPair) Signer() crypto.Signer {
	return kp.PrivateKey
}

// GenerateRSAKeyPair generates an RSA key pair of the given modulus size.
//
// Example:
//
//	kp, err := crypto.GenerateRSAKeyPair(2048)
//	if err != nil {
//	    log.Fatal(err)
//	}
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	return GenerateRSAKeyPairWithRand(rand.Reader, bits)
}

// GenerateRSAKeyPairWithRand generates a key pair using the provided random source.
func GenerateRSAKeyPairWithRand(random io.Reader, bits int) (*KeyPair, error) {
	if bits < MinRSAKeySize || bits > MaxRSAKeySize {
		return nil, fmt.Errorf("%w: RSA key size %d is outside [%d, %d]",
			ErrKeyGeneration, bits, MinRSAKeySize, MaxRSAKeySize)
	}

	priv, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate RSA-%d key: %v", ErrKeyGeneration, bits, err)
	}

	return &KeyPair{PrivateKey: priv, Bits: bits}, nil
}
