package bundle

import (
	"bytes"
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"slices"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	oidDataContentType          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidEncryptedDataContentType = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 6}
	oidPKCS8ShroudedKeyBag      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 12, 10, 1, 2}
	oidCertBag                  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 12, 10, 1, 3}
	oidCertTypeX509             = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 22, 1}
	oidFriendlyName             = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 20}
	oidLocalKeyID               = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 21}
	oidPBES2                    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	oidSHA256                   = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
)

const (
	pfxVersion = 3
	saltSize   = 16

	// RFC 7292 Appendix B.3 purpose byte for MAC key material.
	macKeyID = 3
)

var (
	tagExplicit0 = cbasn1.Tag(0).Constructed().ContextSpecific()
	tagImplicit0 = cbasn1.Tag(0).ContextSpecific()
	tagBMPString = cbasn1.Tag(30)
)

var errNotBMP = errors.New("string contains characters outside the Basic Multilingual Plane")

// safeBag is one entry of a SafeContents.
type safeBag struct {
	id    asn1.ObjectIdentifier
	value []byte
	attrs []byte
}

// encoder writes the PFX layout OpenSSL's PKCS12_create produces: the
// certificate bag in a PBES2-encrypted safe, the shrouded key bag in a
// plain one, both tagged with friendlyName and localKeyId.
type encoder struct {
	iterations int
}

func (e encoder) pbes2Opts() *pkcs8.Opts {
	return &pkcs8.Opts{
		Cipher: pkcs8.AES256CBC,
		KDFOpts: pkcs8.PBKDF2Opts{
			SaltSize:       saltSize,
			IterationCount: e.iterations,
			HMACHash:       crypto.SHA256,
		},
	}
}

func (e encoder) encode(key crypto.Signer, cert *x509.Certificate, friendlyName string, passphrase []byte) ([]byte, error) {
	if !utf8.Valid(passphrase) {
		return nil, errors.New("passphrase is not valid UTF-8")
	}
	macPassword, err := bmpString(string(passphrase))
	if err != nil {
		return nil, fmt.Errorf("passphrase: %w", err)
	}
	macPassword = append(macPassword, 0, 0)

	attrs, err := bagAttributes(friendlyName, cert)
	if err != nil {
		return nil, err
	}

	opts := e.pbes2Opts()
	shrouded, err := pkcs8.MarshalPrivateKey(key, passphrase, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to shroud private key: %w", err)
	}

	certSafe, err := safeContents(safeBag{id: oidCertBag, value: certBagValue(cert), attrs: attrs})
	if err != nil {
		return nil, err
	}
	keySafe, err := safeContents(safeBag{id: oidPKCS8ShroudedKeyBag, value: shrouded, attrs: attrs})
	if err != nil {
		return nil, err
	}

	algorithm, ciphertext, err := encryptPBES2(passphrase, certSafe, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt certificate safe: %w", err)
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidEncryptedDataContentType)
			b.AddASN1(tagExplicit0, func(b *cryptobyte.Builder) {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1Int64(0)
					b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1ObjectIdentifier(oidDataContentType)
						b.AddBytes(algorithm)
						b.AddASN1(tagImplicit0, func(b *cryptobyte.Builder) {
							b.AddBytes(ciphertext)
						})
					})
				})
			})
		})
		addDataContentInfo(b, keySafe)
	})
	authSafe, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode authenticated safe: %w", err)
	}

	macSalt := make([]byte, saltSize)
	if _, err := rand.Read(macSalt); err != nil {
		return nil, fmt.Errorf("failed to generate MAC salt: %w", err)
	}
	mac := hmac.New(sha256.New, deriveMACKey(macSalt, macPassword, e.iterations))
	mac.Write(authSafe)

	var pfx cryptobyte.Builder
	pfx.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(pfxVersion)
		addDataContentInfo(b, authSafe)
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1ObjectIdentifier(oidSHA256)
					b.AddASN1NULL()
				})
				b.AddASN1OctetString(mac.Sum(nil))
			})
			b.AddASN1OctetString(macSalt)
			b.AddASN1Int64(int64(e.iterations))
		})
	})
	return pfx.Bytes()
}

// addDataContentInfo appends a ContentInfo of type data wrapping content.
func addDataContentInfo(b *cryptobyte.Builder, content []byte) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oidDataContentType)
		b.AddASN1(tagExplicit0, func(b *cryptobyte.Builder) {
			b.AddASN1OctetString(content)
		})
	})
}

func certBagValue(cert *x509.Certificate) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oidCertTypeX509)
		b.AddASN1(tagExplicit0, func(b *cryptobyte.Builder) {
			b.AddASN1OctetString(cert.Raw)
		})
	})
	return b.BytesOrPanic()
}

func safeContents(bags ...safeBag) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, bag := range bags {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(bag.id)
				b.AddASN1(tagExplicit0, func(b *cryptobyte.Builder) {
					b.AddBytes(bag.value)
				})
				if len(bag.attrs) > 0 {
					b.AddBytes(bag.attrs)
				}
			})
		}
	})
	return b.Bytes()
}

// bagAttributes encodes the attribute SET shared by the key bag and the
// certificate bag. localKeyId is the SHA-1 of the certificate, as OpenSSL
// computes it.
func bagAttributes(friendlyName string, cert *x509.Certificate) ([]byte, error) {
	var attrs [][]byte

	if friendlyName != "" {
		name, err := bmpString(friendlyName)
		if err != nil {
			return nil, fmt.Errorf("friendly name %q: %w", friendlyName, err)
		}
		attrs = append(attrs, attribute(oidFriendlyName, func(b *cryptobyte.Builder) {
			b.AddASN1(tagBMPString, func(b *cryptobyte.Builder) {
				b.AddBytes(name)
			})
		}))
	}

	keyID := sha1.Sum(cert.Raw)
	attrs = append(attrs, attribute(oidLocalKeyID, func(b *cryptobyte.Builder) {
		b.AddASN1OctetString(keyID[:])
	}))

	// DER orders SET OF members by their encoding.
	slices.SortFunc(attrs, bytes.Compare)

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {
		for _, a := range attrs {
			b.AddBytes(a)
		}
	})
	return b.Bytes()
}

func attribute(id asn1.ObjectIdentifier, value cryptobyte.BuilderContinuation) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(id)
		b.AddASN1(cbasn1.SET, value)
	})
	return b.BytesOrPanic()
}

// encryptPBES2 encrypts plaintext with opts and returns the DER
// AlgorithmIdentifier alongside the ciphertext.
func encryptPBES2(password, plaintext []byte, opts *pkcs8.Opts) ([]byte, []byte, error) {
	salt := make([]byte, opts.KDFOpts.GetSaltSize())
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, err
	}
	iv := make([]byte, opts.Cipher.IVSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, err
	}

	key, kdfParams, err := opts.KDFOpts.DeriveKey(password, salt, opts.Cipher.KeySize())
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err := opts.Cipher.Encrypt(key, iv, plaintext)
	if err != nil {
		return nil, nil, err
	}
	kdfDER, err := asn1.Marshal(kdfParams)
	if err != nil {
		return nil, nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oidPBES2)
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(opts.KDFOpts.OID())
				b.AddBytes(kdfDER)
			})
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(opts.Cipher.OID())
				b.AddASN1OctetString(iv)
			})
		})
	})
	algorithm, err := b.Bytes()
	if err != nil {
		return nil, nil, err
	}
	return algorithm, ciphertext, nil
}

// deriveMACKey is the RFC 7292 Appendix B.2 KDF instantiated with
// SHA-256 (u=32, v=64) for ID=3.
func deriveMACKey(salt, password []byte, iterations int) []byte {
	const u, v = sha256.Size, sha256.BlockSize

	d := bytes.Repeat([]byte{macKeyID}, v)
	i := append(fillRepeats(salt, v), fillRepeats(password, v)...)

	h := sha256.New()
	h.Write(d)
	h.Write(i)
	a := h.Sum(nil)
	for n := 0; n < iterations-1; n++ {
		sum := sha256.Sum256(a)
		a = sum[:]
	}
	// One block of u bytes covers the key; the I_j update of step 6C is
	// only needed for a second block.
	return a[:u]
}

// fillRepeats returns v*ceil(len(pattern)/v) bytes of repeated pattern.
func fillRepeats(pattern []byte, v int) []byte {
	if len(pattern) == 0 {
		return nil
	}
	out := make([]byte, v*((len(pattern)+v-1)/v))
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

// bmpString encodes s as UCS-2 big endian without a terminator.
func bmpString(s string) ([]byte, error) {
	out := make([]byte, 0, 2*len(s))
	for _, r := range s {
		if r > 0xFFFF || utf16.IsSurrogate(r) {
			return nil, errNotBMP
		}
		out = append(out, byte(r>>8), byte(r))
	}
	return out, nil
}
