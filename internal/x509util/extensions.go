package x509util

import (
	"crypto"
	"crypto/sha1" //nolint:gosec // RFC 5280 key identifier method 1
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/net/idna"
)

// Limits on dNSName values (RFC 1035).
const (
	maxDNSNameLength  = 253
	maxDNSLabelLength = 63
)

// ExtensionPolicy selects the extensions BuildExtensions emits.
type ExtensionPolicy struct {
	// SubjectAltName adds a SAN with the common name as a dNSName.
	SubjectAltName bool

	// KeyIdentifiers adds the Subject and Authority Key Identifiers.
	KeyIdentifiers bool

	// CA adds a critical Basic Constraints extension with cA=TRUE.
	CA bool
}

// SelfSignedPolicy is the extension set of a self-signed certificate.
var SelfSignedPolicy = ExtensionPolicy{
	SubjectAltName: true,
	KeyIdentifiers: true,
	CA:             true,
}

// CSRPolicy returns the extension set requested in a CSR. A CSR never
// asserts CA status or key identifiers; that is up to the signing authority.
func CSRPolicy(includeSAN bool) ExtensionPolicy {
	return ExtensionPolicy{SubjectAltName: includeSAN}
}

// ExtensionContext carries what the extensions are derived from.
type ExtensionContext struct {
	// CommonName is used as the SAN dNSName.
	CommonName string

	// SubjectPublicKey is the key being certified.
	SubjectPublicKey crypto.PublicKey

	// IssuerPublicKey is the signing key. Nil means self-issued, in which
	// case the AKI references the subject's own key identifier.
	IssuerPublicKey crypto.PublicKey
}

// BuildExtensions derives the extension list for ctx under policy.
//
// The order is fixed: SAN, SKI, AKI, Basic Constraints. The AKI is
// computed from the SKI produced just before it, so self-issued
// certificates always carry AKI == SKI.
func BuildExtensions(ctx ExtensionContext, policy ExtensionPolicy) ([]pkix.Extension, error) {
	var exts []pkix.Extension

	if policy.SubjectAltName {
		ext, err := SubjectAltNameExtension(ctx.CommonName)
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}

	if policy.KeyIdentifiers {
		ski, err := SubjectKeyID(ctx.SubjectPublicKey)
		if err != nil {
			return nil, err
		}
		skiExt, err := subjectKeyIDExtension(ski)
		if err != nil {
			return nil, err
		}
		exts = append(exts, skiExt)

		authorityKeyID := ski
		if ctx.IssuerPublicKey != nil {
			if authorityKeyID, err = SubjectKeyID(ctx.IssuerPublicKey); err != nil {
				return nil, err
			}
		}
		akiExt, err := authorityKeyIDExtension(authorityKeyID)
		if err != nil {
			return nil, err
		}
		exts = append(exts, akiExt)
	}

	if policy.CA {
		ext, err := basicConstraintsExtension()
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}

	return exts, nil
}

// SubjectAltNameExtension encodes a SAN holding name as a single dNSName.
func SubjectAltNameExtension(name string) (pkix.Extension, error) {
	dnsName, err := NormalizeDNSName(name)
	if err != nil {
		return pkix.Extension{}, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.Tag(2).ContextSpecific(), func(b *cryptobyte.Builder) { // dNSName
			b.AddBytes([]byte(dnsName))
		})
	})
	value, err := b.Bytes()
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("%w: encoding subject alternative name: %v", ErrExtension, err)
	}

	return pkix.Extension{Id: OIDExtSubjectAltName, Value: value}, nil
}

// NormalizeDNSName validates name as a dNSName and returns its ASCII form.
// Internationalized names are converted to A-labels; ASCII names keep their
// letter case. A leading "*." wildcard label is accepted.
func NormalizeDNSName(name string) (string, error) {
	host, wildcard := strings.CutPrefix(name, "*.")

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid DNS name: %v", ErrExtension, name, err)
	}
	if strings.EqualFold(ascii, host) {
		ascii = host
	}
	if wildcard {
		ascii = "*." + ascii
	}

	if ascii == "" || len(ascii) > maxDNSNameLength {
		return "", fmt.Errorf("%w: %q is not a valid DNS name: length must be 1-%d", ErrExtension, name, maxDNSNameLength)
	}
	for _, label := range strings.Split(strings.TrimPrefix(ascii, "*."), ".") {
		if label == "" || len(label) > maxDNSLabelLength {
			return "", fmt.Errorf("%w: %q is not a valid DNS name: label length must be 1-%d", ErrExtension, name, maxDNSLabelLength)
		}
	}

	return ascii, nil
}

// SubjectKeyID computes the key identifier of pub using RFC 5280
// section 4.2.1.2 method 1: the SHA-1 hash of the subjectPublicKey bits.
func SubjectKeyID(pub crypto.PublicKey) ([]byte, error) {
	spki, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal public key: %v", ErrExtension, err)
	}

	input := cryptobyte.String(spki)
	var seq cryptobyte.String
	var bits []byte
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) ||
		!seq.SkipASN1(cbasn1.SEQUENCE) ||
		!seq.ReadASN1BitStringAsBytes(&bits) {
		return nil, fmt.Errorf("%w: malformed subjectPublicKeyInfo", ErrExtension)
	}

	sum := sha1.Sum(bits) //nolint:gosec
	return sum[:], nil
}

func subjectKeyIDExtension(keyID []byte) (pkix.Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1OctetString(keyID)
	value, err := b.Bytes()
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("%w: encoding subject key identifier: %v", ErrExtension, err)
	}
	return pkix.Extension{Id: OIDExtSubjectKeyId, Value: value}, nil
}

// authorityKeyIDExtension encodes an AKI holding only the keyIdentifier:
//
//	AuthorityKeyIdentifier ::= SEQUENCE {
//	    keyIdentifier [0] KeyIdentifier OPTIONAL, ... }
func authorityKeyIDExtension(keyID []byte) (pkix.Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.Tag(0).ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddBytes(keyID)
		})
	})
	value, err := b.Bytes()
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("%w: encoding authority key identifier: %v", ErrExtension, err)
	}
	return pkix.Extension{Id: OIDExtAuthorityKeyId, Value: value}, nil
}

// basicConstraintsExtension encodes a critical cA=TRUE without pathLen.
func basicConstraintsExtension() (pkix.Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Boolean(true)
	})
	value, err := b.Bytes()
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("%w: encoding basic constraints: %v", ErrExtension, err)
	}
	return pkix.Extension{Id: OIDExtBasicConstraints, Critical: true, Value: value}, nil
}

// FindExtension returns the first extension with the given OID, or nil.
func FindExtension(exts []pkix.Extension, oid asn1.ObjectIdentifier) *pkix.Extension {
	for i := range exts {
		if oid.Equal(exts[i].Id) {
			return &exts[i]
		}
	}
	return nil
}
