// Package x509util builds the X.509 material issued by mkcert: ordered
// distinguished names, the extension set, serial numbers, self-signed
// certificates and certificate signing requests.
package x509util

import (
	"encoding/asn1"
)

// Distinguished name attribute OIDs (RFC 5280, X.520).
var (
	OIDCountry      = asn1.ObjectIdentifier{2, 5, 4, 6}
	OIDProvince     = asn1.ObjectIdentifier{2, 5, 4, 8}
	OIDLocality     = asn1.ObjectIdentifier{2, 5, 4, 7}
	OIDOrganization = asn1.ObjectIdentifier{2, 5, 4, 10}
	OIDCommonName   = asn1.ObjectIdentifier{2, 5, 4, 3}
)

// Standard X.509 extension OIDs.
var (
	// Subject Alternative Name extension
	OIDExtSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

	// Subject Key Identifier extension
	OIDExtSubjectKeyId = asn1.ObjectIdentifier{2, 5, 29, 14}

	// Authority Key Identifier extension
	OIDExtAuthorityKeyId = asn1.ObjectIdentifier{2, 5, 29, 35}

	// Basic Constraints extension
	OIDExtBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
)

// attributeShortNames maps DN attribute OIDs to their short names.
var attributeShortNames = map[string]string{
	OIDCountry.String():      "C",
	OIDProvince.String():     "ST",
	OIDLocality.String():     "L",
	OIDOrganization.String(): "O",
	OIDCommonName.String():   "CN",
}

// extensionNames maps the extension OIDs mkcert emits to display names.
var extensionNames = map[string]string{
	OIDExtSubjectAltName.String():   "Subject Alternative Name",
	OIDExtSubjectKeyId.String():     "Subject Key Identifier",
	OIDExtAuthorityKeyId.String():   "Authority Key Identifier",
	OIDExtBasicConstraints.String(): "Basic Constraints",
}

// AttributeShortName returns the short name (C, ST, L, O, CN) for a DN
// attribute OID, or the dotted OID when it is not one mkcert emits.
func AttributeShortName(oid asn1.ObjectIdentifier) string {
	if name, ok := attributeShortNames[oid.String()]; ok {
		return name
	}
	return oid.String()
}

// ExtensionName returns a human-readable name for an extension OID.
func ExtensionName(oid asn1.ObjectIdentifier) string {
	if name, ok := extensionNames[oid.String()]; ok {
		return name
	}
	return oid.String()
}

// OIDEqual compares two OIDs for equality.
func OIDEqual(a, b asn1.ObjectIdentifier) bool {
	return a.Equal(b)
}
