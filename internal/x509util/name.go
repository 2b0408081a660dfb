package x509util

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ASN.1 string type tags for DN encoding.
const (
	asnTagPrintableString = 19
	asnTagUTF8String      = 12
)

// Upper bounds from RFC 5280 Appendix A.1, in characters.
const (
	ubCountryName      = 2
	ubStateName        = 128
	ubLocalityName     = 128
	ubOrganizationName = 64
	ubCommonName       = 64
)

// Subject holds the identity attributes of a certificate request.
type Subject struct {
	Country      string
	State        string
	Locality     string
	Organization string
	CommonName   string
}

// Attribute is a single-valued relative distinguished name.
type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value string
}

// Name is an ordered distinguished name together with its DER encoding.
// The encoding is computed once by BuildName and handed to the signer
// unchanged, so the attribute order seen by relying parties is exactly
// the order of Attributes.
type Name struct {
	Attributes []Attribute
	raw        []byte
}

// Raw returns a copy of the DER-encoded RDNSequence.
func (n *Name) Raw() []byte {
	return append([]byte(nil), n.raw...)
}

// Types returns the attribute short names in encoding order.
func (n *Name) Types() []string {
	types := make([]string, len(n.Attributes))
	for i, attr := range n.Attributes {
		types[i] = AttributeShortName(attr.Type)
	}
	return types
}

// String renders the name as "C=.., ST=.., L=.., O=.., CN=.." in encoding order.
func (n *Name) String() string {
	parts := make([]string, len(n.Attributes))
	for i, attr := range n.Attributes {
		parts[i] = AttributeShortName(attr.Type) + "=" + attr.Value
	}
	return strings.Join(parts, ", ")
}

// attributeSpec describes how one DN attribute is encoded.
type attributeSpec struct {
	oid        asn1.ObjectIdentifier
	upperBound int
	printable  bool
}

// nameOrder is the order attributes are appended in. Certificate viewers
// render the DN in insertion order, so this order is part of the output
// format and must not change.
var nameOrder = []attributeSpec{
	{oid: OIDCountry, upperBound: ubCountryName, printable: true},
	{oid: OIDProvince, upperBound: ubStateName},
	{oid: OIDLocality, upperBound: ubLocalityName},
	{oid: OIDOrganization, upperBound: ubOrganizationName},
	{oid: OIDCommonName, upperBound: ubCommonName},
}

// BuildName assembles the distinguished name C, ST, L, O, CN from s.
//
// Country is encoded as a PrintableString (RFC 5280 requires it), every
// other attribute as a UTF8String. Values that cannot be represented fail
// with an *EncodingError wrapping ErrEncoding.
func BuildName(s Subject) (*Name, error) {
	values := []string{s.Country, s.State, s.Locality, s.Organization, s.CommonName}

	rdns := make(pkix.RDNSequence, 0, len(nameOrder))
	attrs := make([]Attribute, 0, len(nameOrder))

	for i, spec := range nameOrder {
		value := values[i]
		rawValue, err := marshalAttributeValue(spec, value)
		if err != nil {
			return nil, err
		}

		rdns = append(rdns, pkix.RelativeDistinguishedNameSET{
			pkix.AttributeTypeAndValue{Type: spec.oid, Value: rawValue},
		})
		attrs = append(attrs, Attribute{Type: spec.oid, Value: value})
	}

	der, err := asn1.Marshal(rdns)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling RDN sequence: %v", ErrEncoding, err)
	}

	return &Name{Attributes: attrs, raw: der}, nil
}

// marshalAttributeValue validates value against spec and returns its ASN.1 string.
func marshalAttributeValue(spec attributeSpec, value string) (asn1.RawValue, error) {
	short := AttributeShortName(spec.oid)
	fail := func(reason string) (asn1.RawValue, error) {
		return asn1.RawValue{}, &EncodingError{Attribute: short, Value: value, Reason: reason}
	}

	if strings.TrimSpace(value) == "" {
		return fail("value must not be empty")
	}
	if !utf8.ValidString(value) {
		return fail("value is not valid UTF-8")
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return fail("value contains control characters")
		}
	}
	if n := utf8.RuneCountInString(value); n > spec.upperBound {
		return fail(fmt.Sprintf("value is %d characters long, maximum is %d", n, spec.upperBound))
	}

	if spec.printable {
		if !IsPrintableString(value) {
			return fail("value contains characters not allowed in PrintableString")
		}
		return asn1.RawValue{
			Class: asn1.ClassUniversal,
			Tag:   asnTagPrintableString,
			Bytes: []byte(value),
		}, nil
	}

	return asn1.RawValue{
		Class: asn1.ClassUniversal,
		Tag:   asnTagUTF8String,
		Bytes: []byte(value),
	}, nil
}

// ParseName decodes a DER RDNSequence, keeping attribute order.
func ParseName(der []byte) (*Name, error) {
	var rdns pkix.RDNSequence
	rest, err := asn1.Unmarshal(der, &rdns)
	if err != nil {
		return nil, fmt.Errorf("failed to parse distinguished name: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing data after distinguished name")
	}

	var attrs []Attribute
	for _, rdn := range rdns {
		for _, atv := range rdn {
			value, ok := atv.Value.(string)
			if !ok {
				value = fmt.Sprintf("%v", atv.Value)
			}
			attrs = append(attrs, Attribute{Type: atv.Type, Value: value})
		}
	}

	return &Name{Attributes: attrs, raw: append([]byte(nil), der...)}, nil
}

// IsPrintableString checks if a string contains only PrintableString characters.
// PrintableString allows: A-Za-z0-9 '()+,-./:=? and space.
func IsPrintableString(s string) bool {
	for _, r := range s {
		if !isPrintableChar(r) {
			return false
		}
	}
	return true
}

// isPrintableChar checks if a rune is valid in PrintableString.
func isPrintableChar(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return true
	}
	if r >= 'A' && r <= 'Z' {
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	switch r {
	case ' ', '\'', '(', ')', '+', ',', '-', '.', '/', ':', '=', '?':
		return true
	}
	return false
}
