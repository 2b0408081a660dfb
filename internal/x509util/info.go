package x509util

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// DescribeCertificate writes a human-readable dump of cert to w.
func DescribeCertificate(w io.Writer, cert *x509.Certificate) error {
	subject := describeName(cert.RawSubject)
	issuer := describeName(cert.RawIssuer)

	lines := []string{
		"Certificate:",
		fmt.Sprintf("  Version:        %d", cert.Version),
		fmt.Sprintf("  Serial Number:  %s", hex.EncodeToString(cert.SerialNumber.Bytes())),
		fmt.Sprintf("  Subject:        %s", subject),
		fmt.Sprintf("  Issuer:         %s", issuer),
		fmt.Sprintf("  Not Before:     %s", cert.NotBefore.UTC().Format(timeLayout)),
		fmt.Sprintf("  Not After:      %s", cert.NotAfter.UTC().Format(timeLayout)),
		fmt.Sprintf("  Signature Alg:  %s", cert.SignatureAlgorithm),
		fmt.Sprintf("  Public Key:     %s", describePublicKey(cert.PublicKey)),
	}
	lines = append(lines, describeExtensions(cert)...)

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// DescribeCSR writes a human-readable dump of csr to w.
func DescribeCSR(w io.Writer, csr *x509.CertificateRequest) error {
	lines := []string{
		"Certificate Signing Request:",
		fmt.Sprintf("  Version:        %d", csr.Version),
		fmt.Sprintf("  Subject:        %s", describeName(csr.RawSubject)),
		fmt.Sprintf("  Signature Alg:  %s", csr.SignatureAlgorithm),
		fmt.Sprintf("  Public Key:     %s", describePublicKey(csr.PublicKey)),
	}
	if len(csr.DNSNames) > 0 {
		lines = append(lines, fmt.Sprintf("  DNS Names:      %s", strings.Join(csr.DNSNames, ", ")))
	}
	if err := csr.CheckSignature(); err != nil {
		lines = append(lines, fmt.Sprintf("  Signature:      INVALID (%v)", err))
	} else {
		lines = append(lines, "  Signature:      valid")
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func describeExtensions(cert *x509.Certificate) []string {
	var lines []string
	for _, ext := range cert.Extensions {
		critical := ""
		if ext.Critical {
			critical = " (critical)"
		}
		var value string
		switch {
		case ext.Id.Equal(OIDExtSubjectAltName):
			value = strings.Join(cert.DNSNames, ", ")
		case ext.Id.Equal(OIDExtSubjectKeyId):
			value = FormatKeyID(cert.SubjectKeyId)
		case ext.Id.Equal(OIDExtAuthorityKeyId):
			value = FormatKeyID(cert.AuthorityKeyId)
		case ext.Id.Equal(OIDExtBasicConstraints):
			value = fmt.Sprintf("CA:%t", cert.IsCA)
		default:
			value = fmt.Sprintf("%d bytes", len(ext.Value))
		}
		lines = append(lines, fmt.Sprintf("  %s%s: %s", ExtensionName(ext.Id), critical, value))
	}
	return lines
}

func describeName(raw []byte) string {
	name, err := ParseName(raw)
	if err != nil {
		return fmt.Sprintf("<unparseable: %v>", err)
	}
	return name.String()
}

func describePublicKey(pub any) string {
	if k, ok := pub.(*rsa.PublicKey); ok {
		return fmt.Sprintf("RSA %d bits", k.N.BitLen())
	}
	return fmt.Sprintf("%T", pub)
}

// FormatKeyID renders a key identifier as colon-separated upper-case hex.
func FormatKeyID(id []byte) string {
	parts := make([]string, len(id))
	for i, b := range id {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}
