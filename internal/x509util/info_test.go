package x509util

import (
	"bytes"
	"strings"
	"testing"
)

func TestU_DescribeCertificate(t *testing.T) {
	issued, err := IssueSelfSigned(IssueRequest{Subject: testSubject(), Key: rsaTestKey(t), ValidityDays: 30})
	if err != nil {
		t.Fatalf("IssueSelfSigned() error = %v", err)
	}

	var buf bytes.Buffer
	if err := DescribeCertificate(&buf, issued.Certificate); err != nil {
		t.Fatalf("DescribeCertificate() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Certificate:",
		"Subject:        C=FR, ST=Ile-de-France, L=Paris, O=Example Org, CN=test",
		"Public Key:     RSA 2048 bits",
		"Subject Alternative Name: test",
		"Basic Constraints (critical): CA:true",
		"Authority Key Identifier: " + FormatKeyID(issued.Certificate.SubjectKeyId),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestU_DescribeCSR(t *testing.T) {
	issued, err := CreateCSR(CSRRequest{Subject: testSubject(), Key: rsaTestKey(t), SubjectAltName: true})
	if err != nil {
		t.Fatalf("CreateCSR() error = %v", err)
	}

	var buf bytes.Buffer
	if err := DescribeCSR(&buf, issued.Request); err != nil {
		t.Fatalf("DescribeCSR() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Certificate Signing Request:", "DNS Names:      test", "Signature:      valid"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestU_FormatKeyID(t *testing.T) {
	if got := FormatKeyID([]byte{0x0a, 0xff, 0x01}); got != "0A:FF:01" {
		t.Errorf("FormatKeyID() = %q, want %q", got, "0A:FF:01")
	}
}
