package x509util

import (
	"bytes"
	"encoding/pem"
	"errors"
	"reflect"
	"testing"
)

func TestU_CreateCSR(t *testing.T) {
	key := rsaTestKey(t)

	issued, err := CreateCSR(CSRRequest{
		Subject:        testSubject(),
		Key:            key,
		SubjectAltName: true,
	})
	if err != nil {
		t.Fatalf("CreateCSR() error = %v", err)
	}
	csr := issued.Request

	if err := csr.CheckSignature(); err != nil {
		t.Errorf("CheckSignature() error = %v", err)
	}
	if csr.Version != 0 {
		t.Errorf("Version = %d, want 0", csr.Version)
	}

	name, err := ParseName(csr.RawSubject)
	if err != nil {
		t.Fatalf("ParseName() error = %v", err)
	}
	if got, want := name.String(), "C=FR, ST=Ile-de-France, L=Paris, O=Example Org, CN=test"; got != want {
		t.Errorf("subject = %q, want %q", got, want)
	}

	if !reflect.DeepEqual(csr.DNSNames, []string{"test"}) {
		t.Errorf("DNSNames = %v, want [test]", csr.DNSNames)
	}
	for _, ext := range csr.Extensions {
		if ext.Id.Equal(OIDExtBasicConstraints) {
			t.Error("CSR must not request Basic Constraints")
		}
		if ext.Id.Equal(OIDExtSubjectKeyId) || ext.Id.Equal(OIDExtAuthorityKeyId) {
			t.Error("CSR must not carry key identifiers")
		}
	}

	block, _ := pem.Decode(issued.PEM())
	if block == nil || block.Type != PEMTypeCertificateRequest {
		t.Fatal("PEM() should produce a CERTIFICATE REQUEST block")
	}
	if !bytes.Equal(block.Bytes, issued.DER) {
		t.Error("PEM payload differs from DER")
	}
}

func TestU_CreateCSR_MixedCaseCommonName(t *testing.T) {
	subject := testSubject()
	subject.CommonName = "MyHost"

	issued, err := CreateCSR(CSRRequest{Subject: subject, Key: rsaTestKey(t), SubjectAltName: true})
	if err != nil {
		t.Fatalf("CreateCSR() error = %v", err)
	}
	if got := issued.Request.Subject.CommonName; got != "MyHost" {
		t.Errorf("CommonName = %q, want %q", got, "MyHost")
	}
	if !reflect.DeepEqual(issued.Request.DNSNames, []string{"MyHost"}) {
		t.Errorf("DNSNames = %v, want [MyHost]", issued.Request.DNSNames)
	}
}

func TestU_CreateCSR_WithoutSAN(t *testing.T) {
	issued, err := CreateCSR(CSRRequest{Subject: testSubject(), Key: rsaTestKey(t)})
	if err != nil {
		t.Fatalf("CreateCSR() error = %v", err)
	}
	if len(issued.Request.Extensions) != 0 {
		t.Errorf("got %d extensions, want none", len(issued.Request.Extensions))
	}
}

func TestU_CreateCSR_Errors(t *testing.T) {
	bad := testSubject()
	bad.CommonName = ""

	if _, err := CreateCSR(CSRRequest{Subject: bad, Key: rsaTestKey(t)}); !errors.Is(err, ErrEncoding) {
		t.Errorf("error = %v, want ErrEncoding", err)
	}
	if _, err := CreateCSR(CSRRequest{Subject: testSubject()}); !errors.Is(err, ErrSigning) {
		t.Errorf("error = %v, want ErrSigning", err)
	}
}
