package x509util

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestU_IssueSelfSigned(t *testing.T) {
	key := rsaTestKey(t)
	now := time.Date(2026, 3, 1, 12, 30, 45, 999, time.UTC)

	issued, err := IssueSelfSigned(IssueRequest{
		Subject:      testSubject(),
		Key:          key,
		ValidityDays: 365,
		Now:          fixedClock(now),
	})
	if err != nil {
		t.Fatalf("IssueSelfSigned() error = %v", err)
	}
	cert := issued.Certificate

	t.Run("[U] Issue: version 3", func(t *testing.T) {
		if cert.Version != 3 {
			t.Errorf("Version = %d, want 3", cert.Version)
		}
	})

	t.Run("[U] Issue: issuer equals subject", func(t *testing.T) {
		if !bytes.Equal(cert.RawIssuer, cert.RawSubject) {
			t.Error("issuer and subject encodings differ")
		}
		if err := cert.CheckSignatureFrom(cert); err != nil {
			t.Errorf("self-signature check failed: %v", err)
		}
	})

	t.Run("[U] Issue: subject order", func(t *testing.T) {
		name, err := ParseName(cert.RawSubject)
		if err != nil {
			t.Fatalf("ParseName() error = %v", err)
		}
		want := []string{"C", "ST", "L", "O", "CN"}
		if got := name.Types(); !reflect.DeepEqual(got, want) {
			t.Errorf("subject order = %v, want %v", got, want)
		}
	})

	t.Run("[U] Issue: validity window", func(t *testing.T) {
		wantBefore := now.Truncate(time.Second)
		if !cert.NotBefore.Equal(wantBefore) {
			t.Errorf("NotBefore = %v, want %v", cert.NotBefore, wantBefore)
		}
		if got := cert.NotAfter.Sub(cert.NotBefore); got != 365*24*time.Hour {
			t.Errorf("validity = %v, want 365 days", got)
		}
	})

	t.Run("[U] Issue: extensions", func(t *testing.T) {
		if !cert.BasicConstraintsValid || !cert.IsCA {
			t.Error("certificate should be a CA")
		}
		if !reflect.DeepEqual(cert.DNSNames, []string{"test"}) {
			t.Errorf("DNSNames = %v, want [test]", cert.DNSNames)
		}
		if len(cert.SubjectKeyId) == 0 {
			t.Fatal("missing Subject Key Identifier")
		}
		if !bytes.Equal(cert.AuthorityKeyId, cert.SubjectKeyId) {
			t.Errorf("AKI %X != SKI %X", cert.AuthorityKeyId, cert.SubjectKeyId)
		}
		wantOrder := []string{
			OIDExtSubjectAltName.String(),
			OIDExtSubjectKeyId.String(),
			OIDExtAuthorityKeyId.String(),
			OIDExtBasicConstraints.String(),
		}
		var gotOrder []string
		for _, ext := range cert.Extensions {
			gotOrder = append(gotOrder, ext.Id.String())
		}
		if !reflect.DeepEqual(gotOrder, wantOrder) {
			t.Errorf("extension order = %v, want %v", gotOrder, wantOrder)
		}
	})

	t.Run("[U] Issue: signature algorithm", func(t *testing.T) {
		if cert.SignatureAlgorithm != x509.SHA256WithRSA {
			t.Errorf("SignatureAlgorithm = %v, want SHA256WithRSA", cert.SignatureAlgorithm)
		}
		if cert.SerialNumber.Sign() < 0 {
			t.Error("serial number is negative")
		}
	})

	t.Run("[U] Issue: PEM", func(t *testing.T) {
		block, _ := pem.Decode(issued.PEM())
		if block == nil || block.Type != PEMTypeCertificate {
			t.Fatal("PEM() should produce a CERTIFICATE block")
		}
		if !bytes.Equal(block.Bytes, issued.DER) {
			t.Error("PEM payload differs from DER")
		}
	})
}

func TestU_IssueSelfSigned_MixedCaseCommonName(t *testing.T) {
	subject := testSubject()
	subject.CommonName = "MyHost"

	issued, err := IssueSelfSigned(IssueRequest{Subject: subject, Key: rsaTestKey(t), ValidityDays: 1})
	if err != nil {
		t.Fatalf("IssueSelfSigned() error = %v", err)
	}
	if got := issued.Certificate.Subject.CommonName; got != "MyHost" {
		t.Errorf("CommonName = %q, want %q", got, "MyHost")
	}
	if !reflect.DeepEqual(issued.Certificate.DNSNames, []string{"MyHost"}) {
		t.Errorf("DNSNames = %v, want [MyHost]", issued.Certificate.DNSNames)
	}
}

func TestU_IssueSelfSigned_DistinctSerials(t *testing.T) {
	key := rsaTestKey(t)
	req := IssueRequest{Subject: testSubject(), Key: key, ValidityDays: 1}

	first, err := IssueSelfSigned(req)
	if err != nil {
		t.Fatalf("IssueSelfSigned() error = %v", err)
	}
	second, err := IssueSelfSigned(req)
	if err != nil {
		t.Fatalf("IssueSelfSigned() error = %v", err)
	}
	if first.Certificate.SerialNumber.Cmp(second.Certificate.SerialNumber) == 0 {
		t.Error("two issuances produced the same serial number")
	}
}

func TestU_IssueSelfSigned_Errors(t *testing.T) {
	key := rsaTestKey(t)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa.GenerateKey() error = %v", err)
	}

	badSubject := testSubject()
	badSubject.Country = "FRA"

	badCN := testSubject()
	badCN.CommonName = "not a dns name"

	tests := []struct {
		name    string
		req     IssueRequest
		wantErr error
	}{
		{"[U] Error: missing key", IssueRequest{Subject: testSubject(), ValidityDays: 1}, ErrSigning},
		{"[U] Error: zero validity", IssueRequest{Subject: testSubject(), Key: key}, ErrValidity},
		{"[U] Error: bad country", IssueRequest{Subject: badSubject, Key: key, ValidityDays: 1}, ErrEncoding},
		{"[U] Error: bad common name for SAN", IssueRequest{Subject: badCN, Key: key, ValidityDays: 1}, ErrExtension},
		{"[U] Error: non-RSA key", IssueRequest{Subject: testSubject(), Key: ecKey, ValidityDays: 1}, ErrSigning},
		{"[U] Error: entropy failure", IssueRequest{Subject: testSubject(), Key: key, ValidityDays: 1, Rand: failingReader{}}, ErrSerialNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IssueSelfSigned(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("IssueSelfSigned() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestU_ValidityWindow(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 59, 59, 500_000_000, time.FixedZone("X", 3600))
	notBefore, notAfter := ValidityWindow(now, 366)

	if notBefore.Location() != time.UTC {
		t.Error("NotBefore should be UTC")
	}
	if notBefore.Nanosecond() != 0 {
		t.Error("NotBefore should be truncated to the second")
	}
	if got := notAfter.Sub(notBefore); got != 366*24*time.Hour {
		t.Errorf("window = %v, want 366 days", got)
	}
}
