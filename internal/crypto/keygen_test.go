package crypto

import (
	"errors"
	"testing"
)

func TestU_GenerateRSAKeyPair(t *testing.T) {
	tests := []struct {
		name string
		bits int
	}{
		{"[U] KeyGen: RSA-1024", 1024},
		{"[U] KeyGen: RSA-2048", 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kp, err := GenerateRSAKeyPair(tt.bits)
			if err != nil {
				t.Fatalf("GenerateRSAKeyPair() error = %v", err)
			}
			if kp.Bits != tt.bits {
				t.Errorf("Bits = %d, want %d", kp.Bits, tt.bits)
			}
			if got := kp.PrivateKey.N.BitLen(); got != tt.bits {
				t.Errorf("modulus = %d bits, want %d", got, tt.bits)
			}
			if kp.Public() == nil || kp.Signer() == nil {
				t.Error("Public() and Signer() should not be nil")
			}
		})
	}
}

func TestU_GenerateRSAKeyPair_Independent(t *testing.T) {
	a, err := GenerateRSAKeyPair(1024)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair() error = %v", err)
	}
	b, err := GenerateRSAKeyPair(1024)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair() error = %v", err)
	}
	if a.PrivateKey.N.Cmp(b.PrivateKey.N) == 0 {
		t.Error("two calls produced the same modulus")
	}
}

func TestU_GenerateRSAKeyPair_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		bits int
	}{
		{"[U] KeyGen: zero", 0},
		{"[U] KeyGen: 512 below minimum", 512},
		{"[U] KeyGen: above maximum", MaxRSAKeySize + 1},
		{"[U] KeyGen: negative", -2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateRSAKeyPair(tt.bits)
			if !errors.Is(err, ErrKeyGeneration) {
				t.Errorf("error = %v, want ErrKeyGeneration", err)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestU_GenerateRSAKeyPairWithRand_Failure(t *testing.T) {
	_, err := GenerateRSAKeyPairWithRand(failingReader{}, 1024)
	if !errors.Is(err, ErrKeyGeneration) {
		t.Errorf("error = %v, want ErrKeyGeneration", err)
	}
}
