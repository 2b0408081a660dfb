package x509util

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
	"time"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyErr  error
)

// rsaTestKey returns a 2048-bit key shared by the tests of this package.
func rsaTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if testKeyErr != nil {
		t.Fatalf("rsa.GenerateKey() error = %v", testKeyErr)
	}
	return testKey
}

func testSubject() Subject {
	return Subject{
		Country:      "FR",
		State:        "Ile-de-France",
		Locality:     "Paris",
		Organization: "Example Org",
		CommonName:   "test",
	}
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errFailingReader
}

var errFailingReader = errors.New("entropy source unavailable")

var (
	otherKeyOnce sync.Once
	otherKey     *rsa.PrivateKey
	otherKeyErr  error
)

// otherTestKey returns a second key distinct from rsaTestKey.
func otherTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	otherKeyOnce.Do(func() {
		otherKey, otherKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if otherKeyErr != nil {
		t.Fatalf("rsa.GenerateKey() error = %v", otherKeyErr)
	}
	return otherKey
}
