package x509util

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// serialNumberBits keeps the DER INTEGER within the 20 octets RFC 5280
// allows while leaving the sign bit clear.
const serialNumberBits = 159

// serialNumberLimit is 2^159 - 1; draws are shifted by one so the serial
// is always positive (RFC 5280 section 4.1.2.2).
var serialNumberLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), serialNumberBits), big.NewInt(1))

// NewSerialNumber returns a uniformly random serial in [1, 2^159).
func NewSerialNumber() (*big.Int, error) {
	return NewSerialNumberWithRand(rand.Reader)
}

// NewSerialNumberWithRand draws a serial number from r.
func NewSerialNumberWithRand(r io.Reader) (*big.Int, error) {
	serial, err := rand.Int(r, serialNumberLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialNumber, err)
	}
	return serial.Add(serial, big.NewInt(1)), nil
}
