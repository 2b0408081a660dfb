package crypto

import "errors"

// Sentinel errors for key operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrKeyGeneration indicates the RSA primitive rejected the parameters or failed.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrKeyEncryption indicates a private key could not be encrypted.
	ErrKeyEncryption = errors.New("key encryption failed")

	// ErrWrongPassphrase indicates an encrypted key could not be decrypted.
	// A wrong passphrase and a corrupted file are indistinguishable.
	ErrWrongPassphrase = errors.New("Maybe wrong password or bad .key file") //nolint:staticcheck // user-facing wording
)
