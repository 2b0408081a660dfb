// Package passphrase collects the secrets that protect key files and
// PKCS#12 archives.
//
// Secrets come from a Source. TTY reads the controlling terminal with echo
// disabled and never touches stdin; Scripted replays fixed answers for tests.
package passphrase

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
)

// Prompts shown to the operator.
const (
	PromptNew      = "Enter new passphrase: "
	PromptVerify   = "Verifying - Enter new passphrase: "
	PromptExisting = "Enter passphrase: "
)

// Sentinel errors for passphrase collection.
var (
	// ErrPassphraseMismatch indicates the confirmation differed from the first entry.
	ErrPassphraseMismatch = errors.New("passphrases do not match")

	// ErrEmptyPassphrase indicates an empty new passphrase.
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")

	// ErrNoTerminal indicates there is no controlling terminal to prompt on.
	ErrNoTerminal = errors.New("no controlling terminal")
)

// Source supplies passphrases.
type Source interface {
	// CollectNew prompts for a passphrase protecting new key material and
	// asks for it a second time. A mismatch is reported before emptiness.
	CollectNew(prompt string) (*Secret, error)

	// CollectExisting prompts once for the passphrase of existing material.
	CollectExisting(prompt string) (*Secret, error)
}

// Reader reads one secret after showing prompt.
type Reader interface {
	ReadSecret(prompt string) ([]byte, error)
}

// Collector implements Source on top of a Reader.
type Collector struct {
	r Reader
}

// NewCollector returns a Source reading from r.
func NewCollector(r Reader) *Collector {
	return &Collector{r: r}
}

// CollectNew implements Source.
func (c *Collector) CollectNew(prompt string) (*Secret, error) {
	if prompt == "" {
		prompt = PromptNew
	}

	first, err := c.r.ReadSecret(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	second, err := c.r.ReadSecret(PromptVerify)
	if err != nil {
		wipe(first)
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer wipe(second)

	if subtle.ConstantTimeCompare(first, second) != 1 {
		wipe(first)
		return nil, ErrPassphraseMismatch
	}
	if len(first) == 0 {
		return nil, ErrEmptyPassphrase
	}

	return NewSecret(first), nil
}

// CollectExisting implements Source. An empty answer is returned as is;
// decryption rejects it.
func (c *Collector) CollectExisting(prompt string) (*Secret, error) {
	if prompt == "" {
		prompt = PromptExisting
	}

	b, err := c.r.ReadSecret(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return NewSecret(b), nil
}

// Secret holds a passphrase until Wipe is called.
type Secret struct {
	b []byte
}

// NewSecret takes ownership of b.
func NewSecret(b []byte) *Secret {
	return &Secret{b: b}
}

// Bytes returns the secret. The slice is zeroed by Wipe.
func (s *Secret) Bytes() []byte {
	return s.b
}

// Len returns the secret length in bytes.
func (s *Secret) Len() int {
	return len(s.b)
}

// Wipe zeroes the secret.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	wipe(s.b)
	s.b = nil
}

// String redacts the secret so it never reaches a log line.
func (s *Secret) String() string {
	return "[REDACTED]"
}

// GoString redacts the secret under %#v.
func (s *Secret) GoString() string {
	return "passphrase.Secret{[REDACTED]}"
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// trimLineEnding strips a trailing "\n" or "\r\n".
func trimLineEnding(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}
