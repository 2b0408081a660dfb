package passphrase

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// TTYReader reads secrets from the controlling terminal with echo disabled.
type TTYReader struct{}

// TTY returns a Source prompting on the controlling terminal.
func TTY() *Collector {
	return NewCollector(TTYReader{})
}

// ReadSecret implements Reader.
func (TTYReader) ReadSecret(prompt string) ([]byte, error) {
	in, out, err := openTerminal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}
	defer closeTerminal(in, out)

	if _, err := fmt.Fprint(out, prompt); err != nil {
		return nil, err
	}
	b, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return nil, err
	}
	return trimLineEnding(b), nil
}

func closeTerminal(in, out *os.File) {
	_ = in.Close()
	if out != in {
		_ = out.Close()
	}
}
