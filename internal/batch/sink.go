package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// File modes of written artifacts.
const (
	ModeSecret fs.FileMode = 0o600 // keys, PKCS#12 archives
	ModePublic fs.FileMode = 0o644 // certificates, CSRs
)

// Sink is the filesystem boundary of a run.
type Sink interface {
	// Exists reports whether path is present.
	Exists(path string) (bool, error)

	// Create writes data to a new file. It fails with ErrFileExists if
	// path is already present and never modifies an existing file.
	Create(path string, data []byte, mode fs.FileMode) error

	// Read returns the content of path.
	Read(path string) ([]byte, error)
}

// FileSink is a Sink on the local filesystem.
type FileSink struct{}

var _ Sink = FileSink{}

// Exists implements Sink.
func (FileSink) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Create implements Sink. The file is opened with O_EXCL so a file
// appearing between the existence check and the write is not clobbered.
func (FileSink) Create(path string, data []byte, mode fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: '%s'", ErrFileExists, path)
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read implements Sink.
func (FileSink) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}
