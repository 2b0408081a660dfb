package audit

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// globalWriter is the default audit writer.
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex

	// enabled tracks whether audit logging is active.
	enabled bool
)

// Init installs w as the global audit writer. A nil w disables auditing.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		enabled = false
		return nil
	}

	globalWriter = w
	enabled = true
	return nil
}

// InitFile installs a FileWriter for path. An empty path disables auditing.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}

	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global audit writer and disables auditing.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter = NopWriter{}
	enabled = false
	return err
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Default returns the global audit writer.
func Default() Writer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalWriter
}

// Recorder writes the events of one batch run, tagging each with the run id.
// Every method returns an error suitable for failing the operation.
type Recorder struct {
	w     Writer
	runID string
}

// NewRecorder creates a Recorder on w with a fresh run id.
// A nil w records nothing.
func NewRecorder(w Writer) *Recorder {
	if w == nil {
		w = NopWriter{}
	}
	return &Recorder{w: w, runID: uuid.NewString()}
}

// RunID returns the id shared by every event of the run.
func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) log(event *Event) error {
	event.Context.RunID = r.runID
	if err := r.w.Write(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// KeyGenerated records a new encrypted key file.
func (r *Recorder) KeyGenerated(path string, bits int) error {
	return r.log(NewEvent(EventKeyGenerated, ResultSuccess,
		Object{Kind: "key", Path: path},
		Context{Algorithm: fmt.Sprintf("RSA-%d", bits)}))
}

// CertIssued records a self-signed certificate.
func (r *Recorder) CertIssued(path, serial, subject string, validityDays uint) error {
	return r.log(NewEvent(EventCertIssued, ResultSuccess,
		Object{Kind: "certificate", Path: path, Serial: serial, Subject: subject},
		Context{Algorithm: "SHA256-RSA", ValidityDays: validityDays}))
}

// CSRCreated records a certificate signing request.
func (r *Recorder) CSRCreated(path, subject string) error {
	return r.log(NewEvent(EventCSRCreated, ResultSuccess,
		Object{Kind: "csr", Path: path, Subject: subject},
		Context{Algorithm: "SHA256-RSA"}))
}

// BundleCreated records a PKCS#12 archive.
func (r *Recorder) BundleCreated(path, friendlyName, serial string) error {
	return r.log(NewEvent(EventBundleCreated, ResultSuccess,
		Object{Kind: "pkcs12", Path: path, Serial: serial},
		Context{FriendlyName: friendlyName}))
}

// PassphraseFailed records a rejected passphrase for path.
func (r *Recorder) PassphraseFailed(path, reason string) error {
	return r.log(NewEvent(EventPassphraseFailed, ResultFailure,
		Object{Kind: "key", Path: path},
		Context{Reason: reason}))
}
