// Package audit keeps a hash-chained JSON Lines record of the files an
// issuance run writes. Each line hashes its own content together with the
// previous line's hash, so edits and deletions break the chain.
//
// Events name files, serials and subjects only. Passphrases and key
// material never enter the log, and a failed audit write fails the step
// that produced it.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
	"sync"
	"time"
)

// EventType names the step an event records.
type EventType string

const (
	EventKeyGenerated     EventType = "KEY_GENERATED"
	EventCertIssued       EventType = "CERT_ISSUED"
	EventCSRCreated       EventType = "CSR_CREATED"
	EventBundleCreated    EventType = "BUNDLE_CREATED"
	EventPassphraseFailed EventType = "PASSPHRASE_FAILED"
)

// Result is the outcome of the recorded step.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// ErrInvalidEvent is returned when an event lacks a required field.
var ErrInvalidEvent = errors.New("invalid audit event")

// Actor is the local account that ran mkcert.
type Actor struct {
	User string `json:"user"`
	Host string `json:"host,omitempty"`
}

// Object is the file an event is about.
type Object struct {
	Kind    string `json:"kind"` // key, certificate, csr or pkcs12
	Path    string `json:"path,omitempty"`
	Serial  string `json:"serial,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Context holds the details that vary by event type.
type Context struct {
	RunID        string `json:"run_id,omitempty"`
	Algorithm    string `json:"algorithm,omitempty"`
	ValidityDays uint   `json:"validity_days,omitempty"`
	FriendlyName string `json:"friendly_name,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Event is one line of the audit log. Hash is empty until the event has
// been chained by a Writer.
type Event struct {
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Object    Object    `json:"object"`
	Context   Context   `json:"context"`
	Result    Result    `json:"result"`
	HashPrev  string    `json:"hash_prev"`
	Hash      string    `json:"hash,omitempty"`
}

var localActor = sync.OnceValue(func() Actor {
	a := Actor{User: "unknown"}
	if u, err := user.Current(); err == nil && u.Username != "" {
		a.User = u.Username
	}
	a.Host, _ = os.Hostname()
	return a
})

// NewEvent stamps an event with the current UTC time and the local actor.
func NewEvent(eventType EventType, result Result, obj Object, ctx Context) *Event {
	return &Event{
		EventType: eventType,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Actor:     localActor(),
		Object:    obj,
		Context:   ctx,
		Result:    result,
	}
}

// Validate reports every missing required field at once.
func (e *Event) Validate() error {
	var missing []string
	if e.EventType == "" {
		missing = append(missing, "event_type")
	}
	if e.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if e.Actor.User == "" {
		missing = append(missing, "actor.user")
	}
	if e.Result == "" {
		missing = append(missing, "result")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidEvent, strings.Join(missing, ", "))
	}
	return nil
}

// hashInput is the event encoded with Hash cleared.
func (e *Event) hashInput() ([]byte, error) {
	unhashed := *e
	unhashed.Hash = ""
	return json.Marshal(&unhashed)
}
