package passphrase

import (
	"errors"
	"sync"
)

// ErrNoMoreAnswers is returned by a Scripted reader that ran out of answers.
var ErrNoMoreAnswers = errors.New("no more scripted answers")

// ScriptedReader replays fixed answers in order and records the prompts.
type ScriptedReader struct {
	mu      sync.Mutex
	answers []string
	prompts []string
}

// Scripted returns a Source answering prompts with answers, in order.
func Scripted(answers ...string) *Collector {
	return NewCollector(NewScriptedReader(answers...))
}

// NewScriptedReader creates a ScriptedReader.
func NewScriptedReader(answers ...string) *ScriptedReader {
	return &ScriptedReader{answers: append([]string(nil), answers...)}
}

// ReadSecret implements Reader.
func (s *ScriptedReader) ReadSecret(prompt string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return nil, ErrNoMoreAnswers
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return []byte(answer), nil
}

// Prompts returns the prompts shown so far.
func (s *ScriptedReader) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Remaining returns the number of unused answers.
func (s *ScriptedReader) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
