package passphrase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectNew(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    string
		wantErr error
	}{
		{name: "matching entries", answers: []string{"s3cret", "s3cret"}, want: "s3cret"},
		{name: "mismatch", answers: []string{"s3cret", "s3cres"}, wantErr: ErrPassphraseMismatch},
		{name: "empty", answers: []string{"", ""}, wantErr: ErrEmptyPassphrase},
		{name: "empty then non-empty", answers: []string{"", "s3cret"}, wantErr: ErrPassphraseMismatch},
		{name: "no confirmation", answers: []string{"s3cret"}, wantErr: ErrNoMoreAnswers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := Scripted(tt.answers...).CollectNew("")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, secret)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(secret.Bytes()))
		})
	}
}

func TestCollectNew_Prompts(t *testing.T) {
	r := NewScriptedReader("a", "a")
	_, err := NewCollector(r).CollectNew("")
	require.NoError(t, err)
	assert.Equal(t, []string{PromptNew, PromptVerify}, r.Prompts())
}

func TestCollectNew_EmptyIsConfirmedFirst(t *testing.T) {
	r := NewScriptedReader("", "", "unused")
	_, err := NewCollector(r).CollectNew("")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
	assert.Equal(t, []string{PromptNew, PromptVerify}, r.Prompts())
	assert.Equal(t, 1, r.Remaining())
}

func TestCollectExisting(t *testing.T) {
	r := NewScriptedReader("hunter2", "unused")
	secret, err := NewCollector(r).CollectExisting("")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(secret.Bytes()))
	assert.Equal(t, []string{PromptExisting}, r.Prompts())
	assert.Equal(t, 1, r.Remaining())
}

func TestCollectExisting_CustomPrompt(t *testing.T) {
	r := NewScriptedReader("x")
	_, err := NewCollector(r).CollectExisting("Passphrase for test.key: ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Passphrase for test.key: "}, r.Prompts())
}

func TestSecret_Wipe(t *testing.T) {
	b := []byte("s3cret")
	s := NewSecret(b)
	assert.Equal(t, 6, s.Len())

	s.Wipe()
	assert.Equal(t, make([]byte, 6), b)
	assert.Nil(t, s.Bytes())

	var nilSecret *Secret
	assert.NotPanics(t, nilSecret.Wipe)
}

func TestSecret_Redacted(t *testing.T) {
	s := NewSecret([]byte("s3cret"))
	for _, out := range []string{
		fmt.Sprintf("%s", s),
		fmt.Sprintf("%v", s),
		fmt.Sprintf("%#v", s),
		s.String(),
	} {
		assert.NotContains(t, out, "s3cret")
	}
}

func TestTrimLineEnding(t *testing.T) {
	assert.Equal(t, []byte("abc"), trimLineEnding([]byte("abc\r\n")))
	assert.Equal(t, []byte("abc"), trimLineEnding([]byte("abc\n")))
	assert.Equal(t, []byte("abc"), trimLineEnding([]byte("abc")))
}
