package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/remiblancher/mkcert/internal/audit"
	"github.com/remiblancher/mkcert/internal/passphrase"
)

const testPassphrase = "correct horse"

// executeCommand executes a Cobra command with the given args and returns output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	if args == nil {
		args = []string{} // a nil slice makes cobra fall back to os.Args
	}
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.Execute()
	return buf.String(), err
}

// resetGlobalFlags resets every package-level flag and the state the root
// command resolves, so tests sharing rootCmd do not leak into each other.
func resetGlobalFlags(t *testing.T) {
	t.Helper()
	configPath = ""
	auditLogPath = ""
	verbose = false
	appConfig = nil

	issueTemplateFiles = nil
	issueBundleFiles = nil
	issueOutDir = ""

	auditLogFile = ""
	auditTailNum = 10
	auditShowJSON = false

	if f := rootCmd.Flags().Lookup("version"); f != nil {
		_ = f.Value.Set("false")
	}

	t.Setenv("MKCERT_CONFIG", "")
	t.Setenv("MKCERT_OUT_DIR", "")
	t.Setenv("MKCERT_AUDIT_LOG", "")
	t.Cleanup(func() { _ = audit.Close() })
}

// useScriptedPassphrases answers every prompt from answers, in order.
func useScriptedPassphrases(t *testing.T, answers ...string) *passphrase.ScriptedReader {
	t.Helper()
	reader := passphrase.NewScriptedReader(answers...)
	saved := newPassphraseSource
	newPassphraseSource = func() passphrase.Source { return passphrase.NewCollector(reader) }
	t.Cleanup(func() { newPassphraseSource = saved })
	return reader
}

// testContext holds test resources.
type testContext struct {
	t       *testing.T
	tempDir string
}

// newTestContext creates a new test context with a temp directory and a
// fast configuration file.
func newTestContext(t *testing.T) *testContext {
	t.Helper()
	resetGlobalFlags(t)
	tc := &testContext{t: t, tempDir: t.TempDir()}
	configPath = tc.writeFile("config.yaml", "key_kdf_iterations: 1000\np12_kdf_iterations: 1000\n")
	return tc
}

// path returns a path within the temp directory.
func (tc *testContext) path(name string) string {
	return filepath.Join(tc.tempDir, name)
}

// writeFile writes content to a file in the temp directory.
func (tc *testContext) writeFile(name, content string) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tc.t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

// writeTemplate writes a single-request template for cn.
func (tc *testContext) writeTemplate(name, cn string, selfSigned bool) string {
	tc.t.Helper()
	var b strings.Builder
	b.WriteString("- common_name: " + cn + "\n")
	b.WriteString("  organization: X\n  locality: X\n  state: X\n  country: X\n")
	b.WriteString("  key_size_bits: 1024\n")
	if selfSigned {
		b.WriteString("  self_signed: true\n  days_until_expiration: 365\n")
	} else {
		b.WriteString("  self_signed: false\n")
	}
	return tc.writeFile(name, b.String())
}

// issue runs a template through the root command and fails on error.
func (tc *testContext) issue(templatePath string) string {
	tc.t.Helper()
	useScriptedPassphrases(tc.t, testPassphrase, testPassphrase)
	out, err := executeCommand(rootCmd, "--config", configPath, "--file", templatePath, "--out-dir", tc.tempDir)
	if err != nil {
		tc.t.Fatalf("issue failed: %v\n%s", err, out)
	}
	resetIssueFlags()
	return out
}

func resetIssueFlags() {
	issueTemplateFiles = nil
	issueBundleFiles = nil
	issueOutDir = ""
	auditLogPath = ""
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// assertFileExists verifies that a file exists at the given path.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("file %s does not exist", path)
	}
}

// assertFileNotExists verifies that nothing exists at the given path.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("file %s should not exist", path)
	}
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertError fails the test if err is nil.
func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// assertContains fails the test if s does not contain substr.
func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected %q to contain %q", s, substr)
	}
}

// readFileString returns the content of path as a string.
func readFileString(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}
