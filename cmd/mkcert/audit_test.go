package main

import (
	"strings"
	"testing"

	"github.com/remiblancher/mkcert/internal/audit"
)

// writeAuditLog writes n chained events to a log in the temp directory.
func (tc *testContext) writeAuditLog(name string, n int) string {
	tc.t.Helper()
	path := tc.path(name)
	w, err := audit.NewFileWriter(path)
	assertNoError(tc.t, err)
	rec := audit.NewRecorder(w)
	for i := 0; i < n; i++ {
		assertNoError(tc.t, rec.KeyGenerated(tc.path("test.key"), 2048))
	}
	assertNoError(tc.t, w.Close())
	return path
}

// =============================================================================
// Audit Verify Tests
// =============================================================================

func TestF_Audit_Verify_LogNotFound(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "audit", "verify", "--log", tc.path("nonexistent.jsonl"))
	assertError(t, err)
}

func TestF_Audit_Verify_EmptyLog(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeFile("audit.jsonl", "")

	out, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertNoError(t, err)
	assertContains(t, out, "Total events: 0")
}

func TestF_Audit_Verify_ValidLog(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeAuditLog("audit.jsonl", 3)

	out, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertNoError(t, err)
	assertContains(t, out, "VERIFICATION PASSED")
	assertContains(t, out, "Total events: 3")
}

func TestF_Audit_Verify_TamperedLog(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeAuditLog("audit.jsonl", 2)

	data, err := readFileString(logPath)
	assertNoError(t, err)
	tc.writeFile("audit.jsonl", strings.Replace(data, "RSA-2048", "RSA-4096", 1))

	out, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertError(t, err)
	assertContains(t, out, "VERIFICATION FAILED")
}

// =============================================================================
// Audit Tail Tests
// =============================================================================

func TestF_Audit_Tail_LogNotFound(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "audit", "tail", "--log", tc.path("nonexistent.jsonl"))
	assertError(t, err)
}

func TestF_Audit_Tail_EmptyLog(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeFile("audit.jsonl", "")

	out, err := executeCommand(rootCmd, "audit", "tail", "--log", logPath)
	assertNoError(t, err)
	assertContains(t, out, "Audit log is empty")
}

func TestF_Audit_Tail_WithNumFlag(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeAuditLog("audit.jsonl", 5)

	out, err := executeCommand(rootCmd, "audit", "tail", "--log", logPath, "-n", "2")
	assertNoError(t, err)
	if got := strings.Count(out, "KEY_GENERATED"); got != 2 {
		t.Errorf("expected 2 events, got %d", got)
	}
	assertContains(t, out, "algorithm=RSA-2048")
}

func TestF_Audit_Tail_JSON(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeAuditLog("audit.jsonl", 2)

	out, err := executeCommand(rootCmd, "audit", "tail", "--log", logPath, "--json")
	assertNoError(t, err)
	if !strings.HasPrefix(out, "[\n") || !strings.HasSuffix(out, "\n]\n") {
		t.Errorf("expected a JSON array, got %q", out)
	}
}
