//go:build basic

// Package integration contains integration tests for abfolio.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"bytes"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runForOutput executes the shared binary and captures stdout.
func runForOutput(t *testing.T, args ...string) string {
	cmd := exec.Command(getAbfolioBinary(), args...)
	cmd.Dir = "../"
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.NoError(t, err, "stderr: %s", stderr.String())
	return stdout.String()
}

// TestStatsVerification runs a full stats pass against a stub platform and
// verifies the portfolio summary in the text output.
func TestStatsVerification(t *testing.T) {
	server := startStubPlatform()
	defer server.Close()

	out := runForOutput(t, "stats",
		"--platform-url", server.URL,
		"--cache-backend", "none",
	)

	assert.Contains(t, out, "Experiment Portfolio (1 ended)")
	assert.Contains(t, out, "1 won / 0 lost / 0 inconclusive")
	assert.Contains(t, out, "Checkout button color")
	assert.Contains(t, out, "+15.0%")
}

// TestVerdictVerification checks the single-experiment view end to end.
func TestVerdictVerification(t *testing.T) {
	server := startStubPlatform()
	defer server.Close()

	out := runForOutput(t, "verdict", "exp_1",
		"--platform-url", server.URL,
		"--cache-backend", "none",
	)

	assert.Contains(t, out, "Checkout button color (exp_1)")
	assert.Contains(t, out, "Verdict: Won")
	assert.Contains(t, out, "Primary metric: Conversion")
	assert.Contains(t, out, "Lift: +15.0%")
}

// TestVersionCommand verifies the version output shape.
func TestVersionCommand(t *testing.T) {
	out := runForOutput(t, "version")
	assert.Contains(t, out, "abfolio CLI")
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Runtime:")
}
