package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	orig := Output
	Output = buf
	t.Cleanup(func() { Output = orig })
	return buf
}

func TestMaskInsideGitHubActions(t *testing.T) {
	buf := captureOutput(t)
	t.Setenv("GITHUB_ACTIONS", "true")

	Mask("tok-123")

	assert.Equal(t, "::add-mask::tok-123\n", buf.String())
}

func TestMaskOutsideGitHubActions(t *testing.T) {
	buf := captureOutput(t)
	t.Setenv("GITHUB_ACTIONS", "")

	Mask("tok-123")

	assert.Empty(t, buf.String())
}

func TestMaskIgnoresEmptySecret(t *testing.T) {
	buf := captureOutput(t)
	t.Setenv("GITHUB_ACTIONS", "true")

	Mask("")

	assert.Empty(t, buf.String())
}

func TestDebugIsSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() { Debug("[DEBUG] %s\n", "early") })
	Init(false)
	assert.NotPanics(t, func() { Debug("[DEBUG] %s\n", "after init") })
}
