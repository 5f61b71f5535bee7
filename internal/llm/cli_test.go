package llm

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/errfriendly/pkg/friendly"
)

func TestResolveRunner_Claude(t *testing.T) {
	r, err := resolveRunner("claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", r.command)
	args := r.args("hello")
	assert.Equal(t, []string{"-p", "hello", "--output-format", "text", "--settings", claudeHooklessSettingsJSON}, args)
}

func TestResolveRunner_OpenCode(t *testing.T) {
	r, err := resolveRunner("opencode")
	require.NoError(t, err)
	assert.Equal(t, "opencode", r.command)
	assert.Equal(t, []string{"run", "hello"}, r.args("hello"))
}

func TestResolveRunner_EmptyDefaultsToClaude(t *testing.T) {
	r, err := resolveRunner("")
	require.NoError(t, err)
	assert.Equal(t, "claude", r.command)
}

func TestResolveRunner_UnknownAgent(t *testing.T) {
	_, err := resolveRunner("gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent type")
}

func TestNewRunner_DisabledByEnv(t *testing.T) {
	t.Setenv(disableExternalLLMEnv, "1")
	_, err := NewRunner("claude")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestValidatePrompt(t *testing.T) {
	require.Error(t, validatePrompt(""))
	require.Error(t, validatePrompt(strings.Repeat("x", 16001)))
	require.Error(t, validatePrompt("bad\x00prompt"))
	require.NoError(t, validatePrompt("explain this panic"))
}

func TestLimitedWriter_CapsOutput(t *testing.T) {
	w := &limitedWriter{maxBytes: 8}
	n, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n, "must report original length")
	assert.Equal(t, "01234567", w.buf.String())

	n, err = w.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "01234567", w.buf.String())
}

func TestExplainerCommand(t *testing.T) {
	r, err := resolveRunner("opencode")
	require.NoError(t, err)
	e := &Explainer{runner: r}
	assert.Equal(t, "opencode", e.Command())
}

func TestExplain_WithMockScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "mock-claude")
	err := os.WriteFile(script, []byte("#!/bin/sh\necho 'You divided by zero. How to fix it: check the divisor.'\n"), 0o755)
	require.NoError(t, err)

	e := &Explainer{runner: &Runner{
		command: script,
		args:    func(p string) []string { return []string{p} },
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := friendly.NewRecord("runtime error: integer divide by zero", []byte("goroutine 1 [running]:"))
	out, err := e.Explain(ctx, rec)
	require.NoError(t, err)
	assert.Contains(t, out, "divided by zero")
}

func TestExplain_FailsOnBadCommand(t *testing.T) {
	e := &Explainer{runner: &Runner{
		command: "/nonexistent/command",
		args:    func(p string) []string { return []string{p} },
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := e.Explain(ctx, friendly.NewRecord("boom", nil))
	require.Error(t, err)
}

func TestBuildPrompt_TruncatesStack(t *testing.T) {
	rec := friendly.Record{
		Category: friendly.CategoryUnknown,
		Message:  "boom",
		Stack:    []byte(strings.Repeat("x", maxStackPromptBytes*2)),
	}
	p := buildPrompt(rec)
	assert.Contains(t, p, "(truncated)")
	require.NoError(t, validatePrompt(p))
}
