// Package llm implements the AI-backed explanation seam: a pluggable
// strategy that asks a local LLM CLI to explain an uncaught failure.
// The core hook never imports this package; callers wire it in with
// friendly.WithExplainer.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dotcommander/errfriendly/pkg/friendly"
)

const disableExternalLLMEnv = "ERRFRIENDLY_DISABLE_EXTERNAL_LLM"

const claudeHooklessSettingsJSON = `{"hooks":{}}`

// maxStackPromptBytes caps how much stack trace goes into the prompt.
const maxStackPromptBytes = 4000

// validatePrompt checks for unsafe characters in prompts.
// While Go's exec avoids shell injection (no shell involved),
// this is defense-in-depth: external CLIs may be shell scripts.
func validatePrompt(s string) error {
	if len(s) == 0 {
		return errors.New("empty prompt")
	}
	if len(s) > 16000 {
		return fmt.Errorf("prompt exceeds 16000 byte limit (%d bytes)", len(s))
	}
	if strings.ContainsRune(s, 0) {
		return errors.New("prompt contains null byte")
	}
	return nil
}

// Runner dispatches explanation prompts to a CLI tool based on agent identity.
// "claude" agents use `claude -p`, "opencode" agents use `opencode run`.
// No API keys required — the CLIs handle their own auth.
type Runner struct {
	command string
	args    func(prompt string) []string
}

// NewRunner returns a Runner for the given agent name.
// Returns error if agent type is unknown or CLI binary is not found in PATH.
func NewRunner(agentName string) (*Runner, error) {
	if strings.TrimSpace(os.Getenv(disableExternalLLMEnv)) != "" {
		return nil, fmt.Errorf("external LLM CLI execution disabled by %s", disableExternalLLMEnv)
	}

	r, err := resolveRunner(agentName)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(r.command); err != nil {
		return nil, fmt.Errorf("cli tool %q not found in PATH: %w", r.command, err)
	}
	return r, nil
}

// resolveRunner maps agent name to CLI command + arg builder.
// Returns error for unknown agent types. Empty string defaults to claude.
func resolveRunner(agentName string) (*Runner, error) {
	name := strings.ToLower(agentName)
	switch {
	case strings.HasPrefix(name, "opencode"):
		return &Runner{
			command: "opencode",
			args:    func(p string) []string { return []string{"run", p} },
		}, nil
	case strings.HasPrefix(name, "claude"), name == "":
		return &Runner{
			command: "claude",
			args: func(p string) []string {
				return []string{"-p", p, "--output-format", "text", "--settings", claudeHooklessSettingsJSON}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown agent type %q (supported: claude, opencode)", agentName)
	}
}

// limitedWriter caps writes at maxBytes, silently discarding overflow.
// This prevents OOM from malicious or buggy CLIs emitting unbounded stderr.
type limitedWriter struct {
	buf      bytes.Buffer
	maxBytes int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	originalLen := len(p)
	remaining := w.maxBytes - w.buf.Len()
	if remaining <= 0 {
		return originalLen, nil // discard but report success
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	w.buf.Write(p)
	return originalLen, nil // always report original len to avoid short write errors
}

// run executes the CLI with a prompt and returns the text response.
func (r *Runner) run(ctx context.Context, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", fmt.Errorf("invalid prompt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context expired before exec: %w", err)
	}
	args := r.args(prompt)
	cmd := exec.CommandContext(ctx, r.command, args...) //nolint:gosec // G204: command is caller-provided LLM CLI binary, validated at construction
	cmd.Env = os.Environ()

	var stdout bytes.Buffer
	stderrW := &limitedWriter{maxBytes: 4096}
	cmd.Stdout = &stdout
	cmd.Stderr = stderrW

	if err := cmd.Run(); err != nil {
		stderrMsg := stderrW.buf.String()
		if stderrW.buf.Len() >= stderrW.maxBytes {
			stderrMsg += " (truncated)"
		}
		return "", fmt.Errorf("cli %s failed: %w (stderr: %s)", r.command, err, stderrMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Command returns the CLI command name for this runner.
func (r *Runner) Command() string {
	return r.command
}

// Explainer implements the hook's Explainer contract on top of a Runner.
type Explainer struct {
	runner *Runner
}

// NewExplainer builds an AI explainer for the given agent name.
func NewExplainer(agentName string) (*Explainer, error) {
	r, err := NewRunner(agentName)
	if err != nil {
		return nil, err
	}
	return &Explainer{runner: r}, nil
}

// Command returns the CLI command name backing this explainer.
func (e *Explainer) Command() string {
	return e.runner.Command()
}

// Explain asks the LLM CLI for an explanation of the failure. Transient CLI
// failures are retried briefly; persistent failure returns an error so the
// hook falls back to built-in advice.
func (e *Explainer) Explain(ctx context.Context, rec friendly.Record) (string, error) {
	prompt := buildPrompt(rec)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second

	var out string
	err := backoff.Retry(func() error {
		var runErr error
		out, runErr = e.runner.run(ctx, prompt)
		if runErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(runErr)
		}
		return runErr
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errors.New("empty response from LLM CLI")
	}
	return out, nil
}

// buildPrompt renders a failure record into a bounded explanation prompt.
func buildPrompt(rec friendly.Record) string {
	stack := string(rec.Stack)
	if len(stack) > maxStackPromptBytes {
		stack = stack[:maxStackPromptBytes] + "\n(truncated)"
	}

	var b strings.Builder
	b.WriteString("A Go program stopped on an uncaught failure. In at most two short paragraphs, ")
	b.WriteString("explain in plain language what happened and how to fix it. ")
	b.WriteString("End with a section that starts with the exact line \"How to fix it:\".\n\n")
	fmt.Fprintf(&b, "Failure category: %s\n", rec.Category)
	fmt.Fprintf(&b, "Failure message: %s\n", rec.Message)
	if stack != "" {
		fmt.Fprintf(&b, "\nStack trace:\n%s\n", stack)
	}
	return b.String()
}
