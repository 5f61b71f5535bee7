package friendly

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// panicExitCode mirrors the Go runtime's exit status for an uncaught panic.
// The hook only adds output; it never changes how the process terminates.
const panicExitCode = 2

// aiExplainTimeout bounds a pluggable Explainer call so a hung external
// process cannot stall failure reporting indefinitely.
const aiExplainTimeout = 30 * time.Second

// Handler consumes one failure record. It is the Go rendering of the
// process-wide "unhandled failure handler" slot: the hook's Guard dispatches
// every recovered panic to whichever Handler is active.
type Handler interface {
	HandleFailure(rec Record)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Record)

func (f HandlerFunc) HandleFailure(rec Record) { f(rec) }

// Explainer produces explanation text for a record. Implementations may
// call external services (e.g. an LLM CLI); the hook falls back to the
// built-in advice when an Explainer errors.
type Explainer interface {
	Explain(ctx context.Context, rec Record) (string, error)
}

// AuditSink receives every handled failure together with the explanation
// that was emitted for it. Wired in by callers that persist failures.
type AuditSink func(rec Record, explanation string) error

// Hook owns the process-wide installed/not-installed state. At most one
// override is active per Hook; Uninstall restores exactly the handler that
// was captured at install time. The zero value is not usable — construct
// with NewHook.
type Hook struct {
	mu        sync.Mutex
	active    Handler
	saved     Handler
	installed bool

	showTrace bool
	logPath   string
	explainer Explainer
	audit     AuditSink

	out  io.Writer
	exit func(int)
}

// NewHook returns a Hook whose active handler is the built-in default:
// print the panic banner and stack, exit 2 — what the runtime itself does.
func NewHook() *Hook {
	h := &Hook{
		showTrace: true,
		out:       os.Stderr,
		exit:      os.Exit,
	}
	h.active = &runtimeDefaultHandler{hook: h}
	return h
}

// Option configures a Hook at Install time.
type Option func(*Hook)

// WithShowTrace controls whether the raw panic banner and stack trace are
// emitted before the explanation block. Default true.
func WithShowTrace(show bool) Option {
	return func(h *Hook) { h.showTrace = show }
}

// WithLogPath additionally appends the full diagnostic text to the file at
// path. The file is opened and closed per invocation; no descriptor is held
// across calls.
func WithLogPath(path string) Option {
	return func(h *Hook) { h.logPath = path }
}

// WithExplainer overrides the built-in advice lookup with a pluggable
// strategy. When the strategy fails, the built-in text is used and the
// failure is downgraded to a warning line.
func WithExplainer(e Explainer) Option {
	return func(h *Hook) { h.explainer = e }
}

// WithAuditSink records every handled failure to the given sink.
func WithAuditSink(sink AuditSink) Option {
	return func(h *Hook) { h.audit = sink }
}

// WithWriter redirects the diagnostic stream (default os.Stderr).
func WithWriter(w io.Writer) Option {
	return func(h *Hook) { h.out = w }
}

// WithExitFunc replaces os.Exit for the termination step. Tests use this to
// observe the exit code without exiting.
func WithExitFunc(exit func(int)) Option {
	return func(h *Hook) { h.exit = exit }
}

// Install activates the friendly handler. Idempotent with respect to the
// saved original: the first call captures the currently active handler,
// repeat calls never overwrite that capture. Every call refreshes the
// wrapper configuration, so re-installing with different options takes
// effect immediately.
func (h *Hook) Install(opts ...Option) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Reset install-scoped config so a bare re-Install returns to defaults.
	h.showTrace = true
	h.logPath = ""
	h.explainer = nil
	h.audit = nil
	for _, o := range opts {
		o(h)
	}

	if !h.installed {
		h.saved = h.active
		h.installed = true
	}
	h.active = &friendlyHandler{hook: h}
}

// Uninstall restores the handler captured at install time and clears the
// saved state. When nothing was ever saved it is a no-op that still
// guarantees the built-in default is active.
func (h *Hook) Uninstall() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.installed {
		h.active = h.saved
		h.saved = nil
		h.installed = false
		return
	}
	h.active = &runtimeDefaultHandler{hook: h}
}

// IsInstalled reports whether the active handler is this hook's own
// wrapper. A handler swapped in behind our back (SetHandler) makes this
// false even if Install was called earlier.
func (h *Hook) IsInstalled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.active.(*friendlyHandler)
	return ok && w.hook == h
}

// SetHandler replaces the active handler slot directly and returns the
// previous one. The saved original from Install is untouched; this is the
// equivalent of assigning the raw hook slot in a host runtime.
func (h *Hook) SetHandler(next Handler) Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.active
	if next == nil {
		next = &runtimeDefaultHandler{hook: h}
	}
	h.active = next
	return prev
}

// Handler returns the currently active handler.
func (h *Hook) Handler() Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Guard recovers an in-flight panic and hands it to the active handler,
// then terminates with the runtime's panic exit code. Use as the first
// deferred call in main (or at a goroutine's top frame):
//
//	defer hook.Guard()
//
// Guard must be deferred directly; recover only works in that position.
func (h *Hook) Guard() {
	if rec := recover(); rec != nil {
		h.Handle(rec, callStack())
	}
}

// Handle dispatches an already-recovered value to the active handler and
// exits. Exposed for callers that recover themselves.
func (h *Hook) Handle(recovered any, stack []byte) {
	h.mu.Lock()
	handler := h.active
	exit := h.exit
	h.mu.Unlock()

	handler.HandleFailure(NewRecord(recovered, stack))
	exit(panicExitCode)
}

// Warn prints a friendly non-fatal warning block for a suspicious value.
// Same classification pipeline as the fatal path; never terminates.
func (h *Hook) Warn(v any) {
	h.mu.Lock()
	out := h.out
	h.mu.Unlock()

	rec := NewRecord(v, nil)
	block := formatBlock(warningHeader, lookupAdvice(rec.Category, rec.Message), rec.Message, "")
	if _, err := fmt.Fprintln(out, block); err != nil {
		warnf(os.Stderr, "write warning block: %v", err)
	}
}

// runtimeDefaultHandler mimics the runtime's own report: panic banner plus
// stack. Active when the hook is not installed.
type runtimeDefaultHandler struct {
	hook *Hook
}

func (d *runtimeDefaultHandler) HandleFailure(rec Record) {
	d.hook.mu.Lock()
	out := d.hook.out
	d.hook.mu.Unlock()
	writeTrace(out, rec)
}

// friendlyHandler is the installed wrapper: raw trace (optional), then the
// explanation block, then the log/audit seams. Failures inside any step are
// downgraded to warning lines — the original diagnostic must never be
// masked by this tool's own problems.
type friendlyHandler struct {
	hook *Hook
}

func (f *friendlyHandler) HandleFailure(rec Record) {
	h := f.hook
	h.mu.Lock()
	showTrace := h.showTrace
	logPath := h.logPath
	explainer := h.explainer
	audit := h.audit
	out := h.out
	h.mu.Unlock()

	if showTrace {
		writeTrace(out, rec)
	}

	// Every collaborator below runs behind a recover: a secondary failure
	// is downgraded to a warning line and must never mask the original.
	explanation := safeExplain(rec, explainer, out)
	if _, err := fmt.Fprintln(out, explanation); err != nil {
		warnf(os.Stderr, "write explanation: %v", err)
		if !showTrace {
			writeTrace(out, rec)
		}
	}

	if logPath != "" {
		guardCollaborator(out, "failure log", func() error {
			return appendDiagnosticLog(logPath, rec, explanation)
		})
	}
	if audit != nil {
		guardCollaborator(out, "audit sink", func() error {
			return audit(rec, explanation)
		})
	}
}

// guardCollaborator runs one collaborator call, downgrading both returned
// errors and panics to warning lines.
func guardCollaborator(out io.Writer, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			warnf(out, "%s panicked: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		warnf(out, "%s: %v", name, err)
	}
}

// safeExplain resolves the explanation text, preferring a pluggable
// Explainer and falling back to the built-in advice on any failure.
func safeExplain(rec Record, explainer Explainer, out io.Writer) string {
	if explainer != nil {
		text, err := runExplainer(rec, explainer)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			warnf(out, "explainer failed, using built-in advice: %v", err)
		}
	}
	return ExplainRecord(rec)
}

// runExplainer calls the pluggable strategy with a deadline, converting a
// panicking implementation into an ordinary error.
func runExplainer(rec Record, explainer Explainer) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("explainer panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), aiExplainTimeout)
	defer cancel()
	return explainer.Explain(ctx, rec)
}

func writeTrace(out io.Writer, rec Record) {
	if _, err := fmt.Fprintf(out, "panic: %v\n\n%s\n", rec.Value, rec.Stack); err != nil {
		warnf(os.Stderr, "write trace: %v", err)
	}
}

func warnf(out io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(out, "errfriendly: warning: "+format+"\n", args...)
}

// appendDiagnosticLog writes the full diagnostic to path with a scoped
// open/write/close; the file is released on every exit path.
func appendDiagnosticLog(path string, rec Record, explanation string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if _, err = fmt.Fprintf(f, "panic: %v\n\n%s\n%s\n\n", rec.Value, rec.Stack, explanation); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
