// Package friendly intercepts uncaught panics and appends a human-readable
// explanation to the normal failure report.
//
// The package owns a default Hook. Typical use installs it and guards main:
//
//	func main() {
//		friendly.Install()
//		defer friendly.Guard()
//		run()
//	}
//
// Explain is safe to call directly without installing anything; it is a pure
// lookup over the advice table.
package friendly

import "runtime/debug"

// defaultHook is the package-owned singleton behind the top-level API.
var defaultHook = NewHook()

// Default returns the package-level Hook, for callers that need the full
// option surface or dependency injection in tests.
func Default() *Hook { return defaultHook }

// Install activates the friendly handler on the default Hook.
func Install(opts ...Option) { defaultHook.Install(opts...) }

// Uninstall restores the handler that was active before the first Install.
func Uninstall() { defaultHook.Uninstall() }

// IsInstalled reports whether the default Hook's wrapper is active.
func IsInstalled() bool { return defaultHook.IsInstalled() }

// Guard recovers an in-flight panic and reports it through the default
// Hook. Must be deferred directly:
//
//	defer friendly.Guard()
func Guard() {
	if rec := recover(); rec != nil {
		defaultHook.Handle(rec, callStack())
	}
}

// Warn prints a friendly non-fatal warning block through the default Hook.
func Warn(v any) { defaultHook.Warn(v) }

func callStack() []byte { return debug.Stack() }
