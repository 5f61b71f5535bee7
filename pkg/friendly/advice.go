package friendly

import (
	"strconv"
	"strings"
	"sync"
)

// Markers that tests and downstream tooling assert on. Part of the output
// contract, not cosmetic.
const (
	explanationHeader = "FRIENDLY ERROR EXPLANATION"
	warningHeader     = "FRIENDLY WARNING"
	fixHeader         = "How to fix it"
)

const banner = "============================================================"

// Advice pairs a category (and optional message substrings) with an
// explanation and a fix suggestion. Entries with Match substrings refine a
// category; an entry matches only when every substring appears in the
// failure message. Most-specific entries must be listed first.
type Advice struct {
	Category Category `yaml:"category"`
	Match    []string `yaml:"match,omitempty"`
	What     string   `yaml:"what"`
	Fix      string   `yaml:"fix"`
}

// adviceTable is the built-in advice, read-only at runtime. Within a
// category, refined entries precede the catch-all entry.
var adviceTable = []Advice{
	{
		Category: CategoryNilDereference,
		What:     "Your program followed a nil pointer: it used a value (pointer, interface, func, or method receiver) that was never assigned anything.",
		Fix:      "Find the variable named in the trace and make sure it is initialized before use. Guard with `if x != nil` where nil is a legitimate state, and check error returns — a failed constructor usually returns a nil result.",
	},
	{
		Category: CategoryIndexOutOfRange,
		What:     "Your program read or wrote a slice/array index that does not exist. Valid indexes run from 0 to len-1.",
		Fix:      "Compare the index against len(s) before using it. Off-by-one bugs in loop bounds (`<=` instead of `<`) and indexing into an empty slice are the usual causes.",
	},
	{
		Category: CategorySliceBounds,
		What:     "A slice expression reached past the end of the underlying data: the high bound exceeded the slice's length or capacity.",
		Fix:      "Clamp the bounds first, e.g. `s[a:min(b, len(s))]`. Remember that `s[low:high]` requires low <= high <= len(s) (cap(s) for a full slice expression).",
	},
	{
		Category: CategoryDivideByZero,
		What:     "Your program divided an integer by zero. Unlike floating point (which yields Inf/NaN), integer division by zero stops the program.",
		Fix:      "Check the divisor before dividing: `if d == 0 { ... }`. If the divisor comes from input or a computation, decide explicitly what a zero means there and handle that case.",
	},
	{
		Category: CategoryNilMapWrite,
		What:     "Your program assigned into a nil map. Declaring a map variable does not allocate it; only reads are safe on a nil map.",
		Fix:      "Initialize the map before writing: `m := make(map[K]V)` or a composite literal. For maps inside structs, initialize them in the constructor.",
	},
	{
		Category: CategoryInterfaceConversion,
		What:     "A type assertion failed: the value stored in the interface was not the concrete type the code asserted it to be.",
		Fix:      "Use the comma-ok form — `v, ok := x.(T)` — and handle ok == false, or switch on the type with a type switch instead of asserting blindly.",
	},
	{
		Category: CategoryMissingKey,
		What:     "Your program looked up a key that is not present in the map or store it queried.",
		Fix:      "Use the comma-ok lookup — `v, ok := m[key]` — and handle the missing case. Check the key for typos and mismatched case or whitespace; keys that look identical are not always equal.",
	},
	{
		Category: CategoryBadConversion,
		Match:    []string{"value out of range"},
		What:     "A string held a number too large (or too small) for the numeric type it was parsed into.",
		Fix:      "Parse into a wider type (e.g. ParseInt with bitSize 64) or validate the input range first, then convert down with an explicit bounds check.",
	},
	{
		Category: CategoryBadConversion,
		What:     "A string could not be converted to a number: it contains characters that are not part of a valid numeric literal.",
		Fix:      "Trim whitespace and validate the input before converting, and handle the error from strconv instead of ignoring it. If the string may legitimately be non-numeric, branch on the error.",
	},
	{
		Category: CategoryFileNotFound,
		What:     "Your program tried to open a file or directory that does not exist at the path it used.",
		Fix:      "Print the exact path being opened and compare it with what is on disk. Relative paths resolve against the process working directory, not the source file. Create missing parents with os.MkdirAll where appropriate.",
	},
	{
		Category: CategoryConcurrentMapAccess,
		Match:    []string{"concurrent map read and map write"},
		What:     "Two goroutines touched the same map at once, one of them writing. Plain maps are not safe for concurrent use.",
		Fix:      "Protect the map with a sync.RWMutex (RLock for reads, Lock for writes), or use sync.Map for disjoint concurrent access patterns.",
	},
	{
		Category: CategoryConcurrentMapAccess,
		What:     "Two goroutines wrote to the same map at the same time. Plain maps are not safe for concurrent use.",
		Fix:      "Serialize access with a sync.Mutex around every read and write, or restructure so one goroutine owns the map and others communicate over a channel.",
	},
	{
		Category: CategoryUnknown,
		What:     "The program stopped on a failure that errfriendly does not recognize. The original message above is the authoritative description.",
		Fix:      "Read the first lines of the stack trace top-down: the topmost frames in your own packages usually name the function and line where things went wrong.",
	},
}

// genericAdvice is the floor: used when lookup itself fails. Explain must
// return something even when its own machinery breaks.
var genericAdvice = Advice{
	Category: CategoryUnknown,
	What:     "The program stopped on an unhandled failure.",
	Fix:      "Inspect the original message and stack trace above to locate the failing call.",
}

// adviceOverrides holds user-supplied entries (typically loaded from
// config.yaml) consulted before the built-in table. Registered at startup,
// before the hook is installed.
var (
	adviceOverridesMu sync.RWMutex
	adviceOverrides   []Advice
)

// RegisterAdvice prepends user advice entries to the lookup order so they
// shadow built-in entries for the same category/pattern. Intended to be
// called once at startup, before Install.
func RegisterAdvice(entries ...Advice) {
	adviceOverridesMu.Lock()
	defer adviceOverridesMu.Unlock()
	adviceOverrides = append(adviceOverrides, entries...)
}

// ResetAdvice drops all registered overrides. Primarily for tests.
func ResetAdvice() {
	adviceOverridesMu.Lock()
	defer adviceOverridesMu.Unlock()
	adviceOverrides = nil
}

// lookupAdvice returns the most specific advice for a category and message.
// Exact category match first; within the category, the first entry whose
// Match substrings all appear in the message wins; entries without Match
// are the category catch-all.
func lookupAdvice(category Category, message string) Advice {
	adviceOverridesMu.RLock()
	overrides := adviceOverrides
	adviceOverridesMu.RUnlock()

	for _, table := range [][]Advice{overrides, adviceTable} {
		for _, a := range table {
			if a.Category != category {
				continue
			}
			if matchesAll(message, a.Match) {
				return a
			}
		}
	}

	// Unrecognized category: fall through to the unknown catch-all.
	for _, a := range adviceTable {
		if a.Category == CategoryUnknown && len(a.Match) == 0 {
			return a
		}
	}
	return genericAdvice
}

func matchesAll(message string, substrs []string) bool {
	for _, s := range substrs {
		if !strings.Contains(message, s) {
			return false
		}
	}
	return true
}

// Explain maps a category and message to the bannered explanation block.
// Total function: it returns a non-empty block for every input, including
// unrecognized categories, and never panics — a secondary failure inside
// the failure-reporting path must not mask the original error.
func Explain(category Category, message string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = formatBlock(explanationHeader, genericAdvice, message, "")
		}
	}()
	return formatBlock(explanationHeader, lookupAdvice(category, message), message, "")
}

// ExplainRecord is Explain over an already-classified Record, adding the
// failure site when one was captured from the stack. Same totality
// guarantee as Explain.
func ExplainRecord(rec Record) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = formatBlock(explanationHeader, genericAdvice, rec.Message, "")
		}
	}()
	location := ""
	if rec.File != "" {
		location = rec.File + ":" + strconv.Itoa(rec.Line)
	}
	return formatBlock(explanationHeader, lookupAdvice(rec.Category, rec.Message), rec.Message, location)
}

func formatBlock(header string, a Advice, message, location string) string {
	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("\n ")
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(banner)
	b.WriteString("\n\nWhat happened:\n")
	writeIndented(&b, a.What)
	if message != "" {
		b.WriteString("\nOriginal message:\n")
		writeIndented(&b, message)
	}
	if location != "" {
		b.WriteString("\nWhere:\n")
		writeIndented(&b, location)
	}
	b.WriteString("\n")
	b.WriteString(fixHeader)
	b.WriteString(":\n")
	writeIndented(&b, a.Fix)
	b.WriteString(banner)
	return b.String()
}

// writeIndented wraps text at ~72 columns with a two-space indent.
func writeIndented(b *strings.Builder, text string) {
	const width = 72
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			b.WriteString("\n")
			continue
		}
		col := 0
		for _, w := range words {
			if col == 0 {
				b.WriteString("  ")
				b.WriteString(w)
				col = 2 + len(w)
				continue
			}
			if col+1+len(w) > width {
				b.WriteString("\n  ")
				b.WriteString(w)
				col = 2 + len(w)
				continue
			}
			b.WriteString(" ")
			b.WriteString(w)
			col += 1 + len(w)
		}
		b.WriteString("\n")
	}
}
