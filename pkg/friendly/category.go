package friendly

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strconv"
	"strings"
)

// Category is a closed classification of failure kinds. Unrecognized
// failures map to CategoryUnknown rather than growing the set at runtime.
type Category string

// Category constants.
const (
	CategoryNilDereference      Category = "nil_dereference"
	CategoryIndexOutOfRange     Category = "index_out_of_range"
	CategorySliceBounds         Category = "slice_bounds"
	CategoryDivideByZero        Category = "divide_by_zero"
	CategoryNilMapWrite         Category = "nil_map_write"
	CategoryInterfaceConversion Category = "interface_conversion"
	CategoryMissingKey          Category = "missing_key"
	CategoryBadConversion       Category = "bad_conversion"
	CategoryFileNotFound        Category = "file_not_found"
	CategoryConcurrentMapAccess Category = "concurrent_map_access"
	CategoryUnknown             Category = "unknown"
)

func (c Category) String() string { return string(c) }

// Categories returns every supported category in stable order,
// CategoryUnknown last.
func Categories() []Category {
	return []Category{
		CategoryNilDereference,
		CategoryIndexOutOfRange,
		CategorySliceBounds,
		CategoryDivideByZero,
		CategoryNilMapWrite,
		CategoryInterfaceConversion,
		CategoryMissingKey,
		CategoryBadConversion,
		CategoryFileNotFound,
		CategoryConcurrentMapAccess,
		CategoryUnknown,
	}
}

// CategoryOf parses a category name as printed by Categories.
// Returns (CategoryUnknown, false) for names outside the closed set.
func CategoryOf(name string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Categories() {
		if c == known {
			return known, true
		}
	}
	return CategoryUnknown, false
}

// Record is one uncaught failure as seen by the hook: the recovered value,
// its classification, and the stack captured at the recover point.
// Immutable once built; consumed exactly once by the active handler.
type Record struct {
	Category Category
	Message  string
	Value    any
	Stack    []byte

	// Optional source context. Zero values mean "not captured".
	File string
	Line int
}

// NewRecord classifies a recovered value and pairs it with a captured stack.
// The likely failure site is extracted from the stack into File and Line.
func NewRecord(recovered any, stack []byte) Record {
	file, line := sourceContext(stack)
	return Record{
		Category: Classify(recovered),
		Message:  messageOf(recovered),
		Value:    recovered,
		Stack:    stack,
		File:     file,
		Line:     line,
	}
}

// sourceContext walks a captured stack and returns the first frame outside
// the runtime, the panic machinery, and this package: the frame most likely
// to be the failure site. Returns zero values when no such frame exists.
func sourceContext(stack []byte) (string, int) {
	lines := strings.Split(string(stack), "\n")
	for i := 0; i+1 < len(lines); i++ {
		fn := lines[i]
		if fn == "" || strings.HasPrefix(fn, "\t") || strings.HasPrefix(fn, "goroutine ") {
			continue
		}
		if strings.HasPrefix(fn, "runtime.") ||
			strings.HasPrefix(fn, "runtime/debug.") ||
			strings.HasPrefix(fn, "panic(") ||
			strings.Contains(fn, "errfriendly/pkg/friendly.") {
			continue
		}
		loc := lines[i+1]
		if !strings.HasPrefix(loc, "\t") {
			continue
		}
		loc = strings.TrimSpace(loc)
		if sp := strings.IndexByte(loc, ' '); sp > 0 {
			loc = loc[:sp]
		}
		colon := strings.LastIndexByte(loc, ':')
		if colon <= 0 {
			continue
		}
		n, err := strconv.Atoi(loc[colon+1:])
		if err != nil {
			continue
		}
		return loc[:colon], n
	}
	return "", 0
}

// categoryPatterns refines message text into a category.
// Ordered most-specific first; first match wins.
//
// Matching relies on Go runtime and stdlib error message strings. If those
// change in a future Go release, update the matchers below.
var categoryPatterns = []struct {
	substr   string
	category Category
}{
	{"invalid memory address or nil pointer dereference", CategoryNilDereference},
	{"slice bounds out of range", CategorySliceBounds},
	{"index out of range", CategoryIndexOutOfRange},
	{"integer divide by zero", CategoryDivideByZero},
	{"floating point divide by zero", CategoryDivideByZero},
	{"division by zero", CategoryDivideByZero},
	{"divide by zero", CategoryDivideByZero},
	{"assignment to entry in nil map", CategoryNilMapWrite},
	{"interface conversion:", CategoryInterfaceConversion},
	{"concurrent map", CategoryConcurrentMapAccess},
	{"key not found", CategoryMissingKey},
	{"no such key", CategoryMissingKey},
	{"missing key", CategoryMissingKey},
	{"invalid syntax", CategoryBadConversion},
	{"value out of range", CategoryBadConversion},
	{"no such file or directory", CategoryFileNotFound},
	{"file does not exist", CategoryFileNotFound},
	{"cannot find the file", CategoryFileNotFound},
}

// Classify maps a recovered panic value or error to its Category.
// Typed errors are inspected first; message text is the fallback refinement.
// Total: anything unrecognized is CategoryUnknown.
func Classify(recovered any) Category {
	switch v := recovered.(type) {
	case nil:
		return CategoryUnknown
	case runtime.Error:
		return classifyMessage(v.Error())
	case error:
		return classifyError(v)
	case string:
		return classifyMessage(v)
	default:
		return classifyMessage(messageOf(recovered))
	}
}

func classifyError(err error) Category {
	if errors.Is(err, fs.ErrNotExist) {
		return CategoryFileNotFound
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return CategoryBadConversion
	}
	return classifyMessage(err.Error())
}

func classifyMessage(msg string) Category {
	for _, p := range categoryPatterns {
		if strings.Contains(msg, p.substr) {
			return p.category
		}
	}
	return CategoryUnknown
}

// messageOf renders a recovered value the way the runtime would in its
// panic banner.
func messageOf(recovered any) string {
	switch v := recovered.(type) {
	case nil:
		return ""
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
