package friendly

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// capturePanic runs f and returns whatever it panicked with.
func capturePanic(t *testing.T, f func()) (rec any) {
	t.Helper()
	defer func() { rec = recover() }()
	f()
	t.Fatal("expected panic")
	return nil
}

func TestClassify_RealRuntimeErrors(t *testing.T) {
	t.Run("nil dereference", func(t *testing.T) {
		rec := capturePanic(t, func() {
			var p *int
			_ = *p //nolint:govet // deliberate nil dereference
		})
		require.Equal(t, CategoryNilDereference, Classify(rec))
	})

	t.Run("index out of range", func(t *testing.T) {
		rec := capturePanic(t, func() {
			s := []int{1, 2, 3}
			i := 10
			_ = s[i]
		})
		require.Equal(t, CategoryIndexOutOfRange, Classify(rec))
	})

	t.Run("slice bounds", func(t *testing.T) {
		rec := capturePanic(t, func() {
			s := []int{1, 2, 3}
			hi := 10
			_ = s[1:hi]
		})
		require.Equal(t, CategorySliceBounds, Classify(rec))
	})

	t.Run("integer divide by zero", func(t *testing.T) {
		rec := capturePanic(t, func() {
			d := 0
			_ = 10 / d
		})
		require.Equal(t, CategoryDivideByZero, Classify(rec))
	})

	t.Run("nil map write", func(t *testing.T) {
		rec := capturePanic(t, func() {
			var m map[string]int
			m["x"] = 1
		})
		require.Equal(t, CategoryNilMapWrite, Classify(rec))
	})

	t.Run("interface conversion", func(t *testing.T) {
		rec := capturePanic(t, func() {
			var v any = "hello"
			_ = v.(int)
		})
		require.Equal(t, CategoryInterfaceConversion, Classify(rec))
	})
}

func TestClassify_TypedErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		err := fmt.Errorf("open config: %w", fs.ErrNotExist)
		require.Equal(t, CategoryFileNotFound, Classify(err))
	})

	t.Run("strconv syntax error", func(t *testing.T) {
		_, err := strconv.Atoi("not_a_number")
		require.Error(t, err)
		require.Equal(t, CategoryBadConversion, Classify(err))
	})

	t.Run("strconv range error", func(t *testing.T) {
		_, err := strconv.ParseInt("99999999999999999999", 10, 64)
		require.Error(t, err)
		require.Equal(t, CategoryBadConversion, Classify(err))
	})

	t.Run("missing key error text", func(t *testing.T) {
		err := errors.New(`key not found: "retries"`)
		require.Equal(t, CategoryMissingKey, Classify(err))
	})
}

func TestClassify_MessageStrings(t *testing.T) {
	cases := []struct {
		msg  string
		want Category
	}{
		{"runtime error: invalid memory address or nil pointer dereference", CategoryNilDereference},
		{"runtime error: index out of range [10] with length 3", CategoryIndexOutOfRange},
		{"runtime error: slice bounds out of range [:10] with capacity 3", CategorySliceBounds},
		{"runtime error: integer divide by zero", CategoryDivideByZero},
		{"assignment to entry in nil map", CategoryNilMapWrite},
		{"interface conversion: interface {} is string, not int", CategoryInterfaceConversion},
		{"concurrent map writes", CategoryConcurrentMapAccess},
		{"concurrent map read and map write", CategoryConcurrentMapAccess},
		{"no such key: user_42", CategoryMissingKey},
		{"something completely different", CategoryUnknown},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.msg), "message %q", tc.msg)
	}
}

func TestClassify_EdgeValues(t *testing.T) {
	require.Equal(t, CategoryUnknown, Classify(nil))
	require.Equal(t, CategoryUnknown, Classify(42))
	require.Equal(t, CategoryUnknown, Classify(struct{ X int }{1}))
}

func TestCategoryOf(t *testing.T) {
	for _, c := range Categories() {
		got, ok := CategoryOf(string(c))
		require.True(t, ok)
		require.Equal(t, c, got)
	}

	got, ok := CategoryOf("definitely_not_a_category")
	require.False(t, ok)
	require.Equal(t, CategoryUnknown, got)

	got, ok = CategoryOf("  Divide_By_Zero ")
	require.True(t, ok)
	require.Equal(t, CategoryDivideByZero, got)
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord(errors.New("runtime error: integer divide by zero"), []byte("stack"))
	require.Equal(t, CategoryDivideByZero, rec.Category)
	require.Equal(t, "runtime error: integer divide by zero", rec.Message)
	require.Equal(t, []byte("stack"), rec.Stack)
}

func TestSourceContext_FindsFailureSite(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x64
github.com/dotcommander/errfriendly/pkg/friendly.Guard()
	/root/module/pkg/friendly/friendly.go:40 +0x30
panic({0x102f00?, 0x11eb90?})
	/usr/local/go/src/runtime/panic.go:770 +0x132
runtime.panicdivide(...)
	/usr/local/go/src/runtime/panic.go:230
main.compute(...)
	/home/app/main.go:12 +0x11
main.main()
	/home/app/main.go:30 +0x1d
`)
	rec := NewRecord("runtime error: integer divide by zero", stack)
	require.Equal(t, "/home/app/main.go", rec.File)
	require.Equal(t, 12, rec.Line)
}

func TestSourceContext_NoUsableFrame(t *testing.T) {
	rec := NewRecord("boom", nil)
	require.Empty(t, rec.File)
	require.Zero(t, rec.Line)

	rec = NewRecord("boom", []byte("goroutine 1 [running]:\nruntime.gopanic(...)\n\t/usr/local/go/src/runtime/panic.go:770\n"))
	require.Empty(t, rec.File)
	require.Zero(t, rec.Line)
}
