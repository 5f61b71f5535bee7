package commands

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// recoverFrom runs fn and returns the recovered panic value, nil if none.
func recoverFrom(fn func()) (rec any) {
	defer func() { rec = recover() }()
	fn()
	return nil
}

func TestCrashScenarios_AllPanic(t *testing.T) {
	for name, fn := range crashScenarios {
		rec := recoverFrom(fn)
		require.NotNil(t, rec, "scenario %s must panic", name)
	}
}

func TestCrashScenarios_ClassifyAsExpected(t *testing.T) {
	expected := map[string]friendly.Category{
		"divide-by-zero":       friendly.CategoryDivideByZero,
		"nil-dereference":      friendly.CategoryNilDereference,
		"index-out-of-range":   friendly.CategoryIndexOutOfRange,
		"nil-map-write":        friendly.CategoryNilMapWrite,
		"interface-conversion": friendly.CategoryInterfaceConversion,
		"missing-key":          friendly.CategoryMissingKey,
		"bad-conversion":       friendly.CategoryBadConversion,
		"file-not-found":       friendly.CategoryFileNotFound,
	}
	require.Len(t, crashScenarios, len(expected), "every scenario needs an expectation")

	for name, want := range expected {
		fn, ok := crashScenarios[name]
		require.True(t, ok, "scenario %s missing", name)
		rec := recoverFrom(fn)
		require.NotNil(t, rec, "scenario %s must panic", name)
		require.Equal(t, want, friendly.Classify(rec), "scenario %s", name)
	}
}

func TestScenarioNames_SortedAndComplete(t *testing.T) {
	names := scenarioNames()
	for name := range crashScenarios {
		require.Contains(t, names, name)
	}
}
