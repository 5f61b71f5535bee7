package commands

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/errfriendly/pkg/friendly"
)

func TestCategoryValue(t *testing.T) {
	var v categoryValue
	require.Empty(t, v.String())
	require.Empty(t, v.Category())
	require.Equal(t, "category", v.Type())

	require.Error(t, v.Set("bogus"))
	require.Empty(t, v.Category(), "a rejected value must not stick")

	require.NoError(t, v.Set("divide_by_zero"))
	require.Equal(t, friendly.CategoryDivideByZero, v.Category())
	require.Equal(t, "divide_by_zero", v.String())
}

func TestCategoryValue_RejectsUnknownAtParseTime(t *testing.T) {
	var v categoryValue
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.VarP(&v, "category", "c", "")

	err := fs.Parse([]string{"--category", "not_a_real_category"})
	require.Error(t, err)

	require.NoError(t, fs.Parse([]string{"--category", "nil_map_write"}))
	require.Equal(t, friendly.CategoryNilMapWrite, v.Category())
}
