package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// categoryValue is a pflag.Value that accepts only known category names,
// rejecting typos at flag-parse time instead of deep in the query path.
type categoryValue struct {
	cat friendly.Category
	set bool
}

var _ pflag.Value = (*categoryValue)(nil)

func (v *categoryValue) String() string {
	if !v.set {
		return ""
	}
	return string(v.cat)
}

func (v *categoryValue) Set(s string) error {
	cat, ok := friendly.CategoryOf(s)
	if !ok {
		return fmt.Errorf("unknown category %q (see: errfriendly categories)", s)
	}
	v.cat = cat
	v.set = true
	return nil
}

func (v *categoryValue) Type() string { return "category" }

// Category returns the parsed category, empty when the flag was never set.
func (v *categoryValue) Category() friendly.Category {
	if !v.set {
		return ""
	}
	return v.cat
}
