package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/errfriendly/internal/output"
	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// NewCategoriesCmd creates the categories command.
func NewCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List supported failure categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := friendly.Categories()
			names := make([]string, 0, len(cats))
			for _, c := range cats {
				names = append(names, string(c))
			}

			type resp struct {
				Categories []string `json:"categories"`
			}
			return output.PrintSuccess(resp{Categories: names})
		},
	}
}
