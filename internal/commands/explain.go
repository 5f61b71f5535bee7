package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/errfriendly/internal/output"
	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// NewExplainCmd creates the explain command: the Message API exposed on the
// command line. Pure lookup; nothing is installed and nothing is logged.
func NewExplainCmd() *cobra.Command {
	var (
		category string
		message  string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain a failure category and message",
		Long:  "Look up the friendly explanation for a failure without installing the hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if category == "" && message == "" {
				return fmt.Errorf("at least one of --category or --message is required")
			}

			cat, known := friendly.CategoryOf(category)
			if category != "" && !known {
				// Unrecognized names still produce the fallback block; note
				// it in JSON mode so scripts can tell.
				cat = friendly.CategoryUnknown
			}
			if category == "" {
				cat = friendly.Classify(message)
			}

			block := friendly.Explain(cat, message)

			if asJSON {
				type resp struct {
					Category    string `json:"category"`
					Recognized  bool   `json:"recognized"`
					Explanation string `json:"explanation"`
				}
				return output.PrintSuccess(resp{
					Category:    string(cat),
					Recognized:  known || category == "",
					Explanation: block,
				})
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), block)
			return err
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Failure category (see: errfriendly categories)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Failure message text; classified when --category is omitted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the JSON envelope instead of the plain block")

	return cmd
}
