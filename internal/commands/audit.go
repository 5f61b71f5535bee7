package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/errfriendly/internal/output"
	"github.com/dotcommander/errfriendly/internal/store"
	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// NewAuditCmd creates the audit command group over the failure log.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the recorded failure log",
	}

	cmd.AddCommand(newAuditListCmd())
	cmd.AddCommand(newAuditStatsCmd())
	cmd.AddCommand(newAuditPruneCmd())

	return cmd
}

func newAuditListCmd() *cobra.Command {
	var (
		category categoryValue
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded failures, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var failures []store.Failure
			if err := withDB(func(db *DB) error {
				var listErr error
				failures, listErr = store.ListFailures(db, category.Category(), limit)
				return listErr
			}); err != nil {
				return err
			}

			type resp struct {
				Failures []store.Failure `json:"failures"`
				Count    int             `json:"count"`
			}
			return output.PrintSuccess(resp{Failures: failures, Count: len(failures)})
		},
	}

	cmd.Flags().VarP(&category, "category", "c", "Only failures of this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to return")

	return cmd
}

func newAuditStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Failure counts by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			var counts map[friendly.Category]int64
			if err := withDB(func(db *DB) error {
				var err error
				counts, err = store.CountByCategory(db)
				return err
			}); err != nil {
				return err
			}

			stats := make(map[string]int64, len(counts))
			var total int64
			for c, n := range counts {
				stats[string(c)] = n
				total += n
			}

			type resp struct {
				Total      int64            `json:"total"`
				ByCategory map[string]int64 `json:"by_category"`
			}
			return output.PrintSuccess(resp{Total: total, ByCategory: stats})
		},
	}
}

func newAuditPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete failures older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pruned int64
			if err := withDB(func(db *DB) error {
				var err error
				pruned, err = store.PruneFailures(db, days)
				return err
			}); err != nil {
				return err
			}

			type resp struct {
				Pruned        int64 `json:"pruned"`
				RetentionDays int   `json:"retention_days"`
			}
			return output.PrintSuccess(resp{Pruned: pruned, RetentionDays: days})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Retention window in days")

	return cmd
}
