package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/errfriendly/internal/app"
	"github.com/dotcommander/errfriendly/internal/output"
	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "errfriendly",
		Short:         "Friendly explanations for uncaught Go failures",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			// Wire --db-path into app-level resolver.
			if dbPath, err := cmd.Flags().GetString("db-path"); err == nil && dbPath != "" {
				app.SetDBPathOverride(dbPath)
			}

			// Merge user advice from config.yaml ahead of the built-in table.
			settings, err := app.LoadSettings()
			if err != nil {
				return err
			}
			if len(settings.Advice) > 0 {
				friendly.RegisterAdvice(settings.Advice...)
			}

			return nil
		},
	}

	root.PersistentFlags().String("db-path", "", "Override audit database path")
	root.Flags().BoolP("version", "v", false, "version for errfriendly")

	root.AddCommand(NewExplainCmd())
	root.AddCommand(NewCategoriesCmd())
	root.AddCommand(NewAuditCmd())
	root.AddCommand(NewCrashCmd())

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}
