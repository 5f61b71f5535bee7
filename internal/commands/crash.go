package commands

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dotcommander/errfriendly/internal/app"
	"github.com/dotcommander/errfriendly/internal/llm"
	"github.com/dotcommander/errfriendly/internal/store"
	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// crashScenarios trigger real failures of each category. Throwaway glue for
// exercising the hook end to end; the integration tests drive these as
// subprocesses and assert on stderr.
var crashScenarios = map[string]func(){
	"divide-by-zero": func() {
		d := 0
		fmt.Println(10 / d)
	},
	"nil-dereference": func() {
		var p *int
		fmt.Println(*p)
	},
	"index-out-of-range": func() {
		s := []int{1, 2, 3}
		i := 10
		fmt.Println(s[i])
	},
	"nil-map-write": func() {
		var m map[string]int
		m["x"] = 1
	},
	"interface-conversion": func() {
		var v any = "hello"
		fmt.Println(v.(int))
	},
	"missing-key": func() {
		cfg := map[string]string{"timeout": "30"}
		v, ok := cfg["retries"]
		if !ok {
			panic(fmt.Errorf("key not found: %q", "retries"))
		}
		fmt.Println(v)
	},
	"bad-conversion": func() {
		n, err := strconv.Atoi("not_a_number")
		if err != nil {
			panic(err)
		}
		fmt.Println(n)
	},
	"file-not-found": func() {
		f, err := os.Open("/nonexistent/path/to/file.txt")
		if err != nil {
			panic(err)
		}
		defer func() { _ = f.Close() }()
	},
}

// NewCrashCmd creates the crash command: installs the hook, then triggers a
// real uncaught failure so the full reporting path runs.
func NewCrashCmd() *cobra.Command {
	var (
		noTrace bool
		logPath string
		audit   bool
		ai      bool
	)

	cmd := &cobra.Command{
		Use:   "crash <scenario>",
		Short: "Trigger a real failure with the hook installed (demo)",
		Long:  "Install the friendly hook and crash on purpose. Scenarios: " + scenarioNames(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, ok := crashScenarios[args[0]]
			if !ok {
				return fmt.Errorf("unknown scenario %q (available: %s)", args[0], scenarioNames())
			}

			settings, err := app.LoadSettings()
			if err != nil {
				return err
			}

			// Config supplies the trace default; an explicit flag wins.
			showTrace := settings.EffectiveShowTrace()
			if cmd.Flags().Changed("no-trace") {
				showTrace = !noTrace
			}
			opts := []friendly.Option{friendly.WithShowTrace(showTrace)}

			if logPath == "" {
				logPath = settings.LogPath
			}
			if logPath != "" {
				opts = append(opts, friendly.WithLogPath(logPath))
			}

			var closeDB func()
			if audit {
				db, cleanup, err := openDB()
				if err != nil {
					return cmdErr(err)
				}
				closeDB = cleanup
				opts = append(opts, friendly.WithAuditSink(store.Sink(db)))
			}

			if ai {
				explainer, err := llm.NewExplainer(settings.AIAgent)
				if err != nil {
					return cmdErr(fmt.Errorf("ai explainer unavailable: %w", err))
				}
				slog.Info("ai explainer enabled", "command", explainer.Command())
				opts = append(opts, friendly.WithExplainer(explainer))
			}

			if closeDB != nil {
				// Flush the audit row before the exit func fires.
				opts = append(opts, friendly.WithExitFunc(func(code int) {
					closeDB()
					os.Exit(code)
				}))
			}

			friendly.Install(opts...)
			defer friendly.Guard()

			scenario()
			return fmt.Errorf("scenario %q did not fail", args[0])
		},
	}

	cmd.Flags().BoolVar(&noTrace, "no-trace", false, "Suppress the raw panic trace, show only the explanation")
	cmd.Flags().StringVar(&logPath, "log", "", "Also append the diagnostic to this file")
	cmd.Flags().BoolVar(&audit, "audit", false, "Record the failure in the audit database")
	cmd.Flags().BoolVar(&ai, "ai", false, "Ask the configured LLM CLI for the explanation")

	return cmd
}

func scenarioNames() string {
	names := make([]string, 0, len(crashScenarios))
	for name := range crashScenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
