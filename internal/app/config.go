package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/errfriendly/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "errfriendly"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# errfriendly configuration
# Run: errfriendly --help

# Optional: override the SQLite audit database location.
# Can also be set via ERRFRIENDLY_DB_PATH or --db-path.
# db_path: ~/.config/errfriendly/errfriendly.db

# Optional: append every diagnostic to this file as well as stderr.
# log_path: ~/.config/errfriendly/failures.log

# Show the raw panic trace before the friendly explanation (default: true).
# show_original_trace: true

# LLM CLI agent for --ai explanations: claude (default) or opencode.
# ai_agent: claude

# Custom advice entries consulted before the built-in table.
# advice:
#   - category: missing_key
#     match: ["session_"]
#     what: A session key expired out of the cache.
#     fix: Re-authenticate instead of reusing stale session IDs.
`
