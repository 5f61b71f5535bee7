package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/errfriendly/pkg/friendly"
)

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `db_path: /tmp/errfriendly-test.db
log_path: /tmp/failures.log
show_original_trace: false
ai_agent: opencode
advice:
  - category: missing_key
    match: ["session_"]
    what: A session key expired out of the cache.
    fix: Re-authenticate instead of reusing stale session IDs.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := loadSettingsFile(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/errfriendly-test.db", s.DBPath)
	require.Equal(t, "/tmp/failures.log", s.LogPath)
	require.False(t, s.EffectiveShowTrace())
	require.Equal(t, "opencode", s.AIAgent)
	require.Len(t, s.Advice, 1)
	require.Equal(t, friendly.CategoryMissingKey, s.Advice[0].Category)
	require.Equal(t, []string{"session_"}, s.Advice[0].Match)
}

func TestLoadSettingsFile_Missing(t *testing.T) {
	_, err := loadSettingsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSettingsFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: [unclosed"), 0o600))

	_, err := loadSettingsFile(path)
	require.Error(t, err)
}

func TestEffectiveShowTrace_DefaultsTrue(t *testing.T) {
	require.True(t, Settings{}.EffectiveShowTrace())

	off := false
	require.False(t, Settings{ShowOriginalTrace: &off}.EffectiveShowTrace())

	on := true
	require.True(t, Settings{ShowOriginalTrace: &on}.EffectiveShowTrace())
}

func TestDBPathOverridePrecedence(t *testing.T) {
	t.Cleanup(func() { SetDBPathOverride("") })

	override := filepath.Join(t.TempDir(), "override.db")
	SetDBPathOverride(override)

	path, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, override, path)
}

func TestDBPathEnvPrecedence(t *testing.T) {
	SetDBPathOverride("")
	envPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("ERRFRIENDLY_DB_PATH", envPath)

	path, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, envPath, path)
}

func TestEnsureDBDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "errfriendly.db")
	got, err := EnsureDBDir(dbPath)
	require.NoError(t, err)
	require.Equal(t, dbPath, got)
	require.DirExists(t, filepath.Dir(dbPath))
}
