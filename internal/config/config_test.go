package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "https://gib.me/sam/games.xml", cfg.AppListURL)
	require.Equal(t, "english", cfg.Language)
	require.Zero(t, cfg.IPCTimeoutMS, "deadlines are opt-in")
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, time.Duration(0), cfg.Timeout())
}

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	loaded, err := Load("")
	require.NoError(t, err)
	require.Empty(t, loaded.Path)
	require.Equal(t, Default().AppListURL, loaded.Config.AppListURL)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
app_list_url = "https://example.com/games.xml"
schema_dir = "/opt/steam/appcache/stats"
language = "german"
ipc_timeout_ms = 2500
log_level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "https://example.com/games.xml", loaded.Config.AppListURL)
	require.Equal(t, "german", loaded.Config.Language)
	require.Equal(t, 2500*time.Millisecond, loaded.Config.Timeout())
	require.Equal(t, "debug", loaded.Config.LogLevel)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "warn"`), 0o600))
	t.Setenv("MEDALS_LOG_LEVEL", "error")
	t.Setenv("MEDALS_IPC_TIMEOUT_MS", "500")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "error", loaded.Config.LogLevel)
	require.Equal(t, 500, loaded.Config.IPCTimeoutMS)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	badLevel := filepath.Join(dir, "level.toml")
	require.NoError(t, os.WriteFile(badLevel, []byte(`log_level = "loud"`), 0o600))
	_, err := Load(badLevel)
	require.ErrorContains(t, err, "invalid log_level")

	badTimeout := filepath.Join(dir, "timeout.toml")
	require.NoError(t, os.WriteFile(badTimeout, []byte(`ipc_timeout_ms = -1`), 0o600))
	_, err = Load(badTimeout)
	require.ErrorContains(t, err, "must not be negative")

	badTOML := filepath.Join(dir, "syntax.toml")
	require.NoError(t, os.WriteFile(badTOML, []byte(`log_level = `), 0o600))
	_, err = Load(badTOML)
	require.ErrorContains(t, err, "parse config")
}

func TestSchemaFileWithExplicitDir(t *testing.T) {
	cfg := Config{SchemaDir: "/opt/steam/appcache/stats"}
	path, err := cfg.SchemaFile(440)
	require.NoError(t, err)
	require.Equal(t, "/opt/steam/appcache/stats/UserGameStatsSchema_440.bin", path)
}

func TestSchemaFileProbesInstallDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	installDir := filepath.Join(home, ".steam", "steam")
	require.NoError(t, os.MkdirAll(installDir, 0o700))

	path, err := Config{}.SchemaFile(440)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(installDir, "appcache/stats/UserGameStatsSchema_440.bin"), path)
}

func TestSchemaFileNoInstallation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Config{}.SchemaFile(440)
	require.ErrorContains(t, err, "set schema_dir")
}
