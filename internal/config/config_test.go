package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8917, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.False(t, cfg.Server.AuthToken.IsSet())
	assert.Equal(t, int64(256*1024), cfg.Repo.MaxFileSize)
	assert.Equal(t, 2000, cfg.Repo.MaxTreeEntries)
	assert.NotEmpty(t, cfg.Repo.DefaultSearchGlob)
	assert.Equal(t, []string{".gitignore", ".repoviewignore"}, cfg.Repo.IgnoreFiles)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `server:
  port: 9001
  shutdown_timeout: 5s
repo:
  root: /src/myrepo
  max_file_size: 1024
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "/src/myrepo", cfg.Repo.Root)
	assert.Equal(t, int64(1024), cfg.Repo.MaxFileSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o600))

	t.Setenv("REPOVIEWD_SERVER_PORT", "9002")
	t.Setenv("REPOVIEWD_REPO_ROOT", "/src/other")
	t.Setenv("REPOVIEWD_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9002, cfg.Server.Port, "environment beats the file")
	assert.Equal(t, "/src/other", cfg.Repo.Root)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8917, cfg.Server.Port)
}

func TestLoad_OversizedFileRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	big := make([]byte, maxConfigFileSize+1)
	require.NoError(t, os.WriteFile(path, big, 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	root := t.TempDir()

	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Repo.Root = root
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing root", func(t *testing.T) {
		cfg := valid()
		cfg.Repo.Root = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("relative root", func(t *testing.T) {
		cfg := valid()
		cfg.Repo.Root = "relative/path"
		assert.Error(t, cfg.Validate())
	})

	t.Run("nonexistent root", func(t *testing.T) {
		cfg := valid()
		cfg.Repo.Root = filepath.Join(root, "missing")
		assert.Error(t, cfg.Validate())
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(root, "f")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		cfg := valid()
		cfg.Repo.Root = file
		assert.Error(t, cfg.Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive cap", func(t *testing.T) {
		cfg := valid()
		cfg.Repo.MaxFileSize = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "loud"
		assert.Error(t, cfg.Validate())
	})
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")), "negative durations rejected")
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	out, err := json.Marshal(Duration(time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1s"`, string(out))
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(out))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
