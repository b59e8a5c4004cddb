package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/runner"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("APPDATA", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "minipro", cfg.MiniproPath)
	assert.Equal(t, runner.UnbufferAuto, cfg.Unbuffer)
	assert.False(t, cfg.Debug)
	assert.Equal(t, progress.PolicyPassthrough, cfg.ProgressPolicy)
	assert.Equal(t, 30*time.Second, cfg.ListTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, filepath.Join(home, ".config", "opentraceprog", "devices.db"), cfg.CatalogPath)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "otprog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
minipro:
  path: /opt/minipro/bin/minipro
  unbuffer: pty
progress:
  policy: monotonic
devices:
  list_timeout: 5s
log:
  level: debug
`), 0o644))
	t.Setenv("OTPROG_DEBUG", "true")
	t.Setenv("OTPROG_MINIPRO_UNBUFFER", "off")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/minipro/bin/minipro", cfg.MiniproPath)
	assert.Equal(t, runner.UnbufferOff, cfg.Unbuffer)
	assert.True(t, cfg.Debug)
	assert.Equal(t, progress.PolicyMonotonic, cfg.ProgressPolicy)
	assert.Equal(t, 5*time.Second, cfg.ListTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	isolateHome(t)

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"bad policy", KeyProgressPolicy, "sticky"},
		{"bad unbuffer", KeyUnbuffer, "script"},
		{"bad level", KeyLogLevel, "chatty"},
		{"zero timeout", KeyListTimeout, "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestDirPrefersAppData(t *testing.T) {
	t.Setenv("APPDATA", "/tmp/appdata")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/appdata", "OpenTraceProg"), dir)
}
