// Package config loads runtime settings and user preferences.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/OpenTraceLab/OpenTraceProg/internal/logging"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/runner"
)

// Configuration keys.
const (
	KeyMiniproPath    = "minipro.path"
	KeyUnbuffer       = "minipro.unbuffer"
	KeyDebug          = "debug"
	KeyProgressPolicy = "progress.policy"
	KeyListTimeout    = "devices.list_timeout"
	KeyCatalogPath    = "catalog.path"
	KeyLogLevel       = "log.level"
	KeyLogFile        = "log.file"
)

// EnvPrefix is prepended to upper-cased keys, e.g. OTPROG_MINIPRO_PATH.
const EnvPrefix = "OTPROG"

// Config is the resolved runtime configuration.
type Config struct {
	MiniproPath    string
	Unbuffer       runner.UnbufferMode
	Debug          bool
	ProgressPolicy progress.Policy
	ListTimeout    time.Duration
	CatalogPath    string
	LogLevel       slog.Level
	LogFile        string
}

// Dir returns the per-user configuration directory without creating it.
func Dir() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "OpenTraceProg"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "opentraceprog"), nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMiniproPath, minipro.DefaultProgram)
	v.SetDefault(KeyUnbuffer, string(runner.UnbufferAuto))
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyProgressPolicy, string(progress.PolicyPassthrough))
	v.SetDefault(KeyListTimeout, minipro.DefaultListTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	if dir, err := Dir(); err == nil {
		v.SetDefault(KeyCatalogPath, filepath.Join(dir, "devices.db"))
	}
}

// Load reads cfgFile, or config.yaml from Dir when cfgFile is empty, on top
// of the defaults and OTPROG_ environment variables. A missing default file
// is not an error; a missing explicit file is.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return FromViper(v)
}

// FromViper validates and converts the values held by v.
func FromViper(v *viper.Viper) (Config, error) {
	unbuffer, err := runner.ParseUnbufferMode(v.GetString(KeyUnbuffer))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyUnbuffer, err)
	}
	policy, err := progress.ParsePolicy(v.GetString(KeyProgressPolicy))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyProgressPolicy, err)
	}
	level, err := logging.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	timeout := v.GetDuration(KeyListTimeout)
	if timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", KeyListTimeout)
	}

	program := strings.TrimSpace(v.GetString(KeyMiniproPath))
	if program == "" {
		program = minipro.DefaultProgram
	}
	return Config{
		MiniproPath:    program,
		Unbuffer:       unbuffer,
		Debug:          v.GetBool(KeyDebug),
		ProgressPolicy: policy,
		ListTimeout:    timeout,
		CatalogPath:    v.GetString(KeyCatalogPath),
		LogLevel:       level,
		LogFile:        v.GetString(KeyLogFile),
	}, nil
}

// RunnerConfig returns the runner settings derived from c.
func (c Config) RunnerConfig(logger *slog.Logger) runner.Config {
	return runner.Config{Unbuffer: c.Unbuffer, Logger: logger}
}
