package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
)

// Preferences are the remembered UI selections.
type Preferences struct {
	LastDevice       string `mapstructure:"last_device"`
	LastReadFile     string `mapstructure:"last_read_file"`
	LastWriteFile    string `mapstructure:"last_write_file"`
	LastFirmwareFile string `mapstructure:"last_firmware_file"`
	LastMemoryType   string `mapstructure:"last_memory_type"`
	LastFormat       string `mapstructure:"last_format"`
	WindowWidth      int    `mapstructure:"window_width"`
	WindowHeight     int    `mapstructure:"window_height"`
}

// DefaultPreferences is used when no preference file exists yet.
func DefaultPreferences() Preferences {
	return Preferences{
		LastMemoryType: string(minipro.MemoryCode),
		LastFormat:     minipro.FormatBinary.Label(),
		WindowWidth:    1000,
		WindowHeight:   800,
	}
}

func (p Preferences) apply(v *viper.Viper) {
	v.Set("last_device", p.LastDevice)
	v.Set("last_read_file", p.LastReadFile)
	v.Set("last_write_file", p.LastWriteFile)
	v.Set("last_firmware_file", p.LastFirmwareFile)
	v.Set("last_memory_type", p.LastMemoryType)
	v.Set("last_format", p.LastFormat)
	v.Set("window_width", p.WindowWidth)
	v.Set("window_height", p.WindowHeight)
}

func setPreferenceDefaults(v *viper.Viper) {
	d := DefaultPreferences()
	v.SetDefault("last_memory_type", d.LastMemoryType)
	v.SetDefault("last_format", d.LastFormat)
	v.SetDefault("window_width", d.WindowWidth)
	v.SetDefault("window_height", d.WindowHeight)
}

// DefaultPreferencesPath returns preferences.yaml inside Dir.
func DefaultPreferencesPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "preferences.yaml"), nil
}

// PreferenceStore persists Preferences as YAML and can watch the file for
// changes made by another process or by hand.
type PreferenceStore struct {
	path string
	log  *slog.Logger

	mu        sync.Mutex
	lastSaved *Preferences
}

// OpenPreferences prepares a store at path, creating its directory.
func OpenPreferences(path string) (*PreferenceStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preferences directory: %w", err)
	}
	return &PreferenceStore{path: path, log: slog.Default().With("component", "preferences")}, nil
}

// Path returns the backing file.
func (s *PreferenceStore) Path() string {
	return s.path
}

func (s *PreferenceStore) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	setPreferenceDefaults(v)
	return v
}

// Load reads the file. A missing file yields DefaultPreferences.
func (s *PreferenceStore) Load() (Preferences, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return DefaultPreferences(), nil
	}
	v := s.newViper()
	if err := v.ReadInConfig(); err != nil {
		return DefaultPreferences(), fmt.Errorf("read preferences: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Preferences, error) {
	var p Preferences
	if err := v.Unmarshal(&p); err != nil {
		return DefaultPreferences(), fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

// Save writes p, replacing the file.
func (s *PreferenceStore) Save(p Preferences) error {
	v := s.newViper()
	p.apply(v)

	s.mu.Lock()
	defer s.mu.Unlock()
	saved := p
	s.lastSaved = &saved

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// Watch calls fn with the new preferences whenever the file changes on disk
// to something other than what this store last saved. fn runs on the
// watcher goroutine.
func (s *PreferenceStore) Watch(fn func(Preferences)) {
	v := s.newViper()
	v.OnConfigChange(func(e fsnotify.Event) {
		p, err := decode(v)
		if err != nil {
			s.log.Warn("preferences reload failed", "path", e.Name, "error", err)
			return
		}
		s.mu.Lock()
		own := s.lastSaved != nil && *s.lastSaved == p
		s.mu.Unlock()
		if own {
			return
		}
		s.log.Debug("preferences changed on disk", "path", e.Name, "op", e.Op.String())
		fn(p)
	})
	v.WatchConfig()
}
