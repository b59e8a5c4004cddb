package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesMissingFileYieldsDefaults(t *testing.T) {
	s, err := OpenPreferences(filepath.Join(t.TempDir(), "nested", "preferences.yaml"))
	require.NoError(t, err)

	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), p)
	assert.Equal(t, "code", p.LastMemoryType)
	assert.Equal(t, "binary (default)", p.LastFormat)
}

func TestPreferencesSaveLoad(t *testing.T) {
	s, err := OpenPreferences(filepath.Join(t.TempDir(), "preferences.yaml"))
	require.NoError(t, err)

	want := Preferences{
		LastDevice:       "AT28C256@DIP28",
		LastReadFile:     "/tmp/dump.bin",
		LastWriteFile:    "/tmp/image.bin",
		LastFirmwareFile: "/tmp/updateT48.dat",
		LastMemoryType:   "data",
		LastFormat:       "ihex",
		WindowWidth:      1280,
		WindowHeight:     900,
	}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPreferencesPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("last_device: GAL16V8\n"), 0o644))
	s, err := OpenPreferences(path)
	require.NoError(t, err)

	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "GAL16V8", p.LastDevice)
	assert.Equal(t, "code", p.LastMemoryType)
	assert.Equal(t, 1000, p.WindowWidth)
}

func TestPreferencesWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	s, err := OpenPreferences(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(DefaultPreferences()))

	var (
		mu   sync.Mutex
		seen []Preferences
	)
	s.Watch(func(p Preferences) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})

	require.NoError(t, os.WriteFile(path, []byte("last_device: 27C512@DIP28\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range seen {
			if p.LastDevice == "27C512@DIP28" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}
