package minipro

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeListTool(t *testing.T, body string) Builder {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("list tool is a shell script")
	}
	path := filepath.Join(t.TempDir(), "minipro")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return NewBuilder(path)
}

func TestLoadDeviceList(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		want    []string
		wantErr bool
	}{
		{
			name: "clean exit",
			body: "printf 'W25Q64\\nAT28C256\\n'\n",
			want: []string{"AT28C256", "W25Q64"},
		},
		{
			name: "non-zero exit keeps printed names",
			body: "printf 'W25Q64\\nAT28C256\\n'\necho 'usb error' >&2\nexit 1\n",
			want: []string{"AT28C256", "W25Q64"},
		},
		{
			name:    "non-zero exit without names",
			body:    "echo 'no programmer found' >&2\nexit 1\n",
			wantErr: true,
		},
		{
			name:    "timeout",
			body:    "exec sleep 5\n",
			timeout: 50 * time.Millisecond,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := writeListTool(t, tt.body)
			got, err := LoadDeviceList(context.Background(), b.ListDevices(), tt.timeout)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDeviceListMissingTool(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "missing-minipro"))
	got, err := LoadDeviceList(context.Background(), b.ListDevices(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list devices")
	assert.Nil(t, got)
}
