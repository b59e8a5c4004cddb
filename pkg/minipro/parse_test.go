package minipro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{"bare words", "-p 27C256 -r out.bin", []string{"-p", "27C256", "-r", "out.bin"}, false},
		{"extra whitespace", "  -k \t ", []string{"-k"}, false},
		{"double quotes", `-w "my file.bin"`, []string{"-w", "my file.bin"}, false},
		{"single quotes keep backslash", `-w 'a\b'`, []string{"-w", `a\b`}, false},
		{"escaped quote in double", `"say \"hi\""`, []string{`say "hi"`}, false},
		{"adjacent parts join", `--vpp="12.5"V`, []string{"--vpp=12.5V"}, false},
		{"backslash space", `my\ file.bin`, []string{"my file.bin"}, false},
		{"empty quotes", `-p ""`, []string{"-p", ""}, false},
		{"unterminated quote", `-w "oops`, nil, true},
		{"empty", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDeviceList(t *testing.T) {
	out := `Supported devices:
Device name
-----------
27C256@DIP28
AT28C256@DIP28  (custom)
27C256@DIP28
W25Q32JV@SOIC8

# comment line
Note: some entries hidden
Total 4
7400@DIP14
`
	assert.Equal(t, []string{"27C256@DIP28", "7400@DIP14", "AT28C256@DIP28", "W25Q32JV@SOIC8"}, ParseDeviceList(out))
	assert.Empty(t, ParseDeviceList(""))
}

func TestCommonDevicesSorted(t *testing.T) {
	assert.IsIncreasing(t, CommonDevices)
	assert.Contains(t, CommonDevices, "AT28C256@DIP28")
	assert.Len(t, CommonDevices, 30)
}

func TestParseDeviceInfo(t *testing.T) {
	out := "Name: AT28C256\r\n" +
		"Available on: TL866A/CS, TL866II+, T48, T56\n" +
		"Memory: 32768 Bytes\n" +
		"Package: DIP28\n" +
		"ICSP: -\n" +
		"Protocol: 0x07\n" +
		"Read buffer size: 128 Bytes\n" +
		"\n" +
		"*******************************\n" +
		"Found T48 01.1.31 (0x11f)\n" +
		"Warning: Firmware is newer than expected"

	info, err := ParseDeviceInfo(out)
	require.NoError(t, err)

	assert.Equal(t, "AT28C256", info.Name)
	assert.Equal(t, "DIP28", info.Package())
	assert.Equal(t, []string{"TL866A/CS", "TL866II+", "T48", "T56"}, info.Programmers())

	size, ok := info.MemorySize()
	require.True(t, ok)
	assert.Equal(t, uint64(32768), size)

	v, ok := info.Get("protocol")
	require.True(t, ok)
	assert.Equal(t, "0x07", v)

	v, ok = info.Get("Warning")
	require.True(t, ok)
	assert.Equal(t, "Firmware is newer than expected", v)

	assert.Equal(t, []string{"Found T48 01.1.31 (0x11f)"}, info.Notes)
	assert.Equal(t, "AT28C256 (DIP28, 32 KiB)", info.Summary())
}

func TestParseDeviceInfoWithoutSize(t *testing.T) {
	info, err := ParseDeviceInfo("Name: PIC16F84A\nMemory: 1024 Words\n")
	require.NoError(t, err)
	_, ok := info.MemorySize()
	assert.False(t, ok)
	assert.Equal(t, "PIC16F84A", info.Summary())

	info, err = ParseDeviceInfo("")
	require.NoError(t, err)
	assert.Empty(t, info.Fields)
}
