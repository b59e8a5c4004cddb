package minipro

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInfo struct{ os.FileInfo }

func testBuilder(existing ...string) Builder {
	b := NewBuilder("")
	b.statFile = func(path string) (os.FileInfo, error) {
		for _, e := range existing {
			if e == path {
				return fakeInfo{}, nil
			}
		}
		return nil, os.ErrNotExist
	}
	return b
}

func TestSimpleBuilders(t *testing.T) {
	b := testBuilder()
	tests := []struct {
		name        string
		inv         Invocation
		want        []string
		destructive bool
	}{
		{"detect", b.DetectProgrammer(), []string{"minipro", "-k"}, false},
		{"query", b.QuerySupported(), []string{"minipro", "-Q"}, false},
		{"hwcheck", b.HardwareCheck(), []string{"minipro", "-t"}, true},
		{"list", b.ListDevices(), []string{"minipro", "-l"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inv.Argv())
			assert.Equal(t, tt.destructive, tt.inv.Destructive)
		})
	}
}

func TestDeviceBuilders(t *testing.T) {
	b := testBuilder("rom.bin", "fw.dat")
	const dev = "AT28C256@DIP28"

	tests := []struct {
		name  string
		build func() (Invocation, error)
		want  []string
	}{
		{"info", func() (Invocation, error) { return b.DeviceInfo(dev) }, []string{"-d", dev}},
		{"chip id", func() (Invocation, error) { return b.ReadChipID(dev) }, []string{"-p", dev, "-D"}},
		{"pin check", func() (Invocation, error) { return b.PinCheck(dev) }, []string{"-p", dev, "-z"}},
		{"blank code", func() (Invocation, error) { return b.BlankCheck(dev, MemoryCode) }, []string{"-p", dev, "-b"}},
		{"blank data", func() (Invocation, error) { return b.BlankCheck(dev, MemoryData) }, []string{"-p", dev, "-b", "-c", "data"}},
		{"read plain", func() (Invocation, error) { return b.Read(dev, "out.bin", ReadOptions{}) }, []string{"-p", dev, "-r", "out.bin"}},
		{
			"read all options",
			func() (Invocation, error) {
				return b.Read(dev, "out.hex", ReadOptions{Memory: MemoryConfig, Format: FormatIHex, SkipIDCheck: true})
			},
			[]string{"-p", dev, "-r", "out.hex", "-c", "config", "-f", "ihex", "-x"},
		},
		{"write plain", func() (Invocation, error) { return b.Write(dev, "rom.bin", WriteOptions{}) }, []string{"-p", dev, "-w", "rom.bin"}},
		{
			"write all options",
			func() (Invocation, error) {
				return b.Write(dev, "rom.bin", WriteOptions{
					Memory:         MemoryUser,
					Voltages:       Voltages{VPP: "12.5", VDD: "Default", VCC: "5", SPIClock: "15", Pulse: 100},
					Unprotect:      true,
					Protect:        true,
					ICSPWithVCC:    true,
					ICSPWithoutVCC: true,
					SkipErase:      true,
					SkipVerify:     true,
					NoIDError:      true,
					NoSizeError:    true,
				})
			},
			[]string{
				"-p", dev, "-w", "rom.bin", "-c", "user",
				"--vpp", "12.5", "--vcc", "5", "--spi_clock", "15", "--pulse", "100",
				"-u", "-P", "-i", "-e", "-v", "-y", "-s",
			},
		},
		{
			"write icsp without vcc",
			func() (Invocation, error) { return b.Write(dev, "rom.bin", WriteOptions{ICSPWithoutVCC: true}) },
			[]string{"-p", dev, "-w", "rom.bin", "-I"},
		},
		{"verify", func() (Invocation, error) { return b.Verify(dev, "rom.bin", MemoryData) }, []string{"-p", dev, "-m", "rom.bin", "-c", "data"}},
		{"erase", func() (Invocation, error) { return b.Erase(dev) }, []string{"-p", dev, "-E"}},
		{"firmware", func() (Invocation, error) { return b.UpdateFirmware("fw.dat") }, []string{"-F", "fw.dat"}},
		{"logic default", func() (Invocation, error) { return b.LogicTest("7400@DIP14", "Default") }, []string{"-p", "7400@DIP14", "-T"}},
		{"logic vcc", func() (Invocation, error) { return b.LogicTest("7400@DIP14", "3.3") }, []string{"-p", "7400@DIP14", "-T", "--vcc", "3.3"}},
		{"autodetect 8", func() (Invocation, error) { return b.AutoDetect(8) }, []string{"-a", "8"}},
		{"autodetect 16", func() (Invocation, error) { return b.AutoDetect(16) }, []string{"-a", "16"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, "minipro", inv.Program())
			assert.Equal(t, tt.want, inv.Args())
		})
	}
}

func TestBuilderValidation(t *testing.T) {
	b := testBuilder("rom.bin")

	tests := []struct {
		name  string
		build func() (Invocation, error)
		want  error
	}{
		{"info without device", func() (Invocation, error) { return b.DeviceInfo("  ") }, ErrDeviceRequired},
		{"read without device", func() (Invocation, error) { return b.Read("", "x.bin", ReadOptions{}) }, ErrDeviceRequired},
		{"read without file", func() (Invocation, error) { return b.Read("27C256", " ", ReadOptions{}) }, ErrFileRequired},
		{"write missing file", func() (Invocation, error) { return b.Write("27C256", "missing.bin", WriteOptions{}) }, ErrFileNotFound},
		{"verify missing file", func() (Invocation, error) { return b.Verify("27C256", "missing.bin", MemoryCode) }, ErrFileNotFound},
		{"firmware without file", func() (Invocation, error) { return b.UpdateFirmware("") }, ErrFileRequired},
		{"erase without device", func() (Invocation, error) { return b.Erase("") }, ErrDeviceRequired},
		{"custom empty", func() (Invocation, error) { return b.Custom("   ") }, ErrCommandRequired},
		{"custom only program", func() (Invocation, error) { return b.Custom("minipro") }, ErrCommandRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := b.Write("27C256", "rom.bin", WriteOptions{Voltages: Voltages{Pulse: MaxPulseDelay + 1}})
	assert.Error(t, err)
	_, err = b.Write("27C256", "rom.bin", WriteOptions{Voltages: Voltages{VPP: "high"}})
	assert.Error(t, err)
	_, err = b.AutoDetect(32)
	assert.Error(t, err)
}

func TestDestructiveFlags(t *testing.T) {
	b := testBuilder("rom.bin", "fw.dat")

	w, err := b.Write("27C256", "rom.bin", WriteOptions{})
	require.NoError(t, err)
	assert.True(t, w.Destructive)
	assert.Contains(t, w.Warning, "modify the device contents")

	e, err := b.Erase("27C256")
	require.NoError(t, err)
	assert.True(t, e.Destructive)
	assert.Contains(t, e.Warning, "permanently erase ALL data")

	f, err := b.UpdateFirmware("fw.dat")
	require.NoError(t, err)
	assert.True(t, f.Destructive)

	r, err := b.Read("27C256", "out.bin", ReadOptions{})
	require.NoError(t, err)
	assert.False(t, r.Destructive)
	assert.Empty(t, r.Warning)
}

func TestCustom(t *testing.T) {
	b := testBuilder()

	inv, err := b.Custom(`-p "AT28C256@DIP28" -r 'my dump.bin'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"-p", "AT28C256@DIP28", "-r", "my dump.bin"}, inv.Args())

	inv, err = b.Custom(`minipro -k`)
	require.NoError(t, err)
	assert.Equal(t, []string{"minipro", "-k"}, inv.Argv())
}

func TestInvocationString(t *testing.T) {
	b := testBuilder()
	inv, err := b.Read("AT28C256@DIP28", "my dump.bin", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "minipro -p AT28C256@DIP28 -r 'my dump.bin'", inv.String())
}

func TestNewBuilderProgram(t *testing.T) {
	assert.Equal(t, DefaultProgram, NewBuilder(" ").Program)
	b := NewBuilder("/opt/minipro/bin/minipro")
	assert.Equal(t, "/opt/minipro/bin/minipro", b.DetectProgrammer().Program())
}

func TestParseOptions(t *testing.T) {
	f, err := ParseFormat("binary (default)")
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, f)
	f, err = ParseFormat("srec")
	require.NoError(t, err)
	assert.Equal(t, FormatSRec, f)
	_, err = ParseFormat("elf")
	assert.Error(t, err)
	assert.Equal(t, "binary (default)", FormatBinary.Label())

	m, err := ParseMemoryType("")
	require.NoError(t, err)
	assert.Equal(t, MemoryCode, m)
	m, err = ParseMemoryType("Calibration")
	require.NoError(t, err)
	assert.Equal(t, MemoryCalibration, m)
	_, err = ParseMemoryType("eeprom")
	assert.Error(t, err)
}

func TestLoadDeviceListFailure(t *testing.T) {
	b := NewBuilder("/nonexistent/minipro-does-not-exist")
	devices, err := LoadDeviceList(t.Context(), b.ListDevices(), time.Second)
	assert.Error(t, err)
	assert.Empty(t, devices)
}
