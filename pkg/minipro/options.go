package minipro

import (
	"fmt"
	"strconv"
	"strings"
)

// MemoryType selects the device memory region (-c).
type MemoryType string

const (
	MemoryCode        MemoryType = "code"
	MemoryData        MemoryType = "data"
	MemoryConfig      MemoryType = "config"
	MemoryUser        MemoryType = "user"
	MemoryCalibration MemoryType = "calibration"
)

// MemoryTypes lists the selectable memory regions in display order.
var MemoryTypes = []MemoryType{MemoryCode, MemoryData, MemoryConfig, MemoryUser, MemoryCalibration}

// ParseMemoryType accepts an empty string as code.
func ParseMemoryType(s string) (MemoryType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MemoryCode, nil
	}
	for _, m := range MemoryTypes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown memory type %q", s)
}

func (m MemoryType) args() []string {
	if m == "" || m == MemoryCode {
		return nil
	}
	return []string{"-c", string(m)}
}

// Format selects the file format for read operations (-f).
type Format string

const (
	FormatBinary Format = "binary"
	FormatIHex   Format = "ihex"
	FormatSRec   Format = "srec"
)

// Formats lists the selectable formats in display order.
var Formats = []Format{FormatBinary, FormatIHex, FormatSRec}

// Label returns the display text used by the UI and stored in preferences.
func (f Format) Label() string {
	if f == FormatBinary || f == "" {
		return "binary (default)"
	}
	return string(f)
}

// ParseFormat accepts either the canonical name or the display label.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "", strings.HasPrefix(s, "binary"), s == "bin":
		return FormatBinary, nil
	case strings.Contains(s, "ihex"), s == "hex":
		return FormatIHex, nil
	case strings.Contains(s, "srec"):
		return FormatSRec, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

func (f Format) args() []string {
	if f == "" || f == FormatBinary {
		return nil
	}
	return []string{"-f", string(f)}
}

// DefaultOption is the placeholder meaning "let minipro decide".
const DefaultOption = "Default"

// Choices offered for the voltage and clock overrides.
var (
	VPPChoices      = []string{DefaultOption, "9", "9.5", "10", "11", "11.5", "12", "12.5", "13", "13.5", "14", "14.5", "15.5", "16", "16.5", "17", "18", "21", "25"}
	VDDChoices      = []string{DefaultOption, "3.3", "4", "4.5", "5", "5.5", "6.5"}
	VCCChoices      = []string{DefaultOption, "3.3", "4", "4.5", "5", "5.5", "6.5"}
	SPIClockChoices = []string{DefaultOption, "4", "8", "15", "30"}
)

// MaxPulseDelay is the largest accepted --pulse value in microseconds.
const MaxPulseDelay = 65535

// Voltages holds the programming overrides. Empty or DefaultOption values
// are omitted.
type Voltages struct {
	VPP      string
	VDD      string
	VCC      string
	SPIClock string
	Pulse    int
}

func isDefault(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, DefaultOption)
}

// Validate checks every override is numeric and the pulse is in range.
func (v Voltages) Validate() error {
	for _, f := range []struct {
		name, value string
	}{
		{"vpp", v.VPP}, {"vdd", v.VDD}, {"vcc", v.VCC}, {"spi_clock", v.SPIClock},
	} {
		if isDefault(f.value) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(f.value), 64); err != nil {
			return fmt.Errorf("invalid --%s value %q", f.name, f.value)
		}
	}
	if v.Pulse < 0 || v.Pulse > MaxPulseDelay {
		return fmt.Errorf("pulse delay %d out of range 0-%d", v.Pulse, MaxPulseDelay)
	}
	return nil
}

func (v Voltages) args() []string {
	var args []string
	add := func(flag, value string) {
		if !isDefault(value) {
			args = append(args, flag, strings.TrimSpace(value))
		}
	}
	add("--vpp", v.VPP)
	add("--vdd", v.VDD)
	add("--vcc", v.VCC)
	add("--spi_clock", v.SPIClock)
	if v.Pulse > 0 {
		args = append(args, "--pulse", strconv.Itoa(v.Pulse))
	}
	return args
}

// ReadOptions configures Read.
type ReadOptions struct {
	Memory      MemoryType
	Format      Format
	SkipIDCheck bool
}

// WriteOptions configures Write.
type WriteOptions struct {
	Memory   MemoryType
	Voltages Voltages

	Unprotect bool
	Protect   bool

	// ICSPWithVCC takes precedence over ICSPWithoutVCC.
	ICSPWithVCC    bool
	ICSPWithoutVCC bool

	SkipErase   bool
	SkipVerify  bool
	NoIDError   bool
	NoSizeError bool
}

func (o WriteOptions) args() []string {
	args := o.Memory.args()
	args = append(args, o.Voltages.args()...)
	if o.Unprotect {
		args = append(args, "-u")
	}
	if o.Protect {
		args = append(args, "-P")
	}
	switch {
	case o.ICSPWithVCC:
		args = append(args, "-i")
	case o.ICSPWithoutVCC:
		args = append(args, "-I")
	}
	if o.SkipErase {
		args = append(args, "-e")
	}
	if o.SkipVerify {
		args = append(args, "-v")
	}
	if o.NoIDError {
		args = append(args, "-y")
	}
	if o.NoSizeError {
		args = append(args, "-s")
	}
	return args
}
