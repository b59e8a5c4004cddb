package minipro

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// DefaultListTimeout bounds a full device list load.
const DefaultListTimeout = 30 * time.Second

// CommonDevices is offered before the full list has been loaded.
var CommonDevices = sortedCopy([]string{
	// EEPROM
	"AT28C64@DIP28", "AT28C256@DIP28", "AT29C256@DIP28", "AT29C512@DIP28",
	// EPROM
	"27C64@DIP28", "27C128@DIP28", "27C256@DIP28", "27C512@DIP28",
	// SPI flash
	"W25Q32JV@SOIC8", "W25Q64JV@SOIC8", "W25Q128JV@SOIC8",
	"MX25L3206E@SOIC8", "MX25L6406E@SOIC8",
	// GAL
	"GAL16V8", "GAL16V8D", "GAL20V8", "GAL22V10",
	"GAL16V8@PLCC20", "GAL16V8@DIP20", "GAL20V8@PLCC28",
	// MCU
	"ATMEGA328P@DIP28", "ATMEGA16@DIP40", "ATMEGA32@DIP40",
	"PIC16F628A@DIP18", "PIC16F84A@DIP18", "PIC16F877A@DIP40",
	// Logic
	"7404@DIP14", "7400@DIP14", "74HC00@DIP14", "74HC04@DIP14",
})

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

var nonDeviceWords = map[string]bool{
	"note:":    true,
	"warning:": true,
	"error:":   true,
	"found":    true,
	"total":    true,
}

// ParseDeviceList extracts device names from `minipro -l` output. The result
// is sorted and free of duplicates.
func ParseDeviceList(text string) []string {
	seen := make(map[string]bool)
	var devices []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "Device") {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "supported") || strings.Contains(lower, "device") || strings.Contains(lower, "name") {
			continue
		}
		name := strings.Fields(line)[0]
		if strings.HasPrefix(name, "#") || nonDeviceWords[strings.ToLower(name)] || seen[name] {
			continue
		}
		seen[name] = true
		devices = append(devices, name)
	}
	sort.Strings(devices)
	return devices
}

// LoadDeviceList runs the list invocation with a bounded wait and parses its
// stdout. A non-zero exit still yields whatever names were printed; only when
// there are none, or the tool could not run or timed out, does it return no
// devices and the cause.
func LoadDeviceList(ctx context.Context, inv Invocation, timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = DefaultListTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.Program(), inv.Args()...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("list devices: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if devices := ParseDeviceList(stdout.String()); len(devices) > 0 {
				return devices, nil
			}
		}
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return ParseDeviceList(stdout.String()), nil
}
