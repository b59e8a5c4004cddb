package minipro

import (
	"fmt"
	"strings"
)

// DetectProgrammer reports the connected programmer and its firmware.
func (b Builder) DetectProgrammer() Invocation {
	return b.make("Detect programmer", false, "-k")
}

// QuerySupported lists the programmer models minipro supports.
func (b Builder) QuerySupported() Invocation {
	return b.make("Query supported programmers", false, "-Q")
}

// HardwareCheck runs the programmer self test. No chip may be inserted.
func (b Builder) HardwareCheck() Invocation {
	inv := b.make("Hardware check", true, "-t")
	inv.Warning = "This will run a comprehensive hardware test.\nMake sure no chip is inserted."
	return inv
}

// ListDevices prints the full device database.
func (b Builder) ListDevices() Invocation {
	return b.make("List devices", false, "-l")
}

// DeviceInfo prints the database entry for device.
func (b Builder) DeviceInfo(device string) (Invocation, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return Invocation{}, ErrDeviceRequired
	}
	return b.make("Device info "+device, false, "-d", device), nil
}

// ReadChipID reads the chip signature of the inserted device.
func (b Builder) ReadChipID(device string) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	return b.make("Read chip ID", false, append(dev, "-D")...), nil
}

// PinCheck tests the socket contact of every pin.
func (b Builder) PinCheck(device string) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	return b.make("Pin check", false, append(dev, "-z")...), nil
}

// BlankCheck checks that the selected memory is erased.
func (b Builder) BlankCheck(device string, mem MemoryType) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	args := append(dev, "-b")
	args = append(args, mem.args()...)
	return b.make("Blank check", false, args...), nil
}

// Read dumps device memory into file.
func (b Builder) Read(device, file string, opts ReadOptions) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	file, err = requireFile(file)
	if err != nil {
		return Invocation{}, err
	}
	args := append(dev, "-r", file)
	args = append(args, opts.Memory.args()...)
	args = append(args, opts.Format.args()...)
	if opts.SkipIDCheck {
		args = append(args, "-x")
	}
	return b.make("Read "+file, false, args...), nil
}

// Write programs file into the device. The file must exist.
func (b Builder) Write(device, file string, opts WriteOptions) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	file, err = b.requireExisting(file)
	if err != nil {
		return Invocation{}, err
	}
	if err := opts.Voltages.Validate(); err != nil {
		return Invocation{}, err
	}
	args := append(dev, "-w", file)
	args = append(args, opts.args()...)
	inv := b.make(fmt.Sprintf("Write %s to device", file), true, args...)
	inv.Warning = fmt.Sprintf("Write %s to device?\nThis will modify the device contents.", file)
	return inv, nil
}

// Verify compares device memory against file. The file must exist.
func (b Builder) Verify(device, file string, mem MemoryType) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	file, err = b.requireExisting(file)
	if err != nil {
		return Invocation{}, err
	}
	args := append(dev, "-m", file)
	args = append(args, mem.args()...)
	return b.make("Verify against "+file, false, args...), nil
}

// Erase wipes the whole device.
func (b Builder) Erase(device string) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	inv := b.make("Erase device", true, append(dev, "-E")...)
	inv.Warning = "This will permanently erase ALL data on the device!"
	return inv, nil
}

// UpdateFirmware flashes the programmer itself.
func (b Builder) UpdateFirmware(file string) (Invocation, error) {
	file, err := b.requireExisting(file)
	if err != nil {
		return Invocation{}, err
	}
	inv := b.make("Update firmware", true, "-F", file)
	inv.Warning = "This will update the programmer firmware.\nDo NOT disconnect during the update!"
	return inv, nil
}

// LogicTest runs the logic or RAM IC test, optionally at a fixed VCC.
func (b Builder) LogicTest(device, vcc string) (Invocation, error) {
	dev, err := b.deviceArgs(device)
	if err != nil {
		return Invocation{}, err
	}
	args := append(dev, "-T")
	if !isDefault(vcc) {
		if err := (Voltages{VCC: vcc}).Validate(); err != nil {
			return Invocation{}, err
		}
		args = append(args, "--vcc", strings.TrimSpace(vcc))
	}
	return b.make("Logic test", false, args...), nil
}

// AutoDetect probes an SPI 25xx device of the given bus width (8 or 16).
func (b Builder) AutoDetect(width int) (Invocation, error) {
	if width != 8 && width != 16 {
		return Invocation{}, fmt.Errorf("auto-detect width must be 8 or 16, got %d", width)
	}
	return b.make(fmt.Sprintf("Auto-detect %d-bit SPI device", width), false, "-a", fmt.Sprint(width)), nil
}

// Custom tokenises a free-form flag line. A leading program name matching
// the builder's program is dropped so pasted echo lines work.
func (b Builder) Custom(line string) (Invocation, error) {
	if strings.TrimSpace(line) == "" {
		return Invocation{}, ErrCommandRequired
	}
	args, err := SplitArgs(line)
	if err != nil {
		return Invocation{}, err
	}
	if len(args) > 0 && (args[0] == b.Program || args[0] == DefaultProgram) {
		args = args[1:]
	}
	if len(args) == 0 {
		return Invocation{}, ErrCommandRequired
	}
	return b.make("Custom command", false, args...), nil
}
