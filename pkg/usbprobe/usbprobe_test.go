package usbprobe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		vid, pid uint16
		family   Family
		ok       bool
	}{
		{"tl866a", 0x04d8, 0xe11c, FamilyTL866A, true},
		{"t48", 0xa466, 0x0a53, FamilyTL866II, true},
		{"other microchip", 0x04d8, 0x0001, "", false},
		{"unknown", 0x1234, 0x5678, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := classify(tt.vid, tt.pid)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.family, info.Family)
		})
	}
}

func TestLabel(t *testing.T) {
	info, _ := classify(0xa466, 0x0a53)
	info.Bus, info.Address = 1, 7
	assert.Equal(t, "TL866II+/T48/T56 (A466:0A53, bus 1 addr 7)", info.Label())
	assert.Equal(t, "Programmer 0001:0002", ProgrammerInfo{VendorID: 1, ProductID: 2}.Label())
}
