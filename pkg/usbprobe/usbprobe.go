// Package usbprobe finds minipro-compatible programmers on the USB bus.
package usbprobe

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// Family groups programmer models that share a USB identity.
type Family string

const (
	FamilyTL866A  Family = "tl866a"
	FamilyTL866II Family = "tl866ii"
)

// Known USB identities.
const (
	VendorIDMicrochip = 0x04d8
	ProductIDTL866A   = 0xe11c
	VendorIDXGecu     = 0xa466
	ProductIDTL866II  = 0x0a53
)

type knownProgrammer struct {
	VendorID    uint16
	ProductID   uint16
	Family      Family
	Description string
}

var knownProgrammers = []knownProgrammer{
	{VendorID: VendorIDMicrochip, ProductID: ProductIDTL866A, Family: FamilyTL866A, Description: "TL866A/CS"},
	{VendorID: VendorIDXGecu, ProductID: ProductIDTL866II, Family: FamilyTL866II, Description: "TL866II+/T48/T56"},
}

// ProgrammerInfo describes one attached programmer.
type ProgrammerInfo struct {
	Family      Family
	Description string
	VendorID    uint16
	ProductID   uint16
	Bus         int
	Address     int
}

// Label returns a user-friendly description.
func (p ProgrammerInfo) Label() string {
	if p.Description != "" {
		return fmt.Sprintf("%s (%04X:%04X, bus %d addr %d)", p.Description, p.VendorID, p.ProductID, p.Bus, p.Address)
	}
	return fmt.Sprintf("Programmer %04X:%04X", p.VendorID, p.ProductID)
}

// Discover enumerates attached programmers without opening them. Access
// errors on unrelated devices are ignored.
func Discover(ctx context.Context) ([]ProgrammerInfo, error) {
	var results []ProgrammerInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if info, ok := classify(uint16(desc.Vendor), uint16(desc.Product)); ok {
			info.Bus = desc.Bus
			info.Address = desc.Address
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}
	return results, ctx.Err()
}

func classify(vid, pid uint16) (ProgrammerInfo, bool) {
	for _, k := range knownProgrammers {
		if k.VendorID == vid && k.ProductID == pid {
			return ProgrammerInfo{
				Family:      k.Family,
				Description: k.Description,
				VendorID:    vid,
				ProductID:   pid,
			}, true
		}
	}
	return ProgrammerInfo{}, false
}
