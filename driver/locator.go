package driver

import (
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

// Identity is the USB vendor/product pair that recognizes the board
type Identity struct {
	VendorID  uint16
	ProductID uint16
}

func (id Identity) String() string {
	return fmt.Sprintf("%04X:%04X", id.VendorID, id.ProductID)
}

// PortInfo is one currently attached serial interface
type PortInfo struct {
	Name      string
	VendorID  uint16
	ProductID uint16
}

// Identity returns the vendor/product pair reported by the port
func (p PortInfo) Identity() Identity {
	return Identity{VendorID: p.VendorID, ProductID: p.ProductID}
}

// Enumerator lists the serial interfaces attached right now.
// Each call must enumerate afresh; hardware can change between calls.
type Enumerator func() ([]PortInfo, error)

// SystemPorts enumerates the host's USB serial interfaces.
// Ports without a USB identity are left out.
func SystemPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var ports []PortInfo
	for _, d := range details {
		if !d.IsUSB {
			continue
		}
		vid, err := strconv.ParseUint(d.VID, 16, 16)
		if err != nil {
			logger.Debug("Skipping %s: bad VID %q", d.Name, d.VID)
			continue
		}
		pid, err := strconv.ParseUint(d.PID, 16, 16)
		if err != nil {
			logger.Debug("Skipping %s: bad PID %q", d.Name, d.PID)
			continue
		}
		ports = append(ports, PortInfo{Name: d.Name, VendorID: uint16(vid), ProductID: uint16(pid)})
	}
	return ports, nil
}

// FindPort returns the name of the first enumerated port whose vendor and
// product ids both equal id. ok is false when nothing matches; err is only
// set when enumeration itself fails.
func FindPort(id Identity, enumerate Enumerator) (name string, ok bool, err error) {
	ports, err := enumerate()
	if err != nil {
		return "", false, err
	}

	logger.Debug("Found %d candidate ports for %s", len(ports), id)

	for _, p := range ports {
		if p.Identity() == id {
			logger.Info("Device %s found on %s", id, p.Name)
			return p.Name, true, nil
		}
		logger.Debug("Port %s is %s, not %s", p.Name, p.Identity(), id)
	}

	logger.Info("No port matches %s", id)
	return "", false, nil
}
