package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
)

// ErrNoHardwareAddr is returned when no interface has a usable address.
var ErrNoHardwareAddr = errors.New("no hardware address")

// namespace scopes serial numbers derived from hardware addresses.
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("multisensor-go"))

// Identity is the immutable accessory identity, computed once at startup.
type Identity struct {
	Name         string
	SerialNumber string
	Manufacturer string
	Model        string
	Firmware     string
	HardwareAddr net.HardwareAddr
}

// NewIdentity derives the identity from a hardware address. The name is
// the base name followed by the last three address bytes in hex, the serial
// a name-based UUID of the full address.
func NewIdentity(dev DeviceConfig, mac net.HardwareAddr, firmware string) (Identity, error) {
	if len(mac) < 3 {
		return Identity{}, fmt.Errorf("%w: %q", ErrNoHardwareAddr, mac.String())
	}
	suffix := strings.ToUpper(fmt.Sprintf("%x", []byte(mac[len(mac)-3:])))
	serial := uuid.NewSHA1(namespace, mac)

	return Identity{
		Name:         dev.BaseName + "-" + suffix,
		SerialNumber: strings.ToUpper(strings.ReplaceAll(serial.String(), "-", "")[:12]),
		Manufacturer: dev.Manufacturer,
		Model:        dev.Model,
		Firmware:     firmware,
		HardwareAddr: mac,
	}, nil
}

// HardwareAddr resolves the address for dev: the configured override, or
// the first non-loopback interface with one.
func HardwareAddr(dev DeviceConfig) (net.HardwareAddr, error) {
	if dev.HardwareAddr != "" {
		mac, err := net.ParseMAC(dev.HardwareAddr)
		if err != nil {
			return nil, fmt.Errorf("parse hardware_addr: %w", err)
		}
		return mac, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) < 3 {
			continue
		}
		return iface.HardwareAddr, nil
	}
	return nil, ErrNoHardwareAddr
}
