package gatt

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Company identifier and payload broadcast in the manufacturer data field.
// 0xFFFF is the reserved test identifier; the payload is the ASCII tag "pt".
var manufacturerData = map[uint16][]byte{
	0xFFFF: {0x70, 0x74},
}

// Advertisement is the LE advertisement exported for BlueZ.
type Advertisement struct {
	path         dbus.ObjectPath
	localName    string
	serviceUUIDs []string
	logger       *slog.Logger
}

// NewAdvertisement builds a peripheral advertisement for the given service
// UUIDs, carrying the local name, manufacturer data, and TX power.
func NewAdvertisement(localName string, serviceUUIDs []string, logger *slog.Logger) *Advertisement {
	return &Advertisement{
		path:         AppPath + "/advertisement0",
		localName:    localName,
		serviceUUIDs: serviceUUIDs,
		logger:       logger,
	}
}

// Path returns the advertisement's object path.
func (a *Advertisement) Path() dbus.ObjectPath { return a.path }

// Export registers the advertisement on the bus.
func (a *Advertisement) Export(bus Bus) error {
	return exportWithProps(bus, a, a.path, a)
}

func (a *Advertisement) InterfaceName() string { return advertisementIface }

func (a *Advertisement) Properties() map[string]dbus.Variant {
	md := make(map[uint16]dbus.Variant, len(manufacturerData))
	for id, data := range manufacturerData {
		md[id] = dbus.MakeVariant(data)
	}
	return map[string]dbus.Variant{
		"Type":             dbus.MakeVariant("peripheral"),
		"ServiceUUIDs":     dbus.MakeVariant(a.serviceUUIDs),
		"ManufacturerData": dbus.MakeVariant(md),
		"LocalName":        dbus.MakeVariant(a.localName),
		"IncludeTxPower":   dbus.MakeVariant(true),
	}
}

// Release implements org.bluez.LEAdvertisement1. BlueZ calls it when it
// drops the advertisement.
func (a *Advertisement) Release() *dbus.Error {
	a.logger.Info("advertisement released")
	return nil
}
