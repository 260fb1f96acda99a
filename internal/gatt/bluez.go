// Package gatt exports the attribute tree as a BlueZ GATT peripheral over
// the system D-Bus: an ObjectManager application, an LE advertisement, and a
// NoInputNoOutput pairing agent, brought up by a fail-fast bootstrap.
package gatt

import (
	"errors"
	"fmt"
	"sort"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService = "org.bluez"
	bluezRoot    = dbus.ObjectPath("/org/bluez")

	adapterIface      = "org.bluez.Adapter1"
	gattManagerIface  = "org.bluez.GattManager1"
	advManagerIface   = "org.bluez.LEAdvertisingManager1"
	agentManagerIface = "org.bluez.AgentManager1"

	gattServiceIface        = "org.bluez.GattService1"
	gattCharacteristicIface = "org.bluez.GattCharacteristic1"
	gattDescriptorIface     = "org.bluez.GattDescriptor1"
	advertisementIface      = "org.bluez.LEAdvertisement1"
	agentIface              = "org.bluez.Agent1"

	propertiesIface    = "org.freedesktop.DBus.Properties"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"
)

// managedObjects is the wire shape of ObjectManager.GetManagedObjects:
// object path -> interface name -> property name -> value.
type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Bus is the slice of *dbus.Conn the peripheral needs.
type Bus interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// ErrNoAdapter means no BlueZ object on the bus implements GattManager1.
var ErrNoAdapter = errors.New("no adapter with a GATT manager found")

// FindAdapter scans BlueZ's managed objects for the first adapter exposing
// GattManager1. Paths are visited in sorted order so the pick is stable.
func FindAdapter(bus Bus) (dbus.ObjectPath, error) {
	var objects managedObjects
	root := bus.Object(bluezService, "/")
	if err := root.Call(objectManagerIface+".GetManagedObjects", 0).Store(&objects); err != nil {
		return "", fmt.Errorf("get managed objects: %w", err)
	}

	paths := make([]dbus.ObjectPath, 0, len(objects))
	for path := range objects {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	for _, path := range paths {
		if _, ok := objects[path][gattManagerIface]; ok {
			return path, nil
		}
	}
	return "", ErrNoAdapter
}
