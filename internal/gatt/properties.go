package gatt

import (
	"github.com/godbus/dbus/v5"
)

// propertySource is an exported object that carries D-Bus properties under a
// single interface.
type propertySource interface {
	InterfaceName() string
	Properties() map[string]dbus.Variant
}

// propsExport serves org.freedesktop.DBus.Properties for one object. All
// properties are read-only; BlueZ only ever reads them.
type propsExport struct {
	src propertySource
}

func (p *propsExport) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	if iface != p.src.InterfaceName() {
		return dbus.Variant{}, dbus.NewError(errInvalidArgs, nil)
	}
	v, ok := p.src.Properties()[name]
	if !ok {
		return dbus.Variant{}, dbus.NewError(errInvalidArgs, nil)
	}
	return v, nil
}

func (p *propsExport) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != p.src.InterfaceName() {
		return nil, dbus.NewError(errInvalidArgs, nil)
	}
	return p.src.Properties(), nil
}

func (p *propsExport) Set(iface, name string, value dbus.Variant) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly", nil)
}

// exportWithProps registers an object and its properties at path.
func exportWithProps(bus Bus, v interface{}, path dbus.ObjectPath, src propertySource) error {
	if err := bus.Export(v, path, src.InterfaceName()); err != nil {
		return err
	}
	return bus.Export(&propsExport{src: src}, path, propertiesIface)
}
