package gatt

import (
	"github.com/godbus/dbus/v5"

	"growbridge/internal/bridge"
)

// D-Bus error names BlueZ recognizes on attribute operations.
const (
	errInvalidArgs        = "org.freedesktop.DBus.Error.InvalidArgs"
	errNotSupported       = "org.bluez.Error.NotSupported"
	errNotPermitted       = "org.bluez.Error.NotPermitted"
	errInvalidValueLength = "org.bluez.Error.InvalidValueLength"
	errFailed             = "org.bluez.Error.Failed"
)

// dbusError maps a handler failure to the D-Bus error name the protocol
// stack understands. Anything without a fault code becomes Failed.
func dbusError(err error) *dbus.Error {
	f := bridge.AsFault(err)
	name := errFailed
	switch f.Code {
	case bridge.FaultInvalidArgs:
		name = errInvalidArgs
	case bridge.FaultNotSupported:
		name = errNotSupported
	case bridge.FaultNotPermitted:
		name = errNotPermitted
	case bridge.FaultInvalidValueLength:
		name = errInvalidValueLength
	}
	return dbus.NewError(name, nil)
}
