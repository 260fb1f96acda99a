package gatt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"growbridge/internal/bridge"
)

// AppPath is the root of the exported GATT object tree.
const AppPath = dbus.ObjectPath("/com/growbridge")

// DefaultOpTimeout bounds a single ReadValue or WriteValue, backend call
// included.
const DefaultOpTimeout = 5 * time.Second

// Application is the exported GATT object tree: one primary service with one
// characteristic per attribute, each carrying a user-description descriptor.
type Application struct {
	path    dbus.ObjectPath
	service *gattService
	logger  *slog.Logger
}

// NewApplication lays out the object tree for svc. opTimeout bounds each
// attribute operation; zero means DefaultOpTimeout.
func NewApplication(svc *bridge.Service, logger *slog.Logger, opTimeout time.Duration) *Application {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	app := &Application{path: AppPath, logger: logger}

	gs := &gattService{
		path: AppPath + "/service0",
		uuid: svc.UUID,
	}
	for i, attr := range svc.Attributes {
		chrPath := gs.path + dbus.ObjectPath(fmt.Sprintf("/char%d", i))
		writable, _ := attr.(bridge.WritableAttribute)
		chr := &characteristic{
			path:        chrPath,
			servicePath: gs.path,
			attr:        attr,
			writable:    writable,
			timeout:     opTimeout,
			logger:      logger.With("attribute", attr.Name()),
		}
		chr.desc = &descriptor{
			path:     chrPath + "/desc0",
			charPath: chrPath,
			value:    []byte(attr.Description()),
		}
		gs.characteristics = append(gs.characteristics, chr)
	}
	app.service = gs
	return app
}

// Path returns the application's root object path.
func (a *Application) Path() dbus.ObjectPath { return a.path }

// Export registers the whole tree on the bus.
func (a *Application) Export(bus Bus) error {
	if err := bus.Export(a, a.path, objectManagerIface); err != nil {
		return fmt.Errorf("export object manager: %w", err)
	}
	if err := exportWithProps(bus, a.service, a.service.path, a.service); err != nil {
		return fmt.Errorf("export service: %w", err)
	}
	for _, chr := range a.service.characteristics {
		if err := exportWithProps(bus, chr, chr.path, chr); err != nil {
			return fmt.Errorf("export characteristic %s: %w", chr.attr.Name(), err)
		}
		if err := exportWithProps(bus, chr.desc, chr.desc.path, chr.desc); err != nil {
			return fmt.Errorf("export descriptor for %s: %w", chr.attr.Name(), err)
		}
	}
	return nil
}

// GetManagedObjects implements org.freedesktop.DBus.ObjectManager. BlueZ
// calls it once during RegisterApplication to discover the tree.
func (a *Application) GetManagedObjects() (managedObjects, *dbus.Error) {
	objects := managedObjects{
		a.service.path: {gattServiceIface: a.service.Properties()},
	}
	for _, chr := range a.service.characteristics {
		objects[chr.path] = map[string]map[string]dbus.Variant{
			gattCharacteristicIface: chr.Properties(),
		}
		objects[chr.desc.path] = map[string]map[string]dbus.Variant{
			gattDescriptorIface: chr.desc.Properties(),
		}
	}
	return objects, nil
}

type gattService struct {
	path            dbus.ObjectPath
	uuid            string
	characteristics []*characteristic
}

func (s *gattService) InterfaceName() string { return gattServiceIface }

func (s *gattService) Properties() map[string]dbus.Variant {
	paths := make([]dbus.ObjectPath, len(s.characteristics))
	for i, chr := range s.characteristics {
		paths[i] = chr.path
	}
	return map[string]dbus.Variant{
		"UUID":            dbus.MakeVariant(s.uuid),
		"Primary":         dbus.MakeVariant(true),
		"Characteristics": dbus.MakeVariant(paths),
	}
}

type characteristic struct {
	path        dbus.ObjectPath
	servicePath dbus.ObjectPath
	attr        bridge.Attribute
	writable    bridge.WritableAttribute // nil when read-only
	desc        *descriptor
	timeout     time.Duration
	logger      *slog.Logger
}

func (c *characteristic) InterfaceName() string { return gattCharacteristicIface }

func (c *characteristic) Properties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"UUID":        dbus.MakeVariant(c.attr.UUID()),
		"Service":     dbus.MakeVariant(c.servicePath),
		"Flags":       dbus.MakeVariant(c.attr.Flags()),
		"Descriptors": dbus.MakeVariant([]dbus.ObjectPath{c.desc.path}),
	}
}

// ReadValue implements org.bluez.GattCharacteristic1.
func (c *characteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	value, err := c.attr.Read(ctx)
	if err != nil {
		c.logger.Error("read failed", "err", err)
		return nil, dbusError(err)
	}
	return value, nil
}

// WriteValue implements org.bluez.GattCharacteristic1.
func (c *characteristic) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	if c.writable == nil {
		return dbus.NewError(errNotSupported, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.writable.Write(ctx, value); err != nil {
		return dbusError(err)
	}
	return nil
}

// descriptor is the read-only characteristic user description (UUID 0x2901).
type descriptor struct {
	path     dbus.ObjectPath
	charPath dbus.ObjectPath
	value    []byte
}

func (d *descriptor) InterfaceName() string { return gattDescriptorIface }

func (d *descriptor) Properties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"UUID":           dbus.MakeVariant("2901"),
		"Characteristic": dbus.MakeVariant(d.charPath),
		"Flags":          dbus.MakeVariant([]string{"read"}),
	}
}

func (d *descriptor) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return d.value, nil
}

func (d *descriptor) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	return dbus.NewError(errNotPermitted, nil)
}
