package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
)

// Default D-Bus coordinates of the controller's RPC object.
const (
	DefaultRPCService = "com.ag.gr0g"
	DefaultRPCPath    = "/gr0g"
)

// DBusClient talks to the controller's RPC object on the session bus.
// The object exposes status() returning a structured state map and
// cmd(a{sv}) accepting one command map.
type DBusClient struct {
	obj     dbus.BusObject
	iface   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewDBusClient resolves the controller's RPC object on conn.
func NewDBusClient(conn *dbus.Conn, service, path string, timeout time.Duration, logger *slog.Logger) *DBusClient {
	return &DBusClient{
		obj:     conn.Object(service, dbus.ObjectPath(path)),
		iface:   service,
		timeout: timeout,
		logger:  logger.With("component", "backend-rpc"),
	}
}

// Status implements Client.
func (c *DBusClient) Status(ctx context.Context) (*Status, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var raw map[string]dbus.Variant
	call := c.obj.CallWithContext(callCtx, c.iface+".status", 0)
	if err := call.Store(&raw); err != nil {
		return nil, fmt.Errorf("rpc status: %w", err)
	}
	return statusFromVariants(raw), nil
}

// Cmd implements Client.
func (c *DBusClient) Cmd(ctx context.Context, cmd Command) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := map[string]dbus.Variant{"cmd": dbus.MakeVariant(cmd.Name)}
	for k, v := range cmd.Args {
		args[k] = dbus.MakeVariant(v)
	}
	call := c.obj.CallWithContext(callCtx, c.iface+".cmd", 0, args)
	if call.Err != nil {
		return fmt.Errorf("rpc cmd %q: %w", cmd.Name, call.Err)
	}
	c.logger.Debug("command accepted", "cmd", cmd.Name)
	return nil
}

// statusFromVariants converts the RPC status map into a Status. The
// controller is loose about numeric types, so every field is coerced.
func statusFromVariants(raw map[string]dbus.Variant) *Status {
	st := &Status{}
	if v, ok := raw["fan"]; ok {
		if s, ok := v.Value().(string); ok {
			st.Fan = s
		}
	}
	st.Light = variantFloat(raw, "light")
	st.Temperature = variantFloat(raw, "temperature")
	st.TemperatureSetpoint = variantFloat(raw, "temperature_setpoint")
	st.Humidity = variantFloat(raw, "humidity")
	st.HumiditySetpoint = variantFloat(raw, "humidity_setpoint")
	return st
}

func variantFloat(raw map[string]dbus.Variant, key string) float64 {
	v, ok := raw[key]
	if !ok {
		return 0
	}
	switch n := v.Value().(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case byte:
		return float64(n)
	default:
		return 0
	}
}
