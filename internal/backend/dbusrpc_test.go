package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

// fakeBusObject implements dbus.BusObject for testing the RPC client
// without a running bus.
type fakeBusObject struct {
	statusReply map[string]dbus.Variant
	statusErr   error
	cmdErr      error

	lastMethod string
	lastArgs   []interface{}
}

func (f *fakeBusObject) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	return f.CallWithContext(context.Background(), method, flags, args...)
}

func (f *fakeBusObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.lastMethod = method
	f.lastArgs = args
	switch method {
	case "com.ag.gr0g.status":
		if f.statusErr != nil {
			return &dbus.Call{Err: f.statusErr}
		}
		return &dbus.Call{Body: []interface{}{f.statusReply}}
	case "com.ag.gr0g.cmd":
		return &dbus.Call{Err: f.cmdErr}
	}
	return &dbus.Call{Err: errors.New("unexpected method " + method)}
}

func (f *fakeBusObject) Go(method string, flags dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call {
	call := f.Call(method, flags, args...)
	ch <- call
	return call
}

func (f *fakeBusObject) GoWithContext(ctx context.Context, method string, flags dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call {
	return f.Go(method, flags, ch, args...)
}

func (f *fakeBusObject) AddMatchSignal(string, string, ...dbus.MatchOption) *dbus.Call {
	return &dbus.Call{}
}

func (f *fakeBusObject) RemoveMatchSignal(string, string, ...dbus.MatchOption) *dbus.Call {
	return &dbus.Call{}
}

func (f *fakeBusObject) GetProperty(string) (dbus.Variant, error) { return dbus.Variant{}, nil }
func (f *fakeBusObject) StoreProperty(string, interface{}) error  { return nil }
func (f *fakeBusObject) SetProperty(string, interface{}) error    { return nil }
func (f *fakeBusObject) Destination() string                      { return DefaultRPCService }
func (f *fakeBusObject) Path() dbus.ObjectPath                    { return DefaultRPCPath }

func newTestDBusClient(obj dbus.BusObject) *DBusClient {
	return &DBusClient{
		obj:     obj,
		iface:   DefaultRPCService,
		timeout: time.Second,
		logger:  testLogger(),
	}
}

func TestDBusStatus(t *testing.T) {
	fake := &fakeBusObject{
		statusReply: map[string]dbus.Variant{
			"fan":                  dbus.MakeVariant("OFF"),
			"light":                dbus.MakeVariant(42.0),
			"temperature":          dbus.MakeVariant(21.5),
			"temperature_setpoint": dbus.MakeVariant(22.0),
			"humidity":             dbus.MakeVariant(55.0),
			"humidity_setpoint":    dbus.MakeVariant(int32(60)),
		},
	}
	c := newTestDBusClient(fake)

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Fan != "OFF" {
		t.Errorf("fan = %q, want OFF", st.Fan)
	}
	if st.Light != 42.0 {
		t.Errorf("light = %v, want 42.0", st.Light)
	}
	if st.HumiditySetpoint != 60 {
		t.Errorf("humidity_setpoint = %v, want 60 (int32 coerced)", st.HumiditySetpoint)
	}
}

func TestDBusStatusError(t *testing.T) {
	fake := &fakeBusObject{statusErr: errors.New("no reply")}
	c := newTestDBusClient(fake)

	if _, err := c.Status(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDBusCmd(t *testing.T) {
	fake := &fakeBusObject{}
	c := newTestDBusClient(fake)

	err := c.Cmd(context.Background(), Command{
		Name: "temperature_setpoint",
		Args: map[string]any{"value": 21.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if fake.lastMethod != "com.ag.gr0g.cmd" {
		t.Fatalf("method = %q", fake.lastMethod)
	}
	if len(fake.lastArgs) != 1 {
		t.Fatalf("args = %d, want 1", len(fake.lastArgs))
	}
	sent, ok := fake.lastArgs[0].(map[string]dbus.Variant)
	if !ok {
		t.Fatalf("arg type = %T, want map[string]dbus.Variant", fake.lastArgs[0])
	}
	if sent["cmd"].Value() != "temperature_setpoint" {
		t.Errorf("cmd = %v", sent["cmd"].Value())
	}
	if sent["value"].Value() != 21.5 {
		t.Errorf("value = %v, want 21.5", sent["value"].Value())
	}
}

func TestDBusCmdError(t *testing.T) {
	fake := &fakeBusObject{cmdErr: errors.New("connection refused")}
	c := newTestDBusClient(fake)

	if err := c.Cmd(context.Background(), Command{Name: "setlight"}); err == nil {
		t.Fatal("expected error")
	}
}
