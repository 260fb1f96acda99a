package bridge

import (
	"testing"
)

func TestServiceShape(t *testing.T) {
	svc := newTestService(t, Config{}, &fakeBackend{}, &fakeBackend{})

	if svc.UUID != ServiceUUID {
		t.Errorf("service uuid = %s", svc.UUID)
	}

	wantOrder := []string{
		"light", "light_control", "temperature",
		"temperature_setpoint", "humidity", "humidity_setpoint",
	}
	if len(svc.Attributes) != len(wantOrder) {
		t.Fatalf("attributes = %d, want %d", len(svc.Attributes), len(wantOrder))
	}
	for i, name := range wantOrder {
		if svc.Attributes[i].Name() != name {
			t.Errorf("attribute[%d] = %s, want %s", i, svc.Attributes[i].Name(), name)
		}
	}
}

func TestServiceFanGating(t *testing.T) {
	svc := newTestService(t, Config{EnableFan: true}, &fakeBackend{}, &fakeBackend{})

	if got := svc.Attributes[0].Name(); got != "fan" {
		t.Fatalf("first attribute = %s, want fan", got)
	}
	if len(svc.Attributes) != 7 {
		t.Errorf("attributes = %d, want 7", len(svc.Attributes))
	}
	if svc.Attributes[0].UUID() != UUIDFan {
		t.Errorf("fan uuid = %s", svc.Attributes[0].UUID())
	}
	// Fan starts as UNKNOWN until its first read or write.
	if string(svc.Attributes[0].Value()) != "UNKNOWN" {
		t.Errorf("fan initial value = %q, want UNKNOWN", svc.Attributes[0].Value())
	}
}

func TestServiceAccessFlags(t *testing.T) {
	svc := newTestService(t, Config{EnableFan: true}, &fakeBackend{}, &fakeBackend{})

	writable := map[string]bool{
		"fan":                  true,
		"light_control":        true,
		"temperature_setpoint": true,
		"humidity_setpoint":    true,
	}
	for _, a := range svc.Attributes {
		_, canWrite := a.(WritableAttribute)
		if canWrite != writable[a.Name()] {
			t.Errorf("%s writable = %v, want %v", a.Name(), canWrite, writable[a.Name()])
		}
		flags := a.Flags()
		if flags[0] != FlagRead {
			t.Errorf("%s first flag = %s, want read", a.Name(), flags[0])
		}
		if writable[a.Name()] && (len(flags) != 2 || flags[1] != FlagWrite) {
			t.Errorf("%s flags = %v, want [read write]", a.Name(), flags)
		}
		if !writable[a.Name()] && len(flags) != 1 {
			t.Errorf("%s flags = %v, want [read]", a.Name(), flags)
		}
	}
}

func TestServiceDescriptions(t *testing.T) {
	svc := newTestService(t, Config{EnableFan: true}, &fakeBackend{}, &fakeBackend{})

	for _, a := range svc.Attributes {
		if a.Description() == "" {
			t.Errorf("%s has no description", a.Name())
		}
	}
	if got := svc.Attribute("light").Description(); got != "Get light level" {
		t.Errorf("light description = %q", got)
	}
}

func TestServiceAttributeLookup(t *testing.T) {
	svc := newTestService(t, Config{}, &fakeBackend{}, &fakeBackend{})

	if svc.Attribute("humidity") == nil {
		t.Error("humidity not found")
	}
	if svc.Attribute("fan") != nil {
		t.Error("fan present with EnableFan off")
	}
	if svc.Attribute("nope") != nil {
		t.Error("unknown attribute found")
	}
}
