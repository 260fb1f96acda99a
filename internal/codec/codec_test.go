package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestDecodeFanStateAccepted(t *testing.T) {
	cases := []struct {
		in      string
		state   string
		command string
	}{
		{"ON", "ON", "on"},
		{"OFF", "OFF", "off"},
		{"UNKNOWN", "UNKNOWN", "unknown"},
		{"on", "ON", "on"},
		{"Off", "OFF", "off"},
	}
	for _, tc := range cases {
		state, command, err := DecodeFanState([]byte(tc.in))
		if err != nil {
			t.Errorf("DecodeFanState(%q) err = %v", tc.in, err)
			continue
		}
		if state != tc.state {
			t.Errorf("DecodeFanState(%q) state = %q, want %q", tc.in, state, tc.state)
		}
		if command != tc.command {
			t.Errorf("DecodeFanState(%q) command = %q, want %q", tc.in, command, tc.command)
		}
	}
}

func TestDecodeFanStateRejected(t *testing.T) {
	for _, in := range []string{"", "AUTO", "ONN", "1", "on off"} {
		_, _, err := DecodeFanState([]byte(in))
		if !errors.Is(err, ErrUnknownState) {
			t.Errorf("DecodeFanState(%q) err = %v, want ErrUnknownState", in, err)
		}
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 42.0, 21.5, -273.15, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64} {
		b := EncodeFloat64(v)
		if len(b) != 8 {
			t.Fatalf("EncodeFloat64(%v) length = %d, want 8", v, len(b))
		}
		got, err := DecodeFloat64(b)
		if err != nil {
			t.Fatalf("DecodeFloat64 err = %v", err)
		}
		if got != v {
			t.Errorf("round-trip %v -> %v", v, got)
		}
	}
}

func TestDecodeFloat64WrongLength(t *testing.T) {
	for _, n := range []int{0, 4, 7, 9} {
		_, err := DecodeFloat64(make([]byte, n))
		if !errors.Is(err, ErrValueLength) {
			t.Errorf("DecodeFloat64(len %d) err = %v, want ErrValueLength", n, err)
		}
	}
}

func TestDecodeTriState(t *testing.T) {
	for want := uint8(0); want <= 2; want++ {
		got, err := DecodeTriState([]byte{byte('0' + want)})
		if err != nil {
			t.Fatalf("DecodeTriState(%d) err = %v", want, err)
		}
		if got != want {
			t.Errorf("DecodeTriState = %d, want %d", got, want)
		}
	}
}

func TestDecodeTriStateRejected(t *testing.T) {
	for _, in := range []string{"3", "-1", "x", "", "10", "one"} {
		_, err := DecodeTriState([]byte(in))
		if !errors.Is(err, ErrUnknownState) {
			t.Errorf("DecodeTriState(%q) err = %v, want ErrUnknownState", in, err)
		}
	}
}

func TestEncodeTriState(t *testing.T) {
	if !bytes.Equal(EncodeTriState(2), []byte{2}) {
		t.Error("EncodeTriState(2) != [2]")
	}
}

func TestDecodeInt32(t *testing.T) {
	b := make([]byte, 4)
	binary.NativeEndian.PutUint32(b, uint32(55))
	got, err := DecodeInt32(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != 55 {
		t.Errorf("DecodeInt32 = %d, want 55", got)
	}

	for _, n := range []int{0, 3, 5, 8} {
		if _, err := DecodeInt32(make([]byte, n)); !errors.Is(err, ErrValueLength) {
			t.Errorf("DecodeInt32(len %d) err = %v, want ErrValueLength", n, err)
		}
	}
}

func TestIsFanState(t *testing.T) {
	if !IsFanState("unknown") {
		t.Error("IsFanState(unknown) = false")
	}
	if IsFanState("auto") {
		t.Error("IsFanState(auto) = true")
	}
}
