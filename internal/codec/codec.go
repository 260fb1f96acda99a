// Package codec converts between GATT characteristic byte payloads and the
// backend's value types, one codec per attribute kind, and validates write
// payloads before they reach the backend.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fan states accepted over the air.
const (
	FanOn      = "ON"
	FanOff     = "OFF"
	FanUnknown = "UNKNOWN"
)

var (
	// ErrUnknownState is returned when a payload names no recognized state.
	ErrUnknownState = errors.New("codec: unknown state")
	// ErrValueLength is returned when a payload has the wrong byte length.
	ErrValueLength = errors.New("codec: wrong value length")
)

var fanStates = map[string]struct{}{
	FanOn:      {},
	FanOff:     {},
	FanUnknown: {},
}

// IsFanState reports whether s names a fan state, ignoring case.
func IsFanState(s string) bool {
	_, ok := fanStates[strings.ToUpper(s)]
	return ok
}

// EncodeFanState returns the UTF-8 encoding of a fan state.
func EncodeFanState(s string) []byte {
	return []byte(s)
}

// DecodeFanState validates a write payload as a fan state. It returns the
// canonical upper-case state for storage and the lower-case command string
// forwarded to the backend.
func DecodeFanState(value []byte) (state, command string, err error) {
	s := string(value)
	if !IsFanState(s) {
		return "", "", fmt.Errorf("%q: %w", s, ErrUnknownState)
	}
	canonical := strings.ToUpper(s)
	return canonical, strings.ToLower(canonical), nil
}

// EncodeFloat64 packs v as an 8-byte IEEE-754 double in machine byte order.
func EncodeFloat64(v float64) []byte {
	b := make([]byte, 8)
	binary.NativeEndian.PutUint64(b, math.Float64bits(v))
	return b
}

// DecodeFloat64 unpacks exactly 8 bytes as an IEEE-754 double.
func DecodeFloat64(value []byte) (float64, error) {
	if len(value) != 8 {
		return 0, fmt.Errorf("float64 needs 8 bytes, have %d: %w", len(value), ErrValueLength)
	}
	return math.Float64frombits(binary.NativeEndian.Uint64(value)), nil
}

// EncodeTriState returns the single-byte encoding of a tri-state value.
func EncodeTriState(v uint8) []byte {
	return []byte{v}
}

// DecodeTriState parses a write payload of ASCII decimal digits and accepts
// only the values 0, 1 and 2.
func DecodeTriState(value []byte) (uint8, error) {
	n, err := strconv.Atoi(string(value))
	if err != nil {
		return 0, fmt.Errorf("%q is not a decimal integer: %w", value, ErrUnknownState)
	}
	if n < 0 || n > 2 {
		return 0, fmt.Errorf("%d is not a tri-state value: %w", n, ErrUnknownState)
	}
	return uint8(n), nil
}

// DecodeInt32 unpacks exactly 4 bytes as a machine-order signed integer.
func DecodeInt32(value []byte) (int32, error) {
	if len(value) != 4 {
		return 0, fmt.Errorf("int32 needs 4 bytes, have %d: %w", len(value), ErrValueLength)
	}
	return int32(binary.NativeEndian.Uint32(value)), nil
}
