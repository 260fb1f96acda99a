// Package bridge maps GATT attribute operations onto the grow-box backend:
// one handler per exposed value, each composing a codec with a backend
// client. Handlers own their attribute's current value exclusively and
// serialize their own backend calls, so one slow attribute never corrupts
// another's state.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"growbridge/internal/store"
)

// GATT access flags.
const (
	FlagRead  = "read"
	FlagWrite = "write"
)

// Attribute is one value exposed as a GATT characteristic.
type Attribute interface {
	UUID() string
	Name() string
	Description() string
	Flags() []string

	// Value returns the last known raw value without contacting the backend.
	Value() []byte

	// Display converts raw characteristic bytes into a human-readable value,
	// or nil when the bytes do not decode.
	Display(raw []byte) any

	// Read fetches a fresh value from the backend and returns its encoding.
	// Backend failures are recovered locally: the previous value (or the
	// attribute's sentinel) is returned and the error is only logged.
	Read(ctx context.Context) ([]byte, error)
}

// WritableAttribute is implemented only by attributes whose access modes
// include write. Read-only attributes expose no write entry point at all.
type WritableAttribute interface {
	Attribute

	// Write validates the payload, submits the resulting command to the
	// backend, and on success replaces the current value. Validation
	// failures and backend failures return a *Fault and leave the current
	// value unchanged.
	Write(ctx context.Context, value []byte) error
}

// attrBase carries the static metadata and handler-owned state shared by
// every attribute. The mutex serializes reads and writes per attribute,
// including their backend calls.
type attrBase struct {
	uuid        string
	name        string
	description string
	flags       []string
	logger      *slog.Logger
	events      *EventBus
	store       store.Store // may be nil

	mu    sync.Mutex
	value []byte
}

func (a *attrBase) UUID() string        { return a.uuid }
func (a *attrBase) Name() string        { return a.name }
func (a *attrBase) Description() string { return a.description }
func (a *attrBase) Flags() []string     { return a.flags }

// Value returns a copy of the last known raw value.
func (a *attrBase) Value() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valueLocked()
}

func (a *attrBase) valueLocked() []byte {
	if a.value == nil {
		return nil
	}
	return append([]byte(nil), a.value...)
}

// setValueLocked replaces the current value and persists it. Callers must
// hold a.mu.
func (a *attrBase) setValueLocked(v []byte) {
	a.value = append([]byte(nil), v...)
	if a.store == nil {
		return
	}
	if err := a.store.SaveValue(a.name, a.value); err != nil {
		a.logger.Warn("persist value", "attribute", a.name, "err", err)
	}
}

// restore loads the persisted value from a previous run, if any.
func (a *attrBase) restore() {
	if a.store == nil {
		return
	}
	v, err := a.store.GetValue(a.name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Warn("restore value", "attribute", a.name, "err", err)
		}
		return
	}
	a.value = v
}

func (a *attrBase) emitRead(value any) {
	a.events.Emit(Event{Type: EventAttributeRead, Data: AttributeEvent{Attribute: a.name, Value: value}})
}

func (a *attrBase) emitWrite(value any) {
	a.events.Emit(Event{Type: EventAttributeWrite, Data: AttributeEvent{Attribute: a.name, Value: value}})
}

func (a *attrBase) emitRejected(f *Fault) {
	a.events.Emit(Event{Type: EventWriteRejected, Data: AttributeEvent{Attribute: a.name, Fault: f.Code.String(), Error: f.Error()}})
}

func (a *attrBase) emitBackendError(err error) {
	a.events.Emit(Event{Type: EventBackendError, Data: AttributeEvent{Attribute: a.name, Error: err.Error()}})
}
