package bridge

import (
	"context"

	"growbridge/internal/backend"
	"growbridge/internal/codec"
)

// fanAttribute bridges the fan state over the controller's REST surface.
// Reads fetch the live state; a backend failure yields the UNKNOWN sentinel.
type fanAttribute struct {
	attrBase
	client backend.Client
}

func (f *fanAttribute) Read(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.client.Status(ctx)
	if err != nil {
		f.logger.Error("fan status", "err", err)
		f.emitBackendError(err)
		f.setValueLocked(codec.EncodeFanState(codec.FanUnknown))
		return f.valueLocked(), nil
	}

	f.setValueLocked(codec.EncodeFanState(st.Fan))
	f.logger.Debug("fan read", "value", st.Fan)
	f.emitRead(st.Fan)
	return f.valueLocked(), nil
}

func (f *fanAttribute) Write(ctx context.Context, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logger.Debug("fan write", "value", string(value))
	state, command, err := codec.DecodeFanState(value)
	if err != nil {
		fault := NewFault(FaultNotPermitted, err)
		f.logger.Info("rejected fan write", "value", string(value))
		f.emitRejected(fault)
		return fault
	}

	if err := f.client.Cmd(ctx, backend.Command{Name: command}); err != nil {
		f.logger.Error("fan command", "cmd", command, "err", err)
		f.emitBackendError(err)
		return NewFault(FaultFailed, err)
	}

	f.setValueLocked(codec.EncodeFanState(state))
	f.logger.Info("fan state written", "value", state)
	f.emitWrite(state)
	return nil
}

func (f *fanAttribute) Display(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// scalarAttribute is a read-only float sampled from the RPC status snapshot.
type scalarAttribute struct {
	attrBase
	client backend.Client
	field  func(*backend.Status) float64
}

func (s *scalarAttribute) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.client.Status(ctx)
	if err != nil {
		// Fall back to the previous value; backend failures on read are
		// never surfaced to the protocol stack.
		s.logger.Error("status", "attribute", s.name, "err", err)
		s.emitBackendError(err)
		return s.valueLocked(), nil
	}

	v := s.field(st)
	s.setValueLocked(codec.EncodeFloat64(v))
	s.logger.Debug("read", "attribute", s.name, "value", v)
	s.emitRead(v)
	return s.valueLocked(), nil
}

func (s *scalarAttribute) Display(raw []byte) any {
	v, err := codec.DecodeFloat64(raw)
	if err != nil {
		return nil
	}
	return v
}

// lightControlAttribute holds the tri-state light control. Reads return the
// last accepted state without contacting the backend; writes submit a
// setlight command.
type lightControlAttribute struct {
	attrBase
	client backend.Client
	last   uint8
}

func (l *lightControlAttribute) Read(ctx context.Context) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.setValueLocked(codec.EncodeTriState(l.last))
	l.logger.Debug("light control read", "value", l.last)
	l.emitRead(l.last)
	return l.valueLocked(), nil
}

func (l *lightControlAttribute) Write(ctx context.Context, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Debug("light control write", "value", string(value))
	n, err := codec.DecodeTriState(value)
	if err != nil {
		fault := NewFault(FaultNotPermitted, err)
		l.logger.Info("rejected light control write", "value", string(value))
		l.emitRejected(fault)
		return fault
	}

	cmd := backend.Command{Name: "setlight", Args: map[string]any{"state": string(value)}}
	if err := l.client.Cmd(ctx, cmd); err != nil {
		l.logger.Error("setlight command", "state", n, "err", err)
		l.emitBackendError(err)
		return NewFault(FaultFailed, err)
	}

	l.last = n
	l.setValueLocked(codec.EncodeTriState(n))
	l.logger.Info("light state written", "value", n)
	l.emitWrite(n)
	return nil
}

func (l *lightControlAttribute) Display(raw []byte) any {
	if len(raw) != 1 {
		return nil
	}
	return int(raw[0])
}

// floatSetpointAttribute is a writable setpoint carried as an 8-byte double
// in both directions.
type floatSetpointAttribute struct {
	attrBase
	client  backend.Client
	field   func(*backend.Status) float64
	command string
}

func (p *floatSetpointAttribute) Read(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, err := p.client.Status(ctx)
	if err != nil {
		p.logger.Error("status", "attribute", p.name, "err", err)
		p.emitBackendError(err)
		return p.valueLocked(), nil
	}

	v := p.field(st)
	p.setValueLocked(codec.EncodeFloat64(v))
	p.logger.Debug("read", "attribute", p.name, "value", v)
	p.emitRead(v)
	return p.valueLocked(), nil
}

func (p *floatSetpointAttribute) Write(ctx context.Context, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Debug("write", "attribute", p.name, "bytes", len(value))
	v, err := codec.DecodeFloat64(value)
	if err != nil {
		fault := NewFault(FaultInvalidValueLength, err)
		p.logger.Info("rejected write", "attribute", p.name, "bytes", len(value))
		p.emitRejected(fault)
		return fault
	}

	cmd := backend.Command{Name: p.command, Args: map[string]any{"value": v}}
	if err := p.client.Cmd(ctx, cmd); err != nil {
		p.logger.Error("setpoint command", "attribute", p.name, "err", err)
		p.emitBackendError(err)
		return NewFault(FaultFailed, err)
	}

	p.setValueLocked(codec.EncodeFloat64(v))
	p.logger.Info("setpoint written", "attribute", p.name, "value", v)
	p.emitWrite(v)
	return nil
}

func (p *floatSetpointAttribute) Display(raw []byte) any {
	v, err := codec.DecodeFloat64(raw)
	if err != nil {
		return nil
	}
	return v
}

// intSetpointAttribute is the humidity setpoint: it reads as an 8-byte
// double but decodes writes as a 4-byte integer. The width mismatch is the
// controller firmware's documented contract; the accepted integer is
// re-encoded as a double so the stored value always matches the read
// encoding.
type intSetpointAttribute struct {
	attrBase
	client  backend.Client
	field   func(*backend.Status) float64
	command string
}

func (p *intSetpointAttribute) Read(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, err := p.client.Status(ctx)
	if err != nil {
		p.logger.Error("status", "attribute", p.name, "err", err)
		p.emitBackendError(err)
		return p.valueLocked(), nil
	}

	v := p.field(st)
	p.setValueLocked(codec.EncodeFloat64(v))
	p.logger.Debug("read", "attribute", p.name, "value", v)
	p.emitRead(v)
	return p.valueLocked(), nil
}

func (p *intSetpointAttribute) Write(ctx context.Context, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Debug("write", "attribute", p.name, "bytes", len(value))
	n, err := codec.DecodeInt32(value)
	if err != nil {
		fault := NewFault(FaultInvalidValueLength, err)
		p.logger.Info("rejected write", "attribute", p.name, "bytes", len(value))
		p.emitRejected(fault)
		return fault
	}

	cmd := backend.Command{Name: p.command, Args: map[string]any{"value": n}}
	if err := p.client.Cmd(ctx, cmd); err != nil {
		p.logger.Error("setpoint command", "attribute", p.name, "err", err)
		p.emitBackendError(err)
		return NewFault(FaultFailed, err)
	}

	p.setValueLocked(codec.EncodeFloat64(float64(n)))
	p.logger.Info("setpoint written", "attribute", p.name, "value", n)
	p.emitWrite(n)
	return nil
}

func (p *intSetpointAttribute) Display(raw []byte) any {
	v, err := codec.DecodeFloat64(raw)
	if err != nil {
		return nil
	}
	return v
}
