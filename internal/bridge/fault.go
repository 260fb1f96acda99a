package bridge

import "errors"

// FaultCode enumerates the failures surfaced to the protocol stack on an
// attribute operation.
type FaultCode int

const (
	FaultInvalidArgs FaultCode = iota
	FaultNotSupported
	FaultNotPermitted
	FaultInvalidValueLength
	FaultFailed
)

func (c FaultCode) String() string {
	switch c {
	case FaultInvalidArgs:
		return "invalid_args"
	case FaultNotSupported:
		return "not_supported"
	case FaultNotPermitted:
		return "not_permitted"
	case FaultInvalidValueLength:
		return "invalid_value_length"
	case FaultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fault is an attribute operation failure with a protocol-recognized code.
// Validation faults (NotPermitted, InvalidValueLength) are raised before any
// backend call; Failed means the backend rejected or never received the
// command.
type Fault struct {
	Code FaultCode
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Code.String()
	}
	return f.Code.String() + ": " + f.Err.Error()
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault wraps err with a protocol fault code.
func NewFault(code FaultCode, err error) *Fault {
	return &Fault{Code: code, Err: err}
}

// AsFault extracts the *Fault from err. Errors without one are reported as
// FaultFailed.
func AsFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Code: FaultFailed, Err: err}
}
