package errcode

// Code is a stable error identifier for peripheral operations.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK   Code = "ok"
	Busy Code = "busy" // an operation is already outstanding on this resource

	// Hardware errors reported as a future's result.
	Framing  Code = "framing"
	Overrun  Code = "overrun"
	Parity   Code = "parity"
	Break    Code = "break"
	Timeout  Code = "timeout"
	Aborted  Code = "aborted"
	Transfer Code = "transfer_error"

	InvalidParams Code = "invalid_params"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// OrNil returns nil for OK (and the zero Code), the code itself otherwise.
// Interrupt bridges use it to turn a status classification into a result error.
func (c Code) OrNil() error {
	if c == "" || c == OK {
		return nil
	}
	return c
}
