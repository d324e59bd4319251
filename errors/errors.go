package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // command table construction
	PhaseDispatch Phase = "dispatch" // command resolution and execution
	PhaseDecode   Phase = "decode"   // wire/payload decoding
	PhaseEncode   Phase = "encode"   // wire/payload encoding
	PhaseHandle   Phase = "handle"   // handle registry operations
	PhaseSession  Phase = "session"  // session lifecycle
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseGuest    Phase = "guest"    // guest memory binding
	PhaseTrace    Phase = "trace"    // call trace recording
	PhaseValidate Phase = "validate" // budget/parameter validation
)

// Kind categorizes the error
type Kind string

const (
	KindExhausted     Kind = "exhausted"
	KindInvalidHandle Kind = "invalid_handle"
	KindDuplicate     Kind = "duplicate"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindInvalidData   Kind = "invalid_data"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindOutOfRange    Kind = "out_of_range"
	KindClosed        Kind = "closed"
	KindLimit         Kind = "limit"
	KindUnsupported   Kind = "unsupported"
	KindIO            Kind = "io"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// IsKind reports whether err is an *Error of the given kind, in any phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Convenience constructors for common error patterns

// Exhausted creates a resource exhaustion error
func Exhausted(phase Phase, what string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("%s exhausted (limit %d)", what, limit),
		Value:  limit,
	}
}

// InvalidHandle creates an invalid handle error
func InvalidHandle(op string, handle uint32) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindInvalidHandle,
		Op:     op,
		Detail: fmt.Sprintf("handle 0x%x is not live", handle),
		Value:  handle,
	}
}

// Duplicate creates a duplicate registration error
func Duplicate(phase Phase, what string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Detail: fmt.Sprintf("duplicate %s %v", what, value),
		Value:  value,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %v not found", what, value),
		Value:  value,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length, size int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) out of bounds (size %d)", offset, offset+length, size),
		Value:  offset,
	}
}

// OutOfRange creates an error for a value outside a declared ceiling
func OutOfRange(phase Phase, field string, value, lo, hi int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Op:     field,
		Detail: fmt.Sprintf("%d not in [%d, %d]", value, lo, hi),
		Value:  value,
	}
}

// Closed creates an error for operations on a closed object
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
