package runtime

import "fmt"

// ErrorKind classifies a runtime failure. The evaluator attaches source
// spans and a call trace on top of these; this package only knows the
// category and message.
type ErrorKind int

const (
	ErrUnboundName ErrorKind = iota
	ErrType
	ErrArgumentBinding
	ErrIndex
	ErrKey
	ErrDivisionByZero
	ErrMutationDuringIteration
	ErrUnfreezable
	ErrCallDepth
	ErrInterrupted
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnboundName:
		return "unbound name"
	case ErrType:
		return "type error"
	case ErrArgumentBinding:
		return "argument binding error"
	case ErrIndex:
		return "index error"
	case ErrKey:
		return "key error"
	case ErrDivisionByZero:
		return "division by zero"
	case ErrMutationDuringIteration:
		return "mutation during iteration"
	case ErrUnfreezable:
		return "unfreezable value"
	case ErrCallDepth:
		return "call depth exceeded"
	case ErrInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("unknown_error_kind_%d", int(k))
	}
}

// Error is a classified runtime failure.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Errorf builds a classified error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// TypeErrorf builds an ErrType error; it is by far the most common kind.
func TypeErrorf(format string, args ...any) *Error {
	return Errorf(ErrType, format, args...)
}
