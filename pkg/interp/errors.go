package interp

import (
	"fmt"
	"strings"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

// TraceEntry is one call site on the path from the failing operation back
// to the top level.
type TraceEntry struct {
	Function string
	Span     ast.Span
}

// EvalError is a diagnosed evaluation failure: the classified error, the
// span of the offending operation, and the call-stack trace accumulated
// while unwinding.
type EvalError struct {
	Kind  runtime.ErrorKind
	Msg   string
	Span  ast.Span
	Trace []TraceEntry
}

func (e *EvalError) Error() string {
	var b strings.Builder
	for i := len(e.Trace) - 1; i >= 0; i-- {
		entry := e.Trace[i]
		fmt.Fprintf(&b, "  in %s%s\n", entry.Function, formatSpan(entry.Span))
	}
	fmt.Fprintf(&b, "%s: %s%s", e.Kind, e.Msg, formatSpan(e.Span))
	return b.String()
}

func formatSpan(span ast.Span) string {
	if !span.IsValid() {
		return ""
	}
	return fmt.Sprintf(" (at %d:%d)", span.Start.Line, span.Start.Col)
}

func evalErrorf(kind runtime.ErrorKind, span ast.Span, format string, args ...any) *EvalError {
	return &EvalError{Kind: kind, Msg: fmt.Sprintf(format, args...), Span: span}
}

// wrapError attaches a span to a classified runtime error. Errors that
// already carry a span (and control-flow signals) pass through unchanged.
func wrapError(err error, span ast.Span) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *EvalError:
		return e
	case *runtime.Error:
		return &EvalError{Kind: e.Kind, Msg: e.Msg, Span: span}
	case *breakSignal, *continueSignal, *returnSignal:
		return err
	default:
		return &EvalError{Kind: runtime.ErrType, Msg: err.Error(), Span: span}
	}
}

// Control-flow signals travel as errors through the evaluator, exactly one
// loop or call boundary catches each.

type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside loop" }

type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "return outside function" }
