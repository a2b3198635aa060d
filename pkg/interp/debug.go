package interp

import (
	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

// DebugEvent identifies why the hook fired.
type DebugEvent int

const (
	// EventStatement fires before each statement when stepping, or when a
	// breakpoint matches the statement's position.
	EventStatement DebugEvent = iota
	EventCallEnter
	EventCallReturn
)

func (e DebugEvent) String() string {
	switch e {
	case EventStatement:
		return "statement"
	case EventCallEnter:
		return "call"
	case EventCallReturn:
		return "return"
	default:
		return "unknown"
	}
}

// DebugAction is the hook's verdict on how evaluation proceeds.
type DebugAction int

const (
	// DebugContinue resumes normal execution until the next breakpoint.
	DebugContinue DebugAction = iota
	// DebugStep fires the hook again at the next statement.
	DebugStep
	// DebugPause aborts the evaluation with an interruption error.
	DebugPause
)

// FrameSnapshot is a read-only view of one activation record, innermost
// first in Stack.
type FrameSnapshot struct {
	Function string
	Span     ast.Span
	Locals   map[string]runtime.Value
	Stack    []TraceEntry
}

// DebugHook observes evaluation. It runs on the evaluation goroutine, so
// the values it sees are stable for the duration of the call.
type DebugHook interface {
	OnEvent(event DebugEvent, frame *FrameSnapshot) DebugAction
}

type breakpoint struct {
	line int
	col  int
}

type debugState struct {
	hook        DebugHook
	breakpoints map[breakpoint]bool
	stepping    bool
}

// SetBreakpoint arms a breakpoint at a source position. Col 0 matches any
// column on the line.
func (in *Interpreter) SetBreakpoint(line, col int) {
	if in.debug.breakpoints == nil {
		in.debug.breakpoints = make(map[breakpoint]bool)
	}
	in.debug.breakpoints[breakpoint{line: line, col: col}] = true
}

// ClearBreakpoint disarms a previously set breakpoint.
func (in *Interpreter) ClearBreakpoint(line, col int) {
	delete(in.debug.breakpoints, breakpoint{line: line, col: col})
}

func (d *debugState) hits(span ast.Span) bool {
	if len(d.breakpoints) == 0 || !span.IsValid() {
		return false
	}
	if d.breakpoints[breakpoint{line: span.Start.Line, col: span.Start.Col}] {
		return true
	}
	return d.breakpoints[breakpoint{line: span.Start.Line}]
}

// debugStatement consults the hook before a statement runs.
func (in *Interpreter) debugStatement(span ast.Span) error {
	if in.debug.hook == nil {
		return nil
	}
	if !in.debug.stepping && !in.debug.hits(span) {
		return nil
	}
	return in.fireHook(EventStatement, span)
}

func (in *Interpreter) debugCall(event DebugEvent) error {
	if in.debug.hook == nil {
		return nil
	}
	if !in.debug.stepping {
		return nil
	}
	f := in.frame()
	return in.fireHook(event, f.span)
}

func (in *Interpreter) fireHook(event DebugEvent, span ast.Span) error {
	switch in.debug.hook.OnEvent(event, in.snapshot(span)) {
	case DebugStep:
		in.debug.stepping = true
	case DebugPause:
		return evalErrorf(runtime.ErrInterrupted, span, "evaluation paused by debug hook")
	default:
		in.debug.stepping = false
	}
	return nil
}

// snapshot captures the current frame's named locals and the call stack.
func (in *Interpreter) snapshot(span ast.Span) *FrameSnapshot {
	f := in.frame()
	locals := make(map[string]runtime.Value, len(f.locals))
	for i, cell := range f.locals {
		if i < len(f.info.localNames) {
			if v := cell.Get(); v != nil {
				locals[f.info.localNames[i]] = v
			}
		}
	}
	snap := &FrameSnapshot{Function: f.name, Span: span, Locals: locals}
	for i := len(in.frames) - 1; i >= 0; i-- {
		fr := in.frames[i]
		snap.Stack = append(snap.Stack, TraceEntry{Function: fr.name, Span: fr.span})
	}
	return snap
}
