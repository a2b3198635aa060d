package interp

import (
	"context"
	"fmt"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

const (
	defaultMaxCallDepth = 1000

	// gcGrowthThreshold is how many heap objects may accumulate before a
	// collection is attempted at the next top-level statement boundary.
	gcGrowthThreshold = 4096
)

// Options configures a single evaluation.
type Options struct {
	// MaxCallDepth bounds user-function call nesting. Zero means the
	// default; values below 1 are rejected.
	MaxCallDepth int

	// MaxSteps bounds the number of statements executed, counting loop
	// iterations. Zero means unbounded.
	MaxSteps int64

	// Modules maps load() paths to already-evaluated modules.
	Modules map[string]*runtime.FrozenModule

	// Hook receives debug events if non-nil.
	Hook DebugHook
}

// Interpreter evaluates one module at a time. Each evaluation owns a
// private heap; the only values that survive an evaluation are the frozen
// ones published in its result.
type Interpreter struct {
	opts     Options
	maxDepth int

	heap     *runtime.Heap
	globals  *runtime.ModuleGlobals
	res      *resolver
	modules  map[string]*runtime.FrozenModule
	frames   []*frame
	steps    int64
	ctx      context.Context
	debug    debugState
}

// frame is one activation record. The module top level runs in a frame
// with a nil fn.
type frame struct {
	fn       *runtime.FunctionValue
	name     string
	locals   []*runtime.Cell
	info     *funcInfo
	meta     *functionMeta
	span     ast.Span // span of the statement currently executing
	callSpan ast.Span // span of the call expression that created the frame
}

// New validates opts and returns an interpreter ready for one evaluation.
func New(opts Options) (*Interpreter, error) {
	depth := opts.MaxCallDepth
	if depth == 0 {
		depth = defaultMaxCallDepth
	}
	if depth < 1 {
		return nil, fmt.Errorf("interp: MaxCallDepth must be at least 1, got %d", opts.MaxCallDepth)
	}
	if opts.MaxSteps < 0 {
		return nil, fmt.Errorf("interp: MaxSteps must not be negative, got %d", opts.MaxSteps)
	}
	return &Interpreter{opts: opts, maxDepth: depth}, nil
}

// Evaluate runs a module to completion and returns its frozen exports.
// It is a convenience wrapper over New and EvaluateModule.
func Evaluate(ctx context.Context, mod *ast.Module, globals map[string]runtime.Value, builtins map[string]runtime.Value, opts Options) (*runtime.FrozenModule, error) {
	in, err := New(opts)
	if err != nil {
		return nil, err
	}
	return in.EvaluateModule(ctx, mod, globals, builtins)
}

// EvaluateModule executes mod's statements in order. Predeclared globals
// seed the module's global table; builtins are read-only fallbacks.
// On success every reachable value has been frozen and the module's
// exports are published; on error nothing is published.
func (in *Interpreter) EvaluateModule(ctx context.Context, mod *ast.Module, globals map[string]runtime.Value, builtins map[string]runtime.Value) (*runtime.FrozenModule, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	in.ctx = ctx
	in.heap = runtime.NewHeap()
	in.modules = in.opts.Modules
	in.steps = 0
	in.frames = in.frames[:0]
	in.debug = debugState{hook: in.opts.Hook, breakpoints: in.debug.breakpoints}

	globalNames := sortedKeys(globals)
	in.res = newResolver(globalNames, builtins)
	if err := in.res.resolveModule(mod); err != nil {
		return nil, err
	}

	in.globals = in.heap.NewGlobals(in.res.globalNames)
	for _, name := range globalNames {
		idx := in.res.globals[name]
		if err := in.globals.Cells[idx].Set(globals[name]); err != nil {
			return nil, err
		}
	}

	top := &frame{
		name: "<module>",
		info: in.res.moduleInfo,
		meta: &functionMeta{
			info:     in.res.moduleInfo,
			uses:     in.res.uses,
			funcs:    in.res.funcs,
			builtins: in.res.builtinVals,
		},
		locals: in.newLocals(in.res.moduleInfo.numLocals),
	}
	in.frames = append(in.frames, top)

	lastLive := in.heap.Live()
	for _, stmt := range mod.Body {
		if err := in.checkStep(stmt.Span()); err != nil {
			return nil, err
		}
		if err := in.debugStatement(stmt.Span()); err != nil {
			return nil, err
		}
		if err := in.execStmt(stmt); err != nil {
			switch err.(type) {
			case *breakSignal, *continueSignal:
				return nil, evalErrorf(runtime.ErrType, stmt.Span(), "break or continue outside a loop")
			case *returnSignal:
				return nil, evalErrorf(runtime.ErrType, stmt.Span(), "return outside a function")
			}
			return nil, err
		}
		if live := in.heap.Live(); live-lastLive > gcGrowthThreshold {
			in.collect()
			lastLive = in.heap.Live()
		}
	}

	name := mod.Name
	if name == "" {
		name = "<module>"
	}
	return runtime.FreezeModule(name, in.globals, in.exported)
}

// exported reports whether a module-level name is part of the module's
// public surface. Loaded names and underscore-prefixed names are visible
// inside the module but not re-exported.
func (in *Interpreter) exported(name string) bool {
	if len(name) > 0 && name[0] == '_' {
		return false
	}
	return !in.res.loadedNames[name]
}

func (in *Interpreter) frame() *frame {
	return in.frames[len(in.frames)-1]
}

func (in *Interpreter) newLocals(n int) []*runtime.Cell {
	locals := make([]*runtime.Cell, n)
	for i := range locals {
		locals[i] = in.heap.NewCell(nil)
	}
	return locals
}

// checkStep charges one step and observes cancellation. It is called at
// every statement and at every loop iteration.
func (in *Interpreter) checkStep(span ast.Span) error {
	select {
	case <-in.ctx.Done():
		return evalErrorf(runtime.ErrInterrupted, span, "evaluation cancelled: %v", in.ctx.Err())
	default:
	}
	if in.opts.MaxSteps > 0 {
		in.steps++
		if in.steps > in.opts.MaxSteps {
			return evalErrorf(runtime.ErrInterrupted, span, "step budget of %d exhausted", in.opts.MaxSteps)
		}
	}
	return nil
}

// collect runs the garbage collector with the current frames and globals
// as roots.
func (in *Interpreter) collect() {
	roots := runtime.RootSet{}
	roots.Cells = append(roots.Cells, in.globals.Cells...)
	for _, f := range in.frames {
		roots.Cells = append(roots.Cells, f.locals...)
		if f.fn != nil {
			roots.Values = append(roots.Values, f.fn)
		}
	}
	in.heap.Collect(roots)
}

func (in *Interpreter) lookupBinding(id *ast.Identifier) (binding, error) {
	b, ok := in.frame().meta.uses[id]
	if !ok {
		return binding{}, evalErrorf(runtime.ErrUnboundName, id.Span(), "undefined name %q", id.Name)
	}
	return b, nil
}

// frameGlobals returns the global table the executing frame's code was
// resolved against: the defining module's for a function body, the
// evaluation's own for the module top level.
func (in *Interpreter) frameGlobals() *runtime.ModuleGlobals {
	if f := in.frame(); f.fn != nil {
		return f.fn.Globals
	}
	return in.globals
}

func (in *Interpreter) loadName(id *ast.Identifier) (runtime.Value, error) {
	b, err := in.lookupBinding(id)
	if err != nil {
		return nil, err
	}
	switch b.class {
	case classLocal:
		cell := in.frame().locals[b.index]
		v := cell.Get()
		if v == nil {
			return nil, evalErrorf(runtime.ErrUnboundName, id.Span(), "local variable %q referenced before assignment", id.Name)
		}
		return v, nil
	case classFree:
		cell := in.frame().fn.Free[b.index]
		v := cell.Get()
		if v == nil {
			return nil, evalErrorf(runtime.ErrUnboundName, id.Span(), "free variable %q referenced before assignment", id.Name)
		}
		return v, nil
	case classGlobal:
		cell := in.frameGlobals().Cells[b.index]
		v := cell.Get()
		if v == nil {
			return nil, evalErrorf(runtime.ErrUnboundName, id.Span(), "global name %q referenced before assignment", id.Name)
		}
		return v, nil
	default:
		return in.frame().meta.builtins[b.index], nil
	}
}

func (in *Interpreter) storeName(id *ast.Identifier, v runtime.Value) error {
	b, err := in.lookupBinding(id)
	if err != nil {
		return err
	}
	var cell *runtime.Cell
	switch b.class {
	case classLocal:
		cell = in.frame().locals[b.index]
	case classFree:
		cell = in.frame().fn.Free[b.index]
	case classGlobal:
		cell = in.frameGlobals().Cells[b.index]
	default:
		return evalErrorf(runtime.ErrType, id.Span(), "cannot assign to builtin %q", id.Name)
	}
	if err := cell.Set(v); err != nil {
		return wrapError(err, id.Span())
	}
	return nil
}
