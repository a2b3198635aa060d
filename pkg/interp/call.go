package interp

import (
	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

func (in *Interpreter) evalCall(n *ast.CallExpr) (runtime.Value, error) {
	callee, err := in.evalExpr(n.Callee)
	if err != nil {
		return nil, err
	}

	var positional []runtime.Value
	var named []runtime.NamedValue
	for _, arg := range n.Args {
		v, err := in.evalExpr(arg.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case arg.Star:
			elems, err := runtime.Elements(v)
			if err != nil {
				return nil, wrapError(err, arg.Span())
			}
			if len(named) > 0 {
				return nil, evalErrorf(runtime.ErrArgumentBinding, arg.Span(), "*args must precede keyword arguments")
			}
			positional = append(positional, elems...)
		case arg.StarStar:
			dict, ok := v.(*runtime.DictValue)
			if !ok {
				return nil, evalErrorf(runtime.ErrArgumentBinding, arg.Span(), "**kwargs requires a dict, got %s", runtime.TypeName(v))
			}
			var bad runtime.Value
			dict.Items(func(k, val runtime.Value) {
				key, ok := k.(runtime.StringValue)
				if !ok {
					if bad == nil {
						bad = k
					}
					return
				}
				named = append(named, runtime.NamedValue{Name: key.Val, Value: val})
			})
			if bad != nil {
				return nil, evalErrorf(runtime.ErrArgumentBinding, arg.Span(), "**kwargs keys must be strings, got %s", runtime.TypeName(bad))
			}
		case arg.Name != nil:
			named = append(named, runtime.NamedValue{Name: arg.Name.Name, Value: v})
		default:
			if len(named) > 0 {
				return nil, evalErrorf(runtime.ErrArgumentBinding, arg.Span(), "positional argument follows keyword argument")
			}
			positional = append(positional, v)
		}
	}

	return in.callValue(callee, positional, named, n.Span())
}

// callValue dispatches a call to any callable kind.
func (in *Interpreter) callValue(callee runtime.Value, positional []runtime.Value, named []runtime.NamedValue, callSpan ast.Span) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		return in.callFunction(fn, positional, named, callSpan)
	case *runtime.NativeFunctionValue:
		return in.callNative(fn, positional, named, callSpan)
	case runtime.HostCallable:
		v, err := fn.CallHost(&runtime.CallContext{Heap: in.heap}, positional, named)
		if err != nil {
			return nil, wrapError(err, callSpan)
		}
		return v, nil
	default:
		return nil, evalErrorf(runtime.ErrType, callSpan, "%s value is not callable", runtime.TypeName(callee))
	}
}

func (in *Interpreter) callFunction(fn *runtime.FunctionValue, positional []runtime.Value, named []runtime.NamedValue, callSpan ast.Span) (runtime.Value, error) {
	if len(in.frames) > in.maxDepth {
		return nil, evalErrorf(runtime.ErrCallDepth, callSpan, "call depth limit of %d exceeded", in.maxDepth)
	}

	meta, ok := fn.Resolved.(*functionMeta)
	if !ok {
		return nil, evalErrorf(runtime.ErrType, callSpan, "function %q carries no resolved body", fn.Name)
	}
	info := meta.info

	sig := signatureOf(fn)
	bound, err := bindArgs(sig, fn.Defaults, positional, named, in.heap, callSpan)
	if err != nil {
		return nil, err
	}

	f := &frame{
		fn:       fn,
		name:     fn.Name,
		info:     info,
		meta:     meta,
		locals:   in.newLocals(info.numLocals),
		callSpan: callSpan,
	}
	for i, v := range bound {
		// parameters occupy the first local slots in declaration order
		if err := f.locals[i].Set(v); err != nil {
			return nil, wrapError(err, callSpan)
		}
	}

	in.frames = append(in.frames, f)
	if err := in.debugCall(EventCallEnter); err != nil {
		in.frames = in.frames[:len(in.frames)-1]
		return nil, err
	}
	err = in.execStmts(fn.Decl.Body)
	derr := in.debugCall(EventCallReturn)
	in.frames = in.frames[:len(in.frames)-1]
	if derr != nil && err == nil {
		err = derr
	}

	switch e := err.(type) {
	case nil:
		return runtime.NoneValue{}, nil
	case *returnSignal:
		return e.value, nil
	case *breakSignal, *continueSignal:
		return nil, evalErrorf(runtime.ErrType, callSpan, "break or continue outside a loop")
	case *EvalError:
		e.Trace = append(e.Trace, TraceEntry{Function: fn.Name, Span: callSpan})
		return nil, e
	default:
		return nil, err
	}
}

func (in *Interpreter) callNative(fn *runtime.NativeFunctionValue, positional []runtime.Value, named []runtime.NamedValue, callSpan ast.Span) (runtime.Value, error) {
	bound, err := bindArgs(fn.Sig, nil, positional, named, in.heap, callSpan)
	if err != nil {
		return nil, err
	}
	v, err := fn.Impl(&runtime.CallContext{Heap: in.heap}, bound)
	if err != nil {
		if e, ok := wrapError(err, callSpan).(*EvalError); ok {
			e.Trace = append(e.Trace, TraceEntry{Function: fn.Sig.Name, Span: callSpan})
			return nil, e
		}
		return nil, err
	}
	if v == nil {
		v = runtime.NoneValue{}
	}
	return v, nil
}

// signatureOf derives the binding signature from a function's declaration.
func signatureOf(fn *runtime.FunctionValue) runtime.Signature {
	params := make([]runtime.ParamSpec, len(fn.Decl.Params))
	for i, p := range fn.Decl.Params {
		params[i] = runtime.ParamSpec{Name: p.Name.Name, Star: p.Star, StarStar: p.StarStar}
	}
	return runtime.Signature{Name: fn.Name, Params: params}
}

// bindArgs maps a call's arguments onto a signature: one bound value per
// parameter, in declaration order, with *args collected into a tuple and
// **kwargs into a fresh dict. The same binder serves user functions and
// natives.
func bindArgs(sig runtime.Signature, defaults []runtime.Value, positional []runtime.Value, named []runtime.NamedValue, heap *runtime.Heap, span ast.Span) ([]runtime.Value, error) {
	bound := make([]runtime.Value, len(sig.Params))

	index := make(map[string]int, len(sig.Params))
	starIdx, starStarIdx := -1, -1
	numPositional := 0
	for i, p := range sig.Params {
		switch {
		case p.Star:
			starIdx = i
		case p.StarStar:
			starStarIdx = i
		default:
			index[p.Name] = i
			if starIdx < 0 {
				numPositional++
			}
		}
	}

	// positional arguments fill leading parameter slots
	n := len(positional)
	if n > numPositional {
		if starIdx < 0 {
			return nil, evalErrorf(runtime.ErrArgumentBinding, span, "%s() accepts at most %d positional arguments, got %d", sig.Name, numPositional, n)
		}
		n = numPositional
	}
	pos := 0
	for i := 0; i < len(sig.Params) && pos < n; i++ {
		if sig.Params[i].Star || sig.Params[i].StarStar {
			break
		}
		bound[i] = positional[pos]
		pos++
	}
	if starIdx >= 0 {
		bound[starIdx] = runtime.TupleValue{Elems: append([]runtime.Value(nil), positional[n:]...)}
	}

	// keyword arguments fill named slots; surplus goes to **kwargs
	var kwargs *runtime.DictValue
	if starStarIdx >= 0 {
		kwargs = heap.NewDict()
	}
	for _, nv := range named {
		if i, ok := index[nv.Name]; ok {
			if bound[i] != nil {
				return nil, evalErrorf(runtime.ErrArgumentBinding, span, "%s() got multiple values for parameter %q", sig.Name, nv.Name)
			}
			bound[i] = nv.Value
			continue
		}
		if kwargs == nil {
			return nil, evalErrorf(runtime.ErrArgumentBinding, span, "%s() got an unexpected keyword argument %q", sig.Name, nv.Name)
		}
		key := runtime.StringValue{Val: nv.Name}
		if _, found, _ := kwargs.Get(key); found {
			return nil, evalErrorf(runtime.ErrArgumentBinding, span, "%s() got multiple values for parameter %q", sig.Name, nv.Name)
		}
		if err := kwargs.SetKey(key, nv.Value); err != nil {
			return nil, wrapError(err, span)
		}
	}
	if starStarIdx >= 0 {
		bound[starStarIdx] = kwargs
	}

	// defaults fill whatever remains
	for i, p := range sig.Params {
		if bound[i] != nil {
			continue
		}
		if defaults != nil && defaults[i] != nil {
			bound[i] = defaults[i]
			continue
		}
		if p.Default != nil {
			bound[i] = p.Default
			continue
		}
		if p.Star || p.StarStar {
			continue
		}
		return nil, evalErrorf(runtime.ErrArgumentBinding, span, "%s() missing required argument %q", sig.Name, p.Name)
	}
	return bound, nil
}
