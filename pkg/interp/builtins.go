package interp

import (
	"math/big"

	"github.com/aifeelit/starlark/pkg/runtime"
)

// Universe returns a fresh map of the standard builtin functions. The
// embedder may add to it, shadow entries, or ignore it entirely; resolved
// programs see builtins as read-only names.
func Universe() map[string]runtime.Value {
	return map[string]runtime.Value{
		"len":       builtinLen(),
		"type":      builtinType(),
		"repr":      builtinRepr(),
		"str":       builtinStr(),
		"bool":      builtinBool(),
		"range":     builtinRange(),
		"enumerate": builtinEnumerate(),
		"reversed":  builtinReversed(),
		"list":      builtinList(),
		"tuple":     builtinTuple(),
		"dict":      builtinDict(),
		"set":       builtinSet(),
	}
}

func builtinLen() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("len", runtime.FixedParams("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		n := runtime.Len(args[0])
		if n < 0 {
			return nil, runtime.TypeErrorf("%s value has no len", runtime.TypeName(args[0]))
		}
		return runtime.Int(int64(n)), nil
	})
}

func builtinType() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("type", runtime.FixedParams("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: runtime.TypeName(args[0])}, nil
	})
}

func builtinRepr() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("repr", runtime.FixedParams("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: runtime.Repr(args[0])}, nil
	})
}

func builtinStr() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("str", runtime.FixedParams("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: runtime.Str(args[0])}, nil
	})
}

func builtinBool() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("bool", []runtime.ParamSpec{{Name: "x", Default: runtime.BoolValue{}}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: runtime.Truth(args[0])}, nil
	})
}

func builtinRange() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("range", []runtime.ParamSpec{
		{Name: "start"},
		{Name: "stop", Default: missing},
		{Name: "step", Default: runtime.Int(1)},
	}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		start, err := rangeArg(args[0], "start")
		if err != nil {
			return nil, err
		}
		stop := start
		if args[1] == missing {
			start = 0
		} else {
			stop, err = rangeArg(args[1], "stop")
			if err != nil {
				return nil, err
			}
		}
		step, err := rangeArg(args[2], "step")
		if err != nil {
			return nil, err
		}
		if step == 0 {
			return nil, runtime.TypeErrorf("range step must not be zero")
		}
		var elems []runtime.Value
		if step > 0 {
			for i := start; i < stop; i += step {
				elems = append(elems, runtime.Int(i))
			}
		} else {
			for i := start; i > stop; i += step {
				elems = append(elems, runtime.Int(i))
			}
		}
		return fc.Heap.NewList(elems), nil
	})
}

func rangeArg(v runtime.Value, name string) (int64, error) {
	iv, ok := v.(runtime.IntValue)
	if !ok {
		return 0, runtime.TypeErrorf("range %s must be int, got %s", name, runtime.TypeName(v))
	}
	if !iv.Val.IsInt64() {
		return 0, runtime.TypeErrorf("range %s %s out of range", name, iv.Val.String())
	}
	return iv.Val.Int64(), nil
}

func builtinEnumerate() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("enumerate", runtime.FixedParams("iterable"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := runtime.Elements(args[0])
		if err != nil {
			return nil, err
		}
		pairs := make([]runtime.Value, len(elems))
		for i, e := range elems {
			pairs[i] = runtime.TupleValue{Elems: []runtime.Value{runtime.IntFromBig(big.NewInt(int64(i))), e}}
		}
		return fc.Heap.NewList(pairs), nil
	})
}

func builtinReversed() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("reversed", runtime.FixedParams("iterable"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := runtime.Elements(args[0])
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
		return fc.Heap.NewList(out), nil
	})
}

func builtinList() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("list", []runtime.ParamSpec{{Name: "iterable", Default: missing}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		if args[0] == missing {
			return fc.Heap.NewList(nil), nil
		}
		elems, err := runtime.Elements(args[0])
		if err != nil {
			return nil, err
		}
		return fc.Heap.NewList(elems), nil
	})
}

func builtinTuple() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("tuple", []runtime.ParamSpec{{Name: "iterable", Default: missing}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		if args[0] == missing {
			return runtime.TupleValue{}, nil
		}
		elems, err := runtime.Elements(args[0])
		if err != nil {
			return nil, err
		}
		return runtime.TupleValue{Elems: elems}, nil
	})
}

func builtinDict() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("dict", []runtime.ParamSpec{{Name: "pairs", Default: missing}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		out := fc.Heap.NewDict()
		if args[0] == missing {
			return out, nil
		}
		if src, ok := args[0].(*runtime.DictValue); ok {
			var firstErr error
			src.Items(func(k, v runtime.Value) {
				if firstErr == nil {
					firstErr = out.SetKey(k, v)
				}
			})
			if firstErr != nil {
				return nil, firstErr
			}
			return out, nil
		}
		pairs, err := runtime.Elements(args[0])
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			kv, err := runtime.Elements(p)
			if err != nil {
				return nil, err
			}
			if len(kv) != 2 {
				return nil, runtime.TypeErrorf("dict entry must be a pair, got %d elements", len(kv))
			}
			if err := out.SetKey(kv[0], kv[1]); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
}

func builtinSet() *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction("set", []runtime.ParamSpec{{Name: "iterable", Default: missing}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		out := fc.Heap.NewSet()
		if args[0] == missing {
			return out, nil
		}
		elems, err := runtime.Elements(args[0])
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			if err := out.Add(e); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
}
