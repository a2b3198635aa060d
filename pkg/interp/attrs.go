package interp

import (
	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

// getAttr resolves `obj.name`. Containers expose intrinsic methods as
// bound natives; host objects dispatch through HostAttrOwner.
func (in *Interpreter) getAttr(obj runtime.Value, name string, span ast.Span) (runtime.Value, error) {
	switch c := obj.(type) {
	case *runtime.ListValue:
		if m := listMethod(c, name); m != nil {
			return m, nil
		}
	case *runtime.DictValue:
		if m := dictMethod(in.heap, c, name); m != nil {
			return m, nil
		}
	case *runtime.SetValue:
		if m := setMethod(c, name); m != nil {
			return m, nil
		}
	case runtime.HostAttrOwner:
		v, err := c.Attr(name)
		if err != nil {
			return nil, wrapError(err, span)
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, evalErrorf(runtime.ErrType, span, "%s value has no attribute %q", runtime.TypeName(obj), name)
}

func listMethod(l *runtime.ListValue, name string) *runtime.NativeFunctionValue {
	switch name {
	case "append":
		return method(name, params("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return nil, l.Append(args[0])
		})
	case "extend":
		return method(name, params("iterable"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			elems, err := runtime.Elements(args[0])
			if err != nil {
				return nil, err
			}
			return nil, l.Extend(elems)
		})
	case "insert":
		return method(name, params("index", "x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			i, err := asMethodIndex(args[0])
			if err != nil {
				return nil, err
			}
			return nil, l.Insert(i, args[1])
		})
	case "remove":
		return method(name, params("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return nil, l.Remove(args[0])
		})
	case "pop":
		return method(name, []runtime.ParamSpec{{Name: "index", Default: runtime.Int(-1)}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			i, err := asMethodIndex(args[0])
			if err != nil {
				return nil, err
			}
			return l.Pop(i)
		})
	case "clear":
		return method(name, nil, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return nil, l.Clear()
		})
	case "index":
		return method(name, params("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			for i, e := range l.Elems() {
				eq, err := runtime.Equal(args[0], e)
				if err != nil {
					return nil, err
				}
				if eq {
					return runtime.Int(int64(i)), nil
				}
			}
			return nil, runtime.Errorf(runtime.ErrKey, "value not in list")
		})
	}
	return nil
}

func dictMethod(heap *runtime.Heap, d *runtime.DictValue, name string) *runtime.NativeFunctionValue {
	switch name {
	case "get":
		return method(name, []runtime.ParamSpec{{Name: "key"}, {Name: "default", Default: runtime.NoneValue{}}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			v, found, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if !found {
				return args[1], nil
			}
			return v, nil
		})
	case "keys":
		return method(name, nil, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return fc.Heap.NewList(d.Keys()), nil
		})
	case "values":
		return method(name, nil, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return fc.Heap.NewList(d.Values()), nil
		})
	case "items":
		return method(name, nil, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			var items []runtime.Value
			d.Items(func(k, v runtime.Value) {
				items = append(items, runtime.TupleValue{Elems: []runtime.Value{k, v}})
			})
			return fc.Heap.NewList(items), nil
		})
	case "setdefault":
		return method(name, []runtime.ParamSpec{{Name: "key"}, {Name: "default", Default: runtime.NoneValue{}}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			v, found, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if found {
				return v, nil
			}
			if err := d.SetKey(args[0], args[1]); err != nil {
				return nil, err
			}
			return args[1], nil
		})
	case "update":
		return method(name, params("other"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			other, ok := args[0].(*runtime.DictValue)
			if !ok {
				return nil, runtime.TypeErrorf("update requires a dict, got %s", runtime.TypeName(args[0]))
			}
			var firstErr error
			other.Items(func(k, v runtime.Value) {
				if firstErr == nil {
					firstErr = d.SetKey(k, v)
				}
			})
			return nil, firstErr
		})
	case "pop":
		return method(name, []runtime.ParamSpec{{Name: "key"}, {Name: "default", Default: missing}}, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			v, found, err := d.Delete(args[0])
			if err != nil {
				return nil, err
			}
			if !found {
				if args[1] != missing {
					return args[1], nil
				}
				return nil, runtime.Errorf(runtime.ErrKey, "key %s not found", runtime.Repr(args[0]))
			}
			return v, nil
		})
	case "clear":
		return method(name, nil, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return nil, d.Clear()
		})
	}
	return nil
}

func setMethod(s *runtime.SetValue, name string) *runtime.NativeFunctionValue {
	switch name {
	case "add":
		return method(name, params("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return nil, s.Add(args[0])
		})
	case "remove":
		return method(name, params("x"), func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
			return nil, s.Remove(args[0])
		})
	}
	return nil
}

func method(name string, specs []runtime.ParamSpec, impl runtime.NativeImpl) *runtime.NativeFunctionValue {
	return runtime.NewNativeFunction(name, specs, impl)
}

func params(names ...string) []runtime.ParamSpec {
	return runtime.FixedParams(names...)
}

// missingValue marks an omitted optional argument. It never escapes a
// method implementation.
type missingValue struct{}

func (missingValue) Kind() runtime.Kind { return runtime.KindHost }

var missing missingValue

func asMethodIndex(v runtime.Value) (int, error) {
	iv, ok := v.(runtime.IntValue)
	if !ok {
		return 0, runtime.TypeErrorf("index must be int, got %s", runtime.TypeName(v))
	}
	if !iv.Val.IsInt64() {
		return 0, runtime.Errorf(runtime.ErrIndex, "index %s out of range", iv.Val.String())
	}
	n := iv.Val.Int64()
	if int64(int(n)) != n {
		return 0, runtime.Errorf(runtime.ErrIndex, "index %d out of range", n)
	}
	return int(n), nil
}
