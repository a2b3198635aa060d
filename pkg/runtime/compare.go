package runtime

import (
	"bytes"
	"math"
	"math/big"
	"strings"
)

// Cyclic data could make deep comparison run forever; starve it instead.
const maxCompareDepth = 100

// Equal reports value equality. Values of different kinds are unequal
// rather than erroneous, with the single exception of mixed int/float
// comparison, which is numeric. NaN equals nothing, itself included.
func Equal(x, y Value) (bool, error) {
	return equalDepth(x, y, maxCompareDepth)
}

func equalDepth(x, y Value, depth int) (bool, error) {
	if depth <= 0 {
		return false, TypeErrorf("comparison exceeded maximum recursion depth")
	}
	switch xv := x.(type) {
	case NoneValue:
		_, ok := y.(NoneValue)
		return ok, nil
	case BoolValue:
		yv, ok := y.(BoolValue)
		return ok && xv.Val == yv.Val, nil
	case IntValue:
		switch yv := y.(type) {
		case IntValue:
			return xv.Val.Cmp(yv.Val) == 0, nil
		case FloatValue:
			if math.IsNaN(yv.Val) {
				return false, nil
			}
			return intFloatCmp(xv.Val, yv.Val) == 0, nil
		}
		return false, nil
	case FloatValue:
		switch yv := y.(type) {
		case FloatValue:
			return xv.Val == yv.Val, nil
		case IntValue:
			if math.IsNaN(xv.Val) {
				return false, nil
			}
			return intFloatCmp(yv.Val, xv.Val) == 0, nil
		}
		return false, nil
	case StringValue:
		yv, ok := y.(StringValue)
		return ok && xv.Val == yv.Val, nil
	case BytesValue:
		yv, ok := y.(BytesValue)
		return ok && bytes.Equal(xv.Val, yv.Val), nil
	case *ListValue:
		yv, ok := y.(*ListValue)
		if !ok {
			return false, nil
		}
		if xv == yv {
			return true, nil
		}
		return sliceEqual(xv.Elems(), yv.Elems(), depth)
	case TupleValue:
		yv, ok := y.(TupleValue)
		if !ok {
			return false, nil
		}
		return sliceEqual(xv.Elems, yv.Elems, depth)
	case *DictValue:
		yv, ok := y.(*DictValue)
		if !ok {
			return false, nil
		}
		if xv == yv {
			return true, nil
		}
		return dictEqual(xv, yv, depth)
	case *SetValue:
		yv, ok := y.(*SetValue)
		if !ok {
			return false, nil
		}
		if xv == yv {
			return true, nil
		}
		return setEqual(xv, yv)
	case *FunctionValue, *NativeFunctionValue:
		return x == y, nil
	case HostObject:
		yv, ok := y.(HostObject)
		if !ok {
			return false, nil
		}
		if cmp, ok := xv.(HostComparable); ok && xv.TypeName() == yv.TypeName() {
			c, err := cmp.CompareSameType(yv)
			if err != nil {
				return false, err
			}
			return c == 0, nil
		}
		return x == y, nil
	default:
		return x == y, nil
	}
}

func sliceEqual(xs, ys []Value, depth int) (bool, error) {
	if len(xs) != len(ys) {
		return false, nil
	}
	for i := range xs {
		eq, err := equalDepth(xs[i], ys[i], depth-1)
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

func dictEqual(x, y *DictValue, depth int) (bool, error) {
	if x.Len() != y.Len() {
		return false, nil
	}
	for _, e := range x.entries {
		yval, found, err := y.Get(e.key)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		eq, err := equalDepth(e.value, yval, depth-1)
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

func setEqual(x, y *SetValue) (bool, error) {
	if x.Len() != y.Len() {
		return false, nil
	}
	for _, e := range x.entries {
		has, err := y.Has(e.value)
		if err != nil {
			return false, err
		}
		if !has {
			return false, nil
		}
	}
	return true, nil
}

// CompareOp applies an ordering operator. Equality operators work across
// all kinds; <, <=, >, >= require operands of an ordered kind and fail
// with a type error otherwise. Float comparisons follow IEEE semantics:
// every ordering comparison involving NaN is false.
func CompareOp(op string, x, y Value) (bool, error) {
	switch op {
	case "==":
		return Equal(x, y)
	case "!=":
		eq, err := Equal(x, y)
		return !eq, err
	}
	if fx, fy, ok := floatOperands(x, y); ok && (math.IsNaN(fx) || math.IsNaN(fy)) {
		return false, nil
	}
	cmp, err := threeway(x, y, maxCompareDepth)
	if err != nil {
		return false, err
	}
	switch op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, TypeErrorf("unknown comparison operator %q", op)
	}
}

// floatOperands reports whether the pair is a numeric comparison with at
// least one float, and yields both operands as floats for the NaN check.
func floatOperands(x, y Value) (float64, float64, bool) {
	xf, xIsFloat := x.(FloatValue)
	yf, yIsFloat := y.(FloatValue)
	if !xIsFloat && !yIsFloat {
		return 0, 0, false
	}
	var fx, fy float64
	switch {
	case xIsFloat:
		fx = xf.Val
	default:
		xi, ok := x.(IntValue)
		if !ok {
			return 0, 0, false
		}
		fx, _ = new(big.Float).SetInt(xi.Val).Float64()
	}
	switch {
	case yIsFloat:
		fy = yf.Val
	default:
		yi, ok := y.(IntValue)
		if !ok {
			return 0, 0, false
		}
		fy, _ = new(big.Float).SetInt(yi.Val).Float64()
	}
	return fx, fy, true
}

func threeway(x, y Value, depth int) (int, error) {
	if depth <= 0 {
		return 0, TypeErrorf("comparison exceeded maximum recursion depth")
	}
	switch xv := x.(type) {
	case BoolValue:
		if yv, ok := y.(BoolValue); ok {
			return boolCmp(xv.Val, yv.Val), nil
		}
	case IntValue:
		switch yv := y.(type) {
		case IntValue:
			return xv.Val.Cmp(yv.Val), nil
		case FloatValue:
			if math.IsNaN(yv.Val) {
				return 0, TypeErrorf("float NaN is unordered")
			}
			return intFloatCmp(xv.Val, yv.Val), nil
		}
	case FloatValue:
		if math.IsNaN(xv.Val) {
			return 0, TypeErrorf("float NaN is unordered")
		}
		switch yv := y.(type) {
		case FloatValue:
			if math.IsNaN(yv.Val) {
				return 0, TypeErrorf("float NaN is unordered")
			}
			switch {
			case xv.Val < yv.Val:
				return -1, nil
			case xv.Val > yv.Val:
				return 1, nil
			}
			return 0, nil
		case IntValue:
			return -intFloatCmp(yv.Val, xv.Val), nil
		}
	case StringValue:
		if yv, ok := y.(StringValue); ok {
			return strings.Compare(xv.Val, yv.Val), nil
		}
	case BytesValue:
		if yv, ok := y.(BytesValue); ok {
			return bytes.Compare(xv.Val, yv.Val), nil
		}
	case *ListValue:
		if yv, ok := y.(*ListValue); ok {
			return sliceCompare(xv.Elems(), yv.Elems(), depth)
		}
	case TupleValue:
		if yv, ok := y.(TupleValue); ok {
			return sliceCompare(xv.Elems, yv.Elems, depth)
		}
	case HostComparable:
		if yv, ok := y.(HostObject); ok && xv.TypeName() == yv.TypeName() {
			return xv.CompareSameType(yv)
		}
	}
	return 0, TypeErrorf("%s and %s are not orderable", TypeName(x), TypeName(y))
}

func sliceCompare(xs, ys []Value, depth int) (int, error) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	for i := 0; i < n; i++ {
		eq, err := equalDepth(xs[i], ys[i], depth-1)
		if err != nil {
			return 0, err
		}
		if !eq {
			return threeway(xs[i], ys[i], depth-1)
		}
	}
	switch {
	case len(xs) < len(ys):
		return -1, nil
	case len(xs) > len(ys):
		return 1, nil
	}
	return 0, nil
}

func boolCmp(x, y bool) int {
	switch {
	case x == y:
		return 0
	case y:
		return -1
	}
	return 1
}

// intFloatCmp compares a big integer with a float exactly: -1, 0, or 1.
// The float must not be NaN.
func intFloatCmp(x *big.Int, y float64) int {
	if math.IsInf(y, 1) {
		return -1
	}
	if math.IsInf(y, -1) {
		return 1
	}
	return new(big.Float).SetInt(x).Cmp(big.NewFloat(y))
}
