package interp

import (
	"bytes"
	"math"
	"math/big"
	"strings"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

// maxShift bounds the right operand of << so a single expression cannot
// allocate an arbitrarily large integer.
const maxShift = 512

func (in *Interpreter) binaryOp(op string, x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		ok, err := runtime.CompareOp(op, x, y)
		if err != nil {
			return nil, wrapError(err, span)
		}
		return runtime.BoolValue{Val: ok}, nil
	case "in":
		ok, err := in.contains(y, x, span)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: ok}, nil
	case "not in":
		ok, err := in.contains(y, x, span)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: !ok}, nil
	case "+":
		return in.add(x, y, span)
	case "-":
		return in.sub(x, y, span)
	case "*":
		return in.mul(x, y, span)
	case "/":
		return in.trueDiv(x, y, span)
	case "//":
		return in.floorDiv(x, y, span)
	case "%":
		return in.mod(x, y, span)
	case "|", "&", "^", "<<", ">>":
		return in.bitwise(op, x, y, span)
	default:
		return nil, evalErrorf(runtime.ErrType, span, "unknown binary operator %q", op)
	}
}

func (in *Interpreter) typeMismatch(op string, x, y runtime.Value, span ast.Span) error {
	return evalErrorf(runtime.ErrType, span, "unsupported operand types for %s: %s and %s",
		op, runtime.TypeName(x), runtime.TypeName(y))
}

// numericOperands classifies a pair for arithmetic: both ints, or at least
// one float (ints promoted).
func numericOperands(x, y runtime.Value) (xi, yi *big.Int, xf, yf float64, isInt, ok bool) {
	switch a := x.(type) {
	case runtime.IntValue:
		switch b := y.(type) {
		case runtime.IntValue:
			return a.Val, b.Val, 0, 0, true, true
		case runtime.FloatValue:
			af, _ := new(big.Float).SetInt(a.Val).Float64()
			return nil, nil, af, b.Val, false, true
		}
	case runtime.FloatValue:
		switch b := y.(type) {
		case runtime.IntValue:
			bf, _ := new(big.Float).SetInt(b.Val).Float64()
			return nil, nil, a.Val, bf, false, true
		case runtime.FloatValue:
			return nil, nil, a.Val, b.Val, false, true
		}
	}
	return nil, nil, 0, 0, false, false
}

func (in *Interpreter) add(x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	if xi, yi, xf, yf, isInt, ok := numericOperands(x, y); ok {
		if isInt {
			return runtime.IntFromBig(new(big.Int).Add(xi, yi)), nil
		}
		return runtime.FloatValue{Val: xf + yf}, nil
	}
	switch a := x.(type) {
	case runtime.StringValue:
		if b, ok := y.(runtime.StringValue); ok {
			return runtime.StringValue{Val: a.Val + b.Val}, nil
		}
	case runtime.BytesValue:
		if b, ok := y.(runtime.BytesValue); ok {
			out := make([]byte, 0, len(a.Val)+len(b.Val))
			out = append(out, a.Val...)
			out = append(out, b.Val...)
			return runtime.BytesValue{Val: out}, nil
		}
	case *runtime.ListValue:
		if b, ok := y.(*runtime.ListValue); ok {
			elems := make([]runtime.Value, 0, a.Len()+b.Len())
			elems = append(elems, a.Elems()...)
			elems = append(elems, b.Elems()...)
			return in.heap.NewList(elems), nil
		}
	case runtime.TupleValue:
		if b, ok := y.(runtime.TupleValue); ok {
			elems := make([]runtime.Value, 0, len(a.Elems)+len(b.Elems))
			elems = append(elems, a.Elems...)
			elems = append(elems, b.Elems...)
			return runtime.TupleValue{Elems: elems}, nil
		}
	}
	return nil, in.typeMismatch("+", x, y, span)
}

func (in *Interpreter) sub(x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	if xi, yi, xf, yf, isInt, ok := numericOperands(x, y); ok {
		if isInt {
			return runtime.IntFromBig(new(big.Int).Sub(xi, yi)), nil
		}
		return runtime.FloatValue{Val: xf - yf}, nil
	}
	if a, ok := x.(*runtime.SetValue); ok {
		if b, ok := y.(*runtime.SetValue); ok {
			return in.setDifference(a, b)
		}
	}
	return nil, in.typeMismatch("-", x, y, span)
}

func (in *Interpreter) mul(x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	if xi, yi, xf, yf, isInt, ok := numericOperands(x, y); ok {
		if isInt {
			return runtime.IntFromBig(new(big.Int).Mul(xi, yi)), nil
		}
		return runtime.FloatValue{Val: xf * yf}, nil
	}
	// sequence repetition, either operand order
	if n, seq, ok := repetitionOperands(x, y); ok {
		return in.repeat(seq, n, span)
	}
	return nil, in.typeMismatch("*", x, y, span)
}

func repetitionOperands(x, y runtime.Value) (n runtime.IntValue, seq runtime.Value, ok bool) {
	if iv, isInt := x.(runtime.IntValue); isInt {
		switch y.(type) {
		case runtime.StringValue, runtime.BytesValue, *runtime.ListValue, runtime.TupleValue:
			return iv, y, true
		}
	}
	if iv, isInt := y.(runtime.IntValue); isInt {
		switch x.(type) {
		case runtime.StringValue, runtime.BytesValue, *runtime.ListValue, runtime.TupleValue:
			return iv, x, true
		}
	}
	return runtime.IntValue{}, nil, false
}

func (in *Interpreter) repeat(seq runtime.Value, nv runtime.IntValue, span ast.Span) (runtime.Value, error) {
	if !nv.Val.IsInt64() {
		return nil, evalErrorf(runtime.ErrType, span, "repetition count %s too large", nv.Val.String())
	}
	n64 := nv.Val.Int64()
	if n64 < 0 {
		n64 = 0
	}
	if int64(int(n64)) != n64 {
		return nil, evalErrorf(runtime.ErrType, span, "repetition count %d too large", n64)
	}
	n := int(n64)
	switch s := seq.(type) {
	case runtime.StringValue:
		return runtime.StringValue{Val: strings.Repeat(s.Val, n)}, nil
	case runtime.BytesValue:
		return runtime.BytesValue{Val: bytes.Repeat(s.Val, n)}, nil
	case *runtime.ListValue:
		elems := make([]runtime.Value, 0, s.Len()*n)
		for i := 0; i < n; i++ {
			elems = append(elems, s.Elems()...)
		}
		return in.heap.NewList(elems), nil
	case runtime.TupleValue:
		elems := make([]runtime.Value, 0, len(s.Elems)*n)
		for i := 0; i < n; i++ {
			elems = append(elems, s.Elems...)
		}
		return runtime.TupleValue{Elems: elems}, nil
	}
	return nil, evalErrorf(runtime.ErrType, span, "cannot repeat %s", runtime.TypeName(seq))
}

// trueDiv is the / operator: the result is always a float.
func (in *Interpreter) trueDiv(x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	xi, yi, xf, yf, isInt, ok := numericOperands(x, y)
	if !ok {
		return nil, in.typeMismatch("/", x, y, span)
	}
	if isInt {
		if yi.Sign() == 0 {
			return nil, evalErrorf(runtime.ErrDivisionByZero, span, "division by zero")
		}
		xf, _ = new(big.Float).SetInt(xi).Float64()
		yf, _ = new(big.Float).SetInt(yi).Float64()
		return runtime.FloatValue{Val: xf / yf}, nil
	}
	if yf == 0 {
		return nil, evalErrorf(runtime.ErrDivisionByZero, span, "floating-point division by zero")
	}
	return runtime.FloatValue{Val: xf / yf}, nil
}

// floorDiv is the // operator: the quotient rounded toward negative
// infinity, so 7 // -2 is -4.
func (in *Interpreter) floorDiv(x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	xi, yi, xf, yf, isInt, ok := numericOperands(x, y)
	if !ok {
		return nil, in.typeMismatch("//", x, y, span)
	}
	if isInt {
		if yi.Sign() == 0 {
			return nil, evalErrorf(runtime.ErrDivisionByZero, span, "integer division by zero")
		}
		q, r := new(big.Int).QuoRem(xi, yi, new(big.Int))
		if r.Sign() != 0 && r.Sign() != yi.Sign() {
			q.Sub(q, big.NewInt(1))
		}
		return runtime.IntFromBig(q), nil
	}
	if yf == 0 {
		return nil, evalErrorf(runtime.ErrDivisionByZero, span, "floating-point division by zero")
	}
	return runtime.FloatValue{Val: math.Floor(xf / yf)}, nil
}

// mod is the % operator: the remainder takes the sign of the divisor,
// matching floor division.
func (in *Interpreter) mod(x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	xi, yi, xf, yf, isInt, ok := numericOperands(x, y)
	if !ok {
		return nil, in.typeMismatch("%", x, y, span)
	}
	if isInt {
		if yi.Sign() == 0 {
			return nil, evalErrorf(runtime.ErrDivisionByZero, span, "integer modulo by zero")
		}
		r := new(big.Int).Rem(xi, yi)
		if r.Sign() != 0 && r.Sign() != yi.Sign() {
			r.Add(r, yi)
		}
		return runtime.IntFromBig(r), nil
	}
	if yf == 0 {
		return nil, evalErrorf(runtime.ErrDivisionByZero, span, "floating-point modulo by zero")
	}
	r := math.Mod(xf, yf)
	if r != 0 && (r < 0) != (yf < 0) {
		r += yf
	}
	return runtime.FloatValue{Val: r}, nil
}

func (in *Interpreter) bitwise(op string, x, y runtime.Value, span ast.Span) (runtime.Value, error) {
	if a, aok := x.(*runtime.SetValue); aok {
		if b, bok := y.(*runtime.SetValue); bok {
			switch op {
			case "|":
				return in.setUnion(a, b)
			case "&":
				return in.setIntersection(a, b)
			case "^":
				return in.setSymmetricDifference(a, b)
			}
		}
		return nil, in.typeMismatch(op, x, y, span)
	}
	if a, aok := x.(*runtime.DictValue); aok && op == "|" {
		if b, bok := y.(*runtime.DictValue); bok {
			return in.dictUnion(a, b, span)
		}
		return nil, in.typeMismatch(op, x, y, span)
	}

	a, aok := x.(runtime.IntValue)
	b, bok := y.(runtime.IntValue)
	if !aok || !bok {
		return nil, in.typeMismatch(op, x, y, span)
	}
	switch op {
	case "|":
		return runtime.IntFromBig(new(big.Int).Or(a.Val, b.Val)), nil
	case "&":
		return runtime.IntFromBig(new(big.Int).And(a.Val, b.Val)), nil
	case "^":
		return runtime.IntFromBig(new(big.Int).Xor(a.Val, b.Val)), nil
	case "<<", ">>":
		if b.Val.Sign() < 0 {
			return nil, evalErrorf(runtime.ErrType, span, "negative shift count")
		}
		if !b.Val.IsInt64() || b.Val.Int64() > maxShift {
			return nil, evalErrorf(runtime.ErrType, span, "shift count %s too large", b.Val.String())
		}
		n := uint(b.Val.Int64())
		if op == "<<" {
			return runtime.IntFromBig(new(big.Int).Lsh(a.Val, n)), nil
		}
		return runtime.IntFromBig(new(big.Int).Rsh(a.Val, n)), nil
	}
	return nil, in.typeMismatch(op, x, y, span)
}

func (in *Interpreter) setUnion(a, b *runtime.SetValue) (*runtime.SetValue, error) {
	out := in.heap.NewSet()
	for _, e := range a.Elems() {
		if err := out.Add(e); err != nil {
			return nil, err
		}
	}
	for _, e := range b.Elems() {
		if err := out.Add(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (in *Interpreter) setIntersection(a, b *runtime.SetValue) (*runtime.SetValue, error) {
	out := in.heap.NewSet()
	for _, e := range a.Elems() {
		has, err := b.Has(e)
		if err != nil {
			return nil, err
		}
		if has {
			if err := out.Add(e); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (in *Interpreter) setDifference(a, b *runtime.SetValue) (*runtime.SetValue, error) {
	out := in.heap.NewSet()
	for _, e := range a.Elems() {
		has, err := b.Has(e)
		if err != nil {
			return nil, err
		}
		if !has {
			if err := out.Add(e); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (in *Interpreter) setSymmetricDifference(a, b *runtime.SetValue) (*runtime.SetValue, error) {
	out, err := in.setDifference(a, b)
	if err != nil {
		return nil, err
	}
	other, err := in.setDifference(b, a)
	if err != nil {
		return nil, err
	}
	for _, e := range other.Elems() {
		if err := out.Add(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// dictUnion builds a new dict with b's entries overriding a's.
func (in *Interpreter) dictUnion(a, b *runtime.DictValue, span ast.Span) (*runtime.DictValue, error) {
	out := in.heap.NewDict()
	var firstErr error
	a.Items(func(k, v runtime.Value) {
		if firstErr == nil {
			firstErr = out.SetKey(k, v)
		}
	})
	b.Items(func(k, v runtime.Value) {
		if firstErr == nil {
			firstErr = out.SetKey(k, v)
		}
	})
	if firstErr != nil {
		return nil, wrapError(firstErr, span)
	}
	return out, nil
}

// contains implements `elem in container`.
func (in *Interpreter) contains(container, elem runtime.Value, span ast.Span) (bool, error) {
	switch c := container.(type) {
	case *runtime.ListValue:
		return containsElement(c.Elems(), elem, span)
	case runtime.TupleValue:
		return containsElement(c.Elems, elem, span)
	case *runtime.DictValue:
		_, found, err := c.Get(elem)
		if err != nil {
			return false, wrapError(err, span)
		}
		return found, nil
	case *runtime.SetValue:
		has, err := c.Has(elem)
		if err != nil {
			return false, wrapError(err, span)
		}
		return has, nil
	case runtime.StringValue:
		sub, ok := elem.(runtime.StringValue)
		if !ok {
			return false, evalErrorf(runtime.ErrType, span, "string membership requires string, got %s", runtime.TypeName(elem))
		}
		return strings.Contains(c.Val, sub.Val), nil
	case runtime.BytesValue:
		sub, ok := elem.(runtime.BytesValue)
		if !ok {
			return false, evalErrorf(runtime.ErrType, span, "bytes membership requires bytes, got %s", runtime.TypeName(elem))
		}
		return bytes.Contains(c.Val, sub.Val), nil
	default:
		return false, evalErrorf(runtime.ErrType, span, "%s value does not support membership tests", runtime.TypeName(container))
	}
}

func containsElement(elems []runtime.Value, elem runtime.Value, span ast.Span) (bool, error) {
	for _, e := range elems {
		eq, err := runtime.Equal(elem, e)
		if err != nil {
			return false, wrapError(err, span)
		}
		if eq {
			return true, nil
		}
	}
	return false, nil
}
