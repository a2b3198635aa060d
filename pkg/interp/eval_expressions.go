package interp

import (
	"math/big"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

func (in *Interpreter) evalExpr(expr ast.Expression) (runtime.Value, error) {
	switch n := expr.(type) {
	case *ast.NoneLiteral:
		return runtime.NoneValue{}, nil
	case *ast.BoolLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.IntLiteral:
		return runtime.IntFromBig(n.Value), nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.BytesLiteral:
		return runtime.BytesValue{Val: n.Value}, nil
	case *ast.Identifier:
		return in.loadName(n)
	case *ast.ListExpr:
		elems, err := in.evalExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return in.heap.NewList(elems), nil
	case *ast.TupleExpr:
		elems, err := in.evalExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return runtime.TupleValue{Elems: elems}, nil
	case *ast.SetExpr:
		elems, err := in.evalExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		set := in.heap.NewSet()
		for _, e := range elems {
			if err := set.Add(e); err != nil {
				return nil, wrapError(err, n.Span())
			}
		}
		return set, nil
	case *ast.DictExpr:
		dict := in.heap.NewDict()
		for _, entry := range n.Entries {
			k, err := in.evalExpr(entry.Key)
			if err != nil {
				return nil, err
			}
			v, err := in.evalExpr(entry.Value)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(k, v); err != nil {
				return nil, wrapError(err, entry.Span())
			}
		}
		return dict, nil
	case *ast.IndexExpr:
		obj, err := in.evalExpr(n.Target)
		if err != nil {
			return nil, err
		}
		idx, err := in.evalExpr(n.Index)
		if err != nil {
			return nil, err
		}
		return in.getIndex(obj, idx, n.Span())
	case *ast.AttrExpr:
		obj, err := in.evalExpr(n.Target)
		if err != nil {
			return nil, err
		}
		return in.getAttr(obj, n.Name, n.Span())
	case *ast.CallExpr:
		return in.evalCall(n)
	case *ast.BinaryExpr:
		return in.evalBinary(n)
	case *ast.UnaryExpr:
		return in.evalUnary(n)
	case *ast.CondExpr:
		cond, err := in.evalExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		if runtime.Truth(cond) {
			return in.evalExpr(n.Then)
		}
		return in.evalExpr(n.Else)
	case *ast.Comprehension:
		return in.evalComprehension(n)
	default:
		return nil, evalErrorf(runtime.ErrType, expr.Span(), "unsupported expression type: %s", expr.NodeType())
	}
}

func (in *Interpreter) evalExprs(exprs []ast.Expression) ([]runtime.Value, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	vals := make([]runtime.Value, len(exprs))
	for i, e := range exprs {
		v, err := in.evalExpr(e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (in *Interpreter) evalBinary(n *ast.BinaryExpr) (runtime.Value, error) {
	switch n.Op {
	case "and":
		left, err := in.evalExpr(n.Left)
		if err != nil {
			return nil, err
		}
		if !runtime.Truth(left) {
			return left, nil
		}
		return in.evalExpr(n.Right)
	case "or":
		left, err := in.evalExpr(n.Left)
		if err != nil {
			return nil, err
		}
		if runtime.Truth(left) {
			return left, nil
		}
		return in.evalExpr(n.Right)
	}
	left, err := in.evalExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(n.Right)
	if err != nil {
		return nil, err
	}
	return in.binaryOp(n.Op, left, right, n.Span())
}

func (in *Interpreter) evalUnary(n *ast.UnaryExpr) (runtime.Value, error) {
	operand, err := in.evalExpr(n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "not":
		return runtime.BoolValue{Val: !runtime.Truth(operand)}, nil
	case "-":
		switch v := operand.(type) {
		case runtime.IntValue:
			return runtime.IntFromBig(new(big.Int).Neg(v.Val)), nil
		case runtime.FloatValue:
			return runtime.FloatValue{Val: -v.Val}, nil
		}
		return nil, evalErrorf(runtime.ErrType, n.Span(), "unsupported operand type for unary -: %s", runtime.TypeName(operand))
	case "+":
		switch operand.(type) {
		case runtime.IntValue, runtime.FloatValue:
			return operand, nil
		}
		return nil, evalErrorf(runtime.ErrType, n.Span(), "unsupported operand type for unary +: %s", runtime.TypeName(operand))
	case "~":
		if v, ok := operand.(runtime.IntValue); ok {
			return runtime.IntFromBig(new(big.Int).Not(v.Val)), nil
		}
		return nil, evalErrorf(runtime.ErrType, n.Span(), "unsupported operand type for unary ~: %s", runtime.TypeName(operand))
	default:
		return nil, evalErrorf(runtime.ErrType, n.Span(), "unknown unary operator %q", n.Op)
	}
}

// evalComprehension runs the clause chain left to right, innermost last.
func (in *Interpreter) evalComprehension(n *ast.Comprehension) (runtime.Value, error) {
	var result runtime.Value
	switch n.Kind {
	case ast.CompList:
		result = in.heap.NewList(nil)
	case ast.CompDict:
		result = in.heap.NewDict()
	case ast.CompSet:
		result = in.heap.NewSet()
	default:
		return nil, evalErrorf(runtime.ErrType, n.Span(), "unknown comprehension kind %q", n.Kind)
	}
	if err := in.compClause(n, 0, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (in *Interpreter) compClause(n *ast.Comprehension, i int, result runtime.Value) error {
	if i == len(n.Clauses) {
		return in.compEmit(n, result)
	}
	switch c := n.Clauses[i].(type) {
	case *ast.ForClause:
		iterable, err := in.evalExpr(c.Iterable)
		if err != nil {
			return err
		}
		it, err := runtime.Iterate(iterable)
		if err != nil {
			return wrapError(err, c.Iterable.Span())
		}
		defer it.Done()
		for {
			if err := in.checkStep(c.Span()); err != nil {
				return err
			}
			elem, ok := it.Next()
			if !ok {
				return nil
			}
			if err := in.bindLoopVars(c.Vars, elem, c.Span()); err != nil {
				return err
			}
			if err := in.compClause(n, i+1, result); err != nil {
				return err
			}
		}
	case *ast.IfClause:
		cond, err := in.evalExpr(c.Cond)
		if err != nil {
			return err
		}
		if !runtime.Truth(cond) {
			return nil
		}
		return in.compClause(n, i+1, result)
	default:
		return evalErrorf(runtime.ErrType, n.Span(), "unknown comprehension clause")
	}
}

func (in *Interpreter) compEmit(n *ast.Comprehension, result runtime.Value) error {
	switch out := result.(type) {
	case *runtime.ListValue:
		v, err := in.evalExpr(n.Body)
		if err != nil {
			return err
		}
		return wrapError(out.Append(v), n.Body.Span())
	case *runtime.SetValue:
		v, err := in.evalExpr(n.Body)
		if err != nil {
			return err
		}
		return wrapError(out.Add(v), n.Body.Span())
	case *runtime.DictValue:
		k, err := in.evalExpr(n.Key)
		if err != nil {
			return err
		}
		v, err := in.evalExpr(n.Value)
		if err != nil {
			return err
		}
		return wrapError(out.SetKey(k, v), n.Key.Span())
	}
	return nil
}

func (in *Interpreter) getIndex(obj, idx runtime.Value, span ast.Span) (runtime.Value, error) {
	switch c := obj.(type) {
	case *runtime.ListValue:
		i, err := asIndex(idx, span)
		if err != nil {
			return nil, err
		}
		v, err := c.At(i)
		if err != nil {
			return nil, wrapError(err, span)
		}
		return v, nil
	case runtime.TupleValue:
		i, err := asIndex(idx, span)
		if err != nil {
			return nil, err
		}
		v, err := c.At(i)
		if err != nil {
			return nil, wrapError(err, span)
		}
		return v, nil
	case *runtime.DictValue:
		v, found, err := c.Get(idx)
		if err != nil {
			return nil, wrapError(err, span)
		}
		if !found {
			return nil, evalErrorf(runtime.ErrKey, span, "key %s not found", runtime.Repr(idx))
		}
		return v, nil
	case runtime.StringValue:
		i, err := asIndex(idx, span)
		if err != nil {
			return nil, err
		}
		i, err = normIndex(i, len(c.Val), span)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: c.Val[i : i+1]}, nil
	case runtime.BytesValue:
		i, err := asIndex(idx, span)
		if err != nil {
			return nil, err
		}
		i, err = normIndex(i, len(c.Val), span)
		if err != nil {
			return nil, err
		}
		return runtime.Int(int64(c.Val[i])), nil
	default:
		return nil, evalErrorf(runtime.ErrType, span, "%s value is not indexable", runtime.TypeName(obj))
	}
}

// asIndex converts an index operand to a machine int.
func asIndex(idx runtime.Value, span ast.Span) (int, error) {
	iv, ok := idx.(runtime.IntValue)
	if !ok {
		return 0, evalErrorf(runtime.ErrType, span, "index must be int, got %s", runtime.TypeName(idx))
	}
	if !iv.Val.IsInt64() {
		return 0, evalErrorf(runtime.ErrIndex, span, "index %s out of range", iv.Val.String())
	}
	n := iv.Val.Int64()
	// int is 32 bits on some platforms; narrowing must not wrap
	if int64(int(n)) != n {
		return 0, evalErrorf(runtime.ErrIndex, span, "index %d out of range", n)
	}
	return int(n), nil
}

// normIndex resolves a possibly negative index against a sequence length.
func normIndex(i, n int, span ast.Span) (int, error) {
	orig := i
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, evalErrorf(runtime.ErrIndex, span, "index %d out of range for length %d", orig, n)
	}
	return i, nil
}
