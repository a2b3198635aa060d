package interp

import (
	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

func (in *Interpreter) execStmts(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := in.checkStep(stmt.Span()); err != nil {
			return err
		}
		if err := in.debugStatement(stmt.Span()); err != nil {
			return err
		}
		if err := in.execStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execStmt(stmt ast.Statement) error {
	in.frame().span = stmt.Span()
	switch n := stmt.(type) {
	case *ast.AssignStmt:
		return in.execAssign(n)
	case *ast.AugAssignStmt:
		return in.execAugAssign(n)
	case *ast.IfStmt:
		return in.execIf(n)
	case *ast.ForStmt:
		return in.execFor(n)
	case *ast.DefStmt:
		return in.execDef(n)
	case *ast.ReturnStmt:
		var v runtime.Value = runtime.NoneValue{}
		if n.Value != nil {
			var err error
			v, err = in.evalExpr(n.Value)
			if err != nil {
				return err
			}
		}
		return &returnSignal{value: v}
	case *ast.BreakStmt:
		return &breakSignal{}
	case *ast.ContinueStmt:
		return &continueSignal{}
	case *ast.PassStmt:
		return nil
	case *ast.LoadStmt:
		return in.execLoad(n)
	case ast.Expression:
		_, err := in.evalExpr(n)
		return err
	default:
		return evalErrorf(runtime.ErrType, stmt.Span(), "unsupported statement type: %s", stmt.NodeType())
	}
}

func (in *Interpreter) execAssign(n *ast.AssignStmt) error {
	v, err := in.evalExpr(n.Value)
	if err != nil {
		return err
	}
	return in.assignTo(n.Target, v)
}

func (in *Interpreter) assignTo(target ast.Expression, v runtime.Value) error {
	switch t := target.(type) {
	case *ast.Identifier:
		return in.storeName(t, v)
	case *ast.IndexExpr:
		obj, err := in.evalExpr(t.Target)
		if err != nil {
			return err
		}
		idx, err := in.evalExpr(t.Index)
		if err != nil {
			return err
		}
		return in.setIndex(obj, idx, v, t.Span())
	default:
		return evalErrorf(runtime.ErrType, target.Span(), "cannot assign to %s", target.NodeType())
	}
}

func (in *Interpreter) setIndex(obj, idx, v runtime.Value, span ast.Span) error {
	switch c := obj.(type) {
	case *runtime.ListValue:
		i, err := asIndex(idx, span)
		if err != nil {
			return err
		}
		if err := c.SetAt(i, v); err != nil {
			return wrapError(err, span)
		}
		return nil
	case *runtime.DictValue:
		if err := c.SetKey(idx, v); err != nil {
			return wrapError(err, span)
		}
		return nil
	default:
		return evalErrorf(runtime.ErrType, span, "%s value does not support item assignment", runtime.TypeName(obj))
	}
}

func (in *Interpreter) execAugAssign(n *ast.AugAssignStmt) error {
	rhs, err := in.evalExpr(n.Value)
	if err != nil {
		return err
	}
	switch t := n.Target.(type) {
	case *ast.Identifier:
		old, err := in.loadName(t)
		if err != nil {
			return err
		}
		nv, err := in.augApply(old, n.Op, rhs, n.Span())
		if err != nil {
			return err
		}
		return in.storeName(t, nv)
	case *ast.IndexExpr:
		obj, err := in.evalExpr(t.Target)
		if err != nil {
			return err
		}
		idx, err := in.evalExpr(t.Index)
		if err != nil {
			return err
		}
		old, err := in.getIndex(obj, idx, t.Span())
		if err != nil {
			return err
		}
		nv, err := in.augApply(old, n.Op, rhs, n.Span())
		if err != nil {
			return err
		}
		return in.setIndex(obj, idx, nv, t.Span())
	default:
		return evalErrorf(runtime.ErrType, n.Span(), "cannot assign to %s", n.Target.NodeType())
	}
}

// augApply computes old <op>= rhs. A list on the left of += mutates in
// place so aliases observe the extension.
func (in *Interpreter) augApply(old runtime.Value, op string, rhs runtime.Value, span ast.Span) (runtime.Value, error) {
	if op == "+" {
		if list, ok := old.(*runtime.ListValue); ok {
			elems, err := runtime.Elements(rhs)
			if err != nil {
				return nil, wrapError(err, span)
			}
			if err := list.Extend(elems); err != nil {
				return nil, wrapError(err, span)
			}
			return list, nil
		}
	}
	return in.binaryOp(op, old, rhs, span)
}

func (in *Interpreter) execIf(n *ast.IfStmt) error {
	cond, err := in.evalExpr(n.Cond)
	if err != nil {
		return err
	}
	if runtime.Truth(cond) {
		return in.execStmts(n.Then)
	}
	return in.execStmts(n.Else)
}

func (in *Interpreter) execFor(n *ast.ForStmt) error {
	iterable, err := in.evalExpr(n.Iterable)
	if err != nil {
		return err
	}
	it, err := runtime.Iterate(iterable)
	if err != nil {
		return wrapError(err, n.Iterable.Span())
	}
	defer it.Done()

	for {
		if err := in.checkStep(n.Span()); err != nil {
			return err
		}
		elem, ok := it.Next()
		if !ok {
			return nil
		}
		if err := in.bindLoopVars(n.Vars, elem, n.Span()); err != nil {
			return err
		}
		if err := in.execStmts(n.Body); err != nil {
			switch err.(type) {
			case *breakSignal:
				return nil
			case *continueSignal:
				continue
			}
			return err
		}
	}
}

// bindLoopVars assigns one iteration element to the loop variables,
// unpacking when there is more than one.
func (in *Interpreter) bindLoopVars(vars []*ast.Identifier, elem runtime.Value, span ast.Span) error {
	if len(vars) == 1 {
		return in.storeName(vars[0], elem)
	}
	parts, err := runtime.Elements(elem)
	if err != nil {
		return wrapError(err, span)
	}
	if len(parts) != len(vars) {
		return evalErrorf(runtime.ErrType, span, "cannot unpack %d values into %d variables", len(parts), len(vars))
	}
	for i, v := range vars {
		if err := in.storeName(v, parts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execDef(n *ast.DefStmt) error {
	cur := in.frame()
	info, ok := cur.meta.funcs[n]
	if !ok {
		return evalErrorf(runtime.ErrType, n.Span(), "unresolved function %q", n.Name.Name)
	}

	var defaults []runtime.Value
	for _, p := range n.Params {
		if p.Default != nil {
			d, err := in.evalExpr(p.Default)
			if err != nil {
				return err
			}
			defaults = append(defaults, d)
		} else {
			defaults = append(defaults, nil)
		}
	}

	free := make([]*runtime.Cell, len(info.free))
	for i, fv := range info.free {
		switch fv.class {
		case classLocal:
			free[i] = cur.locals[fv.index]
		case classFree:
			free[i] = cur.fn.Free[fv.index]
		}
	}

	fn := in.heap.AddFunction(&runtime.FunctionValue{
		Name:     n.Name.Name,
		Decl:     n,
		Defaults: defaults,
		Free:     free,
		Globals:  in.frameGlobals(),
		Resolved: &functionMeta{
			info:     info,
			uses:     cur.meta.uses,
			funcs:    cur.meta.funcs,
			builtins: cur.meta.builtins,
		},
	})
	return in.storeName(n.Name, fn)
}

func (in *Interpreter) execLoad(n *ast.LoadStmt) error {
	if in.modules == nil {
		return evalErrorf(runtime.ErrUnboundName, n.Span(), "module %q is not available", n.Module)
	}
	mod, ok := in.modules[n.Module]
	if !ok {
		return evalErrorf(runtime.ErrUnboundName, n.Span(), "module %q is not available", n.Module)
	}
	for _, b := range n.Bindings {
		v, ok := mod.Get(b.Remote)
		if !ok {
			return evalErrorf(runtime.ErrUnboundName, b.Local.Span(), "module %q has no symbol %q", n.Module, b.Remote)
		}
		if err := in.storeName(b.Local, v); err != nil {
			return err
		}
	}
	return nil
}
