package interp

import (
	"sort"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/runtime"
)

// Name resolution happens once, before execution: every identifier use is
// mapped to a binding class and slot, so repeated execution never walks an
// environment chain. Locals (including comprehension variables) become
// frame slots, captured names become free-variable indexes, module-level
// names become global-table indexes, and everything else must be a
// builtin.

type bindingClass int

const (
	classLocal bindingClass = iota
	classFree
	classGlobal
	classBuiltin
)

type binding struct {
	class bindingClass
	index int
	name  string
}

// freeVar records how a closure captures one cell from its defining frame.
type freeVar struct {
	name  string
	class bindingClass // classLocal or classFree in the defining scope
	index int
}

// funcInfo is the resolved shape of one function (or the module top level).
type funcInfo struct {
	name       string
	numLocals  int
	localNames []string
	free       []freeVar
}

// functionMeta is the resolution record attached to every function the
// evaluator creates. It travels with the function value, so a function
// exported by one evaluation and loaded into another still knows its
// frame shape and how its body's identifiers resolve. The tables are
// shared by every function of the defining module.
type functionMeta struct {
	info     *funcInfo
	uses     map[*ast.Identifier]binding
	funcs    map[*ast.DefStmt]*funcInfo
	builtins []runtime.Value
}

type scope struct {
	parent *scope
	module bool
	info   *funcInfo

	locals map[string]int
	free   map[string]int
	comps  []map[string]int
}

func newScope(parent *scope, module bool, name string) *scope {
	return &scope{
		parent: parent,
		module: module,
		info:   &funcInfo{name: name},
		locals: make(map[string]int),
		free:   make(map[string]int),
	}
}

func (s *scope) defineLocal(name string) int {
	if i, ok := s.locals[name]; ok {
		return i
	}
	i := s.info.numLocals
	s.locals[name] = i
	s.info.numLocals++
	s.info.localNames = append(s.info.localNames, name)
	return i
}

// defineCompLocal allocates a fresh slot even when the name shadows an
// outer binding; the shadow is visible only while the comprehension scope
// is open.
func (s *scope) defineCompLocal(name string) int {
	i := s.info.numLocals
	s.info.numLocals++
	s.info.localNames = append(s.info.localNames, name)
	s.comps[len(s.comps)-1][name] = i
	return i
}

func (s *scope) lookupComp(name string) (int, bool) {
	for i := len(s.comps) - 1; i >= 0; i-- {
		if slot, ok := s.comps[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

type resolver struct {
	builtins     map[string]int
	builtinVals  []runtime.Value
	globals      map[string]int
	globalNames  []string
	loadedNames  map[string]bool
	uses         map[*ast.Identifier]binding
	funcs        map[*ast.DefStmt]*funcInfo
	moduleInfo   *funcInfo
	moduleScope  *scope
}

func newResolver(globalNames []string, builtins map[string]runtime.Value) *resolver {
	r := &resolver{
		builtins:    make(map[string]int, len(builtins)),
		globals:     make(map[string]int),
		loadedNames: make(map[string]bool),
		uses:        make(map[*ast.Identifier]binding),
		funcs:       make(map[*ast.DefStmt]*funcInfo),
	}
	for _, name := range sortedKeys(builtins) {
		r.builtins[name] = len(r.builtinVals)
		r.builtinVals = append(r.builtinVals, builtins[name])
	}
	for _, name := range globalNames {
		r.defineGlobal(name)
	}
	return r
}

func (r *resolver) defineGlobal(name string) int {
	if i, ok := r.globals[name]; ok {
		return i
	}
	i := len(r.globalNames)
	r.globals[name] = i
	r.globalNames = append(r.globalNames, name)
	return i
}

// resolveModule resolves every name in the module body. It returns the
// first unresolved reference as an unbound-name error.
func (r *resolver) resolveModule(mod *ast.Module) error {
	s := newScope(nil, true, "<module>")
	r.moduleScope = s
	r.moduleInfo = s.info

	// Module-level bindings are collected up front so uses may precede
	// their binding statement textually (a later statement, not an
	// earlier expression).
	r.collectModuleBindings(mod.Body)
	return r.resolveStmts(s, mod.Body)
}

func (r *resolver) collectModuleBindings(stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case *ast.AssignStmt:
			if id, ok := n.Target.(*ast.Identifier); ok {
				r.defineGlobal(id.Name)
			}
		case *ast.AugAssignStmt:
			if id, ok := n.Target.(*ast.Identifier); ok {
				r.defineGlobal(id.Name)
			}
		case *ast.DefStmt:
			r.defineGlobal(n.Name.Name)
		case *ast.ForStmt:
			for _, v := range n.Vars {
				r.defineGlobal(v.Name)
			}
			r.collectModuleBindings(n.Body)
		case *ast.IfStmt:
			r.collectModuleBindings(n.Then)
			r.collectModuleBindings(n.Else)
		case *ast.LoadStmt:
			for _, b := range n.Bindings {
				r.defineGlobal(b.Local.Name)
				r.loadedNames[b.Local.Name] = true
			}
		}
	}
}

func (r *resolver) resolveStmts(s *scope, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := r.resolveStmt(s, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveStmt(s *scope, stmt ast.Statement) error {
	switch n := stmt.(type) {
	case *ast.AssignStmt:
		if err := r.resolveExpr(s, n.Value); err != nil {
			return err
		}
		return r.resolveTarget(s, n.Target)
	case *ast.AugAssignStmt:
		if err := r.resolveExpr(s, n.Value); err != nil {
			return err
		}
		// The target of an augmented assignment is read before it is
		// written, so resolve reads inside it too.
		switch t := n.Target.(type) {
		case *ast.Identifier:
			return r.resolveTarget(s, t)
		case *ast.IndexExpr:
			if err := r.resolveExpr(s, t.Target); err != nil {
				return err
			}
			return r.resolveExpr(s, t.Index)
		default:
			return evalErrorf(runtime.ErrType, n.Span(), "cannot assign to %s", n.Target.NodeType())
		}
	case *ast.IfStmt:
		if err := r.resolveExpr(s, n.Cond); err != nil {
			return err
		}
		if err := r.resolveStmts(s, n.Then); err != nil {
			return err
		}
		return r.resolveStmts(s, n.Else)
	case *ast.ForStmt:
		if err := r.resolveExpr(s, n.Iterable); err != nil {
			return err
		}
		for _, v := range n.Vars {
			if err := r.resolveTarget(s, v); err != nil {
				return err
			}
		}
		return r.resolveStmts(s, n.Body)
	case *ast.DefStmt:
		return r.resolveDef(s, n)
	case *ast.ReturnStmt:
		if n.Value != nil {
			return r.resolveExpr(s, n.Value)
		}
		return nil
	case *ast.LoadStmt:
		for _, b := range n.Bindings {
			if err := r.resolveTarget(s, b.Local); err != nil {
				return err
			}
		}
		return nil
	case *ast.BreakStmt, *ast.ContinueStmt, *ast.PassStmt:
		return nil
	case ast.Expression:
		return r.resolveExpr(s, n)
	default:
		return evalErrorf(runtime.ErrType, stmt.Span(), "unsupported statement type: %s", stmt.NodeType())
	}
}

func (r *resolver) resolveDef(s *scope, def *ast.DefStmt) error {
	// Defaults are evaluated at def time, in the defining scope.
	for _, p := range def.Params {
		if p.Default != nil {
			if err := r.resolveExpr(s, p.Default); err != nil {
				return err
			}
		}
	}
	if err := r.resolveTarget(s, def.Name); err != nil {
		return err
	}

	body := newScope(s, false, def.Name.Name)
	for _, p := range def.Params {
		slot := body.defineLocal(p.Name.Name)
		r.uses[p.Name] = binding{class: classLocal, index: slot, name: p.Name.Name}
	}
	r.collectFunctionBindings(body, def.Body)
	if err := r.resolveStmts(body, def.Body); err != nil {
		return err
	}
	r.funcs[def] = body.info
	return nil
}

func (r *resolver) collectFunctionBindings(s *scope, stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case *ast.AssignStmt:
			if id, ok := n.Target.(*ast.Identifier); ok {
				s.defineLocal(id.Name)
			}
		case *ast.AugAssignStmt:
			if id, ok := n.Target.(*ast.Identifier); ok {
				s.defineLocal(id.Name)
			}
		case *ast.DefStmt:
			s.defineLocal(n.Name.Name)
		case *ast.ForStmt:
			for _, v := range n.Vars {
				s.defineLocal(v.Name)
			}
			r.collectFunctionBindings(s, n.Body)
		case *ast.IfStmt:
			r.collectFunctionBindings(s, n.Then)
			r.collectFunctionBindings(s, n.Else)
		}
	}
}

// resolveTarget resolves an identifier in binding position.
func (r *resolver) resolveTarget(s *scope, target ast.Expression) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if s.module {
			if slot, ok := s.lookupComp(t.Name); ok {
				r.uses[t] = binding{class: classLocal, index: slot, name: t.Name}
				return nil
			}
			r.uses[t] = binding{class: classGlobal, index: r.defineGlobal(t.Name), name: t.Name}
			return nil
		}
		if slot, ok := s.lookupComp(t.Name); ok {
			r.uses[t] = binding{class: classLocal, index: slot, name: t.Name}
			return nil
		}
		r.uses[t] = binding{class: classLocal, index: s.defineLocal(t.Name), name: t.Name}
		return nil
	case *ast.IndexExpr:
		if err := r.resolveExpr(s, t.Target); err != nil {
			return err
		}
		return r.resolveExpr(s, t.Index)
	default:
		return evalErrorf(runtime.ErrType, target.Span(), "cannot assign to %s", target.NodeType())
	}
}

func (r *resolver) resolveExpr(s *scope, expr ast.Expression) error {
	switch n := expr.(type) {
	case *ast.Identifier:
		return r.resolveUse(s, n)
	case *ast.NoneLiteral, *ast.BoolLiteral, *ast.IntLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BytesLiteral:
		return nil
	case *ast.ListExpr:
		return r.resolveExprs(s, n.Elements)
	case *ast.TupleExpr:
		return r.resolveExprs(s, n.Elements)
	case *ast.SetExpr:
		return r.resolveExprs(s, n.Elements)
	case *ast.DictExpr:
		for _, e := range n.Entries {
			if err := r.resolveExpr(s, e.Key); err != nil {
				return err
			}
			if err := r.resolveExpr(s, e.Value); err != nil {
				return err
			}
		}
		return nil
	case *ast.IndexExpr:
		if err := r.resolveExpr(s, n.Target); err != nil {
			return err
		}
		return r.resolveExpr(s, n.Index)
	case *ast.AttrExpr:
		return r.resolveExpr(s, n.Target)
	case *ast.CallExpr:
		if err := r.resolveExpr(s, n.Callee); err != nil {
			return err
		}
		for _, arg := range n.Args {
			if err := r.resolveExpr(s, arg.Value); err != nil {
				return err
			}
		}
		return nil
	case *ast.BinaryExpr:
		if err := r.resolveExpr(s, n.Left); err != nil {
			return err
		}
		return r.resolveExpr(s, n.Right)
	case *ast.UnaryExpr:
		return r.resolveExpr(s, n.Operand)
	case *ast.CondExpr:
		if err := r.resolveExpr(s, n.Cond); err != nil {
			return err
		}
		if err := r.resolveExpr(s, n.Then); err != nil {
			return err
		}
		return r.resolveExpr(s, n.Else)
	case *ast.Comprehension:
		return r.resolveComprehension(s, n)
	default:
		return evalErrorf(runtime.ErrType, expr.Span(), "unsupported expression type: %s", expr.NodeType())
	}
}

func (r *resolver) resolveExprs(s *scope, exprs []ast.Expression) error {
	for _, e := range exprs {
		if err := r.resolveExpr(s, e); err != nil {
			return err
		}
	}
	return nil
}

// resolveComprehension opens a nested variable scope: clause variables
// shadow outer bindings for the duration of the comprehension and vanish
// afterwards.
func (r *resolver) resolveComprehension(s *scope, comp *ast.Comprehension) error {
	s.comps = append(s.comps, make(map[string]int))
	defer func() { s.comps = s.comps[:len(s.comps)-1] }()

	for i, clause := range comp.Clauses {
		switch c := clause.(type) {
		case *ast.ForClause:
			// The first iterable is evaluated outside the variables it binds.
			if err := r.resolveExpr(s, c.Iterable); err != nil {
				return err
			}
			for _, v := range c.Vars {
				slot := s.defineCompLocal(v.Name)
				r.uses[v] = binding{class: classLocal, index: slot, name: v.Name}
			}
		case *ast.IfClause:
			if i == 0 {
				return evalErrorf(runtime.ErrType, c.Span(), "comprehension must start with a for clause")
			}
			if err := r.resolveExpr(s, c.Cond); err != nil {
				return err
			}
		}
	}
	if comp.Kind == ast.CompDict {
		if err := r.resolveExpr(s, comp.Key); err != nil {
			return err
		}
		return r.resolveExpr(s, comp.Value)
	}
	return r.resolveExpr(s, comp.Body)
}

// resolveUse classifies a name read: comprehension variable, local, free
// (captured from an enclosing function), module global, then builtin.
func (r *resolver) resolveUse(s *scope, id *ast.Identifier) error {
	if slot, ok := s.lookupComp(id.Name); ok {
		r.uses[id] = binding{class: classLocal, index: slot, name: id.Name}
		return nil
	}
	if !s.module {
		if slot, ok := s.locals[id.Name]; ok {
			r.uses[id] = binding{class: classLocal, index: slot, name: id.Name}
			return nil
		}
		if idx, ok := s.free[id.Name]; ok {
			r.uses[id] = binding{class: classFree, index: idx, name: id.Name}
			return nil
		}
		if idx, ok := r.capture(s, id.Name); ok {
			r.uses[id] = binding{class: classFree, index: idx, name: id.Name}
			return nil
		}
	}
	if idx, ok := r.globals[id.Name]; ok {
		r.uses[id] = binding{class: classGlobal, index: idx, name: id.Name}
		return nil
	}
	if idx, ok := r.builtins[id.Name]; ok {
		r.uses[id] = binding{class: classBuiltin, index: idx, name: id.Name}
		return nil
	}
	return evalErrorf(runtime.ErrUnboundName, id.Span(), "undefined name %q", id.Name)
}

// capture makes name a free variable of s by finding it in an enclosing
// function scope, threading intermediate captures as needed.
func (r *resolver) capture(s *scope, name string) (int, bool) {
	parent := s.parent
	if parent == nil || parent.module {
		return 0, false
	}
	var fv freeVar
	if slot, ok := parent.lookupComp(name); ok {
		fv = freeVar{name: name, class: classLocal, index: slot}
	} else if slot, ok := parent.locals[name]; ok {
		fv = freeVar{name: name, class: classLocal, index: slot}
	} else if idx, ok := parent.free[name]; ok {
		fv = freeVar{name: name, class: classFree, index: idx}
	} else if idx, ok := r.capture(parent, name); ok {
		fv = freeVar{name: name, class: classFree, index: idx}
	} else {
		return 0, false
	}
	idx := len(s.info.free)
	s.info.free = append(s.info.free, fv)
	s.free[name] = idx
	return idx, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
