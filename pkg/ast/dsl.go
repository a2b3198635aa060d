package ast

import "math/big"

// Identifier and literal helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Bytes(value []byte) *BytesLiteral {
	return NewBytesLiteral(value)
}

func Int(value int64) *IntLiteral {
	return NewIntLiteral(big.NewInt(value))
}

func IntBig(value *big.Int) *IntLiteral {
	return NewIntLiteral(new(big.Int).Set(value))
}

func Flt(value float64) *FloatLiteral {
	return NewFloatLiteral(value)
}

func Bool(value bool) *BoolLiteral {
	return NewBoolLiteral(value)
}

func None() *NoneLiteral {
	return NewNoneLiteral()
}

func ListE(elements ...Expression) *ListExpr {
	return NewListExpr(elements)
}

func TupleE(elements ...Expression) *TupleExpr {
	return NewTupleExpr(elements)
}

func SetE(elements ...Expression) *SetExpr {
	return NewSetExpr(elements)
}

func Entry(key, value Expression) *DictEntry {
	return NewDictEntry(key, value)
}

func DictE(entries ...*DictEntry) *DictExpr {
	return NewDictExpr(entries)
}

// Expression helpers.

func Bin(op string, left, right Expression) *BinaryExpr {
	return NewBinaryExpr(op, left, right)
}

func Unary(op string, operand Expression) *UnaryExpr {
	return NewUnaryExpr(op, operand)
}

func Index(target, index Expression) *IndexExpr {
	return NewIndexExpr(target, index)
}

func Attr(target Expression, name string) *AttrExpr {
	return NewAttrExpr(target, name)
}

func Cond(cond, then, els Expression) *CondExpr {
	return NewCondExpr(cond, then, els)
}

func Call(callee Expression, args ...*CallArg) *CallExpr {
	return NewCallExpr(callee, args)
}

func Arg(value Expression) *CallArg {
	return NewCallArg(nil, value, false, false)
}

func KwArg(name string, value Expression) *CallArg {
	return NewCallArg(ID(name), value, false, false)
}

func StarArg(value Expression) *CallArg {
	return NewCallArg(nil, value, true, false)
}

func StarStarArg(value Expression) *CallArg {
	return NewCallArg(nil, value, false, true)
}

// Comprehension helpers.

func ForC(iterable Expression, vars ...*Identifier) *ForClause {
	return NewForClause(vars, iterable)
}

func IfC(cond Expression) *IfClause {
	return NewIfClause(cond)
}

func ListComp(body Expression, clauses ...CompClause) *Comprehension {
	return NewComprehension(CompList, body, nil, nil, clauses)
}

func SetComp(body Expression, clauses ...CompClause) *Comprehension {
	return NewComprehension(CompSet, body, nil, nil, clauses)
}

func DictComp(key, value Expression, clauses ...CompClause) *Comprehension {
	return NewComprehension(CompDict, nil, key, value, clauses)
}

// Statement helpers.

func Mod(body ...Statement) *Module {
	return NewModule("", body)
}

func NamedMod(name string, body ...Statement) *Module {
	return NewModule(name, body)
}

func Assign(target, value Expression) *AssignStmt {
	return NewAssignStmt(target, value)
}

func Aug(target Expression, op string, value Expression) *AugAssignStmt {
	return NewAugAssignStmt(target, op, value)
}

func IfS(cond Expression, then, els []Statement) *IfStmt {
	return NewIfStmt(cond, then, els)
}

func Then(stmts ...Statement) []Statement {
	return stmts
}

func ForS(iterable Expression, body []Statement, vars ...*Identifier) *ForStmt {
	return NewForStmt(vars, iterable, body)
}

func Def(name string, params []*Param, body ...Statement) *DefStmt {
	return NewDefStmt(ID(name), params, body)
}

func Params(params ...*Param) []*Param {
	return params
}

func P(name string) *Param {
	return NewParam(ID(name), nil, false, false)
}

func PDefault(name string, def Expression) *Param {
	return NewParam(ID(name), def, false, false)
}

func PArgs(name string) *Param {
	return NewParam(ID(name), nil, true, false)
}

func PKwargs(name string) *Param {
	return NewParam(ID(name), nil, false, true)
}

func Ret(value Expression) *ReturnStmt {
	return NewReturnStmt(value)
}

func Brk() *BreakStmt {
	return NewBreakStmt()
}

func Cont() *ContinueStmt {
	return NewContinueStmt()
}

func Pass() *PassStmt {
	return NewPassStmt()
}

func Load(module string, bindings ...*LoadBinding) *LoadStmt {
	return NewLoadStmt(module, bindings)
}

func LoadAs(local, remote string) *LoadBinding {
	return NewLoadBinding(ID(local), remote)
}

// At attaches a source span to any node built by the helpers above.
func At[N Node](node N, span Span) N {
	setSpan(node, span)
	return node
}

func setSpan(node Node, span Span) {
	switch n := node.(type) {
	case interface{ setRange(Span) }:
		n.setRange(span)
	}
}

func (n *nodeImpl) setRange(span Span) { n.Range = span }
