package ast

import "math/big"

// NodeType identifies the syntactic kind of a node.
type NodeType string

const (
	NodeModule        NodeType = "Module"
	NodeAssignStmt    NodeType = "AssignStmt"
	NodeAugAssignStmt NodeType = "AugAssignStmt"
	NodeIfStmt        NodeType = "IfStmt"
	NodeForStmt       NodeType = "ForStmt"
	NodeDefStmt       NodeType = "DefStmt"
	NodeReturnStmt    NodeType = "ReturnStmt"
	NodeBreakStmt     NodeType = "BreakStmt"
	NodeContinueStmt  NodeType = "ContinueStmt"
	NodePassStmt      NodeType = "PassStmt"
	NodeLoadStmt      NodeType = "LoadStmt"
	NodeParam         NodeType = "Param"
	NodeLoadBinding   NodeType = "LoadBinding"

	NodeIdentifier    NodeType = "Identifier"
	NodeNoneLiteral   NodeType = "NoneLiteral"
	NodeBoolLiteral   NodeType = "BoolLiteral"
	NodeIntLiteral    NodeType = "IntLiteral"
	NodeFloatLiteral  NodeType = "FloatLiteral"
	NodeStringLiteral NodeType = "StringLiteral"
	NodeBytesLiteral  NodeType = "BytesLiteral"
	NodeListExpr      NodeType = "ListExpr"
	NodeTupleExpr     NodeType = "TupleExpr"
	NodeDictExpr      NodeType = "DictExpr"
	NodeDictEntry     NodeType = "DictEntry"
	NodeSetExpr       NodeType = "SetExpr"
	NodeIndexExpr     NodeType = "IndexExpr"
	NodeAttrExpr      NodeType = "AttrExpr"
	NodeCallExpr      NodeType = "CallExpr"
	NodeCallArg       NodeType = "CallArg"
	NodeBinaryExpr    NodeType = "BinaryExpr"
	NodeUnaryExpr     NodeType = "UnaryExpr"
	NodeCondExpr      NodeType = "CondExpr"
	NodeComprehension NodeType = "Comprehension"
	NodeForClause     NodeType = "ForClause"
	NodeIfClause      NodeType = "IfClause"
)

// Pos is a 1-based line/column source coordinate. The zero Pos means
// "position unknown".
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// IsValid reports whether the position carries real coordinates.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Span is the half-open source range covered by a node. Spans are supplied
// by the external parser and flow through unchanged into diagnostics.
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// IsValid reports whether the span carries real coordinates.
func (s Span) IsValid() bool { return s.Start.IsValid() }

// Node is the interface satisfied by every AST node. The evaluator treats
// the tree as read-only input.
type Node interface {
	NodeType() NodeType
	Span() Span
	isNode()
}

type nodeImpl struct {
	Type  NodeType `json:"type"`
	Range Span     `json:"span,omitzero"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Span() Span         { return n.Range }
func (nodeImpl) isNode()              {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}
func (expressionMarker) statementNode()  {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

// Module is the root node: the ordered statements of one source file.
type Module struct {
	nodeImpl

	Name string      `json:"name,omitempty"`
	Body []Statement `json:"body"`
}

func NewModule(name string, body []Statement) *Module {
	return &Module{nodeImpl: newNodeImpl(NodeModule), Name: name, Body: body}
}

// AssignStmt binds Value to Target. Target is an Identifier, IndexExpr, or
// AttrExpr.
type AssignStmt struct {
	nodeImpl
	statementMarker

	Target Expression `json:"target"`
	Value  Expression `json:"value"`
}

func NewAssignStmt(target, value Expression) *AssignStmt {
	return &AssignStmt{nodeImpl: newNodeImpl(NodeAssignStmt), Target: target, Value: value}
}

// AugAssignStmt is an augmented assignment such as `x += e`. Op holds the
// bare operator ("+", "-", ...), not the trailing "=".
type AugAssignStmt struct {
	nodeImpl
	statementMarker

	Target Expression `json:"target"`
	Op     string     `json:"op"`
	Value  Expression `json:"value"`
}

func NewAugAssignStmt(target Expression, op string, value Expression) *AugAssignStmt {
	return &AugAssignStmt{nodeImpl: newNodeImpl(NodeAugAssignStmt), Target: target, Op: op, Value: value}
}

type IfStmt struct {
	nodeImpl
	statementMarker

	Cond Expression  `json:"cond"`
	Then []Statement `json:"then"`
	Else []Statement `json:"else,omitempty"`
}

func NewIfStmt(cond Expression, then, els []Statement) *IfStmt {
	return &IfStmt{nodeImpl: newNodeImpl(NodeIfStmt), Cond: cond, Then: then, Else: els}
}

// ForStmt iterates Iterable, binding each element to Vars. More than one
// variable means each element is unpacked as a sequence of that length.
type ForStmt struct {
	nodeImpl
	statementMarker

	Vars     []*Identifier `json:"vars"`
	Iterable Expression    `json:"iterable"`
	Body     []Statement   `json:"body"`
}

func NewForStmt(vars []*Identifier, iterable Expression, body []Statement) *ForStmt {
	return &ForStmt{nodeImpl: newNodeImpl(NodeForStmt), Vars: vars, Iterable: iterable, Body: body}
}

// Param is one formal parameter of a def. At most one of Star/StarStar is
// set; a Star param collects surplus positional arguments and a StarStar
// param collects surplus keyword arguments.
type Param struct {
	nodeImpl

	Name     *Identifier `json:"name"`
	Default  Expression  `json:"default,omitempty"`
	Star     bool        `json:"star,omitempty"`
	StarStar bool        `json:"starStar,omitempty"`
}

func NewParam(name *Identifier, def Expression, star, starStar bool) *Param {
	return &Param{nodeImpl: newNodeImpl(NodeParam), Name: name, Default: def, Star: star, StarStar: starStar}
}

type DefStmt struct {
	nodeImpl
	statementMarker

	Name   *Identifier `json:"name"`
	Params []*Param    `json:"params"`
	Body   []Statement `json:"body"`
}

func NewDefStmt(name *Identifier, params []*Param, body []Statement) *DefStmt {
	return &DefStmt{nodeImpl: newNodeImpl(NodeDefStmt), Name: name, Params: params, Body: body}
}

// ReturnStmt returns Value from the enclosing function; a nil Value means
// `return` with no operand.
type ReturnStmt struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value,omitempty"`
}

func NewReturnStmt(value Expression) *ReturnStmt {
	return &ReturnStmt{nodeImpl: newNodeImpl(NodeReturnStmt), Value: value}
}

type BreakStmt struct {
	nodeImpl
	statementMarker
}

func NewBreakStmt() *BreakStmt { return &BreakStmt{nodeImpl: newNodeImpl(NodeBreakStmt)} }

type ContinueStmt struct {
	nodeImpl
	statementMarker
}

func NewContinueStmt() *ContinueStmt { return &ContinueStmt{nodeImpl: newNodeImpl(NodeContinueStmt)} }

type PassStmt struct {
	nodeImpl
	statementMarker
}

func NewPassStmt() *PassStmt { return &PassStmt{nodeImpl: newNodeImpl(NodePassStmt)} }

// LoadBinding maps one exported name of a loaded module (Remote) onto a
// local binding (Local).
type LoadBinding struct {
	nodeImpl

	Local  *Identifier `json:"local"`
	Remote string      `json:"remote"`
}

func NewLoadBinding(local *Identifier, remote string) *LoadBinding {
	return &LoadBinding{nodeImpl: newNodeImpl(NodeLoadBinding), Local: local, Remote: remote}
}

// LoadStmt imports bindings from a previously frozen module supplied by the
// embedding caller.
type LoadStmt struct {
	nodeImpl
	statementMarker

	Module   string         `json:"module"`
	Bindings []*LoadBinding `json:"bindings"`
}

func NewLoadStmt(module string, bindings []*LoadBinding) *LoadStmt {
	return &LoadStmt{nodeImpl: newNodeImpl(NodeLoadStmt), Module: module, Bindings: bindings}
}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

type Identifier struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

type NoneLiteral struct {
	nodeImpl
	expressionMarker
}

func NewNoneLiteral() *NoneLiteral { return &NoneLiteral{nodeImpl: newNodeImpl(NodeNoneLiteral)} }

type BoolLiteral struct {
	nodeImpl
	expressionMarker

	Value bool `json:"value"`
}

func NewBoolLiteral(value bool) *BoolLiteral {
	return &BoolLiteral{nodeImpl: newNodeImpl(NodeBoolLiteral), Value: value}
}

// IntLiteral carries an arbitrary-precision integer.
type IntLiteral struct {
	nodeImpl
	expressionMarker

	Value *big.Int `json:"value"`
}

func NewIntLiteral(value *big.Int) *IntLiteral {
	return &IntLiteral{nodeImpl: newNodeImpl(NodeIntLiteral), Value: value}
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
}

func NewFloatLiteral(value float64) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type BytesLiteral struct {
	nodeImpl
	expressionMarker

	Value []byte `json:"value"`
}

func NewBytesLiteral(value []byte) *BytesLiteral {
	return &BytesLiteral{nodeImpl: newNodeImpl(NodeBytesLiteral), Value: value}
}

type ListExpr struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewListExpr(elements []Expression) *ListExpr {
	return &ListExpr{nodeImpl: newNodeImpl(NodeListExpr), Elements: elements}
}

type TupleExpr struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewTupleExpr(elements []Expression) *TupleExpr {
	return &TupleExpr{nodeImpl: newNodeImpl(NodeTupleExpr), Elements: elements}
}

type DictEntry struct {
	nodeImpl

	Key   Expression `json:"key"`
	Value Expression `json:"value"`
}

func NewDictEntry(key, value Expression) *DictEntry {
	return &DictEntry{nodeImpl: newNodeImpl(NodeDictEntry), Key: key, Value: value}
}

type DictExpr struct {
	nodeImpl
	expressionMarker

	Entries []*DictEntry `json:"entries"`
}

func NewDictExpr(entries []*DictEntry) *DictExpr {
	return &DictExpr{nodeImpl: newNodeImpl(NodeDictExpr), Entries: entries}
}

type SetExpr struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewSetExpr(elements []Expression) *SetExpr {
	return &SetExpr{nodeImpl: newNodeImpl(NodeSetExpr), Elements: elements}
}

type IndexExpr struct {
	nodeImpl
	expressionMarker

	Target Expression `json:"target"`
	Index  Expression `json:"index"`
}

func NewIndexExpr(target, index Expression) *IndexExpr {
	return &IndexExpr{nodeImpl: newNodeImpl(NodeIndexExpr), Target: target, Index: index}
}

type AttrExpr struct {
	nodeImpl
	expressionMarker

	Target Expression `json:"target"`
	Name   string     `json:"name"`
}

func NewAttrExpr(target Expression, name string) *AttrExpr {
	return &AttrExpr{nodeImpl: newNodeImpl(NodeAttrExpr), Target: target, Name: name}
}

// CallArg is one argument at a call site. A nil Name means positional; Star
// spreads an iterable into positional arguments and StarStar spreads a dict
// into keyword arguments.
type CallArg struct {
	nodeImpl

	Name     *Identifier `json:"name,omitempty"`
	Value    Expression  `json:"value"`
	Star     bool        `json:"star,omitempty"`
	StarStar bool        `json:"starStar,omitempty"`
}

func NewCallArg(name *Identifier, value Expression, star, starStar bool) *CallArg {
	return &CallArg{nodeImpl: newNodeImpl(NodeCallArg), Name: name, Value: value, Star: star, StarStar: starStar}
}

type CallExpr struct {
	nodeImpl
	expressionMarker

	Callee Expression `json:"callee"`
	Args   []*CallArg `json:"args"`
}

func NewCallExpr(callee Expression, args []*CallArg) *CallExpr {
	return &CallExpr{nodeImpl: newNodeImpl(NodeCallExpr), Callee: callee, Args: args}
}

// BinaryExpr covers arithmetic, comparison, membership, and the
// short-circuit operators "and"/"or".
type BinaryExpr struct {
	nodeImpl
	expressionMarker

	Op    string     `json:"op"`
	Left  Expression `json:"left"`
	Right Expression `json:"right"`
}

func NewBinaryExpr(op string, left, right Expression) *BinaryExpr {
	return &BinaryExpr{nodeImpl: newNodeImpl(NodeBinaryExpr), Op: op, Left: left, Right: right}
}

type UnaryExpr struct {
	nodeImpl
	expressionMarker

	Op      string     `json:"op"`
	Operand Expression `json:"operand"`
}

func NewUnaryExpr(op string, operand Expression) *UnaryExpr {
	return &UnaryExpr{nodeImpl: newNodeImpl(NodeUnaryExpr), Op: op, Operand: operand}
}

// CondExpr is `Then if Cond else Else`.
type CondExpr struct {
	nodeImpl
	expressionMarker

	Cond Expression `json:"cond"`
	Then Expression `json:"then"`
	Else Expression `json:"else"`
}

func NewCondExpr(cond, then, els Expression) *CondExpr {
	return &CondExpr{nodeImpl: newNodeImpl(NodeCondExpr), Cond: cond, Then: then, Else: els}
}

// CompKind distinguishes the container a comprehension builds.
type CompKind string

const (
	CompList CompKind = "list"
	CompDict CompKind = "dict"
	CompSet  CompKind = "set"
)

// ForClause is one `for vars in iterable` clause of a comprehension.
type ForClause struct {
	nodeImpl

	Vars     []*Identifier `json:"vars"`
	Iterable Expression    `json:"iterable"`
}

func NewForClause(vars []*Identifier, iterable Expression) *ForClause {
	return &ForClause{nodeImpl: newNodeImpl(NodeForClause), Vars: vars, Iterable: iterable}
}

// IfClause is one `if cond` filter clause of a comprehension.
type IfClause struct {
	nodeImpl

	Cond Expression `json:"cond"`
}

func NewIfClause(cond Expression) *IfClause {
	return &IfClause{nodeImpl: newNodeImpl(NodeIfClause), Cond: cond}
}

// CompClause is either a *ForClause or an *IfClause.
type CompClause interface {
	Node
	compClauseNode()
}

func (*ForClause) compClauseNode() {}
func (*IfClause) compClauseNode()  {}

// Comprehension builds a list, set, or dict. Body is the element expression
// for list/set comprehensions; Key/Value are set for dict comprehensions.
type Comprehension struct {
	nodeImpl
	expressionMarker

	Kind    CompKind     `json:"kind"`
	Body    Expression   `json:"body,omitempty"`
	Key     Expression   `json:"key,omitempty"`
	Value   Expression   `json:"value,omitempty"`
	Clauses []CompClause `json:"clauses"`
}

func NewComprehension(kind CompKind, body, key, value Expression, clauses []CompClause) *Comprehension {
	return &Comprehension{nodeImpl: newNodeImpl(NodeComprehension), Kind: kind, Body: body, Key: key, Value: value, Clauses: clauses}
}
