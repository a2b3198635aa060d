package ast

import (
	"math/big"
	"testing"
)

func TestDecodeModule(t *testing.T) {
	data := []byte(`{
		"type": "Module",
		"name": "demo",
		"body": [
			{
				"type": "AssignStmt",
				"span": {"start": {"line": 1, "col": 1}, "end": {"line": 1, "col": 6}},
				"target": {"type": "Identifier", "name": "x"},
				"value": {"type": "IntLiteral", "value": 42}
			},
			{
				"type": "DefStmt",
				"name": {"type": "Identifier", "name": "f"},
				"params": [
					{"type": "Param", "name": {"type": "Identifier", "name": "a"}},
					{"type": "Param", "name": {"type": "Identifier", "name": "rest"}, "star": true}
				],
				"body": [
					{
						"type": "ReturnStmt",
						"value": {
							"type": "BinaryExpr",
							"op": "+",
							"left": {"type": "Identifier", "name": "a"},
							"right": {"type": "FloatLiteral", "value": 1.5}
						}
					}
				]
			}
		]
	}`)

	mod, err := DecodeModule(data)
	if err != nil {
		t.Fatal(err)
	}
	if mod.Name != "demo" {
		t.Errorf("name = %q", mod.Name)
	}
	if len(mod.Body) != 2 {
		t.Fatalf("body has %d statements", len(mod.Body))
	}

	assign, ok := mod.Body[0].(*AssignStmt)
	if !ok {
		t.Fatalf("body[0] is %T", mod.Body[0])
	}
	if got := assign.Span(); got.Start.Line != 1 || got.End.Col != 6 {
		t.Errorf("span = %+v", got)
	}
	if assign.Target.(*Identifier).Name != "x" {
		t.Errorf("target = %s", assign.Target.(*Identifier).Name)
	}
	if assign.Value.(*IntLiteral).Value.Int64() != 42 {
		t.Errorf("value = %s", assign.Value.(*IntLiteral).Value)
	}

	def, ok := mod.Body[1].(*DefStmt)
	if !ok {
		t.Fatalf("body[1] is %T", mod.Body[1])
	}
	if len(def.Params) != 2 || !def.Params[1].Star {
		t.Errorf("params = %+v", def.Params)
	}
	ret := def.Body[0].(*ReturnStmt)
	bin := ret.Value.(*BinaryExpr)
	if bin.Op != "+" || bin.Right.(*FloatLiteral).Value != 1.5 {
		t.Errorf("return expression = %+v", bin)
	}
}

func TestDecodeBigIntLiteral(t *testing.T) {
	data := []byte(`{
		"type": "Module",
		"body": [
			{
				"type": "AssignStmt",
				"target": {"type": "Identifier", "name": "big"},
				"value": {"type": "IntLiteral", "value": "123456789012345678901234567890"}
			}
		]
	}`)
	mod, err := DecodeModule(data)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	got := mod.Body[0].(*AssignStmt).Value.(*IntLiteral).Value
	if got.Cmp(want) != 0 {
		t.Errorf("value = %s, want %s", got, want)
	}
}

func TestDecodeComprehension(t *testing.T) {
	data := []byte(`{
		"type": "Module",
		"body": [
			{
				"type": "AssignStmt",
				"target": {"type": "Identifier", "name": "xs"},
				"value": {
					"type": "Comprehension",
					"kind": "list",
					"body": {"type": "Identifier", "name": "i"},
					"clauses": [
						{
							"type": "ForClause",
							"vars": [{"type": "Identifier", "name": "i"}],
							"iterable": {"type": "ListExpr", "elements": [{"type": "IntLiteral", "value": 1}]}
						},
						{
							"type": "IfClause",
							"cond": {"type": "BoolLiteral", "value": true}
						}
					]
				}
			}
		]
	}`)
	mod, err := DecodeModule(data)
	if err != nil {
		t.Fatal(err)
	}
	comp := mod.Body[0].(*AssignStmt).Value.(*Comprehension)
	if comp.Kind != CompList {
		t.Errorf("kind = %s", comp.Kind)
	}
	if len(comp.Clauses) != 2 {
		t.Fatalf("clauses = %d", len(comp.Clauses))
	}
	if _, ok := comp.Clauses[0].(*ForClause); !ok {
		t.Errorf("clause 0 is %T", comp.Clauses[0])
	}
	if _, ok := comp.Clauses[1].(*IfClause); !ok {
		t.Errorf("clause 1 is %T", comp.Clauses[1])
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	if _, err := DecodeModule([]byte(`{"type": "Nonsense"}`)); err == nil {
		t.Error("unknown node type accepted")
	}
	if _, err := DecodeModule([]byte(`{"type": "Identifier", "name": "x"}`)); err == nil {
		t.Error("non-module root accepted")
	}
}
