package ast

import (
	"fmt"
	"math/big"

	"github.com/oarkflow/json"
)

// DecodeModule parses the JSON encoding of a module produced by the external
// parser. The encoding is the natural one: every node is an object with a
// "type" discriminator, an optional "span", and the node's fields.
func DecodeModule(data []byte) (*Module, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	mod, ok := node.(*Module)
	if !ok {
		return nil, fmt.Errorf("decode module: root node is %s, want Module", node.NodeType())
	}
	return mod, nil
}

func decodeNode(node map[string]any) (Node, error) {
	typ, _ := node["type"].(string)
	decoded, err := decodeNodeByType(typ, node)
	if err != nil {
		return nil, err
	}
	if spanRaw, ok := node["span"].(map[string]any); ok {
		setSpan(decoded, decodeSpan(spanRaw))
	}
	return decoded, nil
}

func decodeNodeByType(typ string, node map[string]any) (Node, error) {
	switch NodeType(typ) {
	case NodeModule:
		name, _ := node["name"].(string)
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return NewModule(name, body), nil
	case NodeAssignStmt:
		target, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return NewAssignStmt(target, value), nil
	case NodeAugAssignStmt:
		target, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		op, _ := node["op"].(string)
		return NewAugAssignStmt(target, op, value), nil
	case NodeIfStmt:
		cond, err := decodeExpression(node["cond"])
		if err != nil {
			return nil, err
		}
		then, err := decodeStatements(node["then"])
		if err != nil {
			return nil, err
		}
		els, err := decodeStatements(node["else"])
		if err != nil {
			return nil, err
		}
		return NewIfStmt(cond, then, els), nil
	case NodeForStmt:
		vars, err := decodeIdentifiers(node["vars"])
		if err != nil {
			return nil, err
		}
		iterable, err := decodeExpression(node["iterable"])
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return NewForStmt(vars, iterable, body), nil
	case NodeDefStmt:
		name, err := decodeIdentifier(node["name"])
		if err != nil {
			return nil, err
		}
		paramsRaw, _ := node["params"].([]any)
		params := make([]*Param, 0, len(paramsRaw))
		for _, raw := range paramsRaw {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid param entry %T", raw)
			}
			decoded, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			param, ok := decoded.(*Param)
			if !ok {
				return nil, fmt.Errorf("def params hold %s, want Param", decoded.NodeType())
			}
			params = append(params, param)
		}
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return NewDefStmt(name, params, body), nil
	case NodeParam:
		name, err := decodeIdentifier(node["name"])
		if err != nil {
			return nil, err
		}
		var def Expression
		if node["default"] != nil {
			def, err = decodeExpression(node["default"])
			if err != nil {
				return nil, err
			}
		}
		star, _ := node["star"].(bool)
		starStar, _ := node["starStar"].(bool)
		return NewParam(name, def, star, starStar), nil
	case NodeReturnStmt:
		var value Expression
		if node["value"] != nil {
			decoded, err := decodeExpression(node["value"])
			if err != nil {
				return nil, err
			}
			value = decoded
		}
		return NewReturnStmt(value), nil
	case NodeBreakStmt:
		return NewBreakStmt(), nil
	case NodeContinueStmt:
		return NewContinueStmt(), nil
	case NodePassStmt:
		return NewPassStmt(), nil
	case NodeLoadStmt:
		module, _ := node["module"].(string)
		bindingsRaw, _ := node["bindings"].([]any)
		bindings := make([]*LoadBinding, 0, len(bindingsRaw))
		for _, raw := range bindingsRaw {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid load binding %T", raw)
			}
			local, err := decodeIdentifier(child["local"])
			if err != nil {
				return nil, err
			}
			remote, _ := child["remote"].(string)
			binding := NewLoadBinding(local, remote)
			if spanRaw, ok := child["span"].(map[string]any); ok {
				setSpan(binding, decodeSpan(spanRaw))
			}
			bindings = append(bindings, binding)
		}
		return NewLoadStmt(module, bindings), nil
	case NodeIdentifier:
		name, _ := node["name"].(string)
		return NewIdentifier(name), nil
	case NodeNoneLiteral:
		return NewNoneLiteral(), nil
	case NodeBoolLiteral:
		value, _ := node["value"].(bool)
		return NewBoolLiteral(value), nil
	case NodeIntLiteral:
		return decodeIntLiteral(node["value"])
	case NodeFloatLiteral:
		value, ok := node["value"].(float64)
		if !ok {
			return nil, fmt.Errorf("invalid float literal value %T", node["value"])
		}
		return NewFloatLiteral(value), nil
	case NodeStringLiteral:
		value, _ := node["value"].(string)
		return NewStringLiteral(value), nil
	case NodeBytesLiteral:
		value, _ := node["value"].(string)
		return NewBytesLiteral([]byte(value)), nil
	case NodeListExpr:
		elements, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return NewListExpr(elements), nil
	case NodeTupleExpr:
		elements, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return NewTupleExpr(elements), nil
	case NodeSetExpr:
		elements, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return NewSetExpr(elements), nil
	case NodeDictExpr:
		entriesRaw, _ := node["entries"].([]any)
		entries := make([]*DictEntry, 0, len(entriesRaw))
		for _, raw := range entriesRaw {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid dict entry %T", raw)
			}
			key, err := decodeExpression(child["key"])
			if err != nil {
				return nil, err
			}
			value, err := decodeExpression(child["value"])
			if err != nil {
				return nil, err
			}
			entries = append(entries, NewDictEntry(key, value))
		}
		return NewDictExpr(entries), nil
	case NodeIndexExpr:
		target, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		index, err := decodeExpression(node["index"])
		if err != nil {
			return nil, err
		}
		return NewIndexExpr(target, index), nil
	case NodeAttrExpr:
		target, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		name, _ := node["name"].(string)
		return NewAttrExpr(target, name), nil
	case NodeCallExpr:
		callee, err := decodeExpression(node["callee"])
		if err != nil {
			return nil, err
		}
		argsRaw, _ := node["args"].([]any)
		args := make([]*CallArg, 0, len(argsRaw))
		for _, raw := range argsRaw {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid call argument %T", raw)
			}
			var name *Identifier
			if child["name"] != nil {
				name, err = decodeIdentifier(child["name"])
				if err != nil {
					return nil, err
				}
			}
			value, err := decodeExpression(child["value"])
			if err != nil {
				return nil, err
			}
			star, _ := child["star"].(bool)
			starStar, _ := child["starStar"].(bool)
			args = append(args, NewCallArg(name, value, star, starStar))
		}
		return NewCallExpr(callee, args), nil
	case NodeBinaryExpr:
		left, err := decodeExpression(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(node["right"])
		if err != nil {
			return nil, err
		}
		op, _ := node["op"].(string)
		return NewBinaryExpr(op, left, right), nil
	case NodeUnaryExpr:
		operand, err := decodeExpression(node["operand"])
		if err != nil {
			return nil, err
		}
		op, _ := node["op"].(string)
		return NewUnaryExpr(op, operand), nil
	case NodeCondExpr:
		cond, err := decodeExpression(node["cond"])
		if err != nil {
			return nil, err
		}
		then, err := decodeExpression(node["then"])
		if err != nil {
			return nil, err
		}
		els, err := decodeExpression(node["else"])
		if err != nil {
			return nil, err
		}
		return NewCondExpr(cond, then, els), nil
	case NodeComprehension:
		kind, _ := node["kind"].(string)
		var body, key, value Expression
		var err error
		if node["body"] != nil {
			body, err = decodeExpression(node["body"])
			if err != nil {
				return nil, err
			}
		}
		if node["key"] != nil {
			key, err = decodeExpression(node["key"])
			if err != nil {
				return nil, err
			}
		}
		if node["value"] != nil {
			value, err = decodeExpression(node["value"])
			if err != nil {
				return nil, err
			}
		}
		clausesRaw, _ := node["clauses"].([]any)
		clauses := make([]CompClause, 0, len(clausesRaw))
		for _, raw := range clausesRaw {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid comprehension clause %T", raw)
			}
			decoded, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			clause, ok := decoded.(CompClause)
			if !ok {
				return nil, fmt.Errorf("comprehension clause is %s", decoded.NodeType())
			}
			clauses = append(clauses, clause)
		}
		return NewComprehension(CompKind(kind), body, key, value, clauses), nil
	case NodeForClause:
		vars, err := decodeIdentifiers(node["vars"])
		if err != nil {
			return nil, err
		}
		iterable, err := decodeExpression(node["iterable"])
		if err != nil {
			return nil, err
		}
		return NewForClause(vars, iterable), nil
	case NodeIfClause:
		cond, err := decodeExpression(node["cond"])
		if err != nil {
			return nil, err
		}
		return NewIfClause(cond), nil
	default:
		return nil, fmt.Errorf("unknown node type %q", typ)
	}
}

// Integer literals may arrive as JSON numbers or, when they exceed float64
// precision, as decimal strings.
func decodeIntLiteral(raw any) (*IntLiteral, error) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("integer literal %v is not integral", v)
		}
		return NewIntLiteral(big.NewInt(int64(v))), nil
	case string:
		value, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer literal %q", v)
		}
		return NewIntLiteral(value), nil
	default:
		return nil, fmt.Errorf("invalid integer literal value %T", raw)
	}
}

func decodeExpression(raw any) (Expression, error) {
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid expression node %T", raw)
	}
	node, err := decodeNode(child)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(Expression)
	if !ok {
		return nil, fmt.Errorf("node %s is not an expression", node.NodeType())
	}
	return expr, nil
}

func decodeExpressions(raw any) ([]Expression, error) {
	items, _ := raw.([]any)
	out := make([]Expression, 0, len(items))
	for _, item := range items {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func decodeStatements(raw any) ([]Statement, error) {
	items, _ := raw.([]any)
	out := make([]Statement, 0, len(items))
	for _, item := range items {
		child, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid statement node %T", item)
		}
		node, err := decodeNode(child)
		if err != nil {
			return nil, err
		}
		stmt, ok := node.(Statement)
		if !ok {
			return nil, fmt.Errorf("node %s is not a statement", node.NodeType())
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeIdentifier(raw any) (*Identifier, error) {
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid identifier node %T", raw)
	}
	node, err := decodeNode(child)
	if err != nil {
		return nil, err
	}
	id, ok := node.(*Identifier)
	if !ok {
		return nil, fmt.Errorf("node %s is not an identifier", node.NodeType())
	}
	return id, nil
}

func decodeIdentifiers(raw any) ([]*Identifier, error) {
	items, _ := raw.([]any)
	out := make([]*Identifier, 0, len(items))
	for _, item := range items {
		id, err := decodeIdentifier(item)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func decodeSpan(raw map[string]any) Span {
	return Span{
		Start: decodePos(raw["start"]),
		End:   decodePos(raw["end"]),
	}
}

func decodePos(raw any) Pos {
	child, ok := raw.(map[string]any)
	if !ok {
		return Pos{}
	}
	line, _ := child["line"].(float64)
	col, _ := child["col"].(float64)
	return Pos{Line: int(line), Col: int(col)}
}
