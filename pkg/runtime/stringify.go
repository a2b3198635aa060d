package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Repr renders a value the way source code would spell it. Cyclic
// structures render the inner occurrence as "...".
func Repr(v Value) string {
	var b strings.Builder
	writeRepr(&b, v, make(map[Value]bool))
	return b.String()
}

// Str renders a value for display: strings appear without quotes, all
// other values render as Repr.
func Str(v Value) string {
	switch val := v.(type) {
	case StringValue:
		return val.Val
	case HostObject:
		return val.Repr()
	default:
		return Repr(v)
	}
}

func writeRepr(b *strings.Builder, v Value, seen map[Value]bool) {
	switch val := v.(type) {
	case NoneValue:
		b.WriteString("None")
	case BoolValue:
		if val.Val {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case IntValue:
		b.WriteString(val.Val.String())
	case FloatValue:
		b.WriteString(formatFloat(val.Val))
	case StringValue:
		b.WriteString(strconv.Quote(val.Val))
	case BytesValue:
		b.WriteString("b")
		b.WriteString(strconv.Quote(string(val.Val)))
	case *ListValue:
		if seen[v] {
			b.WriteString("[...]")
			return
		}
		seen[v] = true
		b.WriteString("[")
		for i, el := range val.Elems() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, el, seen)
		}
		b.WriteString("]")
		delete(seen, v)
	case TupleValue:
		b.WriteString("(")
		for i, el := range val.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, el, seen)
		}
		if len(val.Elems) == 1 {
			b.WriteString(",")
		}
		b.WriteString(")")
	case *DictValue:
		if seen[v] {
			b.WriteString("{...}")
			return
		}
		seen[v] = true
		b.WriteString("{")
		first := true
		val.Items(func(key, value Value) {
			if !first {
				b.WriteString(", ")
			}
			first = false
			writeRepr(b, key, seen)
			b.WriteString(": ")
			writeRepr(b, value, seen)
		})
		b.WriteString("}")
		delete(seen, v)
	case *SetValue:
		if seen[v] {
			b.WriteString("set(...)")
			return
		}
		seen[v] = true
		b.WriteString("set([")
		for i, el := range val.Elems() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, el, seen)
		}
		b.WriteString("])")
		delete(seen, v)
	case *FunctionValue:
		fmt.Fprintf(b, "<function %s>", val.Name)
	case *NativeFunctionValue:
		fmt.Fprintf(b, "<built-in function %s>", val.Sig.Name)
	case HostObject:
		b.WriteString(val.Repr())
	default:
		fmt.Fprintf(b, "<%s>", TypeName(v))
	}
}

// formatFloat always renders a distinguishing mark so that a float never
// reads back as an int literal.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eENI") {
		s += ".0"
	}
	return s
}
