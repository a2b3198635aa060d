package runtime

import (
	"fmt"
	"math/big"

	"github.com/aifeelit/starlark/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindTuple
	KindDict
	KindSet
	KindFunction
	KindNativeFunction
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NoneType"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindDict:
		return "dict"
	case KindSet:
		return "set"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "builtin_function"
	case KindHost:
		return "host"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. Operations beyond
// kind dispatch (truth, equality, ordering, hashing, rendering) are
// package-level functions so the evaluator never reflects on concrete types.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NoneValue struct{}

func (NoneValue) Kind() Kind { return KindNone }

type BoolValue struct {
	Val bool
}

func (BoolValue) Kind() Kind { return KindBool }

// IntValue holds an arbitrary-precision integer. The big.Int is never
// mutated after construction, so IntValue is immutable and freely shared.
type IntValue struct {
	Val *big.Int
}

func (IntValue) Kind() Kind { return KindInt }

// Int builds an IntValue from a machine integer.
func Int(v int64) IntValue { return IntValue{Val: big.NewInt(v)} }

// IntFromBig copies v so later mutation of the argument cannot leak in.
func IntFromBig(v *big.Int) IntValue { return IntValue{Val: new(big.Int).Set(v)} }

type FloatValue struct {
	Val float64
}

func (FloatValue) Kind() Kind { return KindFloat }

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }

// BytesValue is immutable: the byte slice is owned by the value and must
// not be written after construction.
type BytesValue struct {
	Val []byte
}

func (BytesValue) Kind() Kind { return KindBytes }

//-----------------------------------------------------------------------------
// Functions
//-----------------------------------------------------------------------------

// FunctionValue is a user-defined function. Defaults are evaluated exactly
// once at def time and shared between calls; Free holds the enclosing cells
// captured by reference, so mutation through the defining frame remains
// visible inside the closure.
type FunctionValue struct {
	Name     string
	Decl     *ast.DefStmt
	Defaults []Value
	Free     []*Cell
	Globals  *ModuleGlobals

	// Resolved is the evaluator's name-resolution record for the body.
	// It is opaque to the runtime and carried verbatim on freeze, so a
	// function exported by one evaluation stays callable in a later one.
	Resolved any

	frozen bool
}

func (*FunctionValue) Kind() Kind { return KindFunction }

// Frozen reports whether the function (its defaults and captured cells) has
// been migrated to a frozen heap.
func (f *FunctionValue) Frozen() bool { return f.frozen }

// NamedValue is one keyword argument at a call site.
type NamedValue struct {
	Name  string
	Value Value
}

// ParamSpec describes one parameter of a callable's signature.
type ParamSpec struct {
	Name     string
	Default  Value // nil when the parameter is required
	Star     bool  // collects surplus positional arguments
	StarStar bool  // collects surplus keyword arguments
}

// Signature is the parameter list a call binds against. The same binding
// rules apply to user functions and natives.
type Signature struct {
	Name   string
	Params []ParamSpec
}

// CallContext carries the resources a native body may need: the mutable
// heap of the running evaluation for allocating result containers.
type CallContext struct {
	Heap *Heap
}

// NativeImpl is the body of a host-provided function. It is invoked with
// arguments already bound against the signature: one slot per parameter, in
// declaration order, with *args bound to a tuple and **kwargs to a dict.
type NativeImpl func(fc *CallContext, args []Value) (Value, error)

// NativeFunctionValue is a host-provided callable. It is immutable and
// treated as already frozen.
type NativeFunctionValue struct {
	Sig  Signature
	Impl NativeImpl
}

func (*NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// NewNativeFunction registers a host function under a fixed signature.
func NewNativeFunction(name string, params []ParamSpec, impl NativeImpl) *NativeFunctionValue {
	return &NativeFunctionValue{Sig: Signature{Name: name, Params: params}, Impl: impl}
}

// FixedParams builds the common all-positional, no-default signature.
func FixedParams(names ...string) []ParamSpec {
	params := make([]ParamSpec, 0, len(names))
	for _, name := range names {
		params = append(params, ParamSpec{Name: name})
	}
	return params
}

//-----------------------------------------------------------------------------
// Host extension surface
//-----------------------------------------------------------------------------

// HostObject is the narrow capability interface a host-defined type
// implements to participate as a runtime value. The evaluator dispatches
// through these interfaces only; it never special-cases concrete host types.
type HostObject interface {
	Value
	TypeName() string
	Truth() bool
	Repr() string
}

// HostHashable marks a host object usable as a dict or set key.
type HostHashable interface {
	HostObject
	Hash() (uint32, error)
}

// HostComparable orders a host object against another value of the same
// host type.
type HostComparable interface {
	HostObject
	CompareSameType(other HostObject) (int, error)
}

// HostCallable makes a host object invocable. Arguments arrive unbound;
// the object applies its own convention.
type HostCallable interface {
	HostObject
	CallHost(fc *CallContext, positional []Value, named []NamedValue) (Value, error)
}

// HostAttrOwner exposes named attributes on a host object.
type HostAttrOwner interface {
	HostObject
	Attr(name string) (Value, error)
	AttrNames() []string
}

// HostIterable lets a host object be the operand of a for loop or
// comprehension clause. Implementations enforce their own mutation guard.
type HostIterable interface {
	HostObject
	Iterate() (Iterator, error)
}

// HostTraceable reports the values a host object holds, so the collector
// can trace through it. Host objects that hold no runtime values may omit
// this.
type HostTraceable interface {
	HostObject
	Trace(visit func(Value))
}

// HostFreezable controls how a host object migrates to a frozen heap.
// Objects without this interface are treated as already immutable and kept
// as-is; an implementation that cannot become immutable returns an
// ErrUnfreezable error, which aborts the whole freeze.
type HostFreezable interface {
	HostObject
	FreezeWith(f *Freezer) (Value, error)
}

//-----------------------------------------------------------------------------
// Shared helpers
//-----------------------------------------------------------------------------

// TypeName renders the user-visible type of a value.
func TypeName(v Value) string {
	if h, ok := v.(HostObject); ok {
		return h.TypeName()
	}
	if v == nil {
		return "<nil>"
	}
	return v.Kind().String()
}

// Truth reports the truthiness of a value: None, False, numeric zero, and
// empty strings/bytes/containers are false; everything else is true.
func Truth(v Value) bool {
	switch val := v.(type) {
	case NoneValue:
		return false
	case BoolValue:
		return val.Val
	case IntValue:
		return val.Val.Sign() != 0
	case FloatValue:
		return val.Val != 0
	case StringValue:
		return len(val.Val) > 0
	case BytesValue:
		return len(val.Val) > 0
	case *ListValue:
		return val.Len() > 0
	case TupleValue:
		return len(val.Elems) > 0
	case *DictValue:
		return val.Len() > 0
	case *SetValue:
		return val.Len() > 0
	case HostObject:
		return val.Truth()
	default:
		return true
	}
}

// Len returns the length of a sized value, or -1 when the value has no
// length.
func Len(v Value) int {
	switch val := v.(type) {
	case StringValue:
		return len(val.Val)
	case BytesValue:
		return len(val.Val)
	case *ListValue:
		return val.Len()
	case TupleValue:
		return len(val.Elems)
	case *DictValue:
		return val.Len()
	case *SetValue:
		return val.Len()
	default:
		return -1
	}
}
