package interp_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/interp"
	"github.com/aifeelit/starlark/pkg/runtime"
)

func evalModule(t *testing.T, mod *ast.Module) *runtime.FrozenModule {
	t.Helper()
	return evalModuleOpts(t, mod, interp.Options{})
}

func evalModuleOpts(t *testing.T, mod *ast.Module, opts interp.Options) *runtime.FrozenModule {
	t.Helper()
	frozen, err := interp.Evaluate(context.Background(), mod, nil, interp.Universe(), opts)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return frozen
}

func evalErrKind(t *testing.T, mod *ast.Module, opts interp.Options) runtime.ErrorKind {
	t.Helper()
	_, err := interp.Evaluate(context.Background(), mod, nil, interp.Universe(), opts)
	if err == nil {
		t.Fatal("expected evaluation error")
	}
	var ee *interp.EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *interp.EvalError, got %T: %v", err, err)
	}
	return ee.Kind
}

func getExport(t *testing.T, mod *runtime.FrozenModule, name string) runtime.Value {
	t.Helper()
	v, ok := mod.Get(name)
	if !ok {
		t.Fatalf("export %q missing", name)
	}
	return v
}

func getInt(t *testing.T, mod *runtime.FrozenModule, name string) int64 {
	t.Helper()
	v := getExport(t, mod, name)
	iv, ok := v.(runtime.IntValue)
	if !ok {
		t.Fatalf("export %q is %s, want int", name, runtime.TypeName(v))
	}
	if !iv.Val.IsInt64() {
		t.Fatalf("export %q does not fit int64: %s", name, iv.Val)
	}
	return iv.Val.Int64()
}

func getFloat(t *testing.T, mod *runtime.FrozenModule, name string) float64 {
	t.Helper()
	v := getExport(t, mod, name)
	fv, ok := v.(runtime.FloatValue)
	if !ok {
		t.Fatalf("export %q is %s, want float", name, runtime.TypeName(v))
	}
	return fv.Val
}

func getList(t *testing.T, mod *runtime.FrozenModule, name string) []runtime.Value {
	t.Helper()
	v := getExport(t, mod, name)
	lv, ok := v.(*runtime.ListValue)
	if !ok {
		t.Fatalf("export %q is %s, want list", name, runtime.TypeName(v))
	}
	return lv.Elems()
}

func TestFloorDivisionRoundsDown(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("a"), ast.Bin("//", ast.Int(7), ast.Int(-2))),
		ast.Assign(ast.ID("b"), ast.Bin("//", ast.Int(-7), ast.Int(2))),
		ast.Assign(ast.ID("c"), ast.Bin("//", ast.Int(7), ast.Int(2))),
		ast.Assign(ast.ID("m"), ast.Bin("%", ast.Int(7), ast.Int(-2))),
		ast.Assign(ast.ID("n"), ast.Bin("%", ast.Int(-7), ast.Int(2))),
	)
	frozen := evalModule(t, mod)
	for name, want := range map[string]int64{"a": -4, "b": -4, "c": 3, "m": -1, "n": 1} {
		if got := getInt(t, frozen, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestTrueDivisionProducesFloat(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("q"), ast.Bin("/", ast.Int(7), ast.Int(2))),
	)
	frozen := evalModule(t, mod)
	if got := getFloat(t, frozen, "q"); got != 3.5 {
		t.Errorf("q = %v, want 3.5", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	cases := []struct {
		name string
		expr ast.Expression
	}{
		{"int true div", ast.Bin("/", ast.Int(1), ast.Int(0))},
		{"int floor div", ast.Bin("//", ast.Int(1), ast.Int(0))},
		{"int modulo", ast.Bin("%", ast.Int(1), ast.Int(0))},
		{"float div", ast.Bin("/", ast.Flt(1), ast.Flt(0))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mod := ast.Mod(ast.Assign(ast.ID("x"), tc.expr))
			if kind := evalErrKind(t, mod, interp.Options{}); kind != runtime.ErrDivisionByZero {
				t.Errorf("kind = %v, want division by zero", kind)
			}
		})
	}
}

func TestIntFloatPromotion(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("x"), ast.Bin("+", ast.Int(1), ast.Flt(0.5))),
		ast.Assign(ast.ID("eq"), ast.Cond(ast.Bin("==", ast.Int(1), ast.Flt(1.0)), ast.Int(1), ast.Int(0))),
	)
	frozen := evalModule(t, mod)
	if got := getFloat(t, frozen, "x"); got != 1.5 {
		t.Errorf("x = %v, want 1.5", got)
	}
	if got := getInt(t, frozen, "eq"); got != 1 {
		t.Errorf("1 == 1.0 evaluated false")
	}
}

func TestArgumentBinding(t *testing.T) {
	def := ast.Def("f",
		ast.Params(ast.P("a"), ast.PDefault("b", ast.Int(1)), ast.PArgs("args"), ast.PKwargs("kwargs")),
		ast.Ret(ast.ListE(ast.ID("a"), ast.ID("b"),
			ast.Call(ast.ID("len"), ast.Arg(ast.ID("args"))),
			ast.Call(ast.ID("len"), ast.Arg(ast.ID("kwargs"))))),
	)
	mod := ast.Mod(
		def,
		ast.Assign(ast.ID("r1"), ast.Call(ast.ID("f"), ast.Arg(ast.Int(1)))),
		ast.Assign(ast.ID("r2"), ast.Call(ast.ID("f"), ast.Arg(ast.Int(1)), ast.Arg(ast.Int(2)), ast.Arg(ast.Int(3)), ast.Arg(ast.Int(4)))),
		ast.Assign(ast.ID("r3"), ast.Call(ast.ID("f"), ast.Arg(ast.Int(1)), ast.KwArg("b", ast.Int(5)), ast.KwArg("c", ast.Int(6)))),
		ast.Assign(ast.ID("r4"), ast.Call(ast.ID("f"),
			ast.StarArg(ast.ListE(ast.Int(7), ast.Int(8))),
			ast.StarStarArg(ast.DictE(ast.Entry(ast.Str("z"), ast.Int(9)))))),
	)
	frozen := evalModule(t, mod)
	want := map[string][]int64{
		"r1": {1, 1, 0, 0},
		"r2": {1, 2, 2, 0},
		"r3": {1, 5, 0, 1},
		"r4": {7, 8, 0, 1},
	}
	for name, expect := range want {
		elems := getList(t, frozen, name)
		if len(elems) != len(expect) {
			t.Fatalf("%s has %d elements, want %d", name, len(elems), len(expect))
		}
		for i, w := range expect {
			iv := elems[i].(runtime.IntValue)
			if iv.Val.Int64() != w {
				t.Errorf("%s[%d] = %s, want %d", name, i, iv.Val, w)
			}
		}
	}
}

func TestArgumentBindingErrors(t *testing.T) {
	def := ast.Def("f", ast.Params(ast.P("a"), ast.PDefault("b", ast.Int(1))), ast.Ret(ast.ID("a")))
	cases := []struct {
		name string
		call *ast.CallExpr
	}{
		{"missing required", ast.Call(ast.ID("f"))},
		{"unexpected keyword", ast.Call(ast.ID("f"), ast.Arg(ast.Int(1)), ast.KwArg("c", ast.Int(2)))},
		{"duplicate binding", ast.Call(ast.ID("f"), ast.Arg(ast.Int(1)), ast.KwArg("a", ast.Int(2)))},
		{"too many positional", ast.Call(ast.ID("f"), ast.Arg(ast.Int(1)), ast.Arg(ast.Int(2)), ast.Arg(ast.Int(3)))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mod := ast.Mod(def, ast.Assign(ast.ID("x"), tc.call))
			if kind := evalErrKind(t, mod, interp.Options{}); kind != runtime.ErrArgumentBinding {
				t.Errorf("kind = %v, want argument binding", kind)
			}
		})
	}
}

func TestDefaultValueSharedBetweenCalls(t *testing.T) {
	mod := ast.Mod(
		ast.Def("f", ast.Params(ast.PDefault("x", ast.ListE())),
			ast.Call(ast.Attr(ast.ID("x"), "append"), ast.Arg(ast.Int(1))),
			ast.Ret(ast.ID("x")),
		),
		ast.Assign(ast.ID("n1"), ast.Call(ast.ID("len"), ast.Arg(ast.Call(ast.ID("f"))))),
		ast.Assign(ast.ID("n2"), ast.Call(ast.ID("len"), ast.Arg(ast.Call(ast.ID("f"))))),
	)
	frozen := evalModule(t, mod)
	if got := getInt(t, frozen, "n1"); got != 1 {
		t.Errorf("first call saw %d elements, want 1", got)
	}
	if got := getInt(t, frozen, "n2"); got != 2 {
		t.Errorf("second call saw %d elements, want 2", got)
	}
}

func TestClosureCapturesByReference(t *testing.T) {
	mod := ast.Mod(
		ast.Def("outer", ast.Params(),
			ast.Assign(ast.ID("s"), ast.ListE()),
			ast.Def("inner", ast.Params(),
				ast.Call(ast.Attr(ast.ID("s"), "append"), ast.Arg(ast.Int(1))),
			),
			ast.Call(ast.ID("inner")),
			ast.Call(ast.ID("inner")),
			ast.Ret(ast.Call(ast.ID("len"), ast.Arg(ast.ID("s")))),
		),
		ast.Assign(ast.ID("n"), ast.Call(ast.ID("outer"))),
	)
	frozen := evalModule(t, mod)
	if got := getInt(t, frozen, "n"); got != 2 {
		t.Errorf("n = %d, want 2", got)
	}
}

func TestCallDepthBound(t *testing.T) {
	mod := ast.Mod(
		ast.Def("f", ast.Params(), ast.Ret(ast.Call(ast.ID("f")))),
		ast.Assign(ast.ID("x"), ast.Call(ast.ID("f"))),
	)
	if kind := evalErrKind(t, mod, interp.Options{MaxCallDepth: 25}); kind != runtime.ErrCallDepth {
		t.Errorf("kind = %v, want call depth", kind)
	}
}

func TestMutationDuringIteration(t *testing.T) {
	grow := ast.Mod(
		ast.Assign(ast.ID("l"), ast.ListE(ast.Int(1), ast.Int(2))),
		ast.ForS(ast.ID("l"), ast.Then(
			ast.Call(ast.Attr(ast.ID("l"), "append"), ast.Arg(ast.Int(3))),
		), ast.ID("x")),
	)
	if kind := evalErrKind(t, grow, interp.Options{}); kind != runtime.ErrMutationDuringIteration {
		t.Errorf("kind = %v, want mutation during iteration", kind)
	}

	// replacing an element keeps the structure intact and is allowed
	replace := ast.Mod(
		ast.Assign(ast.ID("l"), ast.ListE(ast.Int(1), ast.Int(2))),
		ast.ForS(ast.ID("l"), ast.Then(
			ast.Assign(ast.Index(ast.ID("l"), ast.Int(0)), ast.Int(99)),
		), ast.ID("x")),
		ast.Assign(ast.ID("first"), ast.Index(ast.ID("l"), ast.Int(0))),
	)
	frozen := evalModule(t, replace)
	if got := getInt(t, frozen, "first"); got != 99 {
		t.Errorf("l[0] = %d, want 99", got)
	}
}

func TestIteratorReleasedAfterLoop(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("l"), ast.ListE(ast.Int(1), ast.Int(2))),
		ast.ForS(ast.ID("l"), ast.Then(ast.Brk()), ast.ID("x")),
		ast.Call(ast.Attr(ast.ID("l"), "append"), ast.Arg(ast.Int(3))),
		ast.Assign(ast.ID("n"), ast.Call(ast.ID("len"), ast.Arg(ast.ID("l")))),
	)
	frozen := evalModule(t, mod)
	if got := getInt(t, frozen, "n"); got != 3 {
		t.Errorf("append after break failed, len = %d", got)
	}
}

func TestComprehensions(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("x"), ast.Int(100)),
		ast.Assign(ast.ID("squares"), ast.ListComp(
			ast.Bin("*", ast.ID("x"), ast.ID("x")),
			ast.ForC(ast.Call(ast.ID("range"), ast.Arg(ast.Int(5))), ast.ID("x")),
			ast.IfC(ast.Bin(">", ast.ID("x"), ast.Int(1))),
		)),
		// x is back to the outer binding after the comprehension
		ast.Assign(ast.ID("after"), ast.ID("x")),
		ast.Assign(ast.ID("pairs"), ast.DictComp(
			ast.ID("k"), ast.Bin("*", ast.ID("k"), ast.Int(2)),
			ast.ForC(ast.ListE(ast.Int(1), ast.Int(2)), ast.ID("k")),
		)),
	)
	frozen := evalModule(t, mod)
	squares := getList(t, frozen, "squares")
	want := []int64{4, 9, 16}
	if len(squares) != len(want) {
		t.Fatalf("squares has %d elements, want %d", len(squares), len(want))
	}
	for i, w := range want {
		if got := squares[i].(runtime.IntValue).Val.Int64(); got != w {
			t.Errorf("squares[%d] = %d, want %d", i, got, w)
		}
	}
	if got := getInt(t, frozen, "after"); got != 100 {
		t.Errorf("comprehension variable leaked, x = %d", got)
	}
	pairs := getExport(t, frozen, "pairs").(*runtime.DictValue)
	v, found, err := pairs.Get(runtime.Int(2))
	if err != nil || !found {
		t.Fatalf("pairs[2] missing: %v", err)
	}
	if got := v.(runtime.IntValue).Val.Int64(); got != 4 {
		t.Errorf("pairs[2] = %d, want 4", got)
	}
}

func TestLoadAndExportFiltering(t *testing.T) {
	lib := ast.NamedMod("lib",
		ast.Assign(ast.ID("pi"), ast.Flt(3.0)),
		ast.Assign(ast.ID("_secret"), ast.Int(42)),
	)
	frozenLib := evalModule(t, lib)
	if _, ok := frozenLib.Get("_secret"); ok {
		t.Error("underscore name was exported")
	}
	if _, ok := frozenLib.Get("pi"); !ok {
		t.Fatal("pi missing from lib exports")
	}

	mainMod := ast.NamedMod("main",
		ast.Load("lib.star", ast.LoadAs("pi", "pi")),
		ast.Assign(ast.ID("tau"), ast.Bin("*", ast.ID("pi"), ast.Flt(2.0))),
	)
	frozenMain := evalModuleOpts(t, mainMod, interp.Options{
		Modules: map[string]*runtime.FrozenModule{"lib.star": frozenLib},
	})
	if got := getFloat(t, frozenMain, "tau"); got != 6.0 {
		t.Errorf("tau = %v, want 6.0", got)
	}
	if _, ok := frozenMain.Get("pi"); ok {
		t.Error("loaded name was re-exported")
	}
}

func TestLoadedFunctionsAreCallable(t *testing.T) {
	lib := ast.NamedMod("lib",
		ast.Assign(ast.ID("scale"), ast.Int(10)),
		ast.Def("double", ast.Params(ast.P("x")),
			ast.Ret(ast.Bin("*", ast.ID("x"), ast.Int(2)))),
		ast.Def("scaled", ast.Params(ast.P("x")),
			ast.Ret(ast.Bin("*", ast.ID("x"), ast.ID("scale")))),
		ast.Def("make_adder", ast.Params(ast.P("n")),
			ast.Def("add", ast.Params(ast.P("x")),
				ast.Ret(ast.Bin("+", ast.ID("x"), ast.ID("n")))),
			ast.Ret(ast.ID("add"))),
		ast.Assign(ast.ID("add_five"), ast.Call(ast.ID("make_adder"), ast.Arg(ast.Int(5)))),
	)
	frozenLib := evalModule(t, lib)

	mainMod := ast.NamedMod("main",
		ast.Load("lib.star",
			ast.LoadAs("double", "double"),
			ast.LoadAs("scaled", "scaled"),
			ast.LoadAs("add_five", "add_five"),
		),
		ast.Assign(ast.ID("y"), ast.Call(ast.ID("double"), ast.Arg(ast.Int(21)))),
		ast.Assign(ast.ID("z"), ast.Call(ast.ID("scaled"), ast.Arg(ast.Int(3)))),
		ast.Assign(ast.ID("w"), ast.Call(ast.ID("add_five"), ast.Arg(ast.Int(2)))),
	)
	frozenMain := evalModuleOpts(t, mainMod, interp.Options{
		Modules: map[string]*runtime.FrozenModule{"lib.star": frozenLib},
	})
	if got := getInt(t, frozenMain, "y"); got != 42 {
		t.Errorf("y = %d, want 42", got)
	}
	// scaled reads a global of its defining module, not of the caller's.
	if got := getInt(t, frozenMain, "z"); got != 30 {
		t.Errorf("z = %d, want 30", got)
	}
	// add_five carries a frozen captured cell across evaluations.
	if got := getInt(t, frozenMain, "w"); got != 7 {
		t.Errorf("w = %d, want 7", got)
	}
}

func TestLoadMissingSymbol(t *testing.T) {
	lib := evalModule(t, ast.NamedMod("lib", ast.Assign(ast.ID("x"), ast.Int(1))))
	mod := ast.Mod(ast.Load("lib.star", ast.LoadAs("y", "y")))
	opts := interp.Options{Modules: map[string]*runtime.FrozenModule{"lib.star": lib}}
	if kind := evalErrKind(t, mod, opts); kind != runtime.ErrUnboundName {
		t.Errorf("kind = %v, want unbound name", kind)
	}
}

func TestUnboundNameDetectedBeforeExecution(t *testing.T) {
	probe := &sideEffectProbe{}
	mod := ast.Mod(
		ast.Assign(ast.ID("a"), ast.Call(ast.ID("probe"))),
		ast.Assign(ast.ID("b"), ast.ID("no_such_name")),
	)
	builtins := interp.Universe()
	builtins["probe"] = runtime.NewNativeFunction("probe", nil, func(fc *runtime.CallContext, args []runtime.Value) (runtime.Value, error) {
		probe.called = true
		return nil, nil
	})
	_, err := interp.Evaluate(context.Background(), mod, nil, builtins, interp.Options{})
	var ee *interp.EvalError
	if !errors.As(err, &ee) || ee.Kind != runtime.ErrUnboundName {
		t.Fatalf("err = %v, want unbound name", err)
	}
	if probe.called {
		t.Error("statements ran before resolution finished")
	}
}

type sideEffectProbe struct{ called bool }

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mod := ast.Mod(ast.Assign(ast.ID("x"), ast.Int(1)))
	_, err := interp.Evaluate(ctx, mod, nil, interp.Universe(), interp.Options{})
	var ee *interp.EvalError
	if !errors.As(err, &ee) || ee.Kind != runtime.ErrInterrupted {
		t.Fatalf("err = %v, want interrupted", err)
	}
}

func TestStepBudget(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("n"), ast.Int(0)),
		ast.ForS(ast.Call(ast.ID("range"), ast.Arg(ast.Int(1000))), ast.Then(
			ast.Aug(ast.ID("n"), "+", ast.Int(1)),
		), ast.ID("i")),
	)
	if kind := evalErrKind(t, mod, interp.Options{MaxSteps: 50}); kind != runtime.ErrInterrupted {
		t.Errorf("kind = %v, want interrupted", kind)
	}
}

func TestNaNRejectedAsDictKey(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("d"), ast.DictE(ast.Entry(ast.Flt(math.NaN()), ast.Int(1)))),
	)
	if kind := evalErrKind(t, mod, interp.Options{}); kind != runtime.ErrType {
		t.Errorf("kind = %v, want type error", kind)
	}
}

func TestNaNComparisonsAreFalse(t *testing.T) {
	nan := ast.Flt(math.NaN())
	// inf - inf, with the infinity produced by in-language overflow
	inf := ast.Bin("+", ast.Flt(1e308), ast.Flt(1e308))
	computedNaN := ast.Bin("-", inf, ast.Bin("+", ast.Flt(1e308), ast.Flt(1e308)))
	mod := ast.Mod(
		ast.Assign(ast.ID("eq"), ast.Cond(ast.Bin("==", nan, nan), ast.Int(1), ast.Int(0))),
		ast.Assign(ast.ID("lt"), ast.Cond(ast.Bin("<", ast.Flt(math.NaN()), ast.Flt(1)), ast.Int(1), ast.Int(0))),
		ast.Assign(ast.ID("eqi"), ast.Cond(ast.Bin("==", computedNaN, ast.Int(1)), ast.Int(1), ast.Int(0))),
		ast.Assign(ast.ID("nei"), ast.Cond(ast.Bin("!=", ast.Flt(math.NaN()), ast.Int(1)), ast.Int(1), ast.Int(0))),
	)
	frozen := evalModule(t, mod)
	if got := getInt(t, frozen, "eq"); got != 0 {
		t.Error("NaN == NaN evaluated true")
	}
	if got := getInt(t, frozen, "lt"); got != 0 {
		t.Error("NaN < 1.0 evaluated true")
	}
	if got := getInt(t, frozen, "eqi"); got != 0 {
		t.Error("NaN == 1 evaluated true")
	}
	if got := getInt(t, frozen, "nei"); got != 1 {
		t.Error("NaN != 1 evaluated false")
	}
}

func TestAugAssignExtendsListInPlace(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("a"), ast.ListE(ast.Int(1))),
		ast.Assign(ast.ID("b"), ast.ID("a")),
		ast.Aug(ast.ID("a"), "+", ast.ListE(ast.Int(2))),
		ast.Assign(ast.ID("n"), ast.Call(ast.ID("len"), ast.Arg(ast.ID("b")))),
	)
	frozen := evalModule(t, mod)
	if got := getInt(t, frozen, "n"); got != 2 {
		t.Errorf("alias saw %d elements after +=, want 2", got)
	}
}

func TestNegativeIndexing(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("l"), ast.ListE(ast.Int(10), ast.Int(20), ast.Int(30))),
		ast.Assign(ast.ID("last"), ast.Index(ast.ID("l"), ast.Int(-1))),
		ast.Assign(ast.ID("s"), ast.Index(ast.Str("abc"), ast.Int(-1))),
	)
	frozen := evalModule(t, mod)
	if got := getInt(t, frozen, "last"); got != 30 {
		t.Errorf("l[-1] = %d, want 30", got)
	}
	if got := getExport(t, frozen, "s").(runtime.StringValue).Val; got != "c" {
		t.Errorf("%q, want %q", got, "c")
	}
}

func TestIndexOutOfRange(t *testing.T) {
	cases := []struct {
		name string
		idx  ast.Expression
	}{
		{"small", ast.Int(5)},
		// larger than a 32-bit int, so the narrowing itself must not wrap
		{"huge", ast.Bin("<<", ast.Int(1), ast.Int(40))},
		{"beyond int64", ast.Bin("*", ast.Bin("<<", ast.Int(1), ast.Int(63)), ast.Int(2))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mod := ast.Mod(
				ast.Assign(ast.ID("l"), ast.ListE(ast.Int(1))),
				ast.Assign(ast.ID("x"), ast.Index(ast.ID("l"), tc.idx)),
			)
			if kind := evalErrKind(t, mod, interp.Options{}); kind != runtime.ErrIndex {
				t.Errorf("kind = %v, want index error", kind)
			}
		})
	}
}

func TestDictInsertionOrderPreserved(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("d"), ast.DictE(
			ast.Entry(ast.Str("z"), ast.Int(1)),
			ast.Entry(ast.Str("a"), ast.Int(2)),
			ast.Entry(ast.Str("m"), ast.Int(3)),
		)),
		ast.Assign(ast.ID("ks"), ast.Call(ast.Attr(ast.ID("d"), "keys"))),
	)
	frozen := evalModule(t, mod)
	keys := getList(t, frozen, "ks")
	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i, w := range want {
		if got := keys[i].(runtime.StringValue).Val; got != w {
			t.Errorf("keys[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestTupleUnpackingInForLoop(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("total"), ast.Int(0)),
		ast.ForS(
			ast.ListE(
				ast.TupleE(ast.Int(1), ast.Int(10)),
				ast.TupleE(ast.Int(2), ast.Int(20)),
			),
			ast.Then(ast.Aug(ast.ID("total"), "+", ast.Bin("*", ast.ID("k"), ast.ID("v")))),
			ast.ID("k"), ast.ID("v"),
		),
	)
	frozen := evalModule(t, mod)
	if got := getInt(t, frozen, "total"); got != 50 {
		t.Errorf("total = %d, want 50", got)
	}
}

func TestShortCircuitEvaluation(t *testing.T) {
	// the right operand would fail, so it must not be evaluated
	mod := ast.Mod(
		ast.Assign(ast.ID("x"), ast.Bin("or", ast.Bool(true), ast.Bin("/", ast.Int(1), ast.Int(0)))),
		ast.Assign(ast.ID("y"), ast.Bin("and", ast.Bool(false), ast.Bin("/", ast.Int(1), ast.Int(0)))),
	)
	frozen := evalModule(t, mod)
	if got := getExport(t, frozen, "x").(runtime.BoolValue); !got.Val {
		t.Error("true or _ = false")
	}
	if got := getExport(t, frozen, "y").(runtime.BoolValue); got.Val {
		t.Error("false and _ = true")
	}
}

func TestConcurrentReadsOfFrozenModule(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("data"), ast.ListComp(
			ast.Bin("*", ast.ID("i"), ast.ID("i")),
			ast.ForC(ast.Call(ast.ID("range"), ast.Arg(ast.Int(100))), ast.ID("i")),
		)),
		ast.Assign(ast.ID("table"), ast.DictE(
			ast.Entry(ast.Str("k"), ast.ListE(ast.Int(1), ast.Int(2))),
		)),
	)
	frozen := evalModule(t, mod)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				data, _ := frozen.Get("data")
				elems, err := runtime.Elements(data)
				if err != nil || len(elems) != 100 {
					t.Errorf("frozen list read failed: %v", err)
					return
				}
				table, _ := frozen.Get("table")
				_ = runtime.Repr(table)
			}
		}()
	}
	wg.Wait()
}

func TestFrozenExportRejectsMutation(t *testing.T) {
	frozen := evalModule(t, ast.Mod(
		ast.Assign(ast.ID("l"), ast.ListE(ast.Int(1))),
	))
	list := getExport(t, frozen, "l").(*runtime.ListValue)
	err := list.Append(runtime.Int(2))
	var re *runtime.Error
	if !errors.As(err, &re) || re.Kind != runtime.ErrType {
		t.Fatalf("err = %v, want frozen type error", err)
	}
}

func TestErrorCarriesCallTrace(t *testing.T) {
	span := ast.Span{Start: ast.Pos{Line: 4, Col: 9}, End: ast.Pos{Line: 4, Col: 14}}
	mod := ast.Mod(
		ast.Def("inner", ast.Params(),
			ast.Ret(ast.At(ast.Bin("/", ast.Int(1), ast.Int(0)), span)),
		),
		ast.Def("outer", ast.Params(), ast.Ret(ast.Call(ast.ID("inner")))),
		ast.Assign(ast.ID("x"), ast.Call(ast.ID("outer"))),
	)
	_, err := interp.Evaluate(context.Background(), mod, nil, interp.Universe(), interp.Options{})
	var ee *interp.EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %T", err)
	}
	if ee.Kind != runtime.ErrDivisionByZero {
		t.Errorf("kind = %v, want division by zero", ee.Kind)
	}
	if ee.Span != span {
		t.Errorf("span = %+v, want %+v", ee.Span, span)
	}
	if len(ee.Trace) != 2 {
		t.Fatalf("trace has %d entries, want 2", len(ee.Trace))
	}
	if ee.Trace[0].Function != "inner" || ee.Trace[1].Function != "outer" {
		t.Errorf("trace = %+v", ee.Trace)
	}
}

func TestTopLevelReturnRejected(t *testing.T) {
	mod := ast.Mod(ast.Ret(ast.Int(1)))
	if kind := evalErrKind(t, mod, interp.Options{}); kind != runtime.ErrType {
		t.Errorf("kind = %v, want type error", kind)
	}
}

func TestInvalidOptions(t *testing.T) {
	if _, err := interp.New(interp.Options{MaxCallDepth: -1}); err == nil {
		t.Error("negative MaxCallDepth accepted")
	}
	if _, err := interp.New(interp.Options{MaxSteps: -1}); err == nil {
		t.Error("negative MaxSteps accepted")
	}
}

func TestSetOperations(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("a"), ast.SetE(ast.Int(1), ast.Int(2), ast.Int(3))),
		ast.Assign(ast.ID("b"), ast.SetE(ast.Int(2), ast.Int(3), ast.Int(4))),
		ast.Assign(ast.ID("u"), ast.Call(ast.ID("len"), ast.Arg(ast.Bin("|", ast.ID("a"), ast.ID("b"))))),
		ast.Assign(ast.ID("i"), ast.Call(ast.ID("len"), ast.Arg(ast.Bin("&", ast.ID("a"), ast.ID("b"))))),
		ast.Assign(ast.ID("d"), ast.Call(ast.ID("len"), ast.Arg(ast.Bin("-", ast.ID("a"), ast.ID("b"))))),
		ast.Assign(ast.ID("has"), ast.Cond(ast.Bin("in", ast.Int(2), ast.ID("a")), ast.Int(1), ast.Int(0))),
	)
	frozen := evalModule(t, mod)
	for name, want := range map[string]int64{"u": 4, "i": 2, "d": 1, "has": 1} {
		if got := getInt(t, frozen, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestDebugHookBreakpoint(t *testing.T) {
	span := ast.Span{Start: ast.Pos{Line: 2, Col: 1}, End: ast.Pos{Line: 2, Col: 10}}
	mod := ast.Mod(
		ast.Assign(ast.ID("a"), ast.Int(1)),
		ast.At(ast.Assign(ast.ID("b"), ast.Int(2)), span),
		ast.Assign(ast.ID("c"), ast.Int(3)),
	)
	hook := &recordingHook{action: interp.DebugContinue}
	in, err := interp.New(interp.Options{Hook: hook})
	if err != nil {
		t.Fatal(err)
	}
	in.SetBreakpoint(2, 0)
	frozen, err := in.EvaluateModule(context.Background(), mod, nil, interp.Universe())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(hook.frames) != 1 {
		t.Fatalf("hook fired %d times, want 1", len(hook.frames))
	}
	f := hook.frames[0]
	if f.Function != "<module>" {
		t.Errorf("frame function = %q", f.Function)
	}
	if got := getInt(t, frozen, "c"); got != 3 {
		t.Errorf("evaluation did not finish after continue")
	}
}

func TestDebugHookStepAndPause(t *testing.T) {
	span := ast.Span{Start: ast.Pos{Line: 1, Col: 1}, End: ast.Pos{Line: 1, Col: 10}}
	mod := ast.Mod(
		ast.At(ast.Assign(ast.ID("a"), ast.Int(1)), span),
		ast.Assign(ast.ID("b"), ast.Int(2)),
		ast.Assign(ast.ID("c"), ast.Int(3)),
	)
	hook := &recordingHook{action: interp.DebugStep, pauseAfter: 2}
	in, err := interp.New(interp.Options{Hook: hook})
	if err != nil {
		t.Fatal(err)
	}
	in.SetBreakpoint(1, 0)
	_, err = in.EvaluateModule(context.Background(), mod, nil, interp.Universe())
	var ee *interp.EvalError
	if !errors.As(err, &ee) || ee.Kind != runtime.ErrInterrupted {
		t.Fatalf("err = %v, want interrupted", err)
	}
	if len(hook.frames) != 2 {
		t.Errorf("hook fired %d times, want 2", len(hook.frames))
	}
}

type recordingHook struct {
	action     interp.DebugAction
	pauseAfter int
	frames     []*interp.FrameSnapshot
}

func (h *recordingHook) OnEvent(event interp.DebugEvent, frame *interp.FrameSnapshot) interp.DebugAction {
	if event != interp.EventStatement {
		return interp.DebugContinue
	}
	h.frames = append(h.frames, frame)
	if h.pauseAfter > 0 && len(h.frames) >= h.pauseAfter {
		return interp.DebugPause
	}
	return h.action
}
