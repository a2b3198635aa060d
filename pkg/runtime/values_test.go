package runtime

import (
	"math"
	"math/big"
	"testing"
)

func TestTruth(t *testing.T) {
	h := NewHeap()
	empty := h.NewList(nil)
	full := h.NewList([]Value{Int(1)})

	cases := []struct {
		v    Value
		want bool
	}{
		{NoneValue{}, false},
		{BoolValue{Val: true}, true},
		{Int(0), false},
		{Int(-3), true},
		{FloatValue{Val: 0.0}, false},
		{FloatValue{Val: math.NaN()}, true},
		{StringValue{}, false},
		{StringValue{Val: "x"}, true},
		{empty, false},
		{full, true},
		{TupleValue{}, false},
		{TupleValue{Elems: []Value{Int(1)}}, true},
	}
	for _, tc := range cases {
		if got := Truth(tc.v); got != tc.want {
			t.Errorf("Truth(%s) = %v, want %v", Repr(tc.v), got, tc.want)
		}
	}
}

func TestEqualDeep(t *testing.T) {
	h := NewHeap()
	a := h.NewList([]Value{Int(1), TupleValue{Elems: []Value{StringValue{Val: "x"}}}})
	b := h.NewList([]Value{Int(1), TupleValue{Elems: []Value{StringValue{Val: "x"}}}})
	eq, err := Equal(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !eq {
		t.Error("structurally equal lists compared unequal")
	}

	c := h.NewList([]Value{Int(2)})
	eq, err = Equal(a, c)
	if err != nil {
		t.Fatal(err)
	}
	if eq {
		t.Error("different lists compared equal")
	}
}

func TestEqualMixedNumeric(t *testing.T) {
	eq, err := Equal(Int(1), FloatValue{Val: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if !eq {
		t.Error("1 != 1.0")
	}

	// 2^60 is exactly representable, 2^60+1 is not: the comparison must
	// stay exact rather than rounding through float64.
	big60 := new(big.Int).Lsh(big.NewInt(1), 60)
	plusOne := new(big.Int).Add(big60, big.NewInt(1))
	f60, _ := new(big.Float).SetInt(big60).Float64()
	eq, err = Equal(IntFromBig(plusOne), FloatValue{Val: f60})
	if err != nil {
		t.Fatal(err)
	}
	if eq {
		t.Error("2^60+1 == float64(2^60)")
	}

	// NaN against an int must compare unequal in both directions rather
	// than reach the exact big.Float comparison.
	for _, pair := range [][2]Value{
		{FloatValue{Val: math.NaN()}, Int(1)},
		{Int(1), FloatValue{Val: math.NaN()}},
	} {
		eq, err = Equal(pair[0], pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if eq {
			t.Errorf("%s == %s", Repr(pair[0]), Repr(pair[1]))
		}
	}
}

func TestCompareOrdering(t *testing.T) {
	cases := []struct {
		op   string
		x, y Value
		want bool
	}{
		{"<", Int(1), Int(2), true},
		{"<", FloatValue{Val: 1.5}, Int(2), true},
		{"<", StringValue{Val: "a"}, StringValue{Val: "b"}, true},
		{">=", BoolValue{Val: true}, BoolValue{Val: false}, true},
		{"<", TupleValue{Elems: []Value{Int(1), Int(2)}}, TupleValue{Elems: []Value{Int(1), Int(3)}}, true},
		{"<", FloatValue{Val: math.NaN()}, FloatValue{Val: 1}, false},
		{">", FloatValue{Val: math.NaN()}, FloatValue{Val: 1}, false},
		{"<", FloatValue{Val: math.NaN()}, Int(1), false},
		{">", Int(1), FloatValue{Val: math.NaN()}, false},
	}
	for _, tc := range cases {
		got, err := CompareOp(tc.op, tc.x, tc.y)
		if err != nil {
			t.Fatalf("%s %s %s: %v", Repr(tc.x), tc.op, Repr(tc.y), err)
		}
		if got != tc.want {
			t.Errorf("%s %s %s = %v, want %v", Repr(tc.x), tc.op, Repr(tc.y), got, tc.want)
		}
	}
}

func TestOrderingErrors(t *testing.T) {
	h := NewHeap()
	if _, err := CompareOp("<", h.NewDict(), h.NewDict()); !isKind(err, ErrType) {
		t.Errorf("dict ordering: %v", err)
	}
	if _, err := CompareOp("<", Int(1), StringValue{Val: "a"}); !isKind(err, ErrType) {
		t.Errorf("cross-type ordering: %v", err)
	}
}

func TestHashInvariants(t *testing.T) {
	h1, err := Hash(Int(1))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(FloatValue{Val: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("hash(1) != hash(1.0) though 1 == 1.0")
	}

	t1, _ := Hash(TupleValue{Elems: []Value{Int(1), StringValue{Val: "x"}}})
	t2, _ := Hash(TupleValue{Elems: []Value{Int(1), StringValue{Val: "x"}}})
	if t1 != t2 {
		t.Error("equal tuples hash differently")
	}
}

func TestHashRejections(t *testing.T) {
	if _, err := Hash(FloatValue{Val: math.NaN()}); !isKind(err, ErrType) {
		t.Errorf("NaN hash: %v", err)
	}
	h := NewHeap()
	if _, err := Hash(h.NewList(nil)); !isKind(err, ErrType) {
		t.Errorf("list hash: %v", err)
	}
	if _, err := Hash(h.NewDict()); !isKind(err, ErrType) {
		t.Errorf("dict hash: %v", err)
	}
}

func TestRepr(t *testing.T) {
	h := NewHeap()
	d := h.NewDict()
	if err := d.SetKey(StringValue{Val: "k"}, h.NewList([]Value{Int(1), NoneValue{}})); err != nil {
		t.Fatal(err)
	}
	if got, want := Repr(d), `{"k": [1, None]}`; got != want {
		t.Errorf("Repr = %s, want %s", got, want)
	}

	cyclic := h.NewList(nil)
	if err := cyclic.Append(cyclic); err != nil {
		t.Fatal(err)
	}
	if got, want := Repr(cyclic), "[[...]]"; got != want {
		t.Errorf("cyclic Repr = %s, want %s", got, want)
	}
}
