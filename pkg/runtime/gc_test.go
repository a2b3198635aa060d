package runtime

import "testing"

func TestCollectReclaimsUnreachable(t *testing.T) {
	h := NewHeap()
	kept := h.NewList([]Value{Int(1)})
	h.NewList([]Value{Int(2)})
	h.NewDict()

	freed := h.Collect(RootSet{Values: []Value{kept}})
	if freed != 2 {
		t.Errorf("freed %d objects, want 2", freed)
	}
	if !h.Owns(kept) {
		t.Error("rooted list was collected")
	}
	if h.Live() != 1 {
		t.Errorf("live = %d, want 1", h.Live())
	}
}

func TestCollectHandlesCycles(t *testing.T) {
	h := NewHeap()
	a := h.NewList(nil)
	b := h.NewList(nil)
	if err := a.Append(b); err != nil {
		t.Fatal(err)
	}
	if err := b.Append(a); err != nil {
		t.Fatal(err)
	}

	if freed := h.Collect(RootSet{Values: []Value{a}}); freed != 0 {
		t.Errorf("reachable cycle freed %d objects", freed)
	}
	if freed := h.Collect(RootSet{}); freed != 2 {
		t.Errorf("unreachable cycle freed %d objects, want 2", freed)
	}
}

func TestCollectTracesCellsAndFunctions(t *testing.T) {
	h := NewHeap()
	captured := h.NewList([]Value{Int(1)})
	cell := h.NewCell(captured)
	def := h.NewDict()
	fn := h.AddFunction(&FunctionValue{
		Name:     "f",
		Defaults: []Value{def},
		Free:     []*Cell{cell},
	})

	if freed := h.Collect(RootSet{Values: []Value{fn}}); freed != 0 {
		t.Errorf("freed %d objects reachable through a function, want 0", freed)
	}
	if !h.Owns(captured) || !h.Owns(def) {
		t.Error("values reachable through the function were collected")
	}
}

func TestCollectRespectsPins(t *testing.T) {
	h := NewHeap()
	pinned := h.NewList([]Value{Int(1)})
	h.Pin(pinned)

	if freed := h.Collect(RootSet{}); freed != 0 {
		t.Errorf("pinned object freed, count %d", freed)
	}
	h.Unpin(pinned)
	if freed := h.Collect(RootSet{}); freed != 1 {
		t.Errorf("unpinned object survived, freed %d", freed)
	}
}

func TestCollectTraversesTuples(t *testing.T) {
	h := NewHeap()
	inner := h.NewList([]Value{Int(1)})
	holder := h.NewList([]Value{TupleValue{Elems: []Value{inner}}})

	if freed := h.Collect(RootSet{Values: []Value{holder}}); freed != 0 {
		t.Errorf("freed %d, want 0", freed)
	}
	if !h.Owns(inner) {
		t.Error("list reachable through a tuple was collected")
	}
}

func TestCollectRootCells(t *testing.T) {
	h := NewHeap()
	v := h.NewSet()
	cell := h.NewCell(v)

	if freed := h.Collect(RootSet{Cells: []*Cell{cell}}); freed != 0 {
		t.Errorf("freed %d, want 0", freed)
	}
	if freed := h.Collect(RootSet{}); freed != 1 {
		t.Errorf("freed %d after dropping root, want 1", freed)
	}
}
